// Package ui provides terminal output for the exhibit CLI.
package ui

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// InitUI applies the color setting.
func InitUI(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

// IsTerminal reports whether stderr is attached to a terminal.
func IsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
