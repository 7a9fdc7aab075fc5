package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wushici/exhibit-kit/cmd/exhibit/ui"
	"github.com/wushici/exhibit-kit/internal/media"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <image>",
	Short: "Show image dimensions, color model and size",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	info, err := media.Inspect(args[0])
	if err != nil {
		return err
	}

	ui.Table([]string{"Property", "Value"}, [][]string{
		{"Width", itoa(info.Width)},
		{"Height", itoa(info.Height)},
		{"Mode", info.Mode},
		{"Format", info.Format},
		{"Size", fmt.Sprintf("%.2f MB", info.SizeMB)},
	})
	return nil
}
