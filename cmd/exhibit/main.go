package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/wushici/exhibit-kit/cmd/exhibit/commands"
	"github.com/wushici/exhibit-kit/cmd/exhibit/ui"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx, version); err != nil {
		ui.Error("%v", err)
		os.Exit(1)
	}
}
