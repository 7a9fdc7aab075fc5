package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wushici/exhibit-kit/cmd/exhibit/ui"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the extraction service is reachable",
	Args:  cobra.NoArgs,
	RunE:  runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, args []string) error {
	client := newClient()

	spin := ui.NewSpinner(fmt.Sprintf("Contacting %s...", cfg.Extraction.BaseURL))
	spin.Start()
	err := client.Ping(cmd.Context())
	spin.Stop()
	if err != nil {
		return fmt.Errorf("extraction service unreachable: %w", err)
	}

	ui.Success("Extraction service reachable")
	ui.KeyValue("URL", cfg.Extraction.BaseURL)
	ui.KeyValue("Model", cfg.Extraction.Model)
	ui.KeyValue("Protocol", client.Provider())
	return nil
}
