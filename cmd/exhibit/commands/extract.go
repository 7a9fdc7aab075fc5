package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wushici/exhibit-kit/cmd/exhibit/ui"
	"github.com/wushici/exhibit-kit/internal/extract"
)

var (
	extractOutputDir    string
	extractNoPreprocess bool
	extractEnhance      bool
	extractPreview      bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <image-or-dir>",
	Short: "Transcribe text from exhibit images",
	Long: `Extract sends each image to the extraction service and writes the text to
<name>.txt. A directory is processed as a batch, skipping images whose text file
already exists. --preview prints the text of a single image without saving it.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutputDir, "output", "o", "", "output directory")
	extractCmd.Flags().BoolVar(&extractNoPreprocess, "no-preprocess", false, "send images without resizing")
	extractCmd.Flags().BoolVar(&extractEnhance, "enhance", false, "raise contrast and sharpen before sending")
	extractCmd.Flags().BoolVar(&extractPreview, "preview", false, "print text of a single image without saving")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	input := args[0]
	info, err := os.Stat(input)
	if err != nil {
		return fmt.Errorf("input does not exist: %s", input)
	}

	runner := extract.NewBatchRunner(newClient(), cfg, logger)
	opts := extract.Options{
		OutputDir:  extractOutputDir,
		Preprocess: cfg.Preprocess.Enabled && !extractNoPreprocess,
		Enhance:    cfg.Preprocess.Enhance || extractEnhance,
	}

	if info.IsDir() {
		if extractPreview {
			return fmt.Errorf("--preview needs a single image, got directory %s", input)
		}
		return runBatch(cmd, runner, input, opts)
	}

	if extractPreview {
		spin := ui.NewSpinner("Extracting text...")
		spin.Start()
		text, err := runner.Preview(cmd.Context(), input)
		spin.Stop()
		if err != nil {
			return fmt.Errorf("extract %s: %w", input, err)
		}
		ui.Section("Extracted Text")
		ui.Message("%s", text)
		return nil
	}

	spin := ui.NewSpinner(fmt.Sprintf("Extracting %s...", input))
	spin.Start()
	out, skipped, err := runner.ExtractSingle(cmd.Context(), input, opts)
	spin.Stop()
	if err != nil {
		return fmt.Errorf("extract %s: %w", input, err)
	}
	if skipped {
		ui.Info("Output already exists: %s", out)
		return nil
	}
	ui.Success("Text saved to %s", out)
	return nil
}

func runBatch(cmd *cobra.Command, runner *extract.BatchRunner, dir string, opts extract.Options) error {
	ui.Section("Batch Extraction")
	ui.Info("Input: %s", dir)

	start := time.Now()
	bar := startEventBar("extracting")
	result, err := runner.Run(cmd.Context(), dir, opts, bar.events)
	bar.stop()
	if err != nil {
		return fmt.Errorf("batch extraction: %w", err)
	}

	if result.Total == 0 {
		ui.Warning("No supported images found in %s", dir)
		return nil
	}

	ui.Newline()
	ui.Table([]string{"Metric", "Value"}, [][]string{
		{"Total", itoa(result.Total)},
		{"Success", itoa(result.Success)},
		{"Failed", itoa(result.Failed)},
		{"Output", result.OutputDir},
		{"Duration", ui.FormatDuration(time.Since(start))},
	})

	if result.Failed > 0 {
		ui.Newline()
		ui.Warning("Failed files:")
		fmt.Print(ui.FormatList(result.FailedFiles))
		return errItemsFailed
	}
	ui.Newline()
	ui.Success("All images processed")
	return nil
}
