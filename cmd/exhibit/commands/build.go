package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wushici/exhibit-kit/cmd/exhibit/ui"
	"github.com/wushici/exhibit-kit/internal/catalog"
)

var (
	buildRoot   string
	buildOutput string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the artifact catalog JSON",
	Long: `Build joins the exhibit images, info images, extracted info texts, the markdown
index and the per-page book transcriptions into one catalog document, writing
resized WebP variants of every image into the cache directories.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildRoot, "root", "", "project root (overrides config)")
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "output JSON path (overrides config)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	if buildRoot != "" {
		cfg.Root = buildRoot
	}
	if buildOutput != "" {
		cfg.Catalog.Output = buildOutput
	}

	ui.Section("Catalog Build")
	ui.Info("Root: %s", cfg.Root)

	start := time.Now()
	ui.Step("Assembling artifacts and image variants")
	builder := catalog.NewBuilder(cfg, logger, catalog.WithProgress(ui.NewBuildProgress("artifacts")))
	result, err := builder.Build(cmd.Context())
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}

	output := cfg.Path(cfg.Catalog.Output)
	ui.Step("Writing %s", output)
	if err := catalog.WriteFile(result.Document, output); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}

	stats := result.Stats
	ui.Newline()
	ui.Table([]string{"Metric", "Value"}, [][]string{
		{"Artifacts", itoa(stats.Artifacts)},
		{"Indexed", itoa(stats.Indexed)},
		{"PDF pages", itoa(result.Document.PDFTotalPages)},
		{"Variant failures", itoa(stats.VariantFailures)},
		{"Duplicate index rows", itoa(stats.DuplicateRows)},
		{"Duplicate page files", itoa(stats.DuplicatePages)},
		{"Duration", ui.FormatDuration(time.Since(start))},
	})
	ui.Newline()

	if result.Document.PDFSource == "" {
		ui.Warning("PDF source not published (missing or larger than %d bytes)", cfg.Catalog.MaxPDFSize)
	}
	if stats.VariantFailures > 0 {
		ui.Warning("%d image variants could not be generated", stats.VariantFailures)
	}
	ui.Success("Catalog written to %s", output)
	return nil
}
