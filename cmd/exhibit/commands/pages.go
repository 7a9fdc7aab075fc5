package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wushici/exhibit-kit/cmd/exhibit/ui"
	"github.com/wushici/exhibit-kit/internal/extract"
	"github.com/wushici/exhibit-kit/internal/pdf"
)

var (
	pagesOutputDir string
	pagesDPI       int
)

var pagesCmd = &cobra.Command{
	Use:   "pages <pdf>",
	Short: "Transcribe a PDF page by page",
	Long: `Pages rasterizes every page of the PDF and transcribes it into 第N页.txt,
passing a one-line summary of the previous page along with each request.
Pages that already have a text file are not sent again.`,
	Args: cobra.ExactArgs(1),
	RunE: runPages,
}

func init() {
	pagesCmd.Flags().StringVarP(&pagesOutputDir, "output", "o", "", "output directory")
	pagesCmd.Flags().IntVar(&pagesDPI, "dpi", 0, "render resolution (default from config)")
	rootCmd.AddCommand(pagesCmd)
}

func runPages(cmd *cobra.Command, args []string) error {
	pdfPath := args[0]

	validator := pdf.NewValidator(logger)
	if err := validator.ValidatePDFPath(pdfPath); err != nil {
		return err
	}
	if pagesDPI != 0 {
		if err := validator.ValidateDPI(float64(pagesDPI)); err != nil {
			return err
		}
	}

	ui.Section("Page Extraction")
	ui.Info("PDF: %s", pdfPath)

	dpi := pagesDPI
	if dpi == 0 {
		dpi = cfg.Pages.DPI
	}
	ui.Step("Rendering pages at %d dpi", dpi)

	runner := extract.NewPageRunner(pdf.NewRasterizer(logger), newClient(), cfg, logger)

	start := time.Now()
	bar := startEventBar("pages")
	result, err := runner.Run(cmd.Context(), pdfPath, extract.PageOptions{OutputDir: pagesOutputDir, DPI: pagesDPI}, bar.events)
	bar.stop()
	if err != nil {
		return fmt.Errorf("page extraction: %w", err)
	}

	ui.Newline()
	ui.Table([]string{"Metric", "Value"}, [][]string{
		{"Pages", itoa(result.Total)},
		{"Success", itoa(result.Success)},
		{"Failed", itoa(result.Failed)},
		{"Output", result.OutputDir},
		{"Duration", ui.FormatDuration(time.Since(start))},
	})

	if result.Failed > 0 {
		failed := make([]string, 0, len(result.FailedPages))
		for _, p := range result.FailedPages {
			failed = append(failed, strconv.Itoa(p))
		}
		ui.Newline()
		ui.Warning("Failed pages:")
		fmt.Print(ui.FormatList(failed))
		return errItemsFailed
	}
	ui.Newline()
	ui.Success("All pages processed")
	return nil
}
