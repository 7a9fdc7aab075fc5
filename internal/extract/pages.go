package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wushici/exhibit-kit/internal/config"
	"github.com/wushici/exhibit-kit/internal/domain"
	"github.com/wushici/exhibit-kit/internal/observability"
)

// PageOptions controls one PDF page run.
type PageOptions struct {
	OutputDir string // defaults to <pdf dir>/page_texts
	DPI       int    // defaults to the configured DPI
}

// PageRunner extracts text page by page from a PDF, feeding each page's
// one-line summary into the prompt for the next page.
type PageRunner struct {
	rasterizer domain.Rasterizer
	extractor  domain.TextExtractor
	prompt     string
	cfg        config.PagesConfig
	logger     *observability.Logger
}

// NewPageRunner creates a page runner.
func NewPageRunner(rasterizer domain.Rasterizer, extractor domain.TextExtractor, cfg *config.Config, logger *observability.Logger) *PageRunner {
	if logger == nil {
		logger = observability.Nop()
	}
	return &PageRunner{
		rasterizer: rasterizer,
		extractor:  extractor,
		prompt:     cfg.Extraction.PagePrompt,
		cfg:        cfg.Pages,
		logger:     logger.WithComponent("pages"),
	}
}

// PageFileName returns the output file name for the 1-based page number.
func (r *PageRunner) PageFileName(page int) string {
	return fmt.Sprintf(r.cfg.FileFormat, page)
}

// Run extracts every page of pdfPath. Pages whose output already exists are
// not sent again; their text still seeds the summary for the following page.
func (r *PageRunner) Run(ctx context.Context, pdfPath string, opts PageOptions, eventCh chan<- domain.RunEvent) (*domain.PageRunResult, error) {
	if _, err := os.Stat(pdfPath); err != nil {
		return nil, domain.ValidationError(fmt.Sprintf("PDF does not exist: %s", pdfPath), err)
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(filepath.Dir(pdfPath), r.cfg.OutputDirName)
	}
	dpi := opts.DPI
	if dpi <= 0 {
		dpi = r.cfg.DPI
	}

	doc, err := r.rasterizer.Open(pdfPath)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, domain.IOError(fmt.Sprintf("create output directory %s", outputDir), err)
	}

	total := doc.NumPage()
	result := &domain.PageRunResult{
		Total:       total,
		FailedPages: []int{},
		OutputDir:   outputDir,
	}

	r.logger.Info().Str("pdf", pdfPath).Int("pages", total).Int("dpi", dpi).Str("output", outputDir).Msg("starting page run")
	emitEvent(eventCh, r.logger, domain.RunEvent{Type: domain.EventStart, Total: total})

	if r.needsExtraction(total, outputDir) {
		if err := r.extractor.Ping(ctx); err != nil {
			err = domain.ExtractionError("extraction service unreachable", err)
			r.logger.Error().Err(err).Msg("skipping pages")
			for page := 1; page <= total; page++ {
				result.FailedPages = append(result.FailedPages, page)
			}
			result.Failed = total
			emitEvent(eventCh, r.logger, domain.RunEvent{Type: domain.EventError, Total: total, Err: err})
			emitEvent(eventCh, r.logger, domain.RunEvent{Type: domain.EventComplete, Total: total})
			return result, nil
		}
	}

	tmpDir, err := os.MkdirTemp("", "exhibit-pages-*")
	if err != nil {
		return nil, domain.IOError("create temp directory", err)
	}
	defer os.RemoveAll(tmpDir)

	summary := ""
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			result.Failed = total - result.Success
			return result, err
		}

		page := i + 1
		name := r.PageFileName(page)
		out := filepath.Join(outputDir, name)
		event := domain.RunEvent{Item: name, Index: page, Total: total}

		if data, err := os.ReadFile(out); err == nil {
			r.logger.Debug().Int("page", page).Msg("output exists, skipping")
			if s := SummaryLine(string(data), r.cfg.SummaryMaxRunes); s != "" {
				summary = s
			}
			result.Success++
			event.Type = domain.EventItemSkipped
			emitEvent(eventCh, r.logger, event)
			continue
		}

		text, err := r.extractPage(ctx, doc, i, total, float64(dpi), tmpDir, summary)
		if err == nil {
			err = writeText(out, text)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				result.Failed = total - result.Success
				return result, err
			}
			r.logger.Error().Int("page", page).Err(err).Msg("page extraction failed")
			result.FailedPages = append(result.FailedPages, page)
			event.Type, event.Err = domain.EventError, err
			emitEvent(eventCh, r.logger, event)
			continue
		}

		// pages with only a heading keep the previous summary
		if s := SummaryLine(text, r.cfg.SummaryMaxRunes); s != "" {
			summary = s
		}
		result.Success++
		r.logger.Info().Int("page", page).Str("output", out).Msg("page extracted")
		event.Type = domain.EventItemComplete
		emitEvent(eventCh, r.logger, event)
	}

	result.Failed = total - result.Success
	r.logger.Info().
		Int("total", result.Total).
		Int("success", result.Success).
		Int("failed", result.Failed).
		Ints("failed_pages", result.FailedPages).
		Msg("page run finished")
	emitEvent(eventCh, r.logger, domain.RunEvent{Type: domain.EventComplete, Total: total})
	return result, nil
}

// extractPage renders one page into tmpDir, extracts it and removes the image.
func (r *PageRunner) extractPage(ctx context.Context, doc domain.Document, index, total int, dpi float64, tmpDir, previous string) (string, error) {
	img, err := doc.RenderPage(ctx, index, dpi, tmpDir)
	if err != nil {
		return "", err
	}
	defer os.Remove(img.ImagePath)

	prompt := RenderPagePrompt(r.prompt, index+1, total, previous)
	text, err := r.extractor.ExtractText(ctx, img.ImagePath, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (r *PageRunner) needsExtraction(total int, outputDir string) bool {
	for page := 1; page <= total; page++ {
		if !fileExists(filepath.Join(outputDir, r.PageFileName(page))) {
			return true
		}
	}
	return false
}

func writeText(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return domain.IOError(fmt.Sprintf("write %s", path), err)
	}
	return nil
}
