// Package extract runs text extraction over image directories and PDF pages.
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
	"github.com/wushici/exhibit-kit/internal/media"
	"github.com/wushici/exhibit-kit/internal/observability"
)

// Options controls one image extraction run.
type Options struct {
	OutputDir  string // defaults next to the input
	Preprocess bool
	Enhance    bool
}

// BatchRunner extracts text from images one file at a time.
type BatchRunner struct {
	extractor domain.TextExtractor
	pre       *media.Preprocessor
	prompt    string
	exts      []string
	outDir    string
	logger    *observability.Logger
}

// NewBatchRunner creates a runner over the given extractor.
func NewBatchRunner(extractor domain.TextExtractor, cfg *config.Config, logger *observability.Logger) *BatchRunner {
	if logger == nil {
		logger = observability.Nop()
	}
	return &BatchRunner{
		extractor: extractor,
		pre:       media.NewPreprocessor(cfg.Preprocess),
		prompt:    cfg.Extraction.Prompt,
		exts:      cfg.Preprocess.SupportedExtensions,
		outDir:    cfg.Preprocess.OutputDirName,
		logger:    logger.WithComponent("batch"),
	}
}

// Run extracts every supported image directly inside inputDir. Files whose output
// already exists count as successes. Per-file failures are recorded and the run continues.
func (r *BatchRunner) Run(ctx context.Context, inputDir string, opts Options, eventCh chan<- domain.RunEvent) (*domain.BatchResult, error) {
	images, err := ScanImages(inputDir, r.exts)
	if err != nil {
		return nil, err
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(inputDir, r.outDir)
	}

	result := &domain.BatchResult{
		Total:       len(images),
		FailedFiles: []string{},
		OutputDir:   outputDir,
	}
	if len(images) == 0 {
		r.logger.Warn().Str("dir", inputDir).Msg("no supported images found")
		return result, nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, domain.IOError(fmt.Sprintf("create output directory %s", outputDir), err)
	}

	r.logger.Info().
		Str("dir", inputDir).
		Int("images", len(images)).
		Str("output", outputDir).
		Bool("preprocess", opts.Preprocess).
		Bool("enhance", opts.Enhance).
		Msg("starting batch")
	emitEvent(eventCh, r.logger, domain.RunEvent{Type: domain.EventStart, Total: len(images)})

	if r.needsExtraction(images, outputDir) {
		if err := r.extractor.Ping(ctx); err != nil {
			err = domain.ExtractionError("extraction service unreachable", err)
			r.logger.Error().Err(err).Msg("skipping batch")
			for _, img := range images {
				result.FailedFiles = append(result.FailedFiles, filepath.Base(img))
			}
			result.Failed = len(images)
			emitEvent(eventCh, r.logger, domain.RunEvent{Type: domain.EventError, Total: len(images), Err: err})
			emitEvent(eventCh, r.logger, domain.RunEvent{Type: domain.EventComplete, Total: len(images)})
			return result, nil
		}
	}

	for i, img := range images {
		if err := ctx.Err(); err != nil {
			result.Failed = result.Total - result.Success
			return result, err
		}

		name := filepath.Base(img)
		skipped, err := r.extractOne(ctx, img, outputDir, opts)
		event := domain.RunEvent{Item: name, Index: i + 1, Total: len(images)}
		switch {
		case err != nil:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				result.Failed = result.Total - result.Success
				return result, err
			}
			r.logger.Error().Str("file", name).Err(err).Msg("extraction failed")
			result.FailedFiles = append(result.FailedFiles, name)
			event.Type, event.Err = domain.EventError, err
		case skipped:
			r.logger.Debug().Str("file", name).Msg("output exists, skipping")
			result.Success++
			event.Type = domain.EventItemSkipped
		default:
			result.Success++
			event.Type = domain.EventItemComplete
		}
		emitEvent(eventCh, r.logger, event)
	}

	result.Failed = result.Total - result.Success
	r.logger.Info().
		Int("total", result.Total).
		Int("success", result.Success).
		Int("failed", result.Failed).
		Strs("failed_files", result.FailedFiles).
		Msg("batch finished")
	emitEvent(eventCh, r.logger, domain.RunEvent{Type: domain.EventComplete, Total: result.Total})
	return result, nil
}

// ExtractSingle extracts one image and returns the output path. outputDir defaults
// to the image's directory. skipped reports that the output already existed.
func (r *BatchRunner) ExtractSingle(ctx context.Context, imagePath string, opts Options) (output string, skipped bool, err error) {
	if err := r.checkImage(imagePath); err != nil {
		return "", false, err
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = filepath.Dir(imagePath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", false, domain.IOError(fmt.Sprintf("create output directory %s", outputDir), err)
	}

	skipped, err = r.extractOne(ctx, imagePath, outputDir, opts)
	if err != nil {
		return "", false, err
	}
	return outputPath(imagePath, outputDir), skipped, nil
}

// Preview extracts one image without preprocessing and without writing anything.
func (r *BatchRunner) Preview(ctx context.Context, imagePath string) (string, error) {
	if err := r.checkImage(imagePath); err != nil {
		return "", err
	}
	text, err := r.extractor.ExtractText(ctx, imagePath, r.prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (r *BatchRunner) checkImage(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return domain.ValidationError(fmt.Sprintf("image does not exist: %s", path), err)
	}
	if info.IsDir() {
		return domain.ValidationError(fmt.Sprintf("not a file: %s", path), nil)
	}
	if !media.IsSupportedFormat(path, r.exts) {
		return domain.ValidationError(fmt.Sprintf("unsupported image format: %s", filepath.Ext(path)), nil)
	}
	return nil
}

// extractOne writes <stem>.txt for src into outputDir unless it already exists.
func (r *BatchRunner) extractOne(ctx context.Context, src, outputDir string, opts Options) (bool, error) {
	out := outputPath(src, outputDir)
	if fileExists(out) {
		return true, nil
	}

	target, cleanup, err := r.pre.Prepare(src, media.PreprocessOptions{Resize: opts.Preprocess, Enhance: opts.Enhance})
	defer cleanup()
	if err != nil {
		r.logger.Warn().Str("file", filepath.Base(src)).Err(err).Msg("preprocessing failed, using original image")
	}

	text, err := r.extractor.ExtractText(ctx, target, r.prompt)
	if err != nil {
		return false, err
	}

	if err := writeText(out, strings.TrimSpace(text)); err != nil {
		return false, err
	}
	r.logger.Info().Str("file", filepath.Base(src)).Str("output", out).Msg("text extracted")
	return false, nil
}

func (r *BatchRunner) needsExtraction(images []string, outputDir string) bool {
	for _, img := range images {
		if !fileExists(outputPath(img, outputDir)) {
			return true
		}
	}
	return false
}

func outputPath(src, outputDir string) string {
	base := filepath.Base(src)
	return filepath.Join(outputDir, strings.TrimSuffix(base, filepath.Ext(base))+".txt")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
