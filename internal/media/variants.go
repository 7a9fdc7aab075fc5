// Package media resizes and re-encodes exhibit images.
package media

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"

	"github.com/wushici/exhibit-kit/internal/config"
	"github.com/wushici/exhibit-kit/internal/observability"
)

// webpMethod trades encode speed for size; 6 is the slowest, smallest setting.
const webpMethod = 6

// FailureReason tells why a variant set could not be produced.
type FailureReason string

const (
	ReasonNone          FailureReason = ""
	ReasonSourceMissing FailureReason = "source-missing"
	ReasonDecodeFailed  FailureReason = "decode-failed"
	ReasonEncodeFailed  FailureReason = "encode-failed"
	ReasonWriteFailed   FailureReason = "write-failed"
)

// Result is the outcome of one Generate call. Files is keyed by tier name and
// holds the written file names relative to the cache directory. On any failure
// Files is empty.
type Result struct {
	Files  map[string]string
	Reason FailureReason
	Err    error
}

// OK reports whether every tier was written.
func (r Result) OK() bool {
	return r.Reason == ReasonNone
}

// File returns the written file name for tier, or "".
func (r Result) File(tier string) string {
	if r.Files == nil {
		return ""
	}
	return r.Files[tier]
}

// VariantGenerator writes fit-within WebP copies of a source image, one per tier.
type VariantGenerator struct {
	dir    string
	tiers  []config.VariantTier
	logger *observability.Logger
}

// NewVariantGenerator creates a generator writing into dir.
func NewVariantGenerator(dir string, tiers []config.VariantTier, logger *observability.Logger) *VariantGenerator {
	if logger == nil {
		logger = observability.Nop()
	}
	return &VariantGenerator{
		dir:    dir,
		tiers:  tiers,
		logger: logger.WithComponent("variants"),
	}
}

// Dir returns the cache directory.
func (g *VariantGenerator) Dir() string {
	return g.dir
}

// VariantFileName returns the cache file name for an artifact id at a tier size.
func VariantFileName(id string, size int) string {
	return fmt.Sprintf("%s-%d.webp", id, size)
}

// Generate produces every tier for src. Failures never propagate; they are
// reported through Result and logged.
func (g *VariantGenerator) Generate(src, id string) Result {
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{Reason: ReasonSourceMissing}
		}
		return g.fail(src, id, ReasonDecodeFailed, err)
	}

	img, err := imaging.Open(src)
	if err != nil {
		return g.fail(src, id, ReasonDecodeFailed, err)
	}

	files := make(map[string]string, len(g.tiers))
	written := make([]string, 0, len(g.tiers))
	for _, tier := range g.tiers {
		name := VariantFileName(id, tier.Size)
		path := filepath.Join(g.dir, name)

		out := Fit(img, tier.Size, tier.Size)
		if tier.Flatten {
			out = Flatten(out)
		}

		if reason, err := writeWebP(path, out, tier.Quality); err != nil {
			removeAll(written)
			return g.fail(src, id, reason, err)
		}
		written = append(written, path)
		files[tier.Name] = name
	}

	g.logger.Debug().
		Str("artifact_id", id).
		Str("source", filepath.Base(src)).
		Int("tiers", len(files)).
		Msg("variants written")

	return Result{Files: files}
}

func (g *VariantGenerator) fail(src, id string, reason FailureReason, err error) Result {
	g.logger.Warn().
		Str("artifact_id", id).
		Str("source", src).
		Str("reason", string(reason)).
		Err(err).
		Msg("variant generation failed")
	return Result{Reason: reason, Err: err}
}

// Fit scales img down to fit within maxW x maxH using Lanczos. Smaller images are returned as-is.
func Fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return img
	}
	return imaging.Fit(img, maxW, maxH, imaging.Lanczos)
}

// Flatten composites img over an opaque white background.
func Flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func writeWebP(path string, img image.Image, quality int) (FailureReason, error) {
	f, err := os.Create(path)
	if err != nil {
		return ReasonWriteFailed, err
	}

	if err := webp.Encode(f, img, webp.Options{Quality: quality, Method: webpMethod}); err != nil {
		f.Close()
		os.Remove(path)
		return ReasonEncodeFailed, err
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return ReasonWriteFailed, err
	}
	return ReasonNone, nil
}

func removeAll(paths []string) {
	for _, p := range paths {
		os.Remove(p)
	}
}

// PrepareCacheDirs removes and recreates each directory.
func PrepareCacheDirs(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("clear cache dir %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache dir %s: %w", dir, err)
		}
	}
	return nil
}
