package media

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/wushici/exhibit-kit/internal/config"
	"github.com/wushici/exhibit-kit/internal/domain"
)

// PreprocessOptions selects the transformations applied before extraction.
type PreprocessOptions struct {
	Resize  bool // shrink to fit the configured bounding box
	Enhance bool // raise contrast and sharpen
}

// Preprocessor prepares images for the extraction API.
type Preprocessor struct {
	cfg    config.PreprocessConfig
	tmpDir string
}

// NewPreprocessor creates a Preprocessor. Temporary files go to the system temp dir.
func NewPreprocessor(cfg config.PreprocessConfig) *Preprocessor {
	return &Preprocessor{cfg: cfg}
}

// IsSupported reports whether path has one of the configured image extensions.
func (p *Preprocessor) IsSupported(path string) bool {
	return IsSupportedFormat(path, p.cfg.SupportedExtensions)
}

// IsSupportedFormat reports whether path's lower-cased extension is in exts.
func IsSupportedFormat(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// Prepare writes a preprocessed JPEG copy of src to a temporary file and returns
// its path and a cleanup func. When no option is set, src itself is returned.
// On error the returned path is src and cleanup is a no-op.
func (p *Preprocessor) Prepare(src string, opts PreprocessOptions) (string, func(), error) {
	noop := func() {}
	if !opts.Resize && !opts.Enhance {
		return src, noop, nil
	}

	img, err := imaging.Open(src)
	if err != nil {
		return src, noop, domain.ConversionError(fmt.Sprintf("decode %s", filepath.Base(src)), err)
	}

	img = Flatten(img)

	if opts.Resize {
		img = Fit(img, p.cfg.MaxWidth, p.cfg.MaxHeight)
	}

	if opts.Enhance {
		img = p.enhance(img)
	}

	tmp, err := os.CreateTemp(p.tmpDir, "exhibit-pre-*.jpg")
	if err != nil {
		return src, noop, domain.IOError("create temp image", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	cleanup := func() { os.Remove(tmpPath) }

	if err := imaging.Save(img, tmpPath, imaging.JPEGQuality(p.cfg.JPEGQuality)); err != nil {
		cleanup()
		return src, noop, domain.ConversionError("encode preprocessed image", err)
	}

	return tmpPath, cleanup, nil
}

func (p *Preprocessor) enhance(img image.Image) image.Image {
	out := imaging.AdjustContrast(img, p.cfg.Contrast)
	if p.cfg.Sharpen > 0 {
		out = imaging.Sharpen(out, p.cfg.Sharpen)
	}
	return out
}
