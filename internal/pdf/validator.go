package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wushici/exhibit-kit/internal/config"
	"github.com/wushici/exhibit-kit/internal/domain"
	"github.com/wushici/exhibit-kit/internal/observability"
)

// largePDFSize is the size above which a warning is logged before rendering.
const largePDFSize = 100 * 1024 * 1024

// Validator provides input validation for PDF files
type Validator struct {
	logger *observability.Logger
}

// NewValidator creates a new validator instance
func NewValidator(logger *observability.Logger) *Validator {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Validator{logger: logger}
}

// ValidatePDFPath validates that a file path is valid and points to a PDF
func (v *Validator) ValidatePDFPath(path string) error {
	// Check if path is empty
	if strings.TrimSpace(path) == "" {
		return domain.ValidationError("file path cannot be empty", nil)
	}

	// Check if file exists
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ValidationError(fmt.Sprintf("file does not exist: %s", path), err)
		}
		return domain.ValidationError(fmt.Sprintf("cannot access file: %s", path), err)
	}

	// Check if it's a directory
	if info.IsDir() {
		return domain.ValidationError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}

	// Check file extension
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".pdf" {
		return domain.ValidationError(fmt.Sprintf("file is not a PDF (has extension %s)", ext), nil)
	}

	if info.Size() > largePDFSize {
		v.logger.Warn().
			Str("pdf", path).
			Float64("size_mb", float64(info.Size())/(1024*1024)).
			Msg("PDF file is very large, rendering may take a while")
	}

	return nil
}

// ValidateDPI validates the render resolution
func (v *Validator) ValidateDPI(dpi float64) error {
	if dpi < config.MinDPI || dpi > config.MaxDPI {
		return domain.ValidationError(fmt.Sprintf("dpi must be between %d and %d, got %v", config.MinDPI, config.MaxDPI, dpi), nil)
	}
	return nil
}
