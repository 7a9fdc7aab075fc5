// Package pdf renders PDF pages to images using MuPDF through go-fitz.
package pdf

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"

	"github.com/wushici/exhibit-kit/internal/domain"
	"github.com/wushici/exhibit-kit/internal/observability"
)

// Rasterizer opens PDF documents with go-fitz.
type Rasterizer struct {
	validator *Validator
	logger    *observability.Logger
}

// NewRasterizer creates a new PDF rasterizer
func NewRasterizer(logger *observability.Logger) *Rasterizer {
	if logger == nil {
		logger = observability.Nop()
	}
	logger = logger.WithComponent("pdf")
	return &Rasterizer{
		validator: NewValidator(logger),
		logger:    logger,
	}
}

var _ domain.Rasterizer = (*Rasterizer)(nil)

// Open validates and opens the PDF at path. The caller must Close the document.
func (r *Rasterizer) Open(path string) (domain.Document, error) {
	if err := r.validator.ValidatePDFPath(path); err != nil {
		return nil, err
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, domain.ConversionError("Failed to open PDF", err)
	}

	r.logger.Debug().Str("pdf", path).Int("pages", doc.NumPage()).Msg("PDF opened")
	return &Document{doc: doc, validator: r.validator}, nil
}

// Document is an opened PDF.
type Document struct {
	doc       *fitz.Document
	validator *Validator
}

// NumPage returns the number of pages.
func (d *Document) NumPage() int {
	return d.doc.NumPage()
}

// RenderPage renders the zero-based page index at dpi and saves it as PNG in dir.
func (d *Document) RenderPage(ctx context.Context, index int, dpi float64, dir string) (domain.PageImage, error) {
	if err := ctx.Err(); err != nil {
		return domain.PageImage{}, err
	}
	if err := d.validator.ValidateDPI(dpi); err != nil {
		return domain.PageImage{}, err
	}
	if index < 0 || index >= d.doc.NumPage() {
		return domain.PageImage{}, domain.ValidationError(fmt.Sprintf("page index %d out of range", index), nil)
	}

	img, err := d.doc.ImageDPI(index, dpi)
	if err != nil {
		return domain.PageImage{}, domain.ConversionError(fmt.Sprintf("Failed to render page %d", index+1), err)
	}

	outputPath := filepath.Join(dir, fmt.Sprintf("page_%03d.png", index+1))
	if err := imaging.Save(img, outputPath); err != nil {
		return domain.PageImage{}, domain.IOError(fmt.Sprintf("Failed to save page %d", index+1), err)
	}

	bounds := img.Bounds()
	return domain.PageImage{
		PageNumber: index + 1,
		ImagePath:  outputPath,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
	}, nil
}

// Close releases the document.
func (d *Document) Close() error {
	return d.doc.Close()
}
