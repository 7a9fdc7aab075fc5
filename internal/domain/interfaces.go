package domain

import "context"

// TextExtractor turns an image into transcribed text.
type TextExtractor interface {
	// ExtractText sends the image together with prompt and returns the model's text.
	ExtractText(ctx context.Context, imagePath, prompt string) (string, error)

	// Ping checks that the extraction service is reachable.
	Ping(ctx context.Context) error
}

// Rasterizer opens PDF documents for page rendering.
type Rasterizer interface {
	Open(pdfPath string) (Document, error)
}

// Document is an opened PDF.
type Document interface {
	// NumPage returns the number of pages.
	NumPage() int

	// RenderPage renders the zero-based page index at dpi into a PNG file inside dir.
	RenderPage(ctx context.Context, index int, dpi float64, dir string) (PageImage, error)

	Close() error
}
