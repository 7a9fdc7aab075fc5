package domain

import (
	"time"
)

// GeneratedAtLayout is the timestamp layout used for CatalogDocument.GeneratedAt.
const GeneratedAtLayout = "2006-01-02T15:04:05"

// IndexEntry is one artifact row of the markdown index.
type IndexEntry struct {
	Series   string
	Pages    []int // ascending, no duplicates
	PDFTopic string
}

// PageRecord is one transcribed page of the source book.
type PageRecord struct {
	PageNumber int
	Title      string
	Content    string
}

// LinkedPage is a PageRecord as embedded in an Artifact.
type LinkedPage struct {
	Page    int    `json:"page"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Artifact is one exhibit item of the generated catalog.
type Artifact struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Series          string       `json:"series"`
	ModelImage      string       `json:"modelImage"`
	ModelImageThumb string       `json:"modelImageThumb"`
	ModelImageLarge string       `json:"modelImageLarge"`
	InfoImage       string       `json:"infoImage"`
	InfoText        string       `json:"infoText"`
	PDFPages        []int        `json:"pdfPages"`
	PDFTopic        string       `json:"pdfTopic"`
	LinkedPDF       []LinkedPage `json:"linkedPdf"`
	Tags            []string     `json:"tags"`
}

// CatalogDocument is the top-level JSON document consumed by the exhibit site.
type CatalogDocument struct {
	GeneratedAt    string     `json:"generatedAt"`
	TotalArtifacts int        `json:"totalArtifacts"`
	PDFSource      string     `json:"pdfSource"`
	PDFTotalPages  int        `json:"pdfTotalPages"`
	Artifacts      []Artifact `json:"artifacts"`
}

// FormatGeneratedAt renders t the way CatalogDocument.GeneratedAt expects.
func FormatGeneratedAt(t time.Time) string {
	return t.Format(GeneratedAtLayout)
}

// PageImage represents a single rasterized PDF page
type PageImage struct {
	PageNumber int
	ImagePath  string // Path to temporary PNG file
	Width      int
	Height     int
}

// BatchResult summarizes one extraction run over a directory of images.
type BatchResult struct {
	Total       int      `json:"total"`
	Success     int      `json:"success"`
	Failed      int      `json:"failed"`
	FailedFiles []string `json:"failed_files"`
	OutputDir   string   `json:"output_dir"`
}

// PageRunResult summarizes one extraction run over the pages of a PDF.
type PageRunResult struct {
	Total       int    `json:"total"`
	Success     int    `json:"success"`
	Failed      int    `json:"failed"`
	FailedPages []int  `json:"failed_pages"`
	OutputDir   string `json:"output_dir"`
}

// ImageInfo describes an image file on disk.
type ImageInfo struct {
	Width  int
	Height int
	Mode   string
	Format string
	SizeMB float64
}
