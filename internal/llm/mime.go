package llm

import (
	"path/filepath"
	"strings"
)

// MimeType returns the image MIME type sent to the service. Anything that is
// not PNG or WebP is declared as JPEG.
func MimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
