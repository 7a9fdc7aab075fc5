package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wushici/exhibit-kit/internal/domain"
)

// Encode renders doc as indented JSON without HTML escaping.
func Encode(doc *domain.CatalogDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile writes doc to path, creating parent directories and overwriting any previous file.
func WriteFile(doc *domain.CatalogDocument, path string) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return domain.IOError("create output dir", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.IOError(fmt.Sprintf("write %s", path), err)
	}
	return nil
}
