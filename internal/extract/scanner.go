package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/wushici/exhibit-kit/internal/domain"
	"github.com/wushici/exhibit-kit/internal/media"
)

// ScanImages returns the regular files directly inside dir whose extension is in exts, sorted by name.
func ScanImages(dir string, exts []string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, domain.ValidationError(fmt.Sprintf("input directory does not exist: %s", dir), err)
	}
	if !info.IsDir() {
		return nil, domain.ValidationError(fmt.Sprintf("not a directory: %s", dir), nil)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("read directory %s", dir), err)
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if media.IsSupportedFormat(e.Name(), exts) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
