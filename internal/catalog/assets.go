package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wushici/exhibit-kit/internal/domain"
)

// AssetSource is one directory contributing artifact names through files with Ext.
type AssetSource struct {
	Dir string
	Ext string
}

// ResolveNames returns the sorted union of file stems across sources.
// Missing directories contribute nothing.
func ResolveNames(sources ...AssetSource) ([]string, error) {
	set := make(map[string]struct{})

	for _, src := range sources {
		entries, err := os.ReadDir(src.Dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, domain.IOError(fmt.Sprintf("read asset dir %s", src.Dir), err)
		}

		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || filepath.Ext(name) != src.Ext {
				continue
			}
			set[strings.TrimSuffix(name, src.Ext)] = struct{}{}
		}
	}

	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}
