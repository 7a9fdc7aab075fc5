package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/wushici/exhibit-kit/internal/config"
	"github.com/wushici/exhibit-kit/internal/domain"
	"github.com/wushici/exhibit-kit/internal/observability"
)

// PageStore holds the per-page transcriptions of the source book.
type PageStore struct {
	Pages      map[int]domain.PageRecord
	Duplicates []int
}

// Get returns the record for page n.
func (s *PageStore) Get(n int) (domain.PageRecord, bool) {
	if s == nil {
		return domain.PageRecord{}, false
	}
	rec, ok := s.Pages[n]
	return rec, ok
}

// TotalPages returns the highest page number loaded, or 0.
func (s *PageStore) TotalPages() int {
	if s == nil {
		return 0
	}
	max := 0
	for n := range s.Pages {
		if n > max {
			max = n
		}
	}
	return max
}

// LoadPages reads every page file in dir. A missing directory yields an empty store.
func LoadPages(dir string, cfg config.PageFileConfig, logger *observability.Logger) (*PageStore, error) {
	if logger == nil {
		logger = observability.Nop()
	}
	logger = logger.WithComponent("pages")

	numberRe, err := regexp.Compile(cfg.NumberRegexp)
	if err != nil {
		return nil, domain.ConfigError("invalid page number pattern", err)
	}
	titleRe, err := regexp.Compile(cfg.TitleRegexp)
	if err != nil {
		return nil, domain.ConfigError("invalid page title pattern", err)
	}

	store := &PageStore{Pages: make(map[int]domain.PageRecord)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn().Str("dir", dir).Msg("page text directory missing")
			return store, nil
		}
		return nil, domain.IOError(fmt.Sprintf("read page dir %s", dir), err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(cfg.Glob, e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		m := numberRe.FindStringSubmatch(normalizeDigits(stem(name)))
		if len(m) < 2 {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, domain.IOError(fmt.Sprintf("read page file %s", name), err)
		}
		content := strings.TrimSpace(string(data))

		title := ""
		if tm := titleRe.FindStringSubmatch(content); len(tm) > 1 {
			title = strings.TrimSpace(tm[1])
		}

		if _, exists := store.Pages[n]; exists {
			store.Duplicates = append(store.Duplicates, n)
			logger.Warn().Int("page", n).Str("file", name).Msg("duplicate page number, later file wins")
		}
		store.Pages[n] = domain.PageRecord{PageNumber: n, Title: title, Content: content}
	}

	logger.Debug().Int("pages", len(store.Pages)).Msg("page texts loaded")
	return store, nil
}
