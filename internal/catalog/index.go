// Package catalog builds the exhibit artifact catalog from the museum materials.
package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
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

var (
	rowPattern       = regexp.MustCompile(`^\|\s*\*\*(.+?)\*\*\s*\|\s*(.+?)\s*\|\s*(.+?)\s*\|`)
	pageTokenPattern = regexp.MustCompile(`\d+\s*-\s*\d+|\d+`)
)

// Index maps artifact names to their index rows.
type Index struct {
	Entries map[string]domain.IndexEntry

	// Duplicates lists names that appeared more than once; the last row won.
	Duplicates []string
}

// Lookup returns the entry for name.
func (i *Index) Lookup(name string) (domain.IndexEntry, bool) {
	if i == nil {
		return domain.IndexEntry{}, false
	}
	e, ok := i.Entries[name]
	return e, ok
}

// IndexParser reads the bidirectional PDF / exhibit markdown index.
type IndexParser struct {
	cfg    config.IndexConfig
	logger *observability.Logger
}

// NewIndexParser creates a parser for the given markers.
func NewIndexParser(cfg config.IndexConfig, logger *observability.Logger) *IndexParser {
	if logger == nil {
		logger = observability.Nop()
	}
	return &IndexParser{cfg: cfg, logger: logger.WithComponent("index")}
}

// ParseFile parses the index at path. A missing file is a validation error.
func (p *IndexParser) ParseFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.ValidationError(fmt.Sprintf("index file not readable: %s", path), err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse scans r line by line. Only rows between the section start and end markers count.
func (p *IndexParser) Parse(r io.Reader) (*Index, error) {
	idx := &Index{Entries: make(map[string]domain.IndexEntry)}
	series := p.cfg.DefaultSeries
	inSection := false

	err := eachLine(r, func(line string) bool {
		if strings.HasPrefix(line, p.cfg.SectionStart) {
			inSection = true
			return true
		}
		if strings.HasPrefix(line, p.cfg.SectionEnd) {
			return false
		}
		if !inSection {
			return true
		}

		if p.cfg.SeriesHeading != "" && strings.HasPrefix(line, p.cfg.SeriesHeading) {
			series = strings.TrimSpace(strings.TrimPrefix(line, p.cfg.SeriesHeading))
			return true
		}

		m := rowPattern.FindStringSubmatch(line)
		if m == nil {
			return true
		}

		name := stem(strings.TrimSpace(m[1]))
		topic := strings.TrimSpace(m[3])
		if topic == p.cfg.EmptyTopic {
			topic = ""
		}

		if _, exists := idx.Entries[name]; exists {
			idx.Duplicates = append(idx.Duplicates, name)
			p.logger.Warn().Str("artifact", name).Msg("duplicate index row, later row wins")
		}

		idx.Entries[name] = domain.IndexEntry{
			Series:   series,
			Pages:    ParsePages(m[2], p.cfg.NoPagesMarker),
			PDFTopic: topic,
		}
		return true
	})
	if err != nil {
		return nil, domain.IOError("read index", err)
	}

	p.logger.Debug().Int("entries", len(idx.Entries)).Msg("index parsed")
	return idx, nil
}

// ParsePages parses a page column such as "12, 14-16". A column containing
// noPagesMarker yields no pages. Ranges with start > end are dropped.
// The result is ascending and free of duplicates, never nil.
func ParsePages(raw, noPagesMarker string) []int {
	if noPagesMarker != "" && strings.Contains(raw, noPagesMarker) {
		return []int{}
	}

	seen := make(map[int]struct{})
	for _, token := range pageTokenPattern.FindAllString(normalizeDigits(raw), -1) {
		start, end, isRange := strings.Cut(token, "-")
		if !isRange {
			if n, err := strconv.Atoi(token); err == nil {
				seen[n] = struct{}{}
			}
			continue
		}

		a, errA := strconv.Atoi(strings.TrimSpace(start))
		b, errB := strconv.Atoi(strings.TrimSpace(end))
		if errA != nil || errB != nil || a > b {
			continue
		}
		for n := a; n <= b; n++ {
			seen[n] = struct{}{}
		}
	}

	pages := make([]int, 0, len(seen))
	for n := range seen {
		pages = append(pages, n)
	}
	sort.Ints(pages)
	return pages
}

// eachLine calls fn for every line of r without a length limit until fn returns false.
func eachLine(r io.Reader, fn func(line string) bool) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if line != "" && !fn(strings.TrimRight(line, "\r\n")) {
			return nil
		}
		if err != nil {
			return nil
		}
	}
}

// normalizeDigits maps full-width digits to ASCII so page numbers typed with a
// Chinese input method parse like plain ones.
func normalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '０' && r <= '９' {
			return '0' + (r - '０')
		}
		return r
	}, s)
}

// stem returns the base name of path without its final extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
