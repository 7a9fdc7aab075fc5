package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wushici/exhibit-kit/internal/config"
	"github.com/wushici/exhibit-kit/internal/domain"
	"github.com/wushici/exhibit-kit/internal/media"
	"github.com/wushici/exhibit-kit/internal/observability"
)

// Progress receives per-artifact build progress.
type Progress interface {
	Start(total int)
	Step(name string)
	Finish()
}

type nopProgress struct{}

func (nopProgress) Start(int)   {}
func (nopProgress) Step(string) {}
func (nopProgress) Finish()     {}

// Stats summarizes a build for reporting.
type Stats struct {
	Artifacts       int
	Indexed         int
	VariantFailures int
	DuplicateRows   int
	DuplicatePages  int
}

// BuildResult is the outcome of Builder.Build.
type BuildResult struct {
	Document *domain.CatalogDocument
	Stats    Stats
}

// Builder joins the index, page texts, assets and image variants into a CatalogDocument.
type Builder struct {
	cfg        *config.Config
	logger     *observability.Logger
	parser     *IndexParser
	classifier *SeriesClassifier
	models     *media.VariantGenerator
	info       *media.VariantGenerator
	progress   Progress
	now        func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithProgress reports progress to p.
func WithProgress(p Progress) Option {
	return func(b *Builder) { b.progress = p }
}

// WithClock overrides the generatedAt clock.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a Builder from configuration.
func NewBuilder(cfg *config.Config, logger *observability.Logger, opts ...Option) *Builder {
	if logger == nil {
		logger = observability.Nop()
	}
	cc := cfg.Catalog

	b := &Builder{
		cfg:        cfg,
		logger:     logger.WithComponent("catalog"),
		parser:     NewIndexParser(cc.Index, logger),
		classifier: NewSeriesClassifier(cc.SeriesRules, cc.FallbackSeries),
		models:     media.NewVariantGenerator(cfg.Path(cc.ModelCacheDir), cc.ModelTiers, logger),
		info:       media.NewVariantGenerator(cfg.Path(cc.InfoCacheDir), []config.VariantTier{cc.InfoTier}, logger),
		progress:   nopProgress{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build runs the full catalog pipeline. Cache directories are cleared first.
// Per-artifact image failures never abort the build.
func (b *Builder) Build(ctx context.Context) (*BuildResult, error) {
	cc := b.cfg.Catalog

	index, err := b.parser.ParseFile(b.cfg.Path(cc.IndexFile))
	if err != nil {
		return nil, err
	}

	pages, err := LoadPages(b.cfg.Path(cc.PageTextDir), cc.PageFiles, b.logger)
	if err != nil {
		return nil, err
	}

	if err := media.PrepareCacheDirs(b.models.Dir(), b.info.Dir()); err != nil {
		return nil, domain.IOError("prepare cache dirs", err)
	}

	names, err := ResolveNames(
		AssetSource{Dir: b.cfg.Path(cc.ModelDir), Ext: cc.ModelExt},
		AssetSource{Dir: b.cfg.Path(cc.InfoImageDir), Ext: cc.InfoImageExt},
		AssetSource{Dir: b.cfg.Path(cc.InfoTextDir), Ext: cc.TextExt},
	)
	if err != nil {
		return nil, err
	}

	stats := Stats{
		DuplicateRows:  len(index.Duplicates),
		DuplicatePages: len(pages.Duplicates),
	}

	b.progress.Start(len(names))
	defer b.progress.Finish()

	artifacts := make([]domain.Artifact, 0, len(names))
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		a, failures := b.buildArtifact(i+1, name, index, pages)
		if _, ok := index.Lookup(name); ok {
			stats.Indexed++
		}
		stats.VariantFailures += failures
		artifacts = append(artifacts, a)
		b.progress.Step(name)
	}
	stats.Artifacts = len(artifacts)

	doc := &domain.CatalogDocument{
		GeneratedAt:    domain.FormatGeneratedAt(b.now()),
		TotalArtifacts: len(artifacts),
		PDFSource:      b.pdfSource(),
		PDFTotalPages:  pages.TotalPages(),
		Artifacts:      artifacts,
	}

	b.logger.Info().
		Int("artifacts", stats.Artifacts).
		Int("indexed", stats.Indexed).
		Int("variant_failures", stats.VariantFailures).
		Int("pdf_total_pages", doc.PDFTotalPages).
		Msg("catalog built")

	return &BuildResult{Document: doc, Stats: stats}, nil
}

func (b *Builder) buildArtifact(seq int, name string, index *Index, pages *PageStore) (domain.Artifact, int) {
	cc := b.cfg.Catalog
	id := fmt.Sprintf(cc.IDFormat, seq)
	failures := 0

	modelRes := b.models.Generate(filepath.Join(b.cfg.Path(cc.ModelDir), name+cc.ModelExt), id)
	if modelRes.Err != nil {
		failures++
	}
	infoRes := b.info.Generate(filepath.Join(b.cfg.Path(cc.InfoImageDir), name+cc.InfoImageExt), id)
	if infoRes.Err != nil {
		failures++
	}

	// smallest configured tier is the thumbnail, largest the detail image
	thumb := b.variantURL(cc.ModelURLPrefix, modelRes, cc.ModelTiers[0].Name)
	large := b.variantURL(cc.ModelURLPrefix, modelRes, cc.ModelTiers[len(cc.ModelTiers)-1].Name)
	modelImage := large
	if modelImage == "" {
		modelImage = thumb
	}

	entry, _ := index.Lookup(name)
	series := entry.Series
	if series == "" {
		series = b.classifier.Classify(name)
	}

	infoText := b.readInfoText(name)

	pdfPages := entry.Pages
	if pdfPages == nil {
		pdfPages = []int{}
	}
	linked := make([]domain.LinkedPage, 0, len(pdfPages))
	for _, n := range pdfPages {
		rec, _ := pages.Get(n)
		linked = append(linked, domain.LinkedPage{Page: n, Title: rec.Title, Content: rec.Content})
	}

	return domain.Artifact{
		ID:              id,
		Name:            name,
		Series:          series,
		ModelImage:      modelImage,
		ModelImageThumb: thumb,
		ModelImageLarge: large,
		InfoImage:       b.variantURL(cc.InfoURLPrefix, infoRes, cc.InfoTier.Name),
		InfoText:        infoText,
		PDFPages:        pdfPages,
		PDFTopic:        entry.PDFTopic,
		LinkedPDF:       linked,
		Tags:            ExtractTags(infoText, series),
	}, failures
}

func (b *Builder) variantURL(prefix []string, res media.Result, tier string) string {
	file := res.File(tier)
	if file == "" {
		return ""
	}
	parts := append(append([]string{}, prefix...), file)
	return EncodeURLPath(parts...)
}

func (b *Builder) readInfoText(name string) string {
	cc := b.cfg.Catalog
	path := filepath.Join(b.cfg.Path(cc.InfoTextDir), name+cc.TextExt)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			b.logger.Warn().Str("artifact", name).Err(err).Msg("info text unreadable")
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}

// pdfSource returns the public URL of the source PDF when it exists and fits under the size ceiling.
func (b *Builder) pdfSource() string {
	cc := b.cfg.Catalog
	path := b.cfg.Path(cc.PDFFile)

	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		b.logger.Debug().Str("pdf", path).Msg("source pdf not found")
		return ""
	}
	if st.Size() > cc.MaxPDFSize {
		b.logger.Warn().
			Str("pdf", path).
			Int64("size", st.Size()).
			Int64("max_size", cc.MaxPDFSize).
			Msg("source pdf above size ceiling, not linked")
		return ""
	}
	return EncodeURLPath(cc.PDFPublicPath...)
}
