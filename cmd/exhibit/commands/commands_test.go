package commands

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wushici/exhibit-kit/internal/config"
	"github.com/wushici/exhibit-kit/internal/domain"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()

	cfgFile, verbose, noColor, logFormat = "", false, false, "console"
	buildRoot, buildOutput = "", ""
	extractOutputDir, extractNoPreprocess, extractEnhance, extractPreview = "", false, false, false
	pagesOutputDir, pagesDPI = "", 0

	rootCmd.SetArgs(append(args, "--no-color"))
	return Execute(context.Background(), "test")
}

func geminiServer(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"展品说明"}]}}]}`))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("EXTRACTION_BASE_URL", srv.URL)
	t.Setenv("EXTRACTION_PROVIDER", "gemini")
	return srv, &calls
}

func TestPing(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		_, calls := geminiServer(t, http.StatusOK)
		require.NoError(t, execute(t, "ping"))
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("error status", func(t *testing.T) {
		geminiServer(t, http.StatusInternalServerError)
		err := execute(t, "ping")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unreachable")
	})
}

func TestExtract_Batch(t *testing.T) {
	_, calls := geminiServer(t, http.StatusOK)

	dir := t.TempDir()
	for _, name := range []string{"a.jpg", "b.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o644))
	}

	require.NoError(t, execute(t, "extract", dir, "--no-preprocess"))
	// ping plus one call per image
	assert.EqualValues(t, 3, calls.Load())

	data, err := os.ReadFile(filepath.Join(dir, "extracted_texts", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "展品说明", string(data))

	require.NoError(t, execute(t, "extract", dir))
	assert.EqualValues(t, 3, calls.Load())
}

func TestExtract_BatchFailuresExitNonZero(t *testing.T) {
	geminiServer(t, http.StatusBadRequest)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("img"), 0o644))

	err := execute(t, "extract", dir)
	assert.ErrorIs(t, err, errItemsFailed)
}

func TestExtract_InvalidInput(t *testing.T) {
	geminiServer(t, http.StatusOK)
	dir := t.TempDir()

	err := execute(t, "extract", dir, "--preview")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--preview")

	err = execute(t, "extract", filepath.Join(dir, "missing.jpg"))
	assert.Error(t, err)
}

func TestPages_InvalidInput(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "book.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF"), 0o644))

	assert.Error(t, execute(t, "pages", filepath.Join(dir, "missing.pdf")))
	assert.Error(t, execute(t, "pages", pdfPath, "--dpi", "5"))
}

func TestInspect(t *testing.T) {
	assert.Error(t, execute(t, "inspect", filepath.Join(t.TempDir(), "missing.png")))
}

// writeCatalogTree lays out a minimal materials tree using the default layout.
func writeCatalogTree(t *testing.T, root string) {
	t.Helper()
	cc := config.DefaultConfig().Catalog

	writeFile := func(rel, content string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	writeFile(cc.IndexFile, "## 一、展品\n### 武梁祠系列\n| **武梁祠西壁.png** | 2-3 | 西王母 |\n## 二、页码\n")
	writeFile(filepath.Join(cc.PageTextDir, "第2页.txt"), "### 西王母\n第二页")
	writeFile(filepath.Join(cc.InfoTextDir, "前石室后壁.txt"), "【车马】出行")

	modelDir := filepath.Join(root, cc.ModelDir)
	require.NoError(t, os.MkdirAll(modelDir, 0o755))
	f, err := os.Create(filepath.Join(modelDir, "武梁祠西壁.png"))
	require.NoError(t, err)
	img := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, x%20, color.NRGBA{R: 120, G: 90, B: 60, A: 255})
	}
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func readCatalog(t *testing.T, path string) domain.CatalogDocument {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc domain.CatalogDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestBuild(t *testing.T) {
	t.Run("root override writes default output", func(t *testing.T) {
		root := t.TempDir()
		writeCatalogTree(t, root)

		require.NoError(t, execute(t, "build", "--root", root))

		doc := readCatalog(t, filepath.Join(root, config.DefaultConfig().Catalog.Output))
		assert.Equal(t, 2, doc.TotalArtifacts)
		assert.Equal(t, 2, doc.PDFTotalPages)
		require.Len(t, doc.Artifacts, 2)

		west := doc.Artifacts[1]
		assert.Equal(t, "武梁祠西壁", west.Name)
		assert.Equal(t, "武梁祠系列", west.Series)
		assert.Equal(t, []int{2, 3}, west.PDFPages)
		assert.NotEmpty(t, west.ModelImageThumb)
		assert.FileExists(t, filepath.Join(root, "app", "public", "generated", "models", "artifact-002-320.webp"))

		assert.Equal(t, "前石室后壁", doc.Artifacts[0].Name)
		assert.Contains(t, doc.Artifacts[0].Tags, "车马")
	})

	t.Run("output override", func(t *testing.T) {
		root := t.TempDir()
		writeCatalogTree(t, root)

		require.NoError(t, execute(t, "build", "--root", root, "-o", "out/catalog.json"))

		assert.NoFileExists(t, filepath.Join(root, config.DefaultConfig().Catalog.Output))
		doc := readCatalog(t, filepath.Join(root, "out", "catalog.json"))
		assert.Equal(t, 2, doc.TotalArtifacts)
	})

	t.Run("missing index fails", func(t *testing.T) {
		err := execute(t, "build", "--root", t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "build catalog")
	})
}
