package media

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wushici/exhibit-kit/internal/config"
)

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 120, G: 80, B: 40, A: 200})
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

func modelTiers() []config.VariantTier {
	return config.DefaultConfig().Catalog.ModelTiers
}

func TestVariantGenerator_WritesEveryTier(t *testing.T) {
	src := writePNG(t, t.TempDir(), "武梁祠西壁.png", 1000, 500)
	cache := t.TempDir()

	res := NewVariantGenerator(cache, modelTiers(), nil).Generate(src, "artifact-001")
	require.True(t, res.OK(), "reason=%s err=%v", res.Reason, res.Err)

	assert.Equal(t, "artifact-001-320.webp", res.File("thumb"))
	assert.Equal(t, "artifact-001-720.webp", res.File("large"))

	thumb, err := Inspect(filepath.Join(cache, res.File("thumb")))
	require.NoError(t, err)
	assert.Equal(t, 320, thumb.Width)
	assert.Equal(t, 160, thumb.Height)
	assert.Equal(t, "webp", thumb.Format)

	large, err := Inspect(filepath.Join(cache, res.File("large")))
	require.NoError(t, err)
	assert.Equal(t, 720, large.Width)
}

func TestVariantGenerator_NoUpscale(t *testing.T) {
	src := writePNG(t, t.TempDir(), "small.png", 100, 50)
	cache := t.TempDir()

	res := NewVariantGenerator(cache, modelTiers(), nil).Generate(src, "artifact-002")
	require.True(t, res.OK())

	info, err := Inspect(filepath.Join(cache, res.File("large")))
	require.NoError(t, err)
	assert.Equal(t, 100, info.Width)
	assert.Equal(t, 50, info.Height)
}

func TestVariantGenerator_MissingSource(t *testing.T) {
	cache := t.TempDir()
	res := NewVariantGenerator(cache, modelTiers(), nil).Generate(filepath.Join(cache, "nope.png"), "artifact-003")

	assert.Equal(t, ReasonSourceMissing, res.Reason)
	assert.NoError(t, res.Err)
	assert.Empty(t, res.File("thumb"))

	entries, err := os.ReadDir(cache)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestVariantGenerator_CorruptSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0o644))

	res := NewVariantGenerator(t.TempDir(), modelTiers(), nil).Generate(src, "artifact-004")
	assert.Equal(t, ReasonDecodeFailed, res.Reason)
	assert.Error(t, res.Err)
	assert.Empty(t, res.Files)
}

func TestVariantGenerator_UnwritableCache(t *testing.T) {
	src := writePNG(t, t.TempDir(), "a.png", 10, 10)

	res := NewVariantGenerator(filepath.Join(t.TempDir(), "missing"), modelTiers(), nil).Generate(src, "artifact-005")
	assert.Equal(t, ReasonWriteFailed, res.Reason)
	assert.Empty(t, res.File("thumb"))
}

func TestFlatten_Opaque(t *testing.T) {
	img := imaging.New(4, 4, color.NRGBA{R: 0, G: 0, B: 0, A: 0})
	out := Flatten(img)

	r, g, b, a := out.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)
}

func TestPrepareCacheDirs_ClearsStaleFiles(t *testing.T) {
	root := t.TempDir()
	models := filepath.Join(root, "generated", "models")
	info := filepath.Join(root, "generated", "info")
	require.NoError(t, os.MkdirAll(models, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(models, "stale.webp"), []byte("x"), 0o644))

	require.NoError(t, PrepareCacheDirs(models, info))

	entries, err := os.ReadDir(models)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.DirExists(t, info)
}

func TestPreprocessor_Prepare(t *testing.T) {
	cfg := config.DefaultConfig().Preprocess
	p := NewPreprocessor(cfg)
	dir := t.TempDir()
	src := writePNG(t, dir, "plate.png", 3000, 1000)

	t.Run("no options returns source", func(t *testing.T) {
		path, cleanup, err := p.Prepare(src, PreprocessOptions{})
		require.NoError(t, err)
		defer cleanup()
		assert.Equal(t, src, path)
	})

	t.Run("resize and enhance", func(t *testing.T) {
		path, cleanup, err := p.Prepare(src, PreprocessOptions{Resize: true, Enhance: true})
		require.NoError(t, err)
		assert.NotEqual(t, src, path)

		info, err := Inspect(path)
		require.NoError(t, err)
		assert.Equal(t, "jpeg", info.Format)
		assert.Equal(t, 2048, info.Width)
		assert.LessOrEqual(t, info.Height, 2048)

		cleanup()
		assert.NoFileExists(t, path)
	})

	t.Run("decode failure falls back to source", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.jpg")
		require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o644))

		path, cleanup, err := p.Prepare(bad, PreprocessOptions{Resize: true})
		defer cleanup()
		assert.Error(t, err)
		assert.Equal(t, bad, path)
	})
}

func TestIsSupportedFormat(t *testing.T) {
	exts := config.DefaultConfig().Preprocess.SupportedExtensions
	tests := map[string]bool{
		"a.JPG":     true,
		"b.jpeg":    true,
		"c.tiff":    true,
		"d.webp":    true,
		"e.gif":     false,
		"notes.txt": false,
		"noext":     false,
	}
	for name, want := range tests {
		assert.Equal(t, want, IsSupportedFormat(name, exts), name)
	}
}

func TestInspect(t *testing.T) {
	src := writePNG(t, t.TempDir(), "x.png", 40, 30)
	info, err := Inspect(src)
	require.NoError(t, err)

	assert.Equal(t, 40, info.Width)
	assert.Equal(t, 30, info.Height)
	assert.Equal(t, "png", info.Format)
	assert.Equal(t, "RGBA", info.Mode)
	assert.Greater(t, info.SizeMB, 0.0)

	_, err = Inspect(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}
