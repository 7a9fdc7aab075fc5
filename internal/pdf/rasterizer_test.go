package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wushici/exhibit-kit/internal/domain"
)

// writeBlankPDF writes a minimal PDF with one w x h point page.
func writeBlankPDF(t *testing.T, dir string, w, h int) string {
	t.Helper()

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] >>", w, h),
	}

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	path := filepath.Join(dir, "blank.pdf")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestValidator_ValidatePDFPath(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))
	pdf := filepath.Join(dir, "book.PDF")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF"), 0o644))

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"empty", " ", true},
		{"missing", filepath.Join(dir, "nope.pdf"), true},
		{"directory", dir, true},
		{"wrong extension", txt, true},
		{"upper-case extension", pdf, false},
	}

	v := NewValidator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidatePDFPath(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, domain.ErrorTypeValidation, domain.TypeOf(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidator_ValidateDPI(t *testing.T) {
	v := NewValidator(nil)
	assert.NoError(t, v.ValidateDPI(300))
	assert.NoError(t, v.ValidateDPI(72))
	assert.Error(t, v.ValidateDPI(0))
	assert.Error(t, v.ValidateDPI(5000))
}

func TestRasterizer_OpenCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o644))

	_, err := NewRasterizer(nil).Open(path)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeConversion, domain.TypeOf(err))
}

func TestRasterizer_RenderPage(t *testing.T) {
	dir := t.TempDir()
	doc, err := NewRasterizer(nil).Open(writeBlankPDF(t, dir, 144, 72))
	require.NoError(t, err)
	defer doc.Close()

	require.Equal(t, 1, doc.NumPage())

	out := t.TempDir()
	page, err := doc.RenderPage(context.Background(), 0, 144, out)
	require.NoError(t, err)

	assert.Equal(t, 1, page.PageNumber)
	assert.Equal(t, filepath.Join(out, "page_001.png"), page.ImagePath)
	assert.FileExists(t, page.ImagePath)
	// 144pt x 72pt at 144 dpi
	assert.InDelta(t, 288, page.Width, 1)
	assert.InDelta(t, 144, page.Height, 1)

	_, err = doc.RenderPage(context.Background(), 1, 144, out)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = doc.RenderPage(ctx, 0, 144, out)
	assert.ErrorIs(t, err, context.Canceled)
}
