package media

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/wushici/exhibit-kit/internal/domain"
)

// Inspect reads the header of an image file and reports its dimensions, color model and size.
func Inspect(path string) (domain.ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.ImageInfo{}, domain.ValidationError(fmt.Sprintf("open image %s", path), err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return domain.ImageInfo{}, domain.IOError("stat image", err)
	}

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return domain.ImageInfo{}, domain.ConversionError(fmt.Sprintf("decode header of %s", path), err)
	}

	return domain.ImageInfo{
		Width:  cfg.Width,
		Height: cfg.Height,
		Mode:   colorModelName(cfg.ColorModel),
		Format: format,
		SizeMB: float64(stat.Size()) / (1024 * 1024),
	}, nil
}

func colorModelName(m color.Model) string {
	if _, ok := m.(color.Palette); ok {
		return "P"
	}
	switch m {
	case color.RGBAModel, color.NRGBAModel:
		return "RGBA"
	case color.RGBA64Model, color.NRGBA64Model:
		return "RGBA64"
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I;16"
	case color.YCbCrModel:
		return "YCbCr"
	case color.CMYKModel:
		return "CMYK"
	case color.AlphaModel, color.Alpha16Model:
		return "A"
	}
	return "unknown"
}
