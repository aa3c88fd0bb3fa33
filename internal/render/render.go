// Package render draws the tray icon: the glucose value as text on a small
// fixed-size bitmap.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"os"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	// Size is the width and height of every rendered icon.
	Size = 64
	// FontSize is the point size used for TrueType faces.
	FontSize = 28
	// Placeholder is drawn when there is no value.
	Placeholder = "--"

	textX = 8
	textY = 16
)

var (
	Background = color.RGBA{R: 255, G: 182, B: 193, A: 255}
	Foreground = color.RGBA{A: 255}
)

// Renderer draws icons with one font face chosen at construction.
type Renderer struct {
	face font.Face
}

// New loads the TrueType font at fontPath. When fontPath is empty or cannot
// be loaded, the embedded Go Bold face is used, and failing that the basic
// bitmap face. New never fails.
func New(fontPath string, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}

	if fontPath != "" {
		face, err := loadFace(fontPath)
		if err == nil {
			return &Renderer{face: face}
		}
		logger.Warn("preferred font unavailable, using default", "path", fontPath, "error", err)
	}

	face, err := parseFace(gobold.TTF)
	if err != nil {
		logger.Warn("embedded font unavailable, using basic face", "error", err)
		return &Renderer{face: basicfont.Face7x13}
	}
	return &Renderer{face: face}
}

func loadFace(path string) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	return parseFace(data)
}

func parseFace(data []byte) (font.Face, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Text returns the string drawn for value.
func Text(value *int) string {
	if value == nil {
		return Placeholder
	}
	return strconv.Itoa(*value)
}

// Render draws value, or the placeholder when value is nil, onto a new
// Size×Size image. The text's top-left corner sits at (8,16).
func (r *Renderer) Render(value *int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Size, Size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: Background}, image.Point{}, draw.Src)

	ascent := r.face.Metrics().Ascent
	d := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: Foreground},
		Face: r.face,
		Dot:  fixed.Point26_6{X: fixed.I(textX), Y: fixed.I(textY) + ascent},
	}
	d.DrawString(Text(value))

	return img
}
