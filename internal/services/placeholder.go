package services

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/LOGQS/coursegen-backend/internal/logger"
)

const (
	placeholderWidth  = 1024
	placeholderHeight = 768
)

// placeholderRenderer draws the neutral stand-in images used when a
// slide illustration can neither be found nor generated.
type placeholderRenderer struct {
	log      *logger.Logger
	fontFace font.Face
}

func newPlaceholderRenderer(log *logger.Logger) *placeholderRenderer {
	r := &placeholderRenderer{log: log.With("component", "PlaceholderRenderer")}

	// A real font is optional; gg falls back to its built-in face.
	fontPath := strings.TrimSpace(os.Getenv("PLACEHOLDER_FONT"))
	if fontPath != "" {
		face, err := loadFontFace(fontPath, 28)
		if err != nil {
			r.log.Warn("Failed to load placeholder font; using default", "font", fontPath, "error", err)
		} else {
			r.fontFace = face
		}
	}
	return r
}

// Render produces a PNG with the image description as caption, so the
// final document shows what was supposed to be there.
func (r *placeholderRenderer) Render(description string) ([]byte, error) {
	dc := gg.NewContext(placeholderWidth, placeholderHeight)

	dc.SetColor(color.NRGBA{R: 0xEE, G: 0xF1, B: 0xF6, A: 0xFF})
	dc.DrawRectangle(0, 0, placeholderWidth, placeholderHeight)
	dc.Fill()

	dc.SetColor(color.NRGBA{R: 0x44, G: 0x72, B: 0xC4, A: 0xFF})
	dc.DrawRectangle(0, 0, placeholderWidth, 12)
	dc.Fill()

	dc.SetColor(color.NRGBA{R: 0xB0, G: 0xB8, B: 0xC4, A: 0xFF})
	dc.SetLineWidth(3)
	dc.DrawRoundedRectangle(40, 52, placeholderWidth-80, placeholderHeight-104, 18)
	dc.Stroke()

	if r.fontFace != nil {
		dc.SetFontFace(r.fontFace)
	}

	caption := strings.TrimSpace(description)
	if caption == "" {
		caption = "Illustration unavailable"
	}

	dc.SetColor(color.NRGBA{R: 0x33, G: 0x3A, B: 0x45, A: 0xFF})
	dc.DrawStringWrapped(caption,
		placeholderWidth/2, placeholderHeight/2,
		0.5, 0.5,
		placeholderWidth-160, 1.5, gg.AlignCenter)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	face := truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	return face, nil
}
