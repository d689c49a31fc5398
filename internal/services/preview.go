package services

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/LOGQS/coursegen-backend/internal/logger"
	"github.com/LOGQS/coursegen-backend/internal/types"
)

const (
	previewWidth  = 1280
	previewHeight = 720
)

// SlidePreviewRenderer draws lightweight PNG renditions of the finished
// slides so the deck can be viewed immediately, without opening the
// built document.
type SlidePreviewRenderer interface {
	RenderPreviews(ctx context.Context, plan *types.PresentationPlan, slides []*types.SlideContent, theme Theme, dir string) []string
}

type slidePreviewRenderer struct {
	log       *logger.Logger
	titleFace font.Face
	bodyFace  font.Face
}

func NewSlidePreviewRenderer(log *logger.Logger) SlidePreviewRenderer {
	r := &slidePreviewRenderer{log: log.With("service", "SlidePreviewRenderer")}

	fontPath := strings.TrimSpace(os.Getenv("PLACEHOLDER_FONT"))
	if fontPath != "" {
		if face, err := loadFontFace(fontPath, 44); err == nil {
			r.titleFace = face
		}
		if face, err := loadFontFace(fontPath, 26); err == nil {
			r.bodyFace = face
		}
	}
	return r
}

// RenderPreviews is best effort: a slide whose preview cannot be drawn
// or written is skipped with a warning and the rest keep rendering. The
// returned paths are in slide order.
func (r *slidePreviewRenderer) RenderPreviews(ctx context.Context, plan *types.PresentationPlan, slides []*types.SlideContent, theme Theme, dir string) []string {
	out := make([]string, 0, len(slides))
	for i, slide := range slides {
		if ctx.Err() != nil {
			break
		}
		path := filepath.Join(dir, fmt.Sprintf("slide_%02d.png", i+1))

		var spec *types.SlideSpec
		if plan != nil && i < len(plan.Slides) {
			spec = &plan.Slides[i]
		}
		if err := r.renderOne(slide, spec, theme, path); err != nil {
			r.log.Warn("Slide preview skipped", "slide", i+1, "error", err)
			continue
		}
		out = append(out, path)
	}
	r.log.Info("Slide previews rendered", "rendered", len(out), "slides", len(slides))
	return out
}

func (r *slidePreviewRenderer) renderOne(slide *types.SlideContent, spec *types.SlideSpec, theme Theme, path string) error {
	dc := gg.NewContext(previewWidth, previewHeight)

	dc.SetHexColor(defaultHex(theme.Background, "#FFFFFF"))
	dc.DrawRectangle(0, 0, previewWidth, previewHeight)
	dc.Fill()

	dc.SetHexColor(defaultHex(theme.Accent, "#4472C4"))
	dc.DrawRectangle(0, 0, previewWidth, 10)
	dc.Fill()

	if slide == nil {
		if r.bodyFace != nil {
			dc.SetFontFace(r.bodyFace)
		}
		dc.SetHexColor("#C00000")
		dc.DrawStringWrapped("Content for this slide could not be generated.",
			previewWidth/2, previewHeight/2, 0.5, 0.5, previewWidth-160, 1.5, gg.AlignCenter)
		return dc.SavePNG(path)
	}

	if r.titleFace != nil {
		dc.SetFontFace(r.titleFace)
	}
	dc.SetHexColor(defaultHex(theme.TitleColor, "#1F3864"))
	dc.DrawStringWrapped(slide.Title, 60, 50, 0, 0, previewWidth-120, 1.3, gg.AlignLeft)

	media := r.loadSlideImage(slide)
	bodyWidth := float64(previewWidth - 120)
	if media != nil {
		bodyWidth = previewWidth/2 - 80
	}

	if r.bodyFace != nil {
		dc.SetFontFace(r.bodyFace)
	}
	dc.SetHexColor(defaultHex(theme.TextColor, "#333333"))
	y := 170.0
	for _, line := range previewBullets(slide, spec) {
		dc.DrawStringWrapped("• "+line, 60, y, 0, 0, bodyWidth, 1.4, gg.AlignLeft)
		y += 64
		if y > previewHeight-80 {
			break
		}
	}

	if media != nil {
		b := media.Bounds()
		maxW := float64(previewWidth)/2 - 100
		maxH := float64(previewHeight) - 260
		scale := math.Min(maxW/float64(b.Dx()), maxH/float64(b.Dy()))
		if scale > 1 {
			scale = 1
		}
		dc.Push()
		dc.Translate(float64(previewWidth)/2+40, 170)
		dc.Scale(scale, scale)
		dc.DrawImage(media, 0, 0)
		dc.Pop()
	}

	return dc.SavePNG(path)
}

// loadSlideImage returns the first resolved illustration, or nil when
// none made it to disk.
func (r *slidePreviewRenderer) loadSlideImage(slide *types.SlideContent) image.Image {
	for _, spec := range slide.Images {
		if spec == nil || spec.FilePath == "" {
			continue
		}
		if spec.Status != types.ImageSuccess && spec.Status != types.ImagePlaceholder {
			continue
		}
		img, err := gg.LoadImage(spec.FilePath)
		if err != nil {
			r.log.Debug("Preview image unreadable", "path", spec.FilePath, "error", err)
			continue
		}
		return img
	}
	return nil
}

func previewBullets(slide *types.SlideContent, spec *types.SlideSpec) []string {
	var bullets []string
	if spec != nil {
		bullets = spec.MainPoints
	}
	if len(bullets) == 0 && slide.Transcript != "" {
		s := slide.Transcript
		if idx := strings.IndexAny(s, ".!?"); idx > 0 && idx < len(s)-1 {
			s = s[:idx+1]
		}
		bullets = []string{s}
	}
	return bullets
}

func defaultHex(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
