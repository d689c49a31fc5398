package services

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/fogleman/gg"

	"github.com/LOGQS/coursegen-backend/internal/logger"
	"github.com/LOGQS/coursegen-backend/internal/types"
)

func TestRenderPreviewsProducesOnePNGPerSlide(t *testing.T) {
	dir := t.TempDir()

	// one resolved illustration on disk for slide 1
	imgPath := filepath.Join(dir, "resolved.png")
	dc := gg.NewContext(32, 32)
	dc.SetRGB(0.2, 0.4, 0.8)
	dc.Clear()
	if err := dc.SavePNG(imgPath); err != nil {
		t.Fatalf("seed image: %v", err)
	}

	plan := &types.PresentationPlan{
		PresentationTitle: "Cell Biology",
		Slides: []types.SlideSpec{
			{SlideNumber: 1, Title: "Mitochondria", MainPoints: []string{"Powerhouse", "Double membrane"}},
			{SlideNumber: 2, Title: "Ribosomes"},
		},
	}
	slides := []*types.SlideContent{
		{
			SlideNumber: 1,
			Title:       "Mitochondria",
			Transcript:  "Mitochondria produce ATP. They have two membranes.",
			Images:      []*types.ImageSpec{{FilePath: imgPath, Status: types.ImageSuccess}},
		},
		{
			SlideNumber: 2,
			Title:       "Ribosomes",
			Transcript:  "Ribosomes build proteins.",
		},
	}

	r := NewSlidePreviewRenderer(logger.NewNop())
	out := r.RenderPreviews(context.Background(), plan, slides, builtinThemes()["default"], dir)

	if len(out) != 2 {
		t.Fatalf("rendered %d previews, want 2: %v", len(out), out)
	}
	for _, p := range out {
		f, err := os.Open(p)
		if err != nil {
			t.Fatalf("preview missing: %v", err)
		}
		cfg, err := png.DecodeConfig(f)
		f.Close()
		if err != nil {
			t.Fatalf("preview %s not a PNG: %v", p, err)
		}
		if cfg.Width != previewWidth || cfg.Height != previewHeight {
			t.Fatalf("preview %s is %dx%d, want %dx%d", p, cfg.Width, cfg.Height, previewWidth, previewHeight)
		}
	}
}

func TestRenderPreviewsHandlesMissingSlide(t *testing.T) {
	dir := t.TempDir()
	plan := &types.PresentationPlan{
		Slides: []types.SlideSpec{{SlideNumber: 1, Title: "A"}, {SlideNumber: 2, Title: "B"}},
	}
	slides := []*types.SlideContent{
		{SlideNumber: 1, Title: "A", Transcript: "First."},
		nil,
	}

	r := NewSlidePreviewRenderer(logger.NewNop())
	out := r.RenderPreviews(context.Background(), plan, slides, builtinThemes()["dark"], dir)

	// the hole still gets an error preview so the deck stays index-complete
	if len(out) != 2 {
		t.Fatalf("rendered %d previews, want 2: %v", len(out), out)
	}
}
