package services

import (
	"context"
	"testing"

	"github.com/LOGQS/coursegen-backend/internal/logger"
	"github.com/LOGQS/coursegen-backend/internal/types"
)

func TestResolveImagesCancelledContextStillReportsProgress(t *testing.T) {
	r := NewImageResolver(logger.NewNop(), nil, nil)

	slides := []*types.SlideContent{
		{SlideNumber: 1, Images: []*types.ImageSpec{
			{Description: "a", Status: types.ImagePending},
			{Description: "b", Status: types.ImagePending},
		}},
		{SlideNumber: 2, Images: []*types.ImageSpec{
			{Description: "c", Status: types.ImagePending},
		}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls [][2]int
	stats := r.ResolveImages(ctx, slides, t.TempDir(), func(processed, total int) {
		calls = append(calls, [2]int{processed, total})
	})

	if stats.Failed != 3 || stats.Succeeded != 0 || stats.Placeholders != 0 {
		t.Fatalf("stats = %+v, want 3 failed", stats)
	}
	// Every spec, including the skipped ones, advances the counter.
	if len(calls) != 3 {
		t.Fatalf("onProgress called %d times, want 3 (calls: %v)", len(calls), calls)
	}
	if last := calls[len(calls)-1]; last != [2]int{3, 3} {
		t.Fatalf("final progress call = %v, want [3 3]", last)
	}
	for _, s := range slides {
		for _, img := range s.Images {
			if img.Status != types.ImageFailed {
				t.Fatalf("spec %q status = %q, want failed", img.Description, img.Status)
			}
		}
	}
}
