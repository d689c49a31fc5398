package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/LOGQS/coursegen-backend/internal/logger"
	"github.com/LOGQS/coursegen-backend/internal/types"
)

var slideLineRe = regexp.MustCompile(`(?m)^Slide (\d+) \(`)

// fakeAI answers GenerateJSON with one slide per brief found in the
// user prompt. Other methods return canned payloads.
type fakeAI struct {
	jsonCalls  int
	imageCalls int
	ttsCalls   int
	failImages bool
	failTTS    bool
}

func (f *fakeAI) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	f.jsonCalls++
	matches := slideLineRe.FindAllStringSubmatch(user, -1)
	slides := make([]any, 0, len(matches))
	for _, m := range matches {
		slides = append(slides, map[string]any{
			"slide_number": 0,
			"title":        "Slide " + m[1],
			"transcript":   "Spoken narration for slide " + m[1] + ".",
			"layout":       map[string]any{"template": "content", "background": ""},
			"images": []any{
				map[string]any{"description": "diagram for slide " + m[1], "position": "right", "size": "medium"},
			},
			"estimated_time": 1.5,
		})
	}
	return map[string]any{"slides": slides}, nil
}

func (f *fakeAI) GenerateImage(ctx context.Context, prompt, size string) ([]byte, error) {
	f.imageCalls++
	if f.failImages {
		return nil, context.DeadlineExceeded
	}
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

func (f *fakeAI) SynthesizeSpeech(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	f.ttsCalls++
	if f.failTTS {
		return nil, context.DeadlineExceeded
	}
	return []byte("ID3fake-mp3"), nil
}

func planWithSlides(n int) *types.PresentationPlan {
	plan := &types.PresentationPlan{PresentationTitle: "Test Deck", EstimatedDuration: "10m"}
	for i := 1; i <= n; i++ {
		plan.Slides = append(plan.Slides, types.SlideSpec{
			SlideNumber:   i,
			Title:         "Topic",
			Brief:         "brief",
			MainPoints:    []string{"a", "b"},
			EstimatedTime: 1,
			SlideType:     "content",
		})
	}
	return plan
}

func TestGenerateSlidesBatchesAndReportsProgress(t *testing.T) {
	ai := &fakeAI{}
	gen := NewSlideContentGenerator(logger.NewNop(), ai)

	var progress [][2]int
	slides, err := gen.GenerateSlides(context.Background(), planWithSlides(12),
		types.GenerationRequest{BatchSize: 5, ContentDensity: "medium"},
		func(generated, total int) { progress = append(progress, [2]int{generated, total}) })
	if err != nil {
		t.Fatalf("GenerateSlides: %v", err)
	}

	if len(slides) != 12 {
		t.Fatalf("got %d slides, want 12", len(slides))
	}
	if ai.jsonCalls != 3 {
		t.Fatalf("made %d API calls, want 3 batches", ai.jsonCalls)
	}
	want := [][2]int{{5, 12}, {10, 12}, {12, 12}}
	if len(progress) != len(want) {
		t.Fatalf("progress calls = %v, want %v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Fatalf("progress calls = %v, want %v", progress, want)
		}
	}

	for i, s := range slides {
		if s.SlideNumber != i+1 {
			t.Fatalf("slide %d has number %d", i, s.SlideNumber)
		}
		if s.Transcript == "" {
			t.Fatalf("slide %d missing transcript", i+1)
		}
		for _, img := range s.Images {
			if img.Status != types.ImagePending {
				t.Fatalf("slide %d image status = %q, want pending", i+1, img.Status)
			}
		}
	}
}

func TestRateLimiterRollingWindow(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	l := newRateLimiter(3, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if wait := l.reserve(); wait != 0 {
			t.Fatalf("request %d waited %v inside budget", i+1, wait)
		}
	}

	// Fourth request must wait until the first slot leaves the window.
	if wait := l.reserve(); wait != time.Minute {
		t.Fatalf("over-budget wait = %v, want 1m", wait)
	}

	// After the window passes, requests flow again.
	now = base.Add(2 * time.Minute)
	if wait := l.reserve(); wait != 0 {
		t.Fatalf("post-window wait = %v, want 0", wait)
	}
}
