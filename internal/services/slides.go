package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/LOGQS/coursegen-backend/internal/logger"
	"github.com/LOGQS/coursegen-backend/internal/types"
	"github.com/LOGQS/coursegen-backend/internal/utils"
)

// SlideContentGenerator turns plan-level slide briefs into full slide
// content (transcript, layout, image specs), working in batches and
// reporting progress after each batch.
type SlideContentGenerator interface {
	GenerateSlides(ctx context.Context, plan *types.PresentationPlan, req types.GenerationRequest, onProgress func(generated, total int)) ([]*types.SlideContent, error)
}

type slideContentGenerator struct {
	log     *logger.Logger
	ai      OpenAIClient
	limiter *rateLimiter
}

func NewSlideContentGenerator(log *logger.Logger, ai OpenAIClient) SlideContentGenerator {
	rpm := utils.GetEnvAsInt("SLIDE_GEN_RPM", 10, log)
	return &slideContentGenerator{
		log:     log.With("service", "SlideContentGenerator"),
		ai:      ai,
		limiter: newRateLimiter(rpm, time.Minute),
	}
}

func (g *slideContentGenerator) GenerateSlides(ctx context.Context, plan *types.PresentationPlan, req types.GenerationRequest, onProgress func(generated, total int)) ([]*types.SlideContent, error) {
	if plan == nil || len(plan.Slides) == 0 {
		return nil, fmt.Errorf("presentation plan required")
	}

	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}
	total := len(plan.Slides)
	out := make([]*types.SlideContent, 0, total)

	for start := 0; start < total; start += batchSize {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		end := start + batchSize
		if end > total {
			end = total
		}
		batch := plan.Slides[start:end]

		if wait := g.limiter.reserve(); wait > 0 {
			g.log.Info("Rate limit reached; delaying slide batch",
				"wait", wait.String(),
				"batch_start", start+1,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		contents, err := g.generateBatch(ctx, plan.PresentationTitle, batch, req)
		if err != nil {
			return nil, fmt.Errorf("slide batch %d-%d: %w", start+1, end, err)
		}
		out = append(out, contents...)

		if onProgress != nil {
			onProgress(len(out), total)
		}
		g.log.Debug("Slide batch generated", "generated", len(out), "total", total)
	}

	return out, nil
}

func (g *slideContentGenerator) generateBatch(ctx context.Context, presTitle string, specs []types.SlideSpec, req types.GenerationRequest) ([]*types.SlideContent, error) {
	var briefs strings.Builder
	for _, s := range specs {
		fmt.Fprintf(&briefs, "Slide %d (%s): %s\n  Brief: %s\n  Points: %s\n",
			s.SlideNumber, s.SlideType, s.Title, s.Brief, strings.Join(s.MainPoints, "; "))
	}

	system := "You are a presentation content writer. For each slide brief, write a natural spoken transcript of 2-5 sentences, choose a layout template, and describe 0-2 supporting images. Image descriptions must be concrete enough to search or generate from."
	user := fmt.Sprintf(
		"Presentation: %s\nContent density: %s\n\nSlide briefs:\n%s",
		presTitle, req.ContentDensity, briefs.String(),
	)

	obj, err := g.ai.GenerateJSON(ctx, system, user, "slide_contents", slideContentsSchema())
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Slides []*types.SlideContent `json:"slides"`
	}
	if err := remarshal(obj, &decoded); err != nil {
		return nil, fmt.Errorf("slide content decode: %w", err)
	}
	if len(decoded.Slides) != len(specs) {
		return nil, fmt.Errorf("batch returned %d slides, expected %d", len(decoded.Slides), len(specs))
	}

	// Force plan numbering and estimated times onto the generated content.
	for i, sc := range decoded.Slides {
		sc.SlideNumber = specs[i].SlideNumber
		if sc.Title == "" {
			sc.Title = specs[i].Title
		}
		if sc.EstimatedTime == 0 {
			sc.EstimatedTime = specs[i].EstimatedTime
		}
		for _, img := range sc.Images {
			img.Status = types.ImagePending
		}
	}
	return decoded.Slides, nil
}

func slideContentsSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"slides": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"slide_number": map[string]any{"type": "integer"},
						"title":        map[string]any{"type": "string"},
						"transcript":   map[string]any{"type": "string"},
						"layout": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"template":   map[string]any{"type": "string"},
								"background": map[string]any{"type": "string"},
							},
							"required":             []string{"template", "background"},
							"additionalProperties": false,
						},
						"images": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"description": map[string]any{"type": "string"},
									"position":    map[string]any{"type": "string"},
									"size":        map[string]any{"type": "string"},
								},
								"required":             []string{"description", "position", "size"},
								"additionalProperties": false,
							},
						},
						"estimated_time": map[string]any{"type": "number"},
					},
					"required":             []string{"slide_number", "title", "transcript", "layout", "images", "estimated_time"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"slides"},
		"additionalProperties": false,
	}
}

// rateLimiter enforces a rolling-window request budget. reserve records
// the upcoming request and returns how long the caller must wait first.
type rateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	times  []time.Time
	now    func() time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &rateLimiter{limit: limit, window: window, now: time.Now}
}

func (l *rateLimiter) reserve() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	kept := l.times[:0]
	for _, t := range l.times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	l.times = kept

	var wait time.Duration
	at := now
	if len(l.times) >= l.limit {
		oldest := l.times[len(l.times)-l.limit]
		at = oldest.Add(l.window)
		wait = at.Sub(now)
		if wait < 0 {
			wait = 0
			at = now
		}
	}
	l.times = append(l.times, at)
	return wait
}
