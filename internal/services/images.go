package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/LOGQS/coursegen-backend/internal/clients/gcp"
	"github.com/LOGQS/coursegen-backend/internal/logger"
	"github.com/LOGQS/coursegen-backend/internal/types"
	"github.com/LOGQS/coursegen-backend/internal/utils"
)

// ImageStats summarizes the outcome of one image-processing pass.
type ImageStats struct {
	Succeeded    int `json:"succeeded"`
	Placeholders int `json:"placeholders"`
	Failed       int `json:"failed"`
}

// ImageResolver fills in the image specs across a slide set: stock
// search first, then model generation, then a rendered placeholder.
// Individual failures are absorbed into the spec status; the pass as a
// whole never fails the pipeline.
type ImageResolver interface {
	ResolveImages(ctx context.Context, slides []*types.SlideContent, dir string, onProgress func(processed, total int)) ImageStats
}

type imageResolver struct {
	log         *logger.Logger
	ai          OpenAIClient
	vision      gcp.Vision // nil disables candidate scoring
	placeholder *placeholderRenderer
	httpClient  *http.Client

	searchBaseURL string
	maxCandidates int
	genRetries    int
}

// NewImageResolver builds the resolver. vision may be nil; candidates
// are then picked by download order instead of label score.
func NewImageResolver(log *logger.Logger, ai OpenAIClient, vision gcp.Vision) ImageResolver {
	slog := log.With("service", "ImageResolver")
	return &imageResolver{
		log:           slog,
		ai:            ai,
		vision:        vision,
		placeholder:   newPlaceholderRenderer(log),
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		searchBaseURL: utils.GetEnv("IMAGE_SEARCH_BASE_URL", "https://api.openverse.org", log),
		maxCandidates: utils.GetEnvAsInt("IMAGE_SEARCH_CANDIDATES", 3, log),
		genRetries:    utils.GetEnvAsInt("IMAGE_GEN_RETRIES", 2, log),
	}
}

func (r *imageResolver) ResolveImages(ctx context.Context, slides []*types.SlideContent, dir string, onProgress func(processed, total int)) ImageStats {
	var stats ImageStats
	total := types.TotalImageCount(slides)
	processed := 0

	for _, slide := range slides {
		if slide == nil {
			continue
		}
		for idx, spec := range slide.Images {
			if ctx.Err() != nil {
				// remaining specs stay pending-turned-failed; progress
				// still advances so the stage counter reaches total
				spec.Status = types.ImageFailed
				stats.Failed++
				processed++
				if onProgress != nil {
					onProgress(processed, total)
				}
				continue
			}
			r.resolveOne(ctx, spec, slide.SlideNumber, idx, dir, &stats)
			processed++
			if onProgress != nil {
				onProgress(processed, total)
			}
		}
	}

	r.log.Info("Image processing finished",
		"succeeded", stats.Succeeded,
		"placeholders", stats.Placeholders,
		"failed", stats.Failed,
	)
	return stats
}

func (r *imageResolver) resolveOne(ctx context.Context, spec *types.ImageSpec, slideNumber, imageIndex int, dir string, stats *ImageStats) {
	path := filepath.Join(dir, fmt.Sprintf("slide_%02d_img_%d.png", slideNumber, imageIndex))

	if raw := r.searchBest(ctx, spec.Description); raw != nil {
		if err := os.WriteFile(path, raw, 0o644); err == nil {
			spec.FilePath = path
			spec.Status = types.ImageSuccess
			spec.Source = "search"
			stats.Succeeded++
			return
		}
	}

	if raw := r.generateWithRetries(ctx, spec.Description); raw != nil {
		if err := os.WriteFile(path, raw, 0o644); err == nil {
			spec.FilePath = path
			spec.Status = types.ImageSuccess
			spec.Source = "generated"
			stats.Succeeded++
			return
		}
	}

	if raw, err := r.placeholder.Render(spec.Description); err == nil {
		if werr := os.WriteFile(path, raw, 0o644); werr == nil {
			spec.FilePath = path
			spec.Status = types.ImagePlaceholder
			spec.Source = "placeholder"
			stats.Placeholders++
			return
		}
	}

	r.log.Warn("Image unresolvable", "slide", slideNumber, "index", imageIndex, "description", spec.Description)
	spec.Status = types.ImageFailed
	stats.Failed++
}

// searchBest downloads up to maxCandidates stock results concurrently
// and returns the highest-scoring one, or nil when search yields
// nothing usable.
func (r *imageResolver) searchBest(ctx context.Context, description string) []byte {
	urls := r.searchCandidates(ctx, description)
	if len(urls) == 0 {
		return nil
	}

	type candidate struct {
		raw   []byte
		score float64
	}
	results := make([]*candidate, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			raw, err := r.download(gctx, u)
			if err != nil {
				r.log.Debug("Candidate download failed", "url", u, "error", err)
				return nil
			}
			c := &candidate{raw: raw, score: 0.5}
			if r.vision != nil {
				if score, err := r.vision.ScoreImage(gctx, raw, strings.Fields(description)); err == nil {
					c.score = score.Score
				}
			}
			results[i] = c
			return nil
		})
	}
	_ = g.Wait()

	var best *candidate
	for _, c := range results {
		if c == nil {
			continue
		}
		if best == nil || c.score > best.score {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	return best.raw
}

func (r *imageResolver) searchCandidates(ctx context.Context, description string) []string {
	q := url.Values{}
	q.Set("q", description)
	q.Set("page_size", fmt.Sprintf("%d", r.maxCandidates))
	endpoint := strings.TrimRight(r.searchBaseURL, "/") + "/v1/images/?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.log.Debug("Image search failed", "error", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		r.log.Debug("Image search non-200", "status", resp.StatusCode)
		return nil
	}

	var decoded struct {
		Results []struct {
			URL string `json:"url"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil
	}

	out := make([]string, 0, len(decoded.Results))
	for _, res := range decoded.Results {
		if res.URL != "" {
			out = append(out, res.URL)
		}
	}
	return out
}

func (r *imageResolver) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}
	// 10MB cap keeps one oversized stock result from ballooning memory.
	return io.ReadAll(io.LimitReader(resp.Body, 10<<20))
}

func (r *imageResolver) generateWithRetries(ctx context.Context, description string) []byte {
	if r.ai == nil {
		return nil
	}
	prompt := "Clean educational illustration, no text overlay: " + description
	for attempt := 0; attempt <= r.genRetries; attempt++ {
		if ctx.Err() != nil {
			return nil
		}
		raw, err := r.ai.GenerateImage(ctx, prompt, "1024x1024")
		if err == nil && len(raw) > 0 {
			return raw
		}
		r.log.Debug("Image generation attempt failed", "attempt", attempt+1, "error", err)
	}
	return nil
}
