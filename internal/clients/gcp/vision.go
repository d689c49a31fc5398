package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/LOGQS/coursegen-backend/internal/logger"
)

// Vision scores candidate slide images by how well their detected
// labels match the image description from the slide spec. Used to pick
// the best of several downloaded candidates before falling back to
// generation.
type Vision interface {
	ScoreImage(ctx context.Context, img []byte, keywords []string) (*ImageScore, error)
	Close() error
}

type ImageScore struct {
	Score  float64  `json:"score"`
	Labels []string `json:"labels,omitempty"`
}

type visionService struct {
	log    *logger.Logger
	client *vision.ImageAnnotatorClient

	maxLabels int32
}

func NewVision(log *logger.Logger) (Vision, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "gcp.Vision")

	ctx := context.Background()
	opts := ClientOptionsFromEnv()

	vClient, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}

	return &visionService{
		log:       slog,
		client:    vClient,
		maxLabels: 15,
	}, nil
}

func (s *visionService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *visionService) ScoreImage(ctx context.Context, img []byte, keywords []string) (*ImageScore, error) {
	if len(img) == 0 {
		return &ImageScore{Score: 0}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req := &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{Content: img},
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_LABEL_DETECTION, MaxResults: s.maxLabels},
		},
	}

	br := &visionpb.BatchAnnotateImagesRequest{Requests: []*visionpb.AnnotateImageRequest{req}}
	resp, err := s.client.BatchAnnotateImages(ctx, br)
	if err != nil {
		return nil, fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return &ImageScore{Score: 0}, nil
	}

	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return nil, fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}

	labels := make([]string, 0, len(r0.LabelAnnotations))
	score := 0.0
	for _, la := range r0.LabelAnnotations {
		if la == nil || la.Description == "" {
			continue
		}
		labels = append(labels, la.Description)
		if matchesAnyKeyword(la.Description, keywords) {
			score += float64(la.Score)
		}
	}
	if score > 1 {
		score = 1
	}

	return &ImageScore{Score: score, Labels: labels}, nil
}

func matchesAnyKeyword(label string, keywords []string) bool {
	l := strings.ToLower(label)
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if strings.Contains(l, k) || strings.Contains(k, l) {
			return true
		}
	}
	return false
}
