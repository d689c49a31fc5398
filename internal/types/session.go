package types

import (
	"fmt"
	"strings"
	"time"
)

type SessionStatus string

const (
	SessionInitializing SessionStatus = "initializing"
	SessionRunning      SessionStatus = "running"
	SessionCompleted    SessionStatus = "completed"
	SessionError        SessionStatus = "error"
)

// Terminal reports whether a session can no longer change state.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionError
}

// GenerationRequest carries the caller-supplied parameters for one
// end-to-end generation session. Immutable once accepted.
type GenerationRequest struct {
	Topic          string            `json:"topic"`
	Complexity     string            `json:"complexity"`
	Duration       string            `json:"duration"`
	LearningStyle  string            `json:"learning_style"`
	SlideCount     string            `json:"slide_count"`     // "auto" or a number
	ContentDensity string            `json:"content_density"` // low | medium | high
	BatchSize      int               `json:"batch_size"`
	Voice          string            `json:"voice"`
	Speed          float64           `json:"speed"`
	Theme          string            `json:"theme"`
	Customizations map[string]string `json:"customizations,omitempty"`
}

func (r *GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return fmt.Errorf("topic is required")
	}
	if r.BatchSize < 0 || r.BatchSize > 10 {
		return fmt.Errorf("batch_size must be between 0 and 10")
	}
	return nil
}

// ApplyDefaults fills the fields the caller left empty.
func (r *GenerationRequest) ApplyDefaults() {
	if r.Complexity == "" {
		r.Complexity = "intermediate"
	}
	if r.Duration == "" {
		r.Duration = "medium"
	}
	if r.LearningStyle == "" {
		r.LearningStyle = "mixed"
	}
	if r.SlideCount == "" {
		r.SlideCount = "auto"
	}
	if r.ContentDensity == "" {
		r.ContentDensity = "medium"
	}
	if r.BatchSize == 0 {
		r.BatchSize = 5
	}
	if r.Speed == 0 {
		r.Speed = 1.0
	}
	if r.Theme == "" {
		r.Theme = "default"
	}
}

// SessionFailure records the stage a session failed at and why.
type SessionFailure struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// SessionResult references the artifacts a completed session produced.
// AudioFiles is index-aligned with Slides; nil entries mark slides whose
// narration could not be synthesized.
type SessionResult struct {
	SessionID       string            `json:"session_id"`
	DocumentPath    string            `json:"document_path"`
	AudioFiles      []*string         `json:"audio_files"`
	TranscriptFiles []string          `json:"transcript_files"`
	SlideImages     []string          `json:"slide_images,omitempty"`
	Structure       *CourseStructure  `json:"structure,omitempty"`
	Plan            *PresentationPlan `json:"plan,omitempty"`
	Slides          []*SlideContent   `json:"slides,omitempty"`
	TotalSlides     int               `json:"total_slides"`
	TotalImages     int               `json:"total_images"`
	GeneratedAt     time.Time         `json:"generated_at"`
}

// Session is one end-to-end generation request tracked by the registry.
// Result and Failure are mutually exclusive and both nil while the
// session is non-terminal.
type Session struct {
	ID          string             `json:"id"`
	Status      SessionStatus      `json:"status"`
	Request     GenerationRequest  `json:"request"`
	Progress    float64            `json:"progress"`
	StageLabel  string             `json:"stage"`
	Result      *SessionResult     `json:"result,omitempty"`
	Failure     *SessionFailure    `json:"error,omitempty"`
	StartTime   time.Time          `json:"start_time"`
	EndTime     *time.Time         `json:"end_time,omitempty"`
	LastUpdated time.Time          `json:"last_updated"`
}
