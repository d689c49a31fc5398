package progress

import (
	"fmt"
	"time"
)

// Stage identifiers for the fixed generation pipeline.
const (
	StageInitialization       = "initialization"
	StageCourseStructure      = "course_structure"
	StagePresentationPlanning = "presentation_planning"
	StageSlideGeneration      = "slide_generation"
	StageImageProcessing      = "image_processing"
	StagePresentationBuilding = "presentation_building"
	StageAudioGeneration      = "audio_generation"
	StageFinalization         = "finalization"
)

// StageDetails is the small set of annotations the orchestrator attaches
// to a stage. Consumers read only these fields; merging keeps the
// previously set value when the incoming field is zero.
type StageDetails struct {
	Topic        string `json:"topic,omitempty"`
	Complexity   string `json:"complexity,omitempty"`
	Duration     string `json:"duration,omitempty"`
	BatchSize    int    `json:"batch_size,omitempty"`
	TotalSlides  int    `json:"total_slides,omitempty"`
	CurrentSlide int    `json:"current_slide,omitempty"`
	TotalImages  int    `json:"total_images,omitempty"`
	CurrentImage int    `json:"current_image,omitempty"`
	TotalAudio   int    `json:"total_audio,omitempty"`
	CurrentAudio int    `json:"current_audio,omitempty"`
	Message      string `json:"message,omitempty"`
}

func (d *StageDetails) Merge(in StageDetails) {
	if in.Topic != "" {
		d.Topic = in.Topic
	}
	if in.Complexity != "" {
		d.Complexity = in.Complexity
	}
	if in.Duration != "" {
		d.Duration = in.Duration
	}
	if in.BatchSize != 0 {
		d.BatchSize = in.BatchSize
	}
	if in.TotalSlides != 0 {
		d.TotalSlides = in.TotalSlides
	}
	if in.CurrentSlide != 0 {
		d.CurrentSlide = in.CurrentSlide
	}
	if in.TotalImages != 0 {
		d.TotalImages = in.TotalImages
	}
	if in.CurrentImage != 0 {
		d.CurrentImage = in.CurrentImage
	}
	if in.TotalAudio != 0 {
		d.TotalAudio = in.TotalAudio
	}
	if in.CurrentAudio != 0 {
		d.CurrentAudio = in.CurrentAudio
	}
	if in.Message != "" {
		d.Message = in.Message
	}
}

// Stage is one named, weighted phase of the pipeline. A stage is pending
// until StartedAt is set, active until EndedAt is set, done afterwards.
type Stage struct {
	ID          string
	Name        string
	Description string
	Weight      float64 // share of overall progress, percentage points
	SubProgress float64 // this stage's own 0-100 completion
	StartedAt   *time.Time
	EndedAt     *time.Time
	Details     StageDetails
}

func (s *Stage) Done() bool   { return s.EndedAt != nil }
func (s *Stage) Active() bool { return s.StartedAt != nil && s.EndedAt == nil }

// DefaultStages returns the fixed pipeline stage list. Weights sum to
// 100; slide generation and image processing dominate because they
// dominate wall-clock cost.
func DefaultStages() []*Stage {
	return []*Stage{
		{ID: StageInitialization, Name: "Initializing", Description: "Setting up course generation pipeline", Weight: 5},
		{ID: StageCourseStructure, Name: "Generating Course Structure", Description: "Creating hierarchical course outline with AI", Weight: 15},
		{ID: StagePresentationPlanning, Name: "Planning Presentation", Description: "Converting course structure to slide format", Weight: 10},
		{ID: StageSlideGeneration, Name: "Generating Slide Content", Description: "Creating detailed content for each slide", Weight: 35},
		{ID: StageImageProcessing, Name: "Processing Images", Description: "Finding and generating images for slides", Weight: 20},
		{ID: StagePresentationBuilding, Name: "Building Presentation", Description: "Assembling presentation document", Weight: 8},
		{ID: StageAudioGeneration, Name: "Generating Audio", Description: "Creating narration audio for slides", Weight: 5},
		{ID: StageFinalization, Name: "Finalizing", Description: "Saving files and creating metadata", Weight: 2},
	}
}

// FormatDuration renders a duration the way clients display it:
// "45s", "2m 5s", "1h 2m".
func FormatDuration(seconds float64) string {
	s := int(seconds)
	switch {
	case s < 60:
		return fmt.Sprintf("%ds", s)
	case s < 3600:
		return fmt.Sprintf("%dm %ds", s/60, s%60)
	default:
		return fmt.Sprintf("%dh %dm", s/3600, (s%3600)/60)
	}
}
