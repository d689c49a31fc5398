package progress

// Statistics is the mutable counter bag for one session. Created zeroed
// at session start, updated incrementally by the orchestrator, read-only
// to observers. Derived fields are recomputed by the tracker after each
// update.
type Statistics struct {
	TotalTopics         int `json:"total_topics"`
	TotalSubtopics      int `json:"total_subtopics"`
	TotalSlides         int `json:"total_slides"`
	SlidesGenerated     int `json:"slides_generated"`
	TotalImages         int `json:"total_images"`
	ImagesProcessed     int `json:"images_processed"`
	ImagesSucceeded     int `json:"images_succeeded"`
	ImagesPlaceholder   int `json:"images_placeholder"`
	ImagesFailed        int `json:"images_failed"`
	TotalAudioFiles     int `json:"total_audio_files"`
	AudioFilesGenerated int `json:"audio_files_generated"`

	// Derived performance metrics.
	AvgSlidesPerMinute      float64 `json:"avg_slides_per_minute"`
	AvgImagesPerMinute      float64 `json:"avg_images_per_minute"`
	EstimatedCompletionTime string  `json:"estimated_completion_time,omitempty"`
	ProcessingSpeed         string  `json:"processing_speed"`

	// Provider usage.
	APICallsMade    int     `json:"api_calls_made"`
	TotalTokensUsed int     `json:"total_tokens_used"`
	AvgResponseTime float64 `json:"avg_response_time"`
}

// NewStatistics returns a zeroed statistics record with the speed label
// in its pre-measurement state.
func NewStatistics() Statistics {
	return Statistics{ProcessingSpeed: "Calculating..."}
}

// RecordAPICall folds one provider call into the usage counters.
// AvgResponseTime is a running mean over every call so far.
func (s *Statistics) RecordAPICall(totalTokens int, latencySeconds float64) {
	s.APICallsMade++
	s.TotalTokensUsed += totalTokens
	s.AvgResponseTime += (latencySeconds - s.AvgResponseTime) / float64(s.APICallsMade)
}
