package progress

import (
	"sync"
	"time"

	"github.com/LOGQS/coursegen-backend/internal/logger"
)

// Observer receives an immutable snapshot on every progress change.
type Observer func(Snapshot)

// CurrentStageView is the snapshot view of the stage the pipeline is in.
type CurrentStageView struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Progress    float64      `json:"progress"`
	Details     StageDetails `json:"details"`
}

type TimingView struct {
	ElapsedSeconds     float64 `json:"elapsed_time_seconds"`
	ElapsedFormatted   string  `json:"elapsed_time_formatted"`
	EstimatedTotal     string  `json:"estimated_total_time"`
	EstimatedRemaining string  `json:"estimated_remaining"`
}

type StageSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Completed bool    `json:"completed"`
	Progress  float64 `json:"progress"`
}

// Snapshot is the full read-only progress state handed to observers and
// returned to pollers.
type Snapshot struct {
	SessionID       string           `json:"session_id"`
	OverallProgress float64          `json:"overall_progress"`
	CurrentStage    CurrentStageView `json:"current_stage"`
	Statistics      Statistics       `json:"statistics"`
	Timing          TimingView       `json:"timing"`
	StagesSummary   []StageSummary   `json:"stages_summary"`
	LastUpdated     string           `json:"last_updated"`
}

// StageReport is one stage's line in the terminal report.
type StageReport struct {
	ID          string       `json:"stage_id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Weight      float64      `json:"weight"`
	Completed   bool         `json:"completed"`
	TimeSpent   float64      `json:"time_spent_seconds"`
	Details     StageDetails `json:"details"`
}

// Report is the terminal summary exported once a session finishes.
type Report struct {
	SessionID            string        `json:"session_id"`
	TotalElapsedSeconds  float64       `json:"total_elapsed_time"`
	TotalElapsedFmt      string        `json:"total_elapsed_formatted"`
	OverallProgress      float64       `json:"overall_progress"`
	Stages               []StageReport `json:"stages"`
	Statistics           Statistics    `json:"statistics"`
	AvgSlidesPerMinute   float64       `json:"avg_slides_per_minute"`
	AvgImagesPerMinute   float64       `json:"avg_images_per_minute"`
	ProcessingEfficiency float64       `json:"processing_efficiency"`
}

// Tracker aggregates the fixed weighted stage list into one overall
// 0-100 percentage plus statistics for a single session. A tracker is
// owned by its session's pipeline goroutine; the mutex exists because
// snapshots are also read by HTTP pollers.
type Tracker struct {
	mu sync.Mutex

	sessionID string
	log       *logger.Logger

	stages       []*Stage
	currentIndex int
	overall      float64
	stats        Statistics

	observers []Observer

	startTime time.Time
	now       func() time.Time
}

func NewTracker(sessionID string, baseLog *logger.Logger) *Tracker {
	if baseLog == nil {
		baseLog = logger.NewNop()
	}
	t := &Tracker{
		sessionID: sessionID,
		log:       baseLog.With("component", "ProgressTracker", "session_id", sessionID),
		stages:    DefaultStages(),
		stats:     NewStatistics(),
		now:       time.Now,
	}
	t.startTime = t.now()
	return t
}

// AddObserver registers fn to be invoked synchronously with a snapshot
// on every progress change. A panicking observer is logged and isolated;
// it never interrupts the pipeline or the other observers.
func (t *Tracker) AddObserver(fn Observer) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	t.observers = append(t.observers, fn)
	t.mu.Unlock()
}

func (t *Tracker) findStage(stageID string) (*Stage, int) {
	for i, s := range t.stages {
		if s.ID == stageID {
			return s, i
		}
	}
	return nil, -1
}

// StartStage marks a stage active. Unknown stage ids are logged and
// ignored. Mutual exclusion between stages is the orchestrator's
// contract, not enforced here.
func (t *Tracker) StartStage(stageID string, details StageDetails) {
	t.mu.Lock()
	stage, idx := t.findStage(stageID)
	if stage == nil {
		t.mu.Unlock()
		t.log.Warn("Unknown stage", "stage_id", stageID)
		return
	}
	now := t.now()
	t.currentIndex = idx
	stage.StartedAt = &now
	stage.SubProgress = 0
	stage.Details.Merge(details)
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.emit(snap)
}

// UpdateStageProgress sets a stage's own completion fraction, clamped to
// [0,100]. Safe to call rapidly from per-item loops.
func (t *Tracker) UpdateStageProgress(stageID string, pct float64, details StageDetails) {
	t.mu.Lock()
	stage, _ := t.findStage(stageID)
	if stage == nil {
		t.mu.Unlock()
		t.log.Warn("Unknown stage", "stage_id", stageID)
		return
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	stage.SubProgress = pct
	stage.Details.Merge(details)
	t.recomputeOverallLocked()
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.emit(snap)
}

// CompleteStage forces a stage to 100, stamps its end time and advances
// the current-stage pointer. Completing an already-done stage is a
// no-op.
func (t *Tracker) CompleteStage(stageID string) {
	t.mu.Lock()
	stage, idx := t.findStage(stageID)
	if stage == nil {
		t.mu.Unlock()
		t.log.Warn("Unknown stage", "stage_id", stageID)
		return
	}
	if stage.Done() {
		t.mu.Unlock()
		return
	}
	now := t.now()
	stage.EndedAt = &now
	stage.SubProgress = 100
	t.recomputeOverallLocked()
	if idx < len(t.stages)-1 {
		t.currentIndex = idx + 1
		next := t.stages[t.currentIndex]
		if next.StartedAt == nil {
			started := t.now()
			next.StartedAt = &started
		}
	}
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.emit(snap)
}

// UpdateStatistics applies mutate to the statistics record, then
// recomputes the derived throughput, speed label and remaining-time
// estimate.
func (t *Tracker) UpdateStatistics(mutate func(*Statistics)) {
	if mutate == nil {
		return
	}
	t.mu.Lock()
	mutate(&t.stats)
	t.updatePerformanceMetricsLocked()
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.emit(snap)
}

// CurrentStatus returns a read-only snapshot. Cheap and side-effect
// free; called frequently for polling and notification payloads.
func (t *Tracker) CurrentStatus() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// ExportProgressReport builds the terminal summary with per-stage
// timings and the processing-efficiency score.
func (t *Tracker) ExportProgressReport() Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := t.now().Sub(t.startTime).Seconds()
	stages := make([]StageReport, 0, len(t.stages))
	for _, s := range t.stages {
		spent := 0.0
		if s.StartedAt != nil && s.EndedAt != nil {
			spent = s.EndedAt.Sub(*s.StartedAt).Seconds()
		}
		stages = append(stages, StageReport{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Weight:      s.Weight,
			Completed:   s.Done(),
			TimeSpent:   spent,
			Details:     s.Details,
		})
	}
	return Report{
		SessionID:            t.sessionID,
		TotalElapsedSeconds:  elapsed,
		TotalElapsedFmt:      FormatDuration(elapsed),
		OverallProgress:      t.overall,
		Stages:               stages,
		Statistics:           t.stats,
		AvgSlidesPerMinute:   t.stats.AvgSlidesPerMinute,
		AvgImagesPerMinute:   t.stats.AvgImagesPerMinute,
		ProcessingEfficiency: t.processingEfficiencyLocked(),
	}
}

func (t *Tracker) recomputeOverallLocked() {
	total := 0.0
	for _, s := range t.stages {
		switch {
		case s.Done():
			total += s.Weight
		case s.StartedAt != nil:
			total += (s.SubProgress / 100.0) * s.Weight
		}
	}
	if total > 100 {
		total = 100
	}
	t.overall = total
}

func (t *Tracker) updatePerformanceMetricsLocked() {
	elapsed := t.now().Sub(t.startTime).Seconds()
	elapsedMinutes := elapsed / 60.0

	if elapsedMinutes > 0 {
		t.stats.AvgSlidesPerMinute = float64(t.stats.SlidesGenerated) / elapsedMinutes
		t.stats.AvgImagesPerMinute = float64(t.stats.ImagesProcessed) / elapsedMinutes
	}

	if t.stats.SlidesGenerated > 0 {
		avgPerSlide := elapsed / float64(t.stats.SlidesGenerated)
		switch {
		case avgPerSlide < 30:
			t.stats.ProcessingSpeed = "Fast"
		case avgPerSlide < 60:
			t.stats.ProcessingSpeed = "Normal"
		default:
			t.stats.ProcessingSpeed = "Slow"
		}
	}

	// Linear extrapolation; intentionally coarse. Only meaningful once
	// enough progress exists to divide by.
	if t.overall > 5 {
		estimatedTotal := (elapsed / t.overall) * 100
		remaining := estimatedTotal - elapsed
		if remaining < 0 {
			remaining = 0
		}
		t.stats.EstimatedCompletionTime = FormatDuration(remaining)
	}
}

func (t *Tracker) processingEfficiencyLocked() float64 {
	if t.stats.TotalSlides == 0 {
		return 0
	}
	elapsedMinutes := t.now().Sub(t.startTime).Minutes()
	if elapsedMinutes == 0 {
		return 100
	}
	// Target of 2 slides per minute counts as full efficiency.
	target := elapsedMinutes * 2
	eff := float64(t.stats.SlidesGenerated) / target * 100
	if eff > 100 {
		eff = 100
	}
	return eff
}

func (t *Tracker) estimateLocked(elapsed float64) (total, remaining string) {
	if t.overall > 5 {
		estimatedTotal := (elapsed / t.overall) * 100
		rem := estimatedTotal - elapsed
		if rem < 0 {
			rem = 0
		}
		return FormatDuration(estimatedTotal), FormatDuration(rem)
	}
	return "Calculating...", "Calculating..."
}

func (t *Tracker) snapshotLocked() Snapshot {
	elapsed := t.now().Sub(t.startTime).Seconds()
	estTotal, estRemaining := t.estimateLocked(elapsed)

	current := CurrentStageView{
		ID:          "completed",
		Name:        "Completed",
		Description: "Course generation completed",
		Progress:    100,
	}
	if t.currentIndex < len(t.stages) {
		s := t.stages[t.currentIndex]
		current = CurrentStageView{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Progress:    s.SubProgress,
			Details:     s.Details,
		}
	}

	summary := make([]StageSummary, 0, len(t.stages))
	for _, s := range t.stages {
		p := 0.0
		switch {
		case s.Done():
			p = 100
		case s.StartedAt != nil:
			p = s.SubProgress
		}
		summary = append(summary, StageSummary{ID: s.ID, Name: s.Name, Completed: s.Done(), Progress: p})
	}

	return Snapshot{
		SessionID:       t.sessionID,
		OverallProgress: t.overall,
		CurrentStage:    current,
		Statistics:      t.stats,
		Timing: TimingView{
			ElapsedSeconds:     elapsed,
			ElapsedFormatted:   FormatDuration(elapsed),
			EstimatedTotal:     estTotal,
			EstimatedRemaining: estRemaining,
		},
		StagesSummary: summary,
		LastUpdated:   t.now().Format(time.RFC3339),
	}
}

func (t *Tracker) emit(snap Snapshot) {
	t.mu.Lock()
	observers := make([]Observer, len(t.observers))
	copy(observers, t.observers)
	t.mu.Unlock()

	for _, fn := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.log.Error("Progress observer panic", "panic", r)
				}
			}()
			fn(snap)
		}()
	}
}
