package progress

import (
	"testing"
	"time"

	"github.com/LOGQS/coursegen-backend/internal/logger"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	return NewTracker("sess-test", logger.NewNop())
}

func TestOverallProgressMonotonicAndReaches100(t *testing.T) {
	tr := newTestTracker(t)

	last := -1.0
	check := func() {
		cur := tr.CurrentStatus().OverallProgress
		if cur < last {
			t.Fatalf("overall progress regressed: %v -> %v", last, cur)
		}
		last = cur
	}

	for _, s := range DefaultStages() {
		tr.StartStage(s.ID, StageDetails{})
		check()
		for _, pct := range []float64{10, 40, 75, 100} {
			tr.UpdateStageProgress(s.ID, pct, StageDetails{})
			check()
		}
		tr.CompleteStage(s.ID)
		check()
	}

	if got := tr.CurrentStatus().OverallProgress; got != 100 {
		t.Fatalf("final overall progress = %v, want 100", got)
	}
}

func TestUpdateStageProgressClamps(t *testing.T) {
	tr := newTestTracker(t)
	tr.StartStage(StageCourseStructure, StageDetails{})

	tr.UpdateStageProgress(StageCourseStructure, -5, StageDetails{})
	if got := tr.CurrentStatus().CurrentStage.Progress; got != 0 {
		t.Fatalf("negative input: stage progress = %v, want 0", got)
	}

	tr.UpdateStageProgress(StageCourseStructure, 150, StageDetails{})
	if got := tr.CurrentStatus().CurrentStage.Progress; got != 100 {
		t.Fatalf("overflow input: stage progress = %v, want 100", got)
	}
}

func TestCompleteStageIdempotent(t *testing.T) {
	tr := newTestTracker(t)
	tr.StartStage(StageInitialization, StageDetails{})
	tr.CompleteStage(StageInitialization)
	first := tr.CurrentStatus().OverallProgress

	tr.CompleteStage(StageInitialization)
	second := tr.CurrentStatus().OverallProgress
	if first != second {
		t.Fatalf("second CompleteStage changed progress: %v -> %v", first, second)
	}
}

func TestUnknownStageIgnored(t *testing.T) {
	tr := newTestTracker(t)
	tr.StartStage("no_such_stage", StageDetails{})
	tr.UpdateStageProgress("no_such_stage", 50, StageDetails{})
	tr.CompleteStage("no_such_stage")
	if got := tr.CurrentStatus().OverallProgress; got != 0 {
		t.Fatalf("unknown stage affected progress: %v", got)
	}
}

func TestObserverSeesEveryUpdateAndPanicsAreIsolated(t *testing.T) {
	tr := newTestTracker(t)

	var seen []float64
	tr.AddObserver(func(Snapshot) { panic("observer exploded") })
	tr.AddObserver(func(s Snapshot) { seen = append(seen, s.OverallProgress) })

	tr.StartStage(StageInitialization, StageDetails{})
	tr.UpdateStageProgress(StageInitialization, 50, StageDetails{})
	tr.CompleteStage(StageInitialization)

	if len(seen) != 3 {
		t.Fatalf("observer saw %d updates, want 3", len(seen))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Fatalf("observer saw regressing progress: %v", seen)
		}
	}
}

func TestStatisticsDerivedRates(t *testing.T) {
	tr := newTestTracker(t)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr.startTime = start
	tr.now = func() time.Time { return start.Add(5 * time.Minute) }

	tr.UpdateStatistics(func(s *Statistics) {
		s.SlidesGenerated = 10
		s.ImagesProcessed = 5
	})

	stats := tr.CurrentStatus().Statistics
	if stats.AvgSlidesPerMinute != 2.0 {
		t.Fatalf("avg_slides_per_minute = %v, want 2.0", stats.AvgSlidesPerMinute)
	}
	if stats.AvgImagesPerMinute != 1.0 {
		t.Fatalf("avg_images_per_minute = %v, want 1.0", stats.AvgImagesPerMinute)
	}
	// 300s / 10 slides = 30s per slide, the Normal boundary.
	if stats.ProcessingSpeed != "Normal" {
		t.Fatalf("processing_speed = %q, want Normal", stats.ProcessingSpeed)
	}
}

func TestRecordAPICallRunningAverage(t *testing.T) {
	s := NewStatistics()

	s.RecordAPICall(1000, 2.0)
	s.RecordAPICall(500, 1.0)
	s.RecordAPICall(0, 3.0)

	if s.APICallsMade != 3 {
		t.Fatalf("api_calls_made = %d, want 3", s.APICallsMade)
	}
	if s.TotalTokensUsed != 1500 {
		t.Fatalf("total_tokens_used = %d, want 1500", s.TotalTokensUsed)
	}
	if s.AvgResponseTime != 2.0 {
		t.Fatalf("avg_response_time = %v, want 2.0", s.AvgResponseTime)
	}
}

func TestRemainingTimeEstimate(t *testing.T) {
	tr := newTestTracker(t)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr.startTime = start
	tr.now = func() time.Time { return start.Add(60 * time.Second) }

	tr.StartStage(StageCourseStructure, StageDetails{})
	// 5 + part of course_structure: not enough signal yet at <=5 overall.
	snap := tr.CurrentStatus()
	if snap.OverallProgress > 5 && snap.Timing.EstimatedRemaining == "Calculating..." {
		t.Fatalf("estimate missing above the 5%% floor: %+v", snap.Timing)
	}

	tr.CompleteStage(StageInitialization)
	tr.CompleteStage(StageCourseStructure)
	snap = tr.CurrentStatus()
	if snap.OverallProgress <= 5 {
		t.Fatalf("overall progress = %v, want > 5", snap.OverallProgress)
	}
	// elapsed 60s at 20% => total 300s, remaining 240s.
	if snap.Timing.EstimatedRemaining != "4m 0s" {
		t.Fatalf("estimated remaining = %q, want %q", snap.Timing.EstimatedRemaining, "4m 0s")
	}
	if snap.Timing.EstimatedTotal != "5m 0s" {
		t.Fatalf("estimated total = %q, want %q", snap.Timing.EstimatedTotal, "5m 0s")
	}
}

func TestExportProgressReportEfficiencyCapped(t *testing.T) {
	tr := newTestTracker(t)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr.startTime = start
	tr.now = func() time.Time { return start.Add(1 * time.Minute) }

	tr.UpdateStatistics(func(s *Statistics) {
		s.TotalSlides = 10
		s.SlidesGenerated = 10
	})

	report := tr.ExportProgressReport()
	// 10 slides in 1 minute against a 2/minute target would be 500%.
	if report.ProcessingEfficiency != 100 {
		t.Fatalf("processing efficiency = %v, want capped at 100", report.ProcessingEfficiency)
	}
	if len(report.Stages) != len(DefaultStages()) {
		t.Fatalf("report has %d stages, want %d", len(report.Stages), len(DefaultStages()))
	}
}

func TestCompleteAdvancesCurrentStage(t *testing.T) {
	tr := newTestTracker(t)
	tr.StartStage(StageInitialization, StageDetails{})
	tr.CompleteStage(StageInitialization)

	cur := tr.CurrentStatus().CurrentStage
	if cur.ID != StageCourseStructure {
		t.Fatalf("current stage after completion = %q, want %q", cur.ID, StageCourseStructure)
	}
}
