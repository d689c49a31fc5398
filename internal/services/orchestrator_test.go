package services

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/LOGQS/coursegen-backend/internal/logger"
	"github.com/LOGQS/coursegen-backend/internal/progress"
	"github.com/LOGQS/coursegen-backend/internal/session"
	"github.com/LOGQS/coursegen-backend/internal/types"
)

// recordingNotifier captures every emitted event for assertions.
type recordingNotifier struct {
	mu         sync.Mutex
	snapshots  []progress.Snapshot
	legacy     []float64
	heartbeats int
	completed  bool
	failedAt   string
	failedMsg  string
}

func (n *recordingNotifier) EnhancedProgress(snap progress.Snapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.snapshots = append(n.snapshots, snap)
}

func (n *recordingNotifier) SessionProgress(sessionID string, pct float64, message string, elapsed time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.legacy = append(n.legacy, pct)
}

func (n *recordingNotifier) Heartbeat(sessionID, stage string, pct float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.heartbeats++
}

func (n *recordingNotifier) Complete(sessionID string, summary map[string]any, report progress.Report) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = true
}

func (n *recordingNotifier) Failed(sessionID, stage, errorMessage string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failedAt = stage
	n.failedMsg = errorMessage
}

type fakeStructureGen struct{ err error }

func (f *fakeStructureGen) GenerateStructure(ctx context.Context, req types.GenerationRequest) (*types.CourseStructure, error) {
	if f.err != nil {
		return nil, f.err
	}
	// mirror the real generator: its client reports usage through ctx
	if rec := UsageRecorderFrom(ctx); rec != nil {
		rec.RecordCall(1200, 250*time.Millisecond)
	}
	return &types.CourseStructure{
		CourseTitle: "Intro to " + req.Topic,
		Description: "A short course.",
		MainTopics: []types.MainTopic{
			{Title: "Basics", Subtopics: []types.Subtopic{{Title: "Overview", LearningUnits: []string{"u1"}}}},
		},
	}, nil
}

type fakePlanner struct{ slides int }

func (f *fakePlanner) BuildPlan(ctx context.Context, structure *types.CourseStructure, req types.GenerationRequest) (*types.PresentationPlan, error) {
	plan := &types.PresentationPlan{PresentationTitle: structure.CourseTitle}
	for i := 1; i <= f.slides; i++ {
		plan.Slides = append(plan.Slides, types.SlideSpec{SlideNumber: i, Title: fmt.Sprintf("S%d", i), SlideType: "content"})
	}
	return plan, nil
}

type fakeSlideGen struct{}

func (f *fakeSlideGen) GenerateSlides(ctx context.Context, plan *types.PresentationPlan, req types.GenerationRequest, onProgress func(generated, total int)) ([]*types.SlideContent, error) {
	total := len(plan.Slides)
	out := make([]*types.SlideContent, 0, total)
	for i := 1; i <= total; i++ {
		if rec := UsageRecorderFrom(ctx); rec != nil {
			rec.RecordCall(800, 100*time.Millisecond)
		}
		out = append(out, &types.SlideContent{
			SlideNumber: i,
			Title:       plan.Slides[i-1].Title,
			Transcript:  fmt.Sprintf("Narration %d.", i),
			Images:      []*types.ImageSpec{{Description: "img", Status: types.ImagePending}},
		})
		if onProgress != nil {
			onProgress(i, total)
		}
	}
	return out, nil
}

type fakeImages struct{}

func (f *fakeImages) ResolveImages(ctx context.Context, slides []*types.SlideContent, dir string, onProgress func(processed, total int)) ImageStats {
	var stats ImageStats
	total := types.TotalImageCount(slides)
	processed := 0
	for _, s := range slides {
		for _, img := range s.Images {
			img.Status = types.ImagePlaceholder
			img.Source = "placeholder"
			stats.Placeholders++
			processed++
			if onProgress != nil {
				onProgress(processed, total)
			}
		}
	}
	return stats
}

type fakeBuilder struct{}

func (f *fakeBuilder) BuildPresentation(ctx context.Context, plan *types.PresentationPlan, slides []*types.SlideContent, theme Theme, outPath string) (string, error) {
	return outPath, nil
}

// fakeAudio fails narration on the second slide, leaving a nil hole.
type fakeAudio struct{}

func (f *fakeAudio) SynthesizeCourse(ctx context.Context, slides []*types.SlideContent, req types.GenerationRequest, audioDir, transcriptDir string, onProgress func(done, total int)) (*AudioResult, error) {
	total := len(slides)
	res := &AudioResult{AudioFiles: make([]*string, total)}
	for i := range slides {
		if i == 1 {
			res.Skipped++
		} else {
			p := fmt.Sprintf("%s/slide_%02d.mp3", audioDir, i+1)
			res.AudioFiles[i] = &p
			res.Synthesized++
		}
		if onProgress != nil {
			onProgress(i+1, total)
		}
	}
	return res, nil
}

func newTestService(t *testing.T, notifier GenerationNotifier, structGen StructureGenerator) (GenerationService, *session.Registry) {
	t.Helper()
	t.Setenv("OUTPUT_DIR", t.TempDir())
	log := logger.NewNop()
	reg := session.NewRegistry(log)
	svc := NewGenerationService(
		log, reg, notifier,
		structGen,
		&fakePlanner{slides: 2},
		&fakeSlideGen{},
		&fakeImages{},
		&fakeBuilder{},
		NewSlidePreviewRenderer(log),
		&fakeAudio{},
		NewFileStore(log),
		NewThemeService(log),
		nil,
	)
	return svc, reg
}

func waitForTerminal(t *testing.T, reg *session.Registry, id string) *types.Session {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s := reg.Get(id); s != nil && s.Status.Terminal() {
			return s
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("session %s never reached a terminal state", id)
	return nil
}

func TestRunSessionCompletesEndToEnd(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, reg := newTestService(t, notifier, &fakeStructureGen{})

	id, err := svc.StartSession(context.Background(), types.GenerationRequest{Topic: "Photosynthesis"})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	sess := waitForTerminal(t, reg, id)
	if sess.Status != types.SessionCompleted {
		t.Fatalf("status = %q (failure: %+v)", sess.Status, sess.Failure)
	}
	if sess.Progress != 100 {
		t.Fatalf("final progress = %v, want 100", sess.Progress)
	}
	if sess.Result == nil || sess.Result.TotalSlides != 2 {
		t.Fatalf("unexpected result: %+v", sess.Result)
	}

	// Narration hole stays positional: slide 2 has no audio.
	if got := sess.Result.AudioFiles; len(got) != 2 || got[0] == nil || got[1] != nil {
		t.Fatalf("audio alignment broken: %+v", got)
	}

	// Finalization derives one viewable preview image per slide.
	if got := sess.Result.SlideImages; len(got) != 2 {
		t.Fatalf("slide images = %v, want one per slide", got)
	}
	for _, p := range sess.Result.SlideImages {
		if info, err := os.Stat(p); err != nil || info.Size() == 0 {
			t.Fatalf("preview %s not on disk: %v", p, err)
		}
	}

	// Provider usage reported during the run lands in the statistics.
	snap, ok := svc.TrackerSnapshot(id)
	if !ok {
		t.Fatalf("tracker snapshot missing for %s", id)
	}
	if snap.Statistics.TotalTokensUsed == 0 {
		t.Fatalf("TotalTokensUsed = 0 after full run")
	}
	if snap.Statistics.AvgResponseTime <= 0 {
		t.Fatalf("AvgResponseTime = %v after full run", snap.Statistics.AvgResponseTime)
	}
	if snap.Statistics.APICallsMade != 3 {
		t.Fatalf("APICallsMade = %d, want 3 (structure + 2 slides)", snap.Statistics.APICallsMade)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if !notifier.completed {
		t.Fatalf("completion event not emitted")
	}
	if notifier.failedAt != "" {
		t.Fatalf("unexpected failure event at stage %q", notifier.failedAt)
	}
	if len(notifier.snapshots) == 0 {
		t.Fatalf("no enhanced progress snapshots emitted")
	}
	last := notifier.snapshots[len(notifier.snapshots)-1]
	if last.OverallProgress != 100 {
		t.Fatalf("last snapshot progress = %v, want 100", last.OverallProgress)
	}
	for i := 1; i < len(notifier.snapshots); i++ {
		if notifier.snapshots[i].OverallProgress < notifier.snapshots[i-1].OverallProgress {
			t.Fatalf("snapshot progress regressed at %d", i)
		}
	}
}

func TestRunSessionRemapsSlideProgressWindow(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, reg := newTestService(t, notifier, &fakeStructureGen{})

	id, err := svc.StartSession(context.Background(), types.GenerationRequest{Topic: "Optics"})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	waitForTerminal(t, reg, id)

	// 1 of 2 slides done: 40 + 50% of the 30-point window = 55.
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	found := false
	for _, pct := range notifier.legacy {
		if pct == 55 {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("windowed slide progress value 55 not emitted; got %v", notifier.legacy)
	}
}

func TestRunSessionFailsAtStructureStage(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, reg := newTestService(t, notifier, &fakeStructureGen{err: fmt.Errorf("model unavailable")})

	id, err := svc.StartSession(context.Background(), types.GenerationRequest{Topic: "Doomed"})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	sess := waitForTerminal(t, reg, id)
	if sess.Status != types.SessionError {
		t.Fatalf("status = %q, want error", sess.Status)
	}
	if sess.Failure == nil || sess.Failure.Stage != progress.StageCourseStructure {
		t.Fatalf("failure record wrong: %+v", sess.Failure)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if notifier.failedAt != progress.StageCourseStructure {
		t.Fatalf("failed event stage = %q", notifier.failedAt)
	}
	if notifier.completed {
		t.Fatalf("completion event emitted for failed session")
	}
}

func TestStartSessionRejectsInvalidRequest(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, _ := newTestService(t, notifier, &fakeStructureGen{})

	if _, err := svc.StartSession(context.Background(), types.GenerationRequest{}); err == nil {
		t.Fatalf("expected validation error for empty topic")
	}
	if _, err := svc.StartSession(context.Background(), types.GenerationRequest{Topic: "x", BatchSize: 99}); err == nil {
		t.Fatalf("expected validation error for batch size")
	}
}
