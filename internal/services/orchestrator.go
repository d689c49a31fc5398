package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/LOGQS/coursegen-backend/internal/logger"
	"github.com/LOGQS/coursegen-backend/internal/progress"
	"github.com/LOGQS/coursegen-backend/internal/repos"
	"github.com/LOGQS/coursegen-backend/internal/session"
	"github.com/LOGQS/coursegen-backend/internal/types"
)

// Legacy progress windows: during a long stage the flat progress value
// is remapped from the stage's own 0-100 into a fixed global band.
const (
	slidesProgressBase = 40.0
	slidesProgressSpan = 30.0
	imagesProgressBase = 70.0
	imagesProgressSpan = 15.0
	audioProgressBase  = 85.0
	audioProgressSpan  = 10.0
)

const (
	heartbeatEverySlides = 5
	heartbeatEveryImages = 10
)

// GenerationService runs the end-to-end pipeline: structure, plan,
// slides, images, document, audio, finalize. One goroutine per session;
// state observable through the registry and per-session tracker.
type GenerationService interface {
	StartSession(ctx context.Context, req types.GenerationRequest) (string, error)
	TrackerSnapshot(sessionID string) (progress.Snapshot, bool)
	ProgressReport(sessionID string) (progress.Report, bool)
}

type generationService struct {
	log      *logger.Logger
	registry *session.Registry
	notifier GenerationNotifier

	structureGen StructureGenerator
	planner      PlanBuilder
	slideGen     SlideContentGenerator
	images       ImageResolver
	builder      PresentationBuilder
	previews     SlidePreviewRenderer
	audio        AudioSynthesizer
	store        FileStore
	themes       ThemeService

	runRepo repos.GenerationRunRepo // nil disables archival

	tracer            trace.Tracer
	heartbeatInterval time.Duration

	mu       sync.RWMutex
	trackers map[string]*progress.Tracker
}

func NewGenerationService(
	baseLog *logger.Logger,
	registry *session.Registry,
	notifier GenerationNotifier,
	structureGen StructureGenerator,
	planner PlanBuilder,
	slideGen SlideContentGenerator,
	images ImageResolver,
	builder PresentationBuilder,
	previews SlidePreviewRenderer,
	audio AudioSynthesizer,
	store FileStore,
	themes ThemeService,
	runRepo repos.GenerationRunRepo,
) GenerationService {
	return &generationService{
		log:               baseLog.With("service", "GenerationService"),
		registry:          registry,
		notifier:          notifier,
		structureGen:      structureGen,
		planner:           planner,
		slideGen:          slideGen,
		images:            images,
		builder:           builder,
		previews:          previews,
		audio:             audio,
		store:             store,
		themes:            themes,
		runRepo:           runRepo,
		tracer:            otel.Tracer("coursegen/generation"),
		heartbeatInterval: 10 * time.Second,
		trackers:          make(map[string]*progress.Tracker),
	}
}

func (s *generationService) StartSession(ctx context.Context, req types.GenerationRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	req.ApplyDefaults()

	sessionID := uuid.New().String()
	if _, err := s.registry.Create(sessionID, req); err != nil {
		return "", err
	}

	tracker := progress.NewTracker(sessionID, s.log)
	s.mu.Lock()
	s.trackers[sessionID] = tracker
	s.mu.Unlock()

	runID := s.archiveRunStart(ctx, sessionID, req)

	// Detached context: the pipeline outlives the HTTP request that
	// started it.
	go s.runSession(context.Background(), sessionID, runID, req, tracker)

	s.log.Info("Generation session started", "session_id", sessionID, "topic", req.Topic)
	return sessionID, nil
}

func (s *generationService) TrackerSnapshot(sessionID string) (progress.Snapshot, bool) {
	s.mu.RLock()
	t, ok := s.trackers[sessionID]
	s.mu.RUnlock()
	if !ok {
		return progress.Snapshot{}, false
	}
	return t.CurrentStatus(), true
}

func (s *generationService) ProgressReport(sessionID string) (progress.Report, bool) {
	s.mu.RLock()
	t, ok := s.trackers[sessionID]
	s.mu.RUnlock()
	if !ok {
		return progress.Report{}, false
	}
	return t.ExportProgressReport(), true
}

func (s *generationService) runSession(ctx context.Context, sessionID string, runID uuid.UUID, req types.GenerationRequest, tracker *progress.Tracker) {
	startTime := time.Now()
	log := s.log.With("session_id", sessionID)

	// Provider calls made anywhere downstream report their token usage
	// and latency into this session's statistics.
	ctx = WithUsageRecorder(ctx, trackerUsage{tracker: tracker})

	ctx, span := s.tracer.Start(ctx, "generation.session", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("topic", req.Topic),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			log.Error("Pipeline panic", "panic", r)
			s.failSession(ctx, sessionID, runID, "internal", fmt.Errorf("internal error: %v", r))
		}
	}()

	// Every tracker change streams the full snapshot plus the legacy
	// flat event, and mirrors overall progress into the registry.
	tracker.AddObserver(func(snap progress.Snapshot) {
		s.notifier.EnhancedProgress(snap)
		s.registry.Update(sessionID, func(sess *types.Session) {
			sess.Progress = snap.OverallProgress
			sess.StageLabel = snap.CurrentStage.Description
		})
	})

	fail := func(stage string, err error) {
		log.Error("Pipeline stage failed", "stage", stage, "error", err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, stage)
		s.failSession(ctx, sessionID, runID, stage, err)
	}

	// Flat progress for legacy listeners; also archived best-effort.
	progressUpdate := func(pct float64, message string) {
		s.notifier.SessionProgress(sessionID, pct, message, time.Since(startTime))
		s.archiveRunProgress(ctx, runID, tracker.CurrentStatus().CurrentStage.ID, pct)
	}

	heartbeat := func() {
		snap := tracker.CurrentStatus()
		s.notifier.Heartbeat(sessionID, snap.CurrentStage.ID, snap.OverallProgress)
	}

	// Background heartbeat keeps idle-looking long stages visibly alive.
	hbDone := make(chan struct{})
	defer close(hbDone)
	go func() {
		ticker := time.NewTicker(s.heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-hbDone:
				return
			case <-ticker.C:
				heartbeat()
			}
		}
	}()

	s.registry.Update(sessionID, func(sess *types.Session) {
		sess.Status = types.SessionRunning
	})

	// ---- initialization ----

	tracker.StartStage(progress.StageInitialization, progress.StageDetails{
		Topic:      req.Topic,
		Complexity: req.Complexity,
		Duration:   req.Duration,
		BatchSize:  req.BatchSize,
	})
	progressUpdate(10, "Initializing session")

	_, initSpan := s.tracer.Start(ctx, "stage."+progress.StageInitialization)
	paths, err := s.store.PrepareSession(sessionID)
	initSpan.End()
	if err != nil {
		fail(progress.StageInitialization, fmt.Errorf("prepare output: %w", err))
		return
	}
	tracker.CompleteStage(progress.StageInitialization)
	heartbeat()

	// ---- course structure ----

	progressUpdate(20, "Generating course structure")
	structCtx, structSpan := s.tracer.Start(ctx, "stage."+progress.StageCourseStructure)
	structure, err := s.structureGen.GenerateStructure(structCtx, req)
	structSpan.End()
	if err != nil {
		fail(progress.StageCourseStructure, err)
		return
	}
	tracker.UpdateStatistics(func(st *progress.Statistics) {
		st.TotalTopics = len(structure.MainTopics)
		st.TotalSubtopics = structure.SubtopicCount()
	})
	tracker.UpdateStageProgress(progress.StageCourseStructure, 100, progress.StageDetails{
		Message: structure.CourseTitle,
	})
	tracker.CompleteStage(progress.StageCourseStructure)
	heartbeat()

	// ---- presentation planning ----

	progressUpdate(25, "Planning presentation")
	planCtx, planSpan := s.tracer.Start(ctx, "stage."+progress.StagePresentationPlanning)
	plan, err := s.planner.BuildPlan(planCtx, structure, req)
	planSpan.End()
	if err != nil {
		fail(progress.StagePresentationPlanning, err)
		return
	}
	totalSlides := len(plan.Slides)
	tracker.UpdateStatistics(func(st *progress.Statistics) {
		st.TotalSlides = totalSlides
	})
	progressUpdate(35, fmt.Sprintf("Planned %d slides", totalSlides))
	tracker.CompleteStage(progress.StagePresentationPlanning)
	heartbeat()

	// ---- slide generation ----

	tracker.StartStage(progress.StageSlideGeneration, progress.StageDetails{
		TotalSlides: totalSlides,
	})
	progressUpdate(slidesProgressBase, "Generating slide content")

	slidesCtx, slidesSpan := s.tracer.Start(ctx, "stage."+progress.StageSlideGeneration)
	slides, err := s.slideGen.GenerateSlides(slidesCtx, plan, req, func(generated, total int) {
		local := float64(generated) / float64(total) * 100
		tracker.UpdateStageProgress(progress.StageSlideGeneration, local, progress.StageDetails{
			CurrentSlide: generated,
			TotalSlides:  total,
		})
		tracker.UpdateStatistics(func(st *progress.Statistics) {
			st.SlidesGenerated = generated
		})
		progressUpdate(slidesProgressBase+local*slidesProgressSpan/100,
			fmt.Sprintf("Generated %d/%d slides", generated, total))
		if generated%heartbeatEverySlides == 0 {
			heartbeat()
		}
	})
	slidesSpan.End()
	if err != nil {
		fail(progress.StageSlideGeneration, err)
		return
	}
	tracker.CompleteStage(progress.StageSlideGeneration)
	heartbeat()

	// ---- image processing ----

	totalImages := types.TotalImageCount(slides)
	tracker.StartStage(progress.StageImageProcessing, progress.StageDetails{
		TotalImages: totalImages,
	})
	tracker.UpdateStatistics(func(st *progress.Statistics) {
		st.TotalImages = totalImages
	})
	progressUpdate(imagesProgressBase, fmt.Sprintf("Processing %d images", totalImages))

	imagesCtx, imagesSpan := s.tracer.Start(ctx, "stage."+progress.StageImageProcessing)
	imgStats := s.images.ResolveImages(imagesCtx, slides, paths.Images, func(processed, total int) {
		local := 100.0
		if total > 0 {
			local = float64(processed) / float64(total) * 100
		}
		tracker.UpdateStageProgress(progress.StageImageProcessing, local, progress.StageDetails{
			CurrentImage: processed,
			TotalImages:  total,
		})
		tracker.UpdateStatistics(func(st *progress.Statistics) {
			st.ImagesProcessed = processed
		})
		progressUpdate(imagesProgressBase+local*imagesProgressSpan/100,
			fmt.Sprintf("Processed %d/%d images", processed, total))
		if processed%heartbeatEveryImages == 0 {
			heartbeat()
		}
	})
	imagesSpan.End()
	tracker.UpdateStatistics(func(st *progress.Statistics) {
		st.ImagesSucceeded = imgStats.Succeeded
		st.ImagesPlaceholder = imgStats.Placeholders
		st.ImagesFailed = imgStats.Failed
	})
	tracker.CompleteStage(progress.StageImageProcessing)
	heartbeat()

	// ---- presentation building ----

	tracker.StartStage(progress.StagePresentationBuilding, progress.StageDetails{})
	progressUpdate(audioProgressBase, "Building presentation document")

	theme := s.themes.Get(req.Theme)
	buildCtx, buildSpan := s.tracer.Start(ctx, "stage."+progress.StagePresentationBuilding)
	docPath, err := s.builder.BuildPresentation(buildCtx, plan, slides, theme, paths.Document)
	buildSpan.End()
	if err != nil {
		fail(progress.StagePresentationBuilding, err)
		return
	}
	tracker.CompleteStage(progress.StagePresentationBuilding)

	// ---- audio generation ----

	tracker.StartStage(progress.StageAudioGeneration, progress.StageDetails{
		TotalAudio: totalSlides,
	})
	audioCtx, audioSpan := s.tracer.Start(ctx, "stage."+progress.StageAudioGeneration)
	audioRes, err := s.audio.SynthesizeCourse(audioCtx, slides, req, paths.Audio, paths.Transcripts, func(done, total int) {
		local := float64(done) / float64(total) * 100
		tracker.UpdateStageProgress(progress.StageAudioGeneration, local, progress.StageDetails{
			CurrentAudio: done,
			TotalAudio:   total,
		})
		progressUpdate(audioProgressBase+local*audioProgressSpan/100,
			fmt.Sprintf("Narrated %d/%d slides", done, total))
	})
	audioSpan.End()
	if err != nil {
		fail(progress.StageAudioGeneration, err)
		return
	}
	tracker.UpdateStatistics(func(st *progress.Statistics) {
		st.TotalAudioFiles = totalSlides
		st.AudioFilesGenerated = audioRes.Synthesized
	})
	tracker.CompleteStage(progress.StageAudioGeneration)

	// ---- finalization ----

	progressUpdate(95, "Finalizing course")

	finalCtx, finalSpan := s.tracer.Start(ctx, "stage."+progress.StageFinalization)

	// Best effort: whatever previews render become immediately viewable
	// slide images; a short list never fails the session.
	slideImages := s.previews.RenderPreviews(finalCtx, plan, slides, theme, paths.Previews)

	result := &types.SessionResult{
		SessionID:       sessionID,
		DocumentPath:    docPath,
		AudioFiles:      audioRes.AudioFiles,
		TranscriptFiles: audioRes.TranscriptFiles,
		SlideImages:     slideImages,
		Structure:       structure,
		Plan:            plan,
		Slides:          slides,
		TotalSlides:     totalSlides,
		TotalImages:     totalImages,
		GeneratedAt:     time.Now(),
	}
	if err := s.store.SaveMetadata(sessionID, MetadataFromResult(req.Topic, result)); err != nil {
		finalSpan.End()
		fail(progress.StageFinalization, fmt.Errorf("save metadata: %w", err))
		return
	}
	finalSpan.End()
	tracker.CompleteStage(progress.StageFinalization)

	now := time.Now()
	s.registry.Update(sessionID, func(sess *types.Session) {
		sess.Status = types.SessionCompleted
		sess.Progress = 100
		sess.StageLabel = "Completed"
		sess.Result = result
		sess.EndTime = &now
	})

	report := tracker.ExportProgressReport()
	summary := map[string]any{
		"topic":            req.Topic,
		"title":            plan.PresentationTitle,
		"total_slides":     totalSlides,
		"total_images":     totalImages,
		"audio_files":      audioRes.Synthesized,
		"document_path":    docPath,
		"elapsed":          report.TotalElapsedFmt,
		"images_succeeded": imgStats.Succeeded,
	}
	s.notifier.Complete(sessionID, summary, report)
	s.archiveRunFinish(ctx, runID, "completed", "")

	log.Info("Course generation completed",
		"slides", totalSlides,
		"images", totalImages,
		"elapsed", report.TotalElapsedFmt,
	)
}

// trackerUsage rolls provider token usage and call latency into one
// session's statistics.
type trackerUsage struct {
	tracker *progress.Tracker
}

func (u trackerUsage) RecordCall(totalTokens int, latency time.Duration) {
	u.tracker.UpdateStatistics(func(st *progress.Statistics) {
		st.RecordAPICall(totalTokens, latency.Seconds())
	})
}

func (s *generationService) failSession(ctx context.Context, sessionID string, runID uuid.UUID, stage string, err error) {
	now := time.Now()
	s.registry.Update(sessionID, func(sess *types.Session) {
		sess.Status = types.SessionError
		sess.Failure = &types.SessionFailure{Stage: stage, Message: err.Error()}
		sess.EndTime = &now
	})
	s.notifier.Failed(sessionID, stage, err.Error())
	s.archiveRunFinish(ctx, runID, "failed", err.Error())
}

// ---- run archival (best effort; nil repo and errors are tolerated) ----

func (s *generationService) archiveRunStart(ctx context.Context, sessionID string, req types.GenerationRequest) uuid.UUID {
	if s.runRepo == nil {
		return uuid.Nil
	}
	run := &types.GenerationRun{
		ID:        uuid.New(),
		SessionID: sessionID,
		Topic:     req.Topic,
		Status:    "running",
		Stage:     progress.StageInitialization,
		StartedAt: time.Now(),
	}
	if _, err := s.runRepo.Create(ctx, nil, []*types.GenerationRun{run}); err != nil {
		s.log.Warn("Failed to archive run start", "session_id", sessionID, "error", err)
		return uuid.Nil
	}
	return run.ID
}

func (s *generationService) archiveRunProgress(ctx context.Context, runID uuid.UUID, stage string, pct float64) {
	if s.runRepo == nil || runID == uuid.Nil {
		return
	}
	if err := s.runRepo.UpdateFields(ctx, nil, runID, map[string]interface{}{
		"stage":        stage,
		"progress":     pct,
		"heartbeat_at": time.Now(),
	}); err != nil {
		s.log.Warn("Failed to archive run progress", "error", err)
	}
}

func (s *generationService) archiveRunFinish(ctx context.Context, runID uuid.UUID, status, errMsg string) {
	if s.runRepo == nil || runID == uuid.Nil {
		return
	}
	now := time.Now()
	updates := map[string]interface{}{
		"status":   status,
		"ended_at": now,
	}
	if status == "completed" {
		updates["progress"] = 100.0
	}
	if errMsg != "" {
		updates["error"] = errMsg
	}
	if err := s.runRepo.UpdateFields(ctx, nil, runID, updates); err != nil {
		s.log.Warn("Failed to archive run finish", "error", err)
	}
}
