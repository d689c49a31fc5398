package services

import (
	"context"
	"time"

	"github.com/LOGQS/coursegen-backend/internal/progress"
	"github.com/LOGQS/coursegen-backend/internal/sse"
)

// GenerationNotifier translates pipeline state changes into SSE events.
// Every enhanced update also produces the flat legacy payload so older
// frontends keep working against the same stream.
type GenerationNotifier interface {
	EnhancedProgress(snap progress.Snapshot)
	SessionProgress(sessionID string, pct float64, message string, elapsed time.Duration)
	Heartbeat(sessionID string, stage string, pct float64)
	Complete(sessionID string, summary map[string]any, report progress.Report)
	Failed(sessionID string, stage string, errorMessage string)
}

type generationNotifier struct {
	emit SSEEmitter
}

func NewGenerationNotifier(emit SSEEmitter) GenerationNotifier {
	return &generationNotifier{emit: emit}
}

func (n *generationNotifier) EnhancedProgress(snap progress.Snapshot) {
	if n == nil || n.emit == nil || snap.SessionID == "" {
		return
	}
	ctx := context.Background()
	n.emit.Emit(ctx, sse.SSEMessage{
		Channel: snap.SessionID,
		Event:   sse.SSEEventEnhancedProgress,
		Data:    snap,
	})
	n.emit.Emit(ctx, sse.SSEMessage{
		Channel: snap.SessionID,
		Event:   sse.SSEEventCourseProgress,
		Data: legacyPayload(snap.SessionID, snap.OverallProgress,
			snap.CurrentStage.Description, time.Duration(snap.Timing.ElapsedSeconds*float64(time.Second))),
	})
}

// SessionProgress emits only the legacy event, used for the windowed
// per-item updates inside the slide, image and audio stages.
func (n *generationNotifier) SessionProgress(sessionID string, pct float64, message string, elapsed time.Duration) {
	if n == nil || n.emit == nil || sessionID == "" {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: sessionID,
		Event:   sse.SSEEventCourseProgress,
		Data:    legacyPayload(sessionID, pct, message, elapsed),
	})
}

func (n *generationNotifier) Heartbeat(sessionID string, stage string, pct float64) {
	if n == nil || n.emit == nil || sessionID == "" {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: sessionID,
		Event:   sse.SSEEventHeartbeat,
		Data: map[string]any{
			"session_id": sessionID,
			"stage":      stage,
			"progress":   pct,
			"timestamp":  time.Now().Format(time.RFC3339),
		},
	})
}

func (n *generationNotifier) Complete(sessionID string, summary map[string]any, report progress.Report) {
	if n == nil || n.emit == nil || sessionID == "" {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: sessionID,
		Event:   sse.SSEEventCourseComplete,
		Data: map[string]any{
			"session_id":      sessionID,
			"summary":         summary,
			"progress_report": report,
			"timestamp":       time.Now().Format(time.RFC3339),
		},
	})
}

func (n *generationNotifier) Failed(sessionID string, stage string, errorMessage string) {
	if n == nil || n.emit == nil || sessionID == "" {
		return
	}
	n.emit.Emit(context.Background(), sse.SSEMessage{
		Channel: sessionID,
		Event:   sse.SSEEventCourseError,
		Data: map[string]any{
			"session_id": sessionID,
			"error":      errorMessage,
			"stage":      stage,
			"timestamp":  time.Now().Format(time.RFC3339),
		},
	})
}

// legacyPayload is the flat progress shape. The time estimates are a
// straight linear extrapolation from elapsed time and current percent,
// suppressed below 5% where the ratio is mostly noise.
func legacyPayload(sessionID string, pct float64, message string, elapsed time.Duration) map[string]any {
	payload := map[string]any{
		"session_id": sessionID,
		"progress":   pct,
		"stage":      message,
		"timestamp":  time.Now().Format(time.RFC3339),
	}

	elapsedSec := elapsed.Seconds()
	if pct > 5 && elapsedSec > 0 {
		estimatedTotal := (elapsedSec / pct) * 100
		remaining := estimatedTotal - elapsedSec
		if remaining < 0 {
			remaining = 0
		}
		payload["progress_per_second"] = pct / elapsedSec
		payload["estimated_total_time"] = progress.FormatDuration(estimatedTotal)
		payload["estimated_remaining_time"] = progress.FormatDuration(remaining)
		payload["estimated_remaining_percentage"] = 100 - pct
	}
	return payload
}
