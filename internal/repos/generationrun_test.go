package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/LOGQS/coursegen-backend/internal/logger"
	"github.com/LOGQS/coursegen-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&types.GenerationRun{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		gdb.Exec("DELETE FROM generation_runs")
	})
	return gdb
}

func TestGenerationRunCreateAndGetBySessionID(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewGenerationRunRepo(gdb, logger.NewNop())
	ctx := context.Background()

	run := &types.GenerationRun{
		ID:        uuid.New(),
		SessionID: "sess-abc",
		Topic:     "Cell Biology",
		Status:    "running",
		Stage:     "slide_generation",
		Progress:  42,
		StartedAt: time.Now(),
	}
	if _, err := repo.Create(ctx, nil, []*types.GenerationRun{run}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetBySessionID(ctx, nil, "sess-abc")
	if err != nil {
		t.Fatalf("GetBySessionID: %v", err)
	}
	if got == nil || got.Topic != "Cell Biology" || got.Progress != 42 {
		t.Fatalf("unexpected row: %+v", got)
	}

	missing, err := repo.GetBySessionID(ctx, nil, "sess-nope")
	if err != nil {
		t.Fatalf("GetBySessionID(missing): %v", err)
	}
	if missing != nil {
		t.Fatalf("missing session returned row: %+v", missing)
	}
}

func TestGenerationRunUpdateFields(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewGenerationRunRepo(gdb, logger.NewNop())
	ctx := context.Background()

	run := &types.GenerationRun{
		ID:        uuid.New(),
		SessionID: "sess-upd",
		Status:    "running",
		StartedAt: time.Now(),
	}
	if _, err := repo.Create(ctx, nil, []*types.GenerationRun{run}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.UpdateFields(ctx, nil, run.ID, map[string]interface{}{
		"status":   "completed",
		"progress": 100.0,
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	got, err := repo.GetBySessionID(ctx, nil, "sess-upd")
	if err != nil {
		t.Fatalf("GetBySessionID: %v", err)
	}
	if got.Status != "completed" || got.Progress != 100 {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestGenerationRunHeartbeatOnlyTouchesRunning(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewGenerationRunRepo(gdb, logger.NewNop())
	ctx := context.Background()

	running := &types.GenerationRun{ID: uuid.New(), SessionID: "sess-hb-1", Status: "running", StartedAt: time.Now()}
	done := &types.GenerationRun{ID: uuid.New(), SessionID: "sess-hb-2", Status: "completed", StartedAt: time.Now()}
	if _, err := repo.Create(ctx, nil, []*types.GenerationRun{running, done}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.Heartbeat(ctx, nil, running.ID); err != nil {
		t.Fatalf("Heartbeat(running): %v", err)
	}
	if err := repo.Heartbeat(ctx, nil, done.ID); err != nil {
		t.Fatalf("Heartbeat(done): %v", err)
	}

	got1, _ := repo.GetBySessionID(ctx, nil, "sess-hb-1")
	if got1.HeartbeatAt == nil {
		t.Fatalf("running row missing heartbeat")
	}
	got2, _ := repo.GetBySessionID(ctx, nil, "sess-hb-2")
	if got2.HeartbeatAt != nil {
		t.Fatalf("completed row got heartbeat: %+v", got2.HeartbeatAt)
	}
}

func TestGenerationRunListRecentOrdersNewestFirst(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewGenerationRunRepo(gdb, logger.NewNop())
	ctx := context.Background()

	old := &types.GenerationRun{ID: uuid.New(), SessionID: "sess-old", Status: "completed", StartedAt: time.Now(), CreatedAt: time.Now().Add(-time.Hour)}
	recent := &types.GenerationRun{ID: uuid.New(), SessionID: "sess-new", Status: "running", StartedAt: time.Now(), CreatedAt: time.Now()}
	if _, err := repo.Create(ctx, nil, []*types.GenerationRun{old, recent}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	runs, err := repo.ListRecent(ctx, nil, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d rows, want 2", len(runs))
	}
	if runs[0].SessionID != "sess-new" {
		t.Fatalf("expected newest first, got %s", runs[0].SessionID)
	}
}
