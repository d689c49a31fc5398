package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/LOGQS/coursegen-backend/internal/logger"
	"github.com/LOGQS/coursegen-backend/internal/types"
)

func TestRegistryCreateGetUpdateRemove(t *testing.T) {
	r := NewRegistry(logger.NewNop())

	s, err := r.Create("sess-1", types.GenerationRequest{Topic: "Photosynthesis"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.Status != types.SessionInitializing {
		t.Fatalf("new session status = %q, want initializing", s.Status)
	}

	if _, err := r.Create("sess-1", types.GenerationRequest{Topic: "dup"}); err != ErrSessionExists {
		t.Fatalf("duplicate Create err = %v, want ErrSessionExists", err)
	}

	if got := r.Get("sess-1"); got == nil || got.Request.Topic != "Photosynthesis" {
		t.Fatalf("Get returned %+v", got)
	}
	if got := r.Get("missing"); got != nil {
		t.Fatalf("Get(missing) = %+v, want nil", got)
	}

	ok := r.Update("sess-1", func(s *types.Session) {
		s.Status = types.SessionRunning
		s.Progress = 40
		s.StageLabel = "Generating slide content"
	})
	if !ok {
		t.Fatalf("Update returned false")
	}
	got := r.Get("sess-1")
	if got.Status != types.SessionRunning || got.Progress != 40 {
		t.Fatalf("update not applied: %+v", got)
	}

	if ok := r.Update("missing", func(*types.Session) {}); ok {
		t.Fatalf("Update(missing) returned true")
	}

	r.Remove("sess-1")
	if got := r.Get("sess-1"); got != nil {
		t.Fatalf("session survived Remove: %+v", got)
	}
}

func TestRegistryGetReturnsCopy(t *testing.T) {
	r := NewRegistry(logger.NewNop())
	if _, err := r.Create("sess-1", types.GenerationRequest{Topic: "x"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got := r.Get("sess-1")
	got.Status = types.SessionError

	if r.Get("sess-1").Status != types.SessionInitializing {
		t.Fatalf("mutation through Get copy leaked into registry")
	}
}

func TestRegistryConcurrentDisjointSessions(t *testing.T) {
	r := NewRegistry(logger.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		id := fmt.Sprintf("sess-%d", i)
		if _, err := r.Create(id, types.GenerationRequest{Topic: id}); err != nil {
			t.Fatalf("Create(%s): %v", id, err)
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for p := 0; p <= 100; p += 10 {
				r.Update(id, func(s *types.Session) {
					s.Status = types.SessionRunning
					s.Progress = float64(p)
				})
				_ = r.Get(id)
			}
		}(id)
	}
	wg.Wait()

	sessions := r.List()
	if len(sessions) != 32 {
		t.Fatalf("List returned %d sessions, want 32", len(sessions))
	}
	for _, s := range sessions {
		if s.Progress != 100 {
			t.Fatalf("session %s progress = %v, want 100", s.ID, s.Progress)
		}
	}
}
