package services

import (
	"os"
	"testing"
	"time"

	"github.com/LOGQS/coursegen-backend/internal/logger"
)

func newTestStore(t *testing.T) FileStore {
	t.Helper()
	t.Setenv("OUTPUT_DIR", t.TempDir())
	return NewFileStore(logger.NewNop())
}

func TestFileStorePrepareSessionCreatesLayout(t *testing.T) {
	store := newTestStore(t)

	paths, err := store.PrepareSession("sess-1")
	if err != nil {
		t.Fatalf("PrepareSession: %v", err)
	}
	for _, dir := range []string{paths.Root, paths.Audio, paths.Images, paths.Previews, paths.Transcripts} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("directory %s missing: %v", dir, err)
		}
	}
}

func TestFileStoreMetadataRoundTripAndList(t *testing.T) {
	store := newTestStore(t)

	for i, id := range []string{"sess-a", "sess-b"} {
		if _, err := store.PrepareSession(id); err != nil {
			t.Fatalf("PrepareSession(%s): %v", id, err)
		}
		meta := &CourseMetadata{
			SessionID:   id,
			Topic:       "Topic " + id,
			Title:       "Deck " + id,
			TotalSlides: 10,
			GeneratedAt: time.Date(2026, 1, 1, 12, i, 0, 0, time.UTC),
		}
		if err := store.SaveMetadata(id, meta); err != nil {
			t.Fatalf("SaveMetadata(%s): %v", id, err)
		}
	}

	got, err := store.LoadMetadata("sess-a")
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	if got == nil || got.Topic != "Topic sess-a" || got.TotalSlides != 10 {
		t.Fatalf("unexpected metadata: %+v", got)
	}

	if missing, err := store.LoadMetadata("sess-none"); err != nil || missing != nil {
		t.Fatalf("LoadMetadata(missing) = %+v, %v", missing, err)
	}

	courses, err := store.ListCourses()
	if err != nil {
		t.Fatalf("ListCourses: %v", err)
	}
	if len(courses) != 2 {
		t.Fatalf("got %d courses, want 2", len(courses))
	}
	// sess-b has the later timestamp
	if courses[0].SessionID != "sess-b" {
		t.Fatalf("expected newest first, got %s", courses[0].SessionID)
	}
}

func TestFileStoreDeleteCourse(t *testing.T) {
	store := newTestStore(t)

	paths, err := store.PrepareSession("sess-del")
	if err != nil {
		t.Fatalf("PrepareSession: %v", err)
	}
	if err := store.DeleteCourse("sess-del"); err != nil {
		t.Fatalf("DeleteCourse: %v", err)
	}
	if _, err := os.Stat(paths.Root); !os.IsNotExist(err) {
		t.Fatalf("course dir survived delete")
	}

	if err := store.DeleteCourse("sess-del"); err == nil {
		t.Fatalf("expected error deleting missing course")
	}
	if err := store.DeleteCourse(".."); err == nil {
		t.Fatalf("expected error for invalid id")
	}
}
