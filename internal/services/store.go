package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/LOGQS/coursegen-backend/internal/logger"
	"github.com/LOGQS/coursegen-backend/internal/types"
	"github.com/LOGQS/coursegen-backend/internal/utils"
)

// CourseMetadata is the metadata.json written alongside a finished
// course's artifacts.
type CourseMetadata struct {
	SessionID       string    `json:"session_id"`
	Topic           string    `json:"topic"`
	Title           string    `json:"title"`
	DocumentPath    string    `json:"document_path"`
	AudioFiles      []*string `json:"audio_files"`
	TranscriptFiles []string  `json:"transcript_files"`
	SlideImages     []string  `json:"slide_images,omitempty"`
	TotalSlides     int       `json:"total_slides"`
	TotalImages     int       `json:"total_images"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// SessionPaths are the on-disk locations for one session's artifacts.
type SessionPaths struct {
	Root        string
	Audio       string
	Images      string
	Previews    string
	Transcripts string
	Document    string
}

// FileStore owns the output directory layout: one directory per
// session with audio/, images/ and transcripts/ subdirectories plus the
// built document and a metadata.json.
type FileStore interface {
	PrepareSession(sessionID string) (*SessionPaths, error)
	SaveMetadata(sessionID string, meta *CourseMetadata) error
	LoadMetadata(sessionID string) (*CourseMetadata, error)
	ListCourses() ([]*CourseMetadata, error)
	DeleteCourse(sessionID string) error
}

type fileStore struct {
	log  *logger.Logger
	root string
}

func NewFileStore(log *logger.Logger) FileStore {
	root := utils.GetEnv("OUTPUT_DIR", "generated_courses", log)
	return &fileStore{
		log:  log.With("service", "FileStore"),
		root: root,
	}
}

func (s *fileStore) sessionDir(sessionID string) string {
	return filepath.Join(s.root, sessionID)
}

func (s *fileStore) PrepareSession(sessionID string) (*SessionPaths, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id required")
	}
	paths := &SessionPaths{
		Root:        s.sessionDir(sessionID),
		Audio:       filepath.Join(s.sessionDir(sessionID), "audio"),
		Images:      filepath.Join(s.sessionDir(sessionID), "images"),
		Previews:    filepath.Join(s.sessionDir(sessionID), "previews"),
		Transcripts: filepath.Join(s.sessionDir(sessionID), "transcripts"),
		Document:    filepath.Join(s.sessionDir(sessionID), "presentation.pptx"),
	}
	for _, dir := range []string{paths.Root, paths.Audio, paths.Images, paths.Previews, paths.Transcripts} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session dir %s: %w", dir, err)
		}
	}
	return paths, nil
}

func (s *fileStore) SaveMetadata(sessionID string, meta *CourseMetadata) error {
	if meta == nil {
		return fmt.Errorf("metadata required")
	}
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.sessionDir(sessionID), "metadata.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	s.log.Debug("Metadata saved", "session_id", sessionID, "path", path)
	return nil
}

func (s *fileStore) LoadMetadata(sessionID string) (*CourseMetadata, error) {
	raw, err := os.ReadFile(filepath.Join(s.sessionDir(sessionID), "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var meta CourseMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return &meta, nil
}

// ListCourses returns the metadata of every stored course, newest
// first. Directories without readable metadata are skipped.
func (s *fileStore) ListCourses() ([]*CourseMetadata, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []*CourseMetadata{}, nil
		}
		return nil, err
	}

	out := make([]*CourseMetadata, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.LoadMetadata(e.Name())
		if err != nil || meta == nil {
			continue
		}
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out, nil
}

func (s *fileStore) DeleteCourse(sessionID string) error {
	if sessionID == "" || sessionID == "." || sessionID == ".." {
		return fmt.Errorf("invalid session id")
	}
	dir := s.sessionDir(sessionID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("course %s not found", sessionID)
	}
	s.log.Info("Deleting course artifacts", "session_id", sessionID)
	return os.RemoveAll(dir)
}

// MetadataFromResult converts a session result into the stored shape.
func MetadataFromResult(topic string, res *types.SessionResult) *CourseMetadata {
	meta := &CourseMetadata{
		SessionID:       res.SessionID,
		Topic:           topic,
		DocumentPath:    res.DocumentPath,
		AudioFiles:      res.AudioFiles,
		TranscriptFiles: res.TranscriptFiles,
		SlideImages:     res.SlideImages,
		TotalSlides:     res.TotalSlides,
		TotalImages:     res.TotalImages,
		GeneratedAt:     res.GeneratedAt,
	}
	if res.Plan != nil {
		meta.Title = res.Plan.PresentationTitle
	}
	return meta
}
