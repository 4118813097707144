package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	audioFile = "audio.mp3"
	videoFile = "video.mp4"
)

// Store keeps job artifacts on local disk under root, one directory per
// job: reels/<id>/{image.*,audio.mp3,video.mp4}. Paths handed back (and
// stored on the job row) are relative to root so the media root can move
// between environments.
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("media root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) SaveImage(id uuid.UUID, name string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".png"
	}
	return s.save(id, "image"+ext, data)
}

func (s *Store) SaveAudio(id uuid.UUID, data []byte) (string, error) {
	return s.save(id, audioFile, data)
}

func (s *Store) SaveVideo(id uuid.UUID, data []byte) (string, error) {
	return s.save(id, videoFile, data)
}

func (s *Store) save(id uuid.UUID, name string, data []byte) (string, error) {
	rel := filepath.Join("reels", id.String(), name)
	abs := filepath.Join(s.root, rel)

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("create job dir: %w", err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return filepath.ToSlash(rel), nil
}

func (s *Store) Read(rel string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", rel, err)
	}
	return data, nil
}

// RemoveJob deletes the whole artifact directory for a job. Missing
// directories are not an error: a job deleted before any artifact was
// written has none.
func (s *Store) RemoveJob(id uuid.UUID) error {
	dir := filepath.Join(s.root, "reels", id.String())
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove job dir: %w", err)
	}
	return nil
}

// Root returns the directory artifacts are served from.
func (s *Store) Root() string { return s.root }
