package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/prasannasamana/ai-reel-generator/internal/reels/models"
)

type RewriterMock struct {
	mock.Mock
}

func (m *RewriterMock) Rewrite(ctx context.Context, script string, tone models.Tone, maxSeconds int) (string, error) {
	args := m.Called(ctx, script, tone, maxSeconds)
	return args.String(0), args.Error(1)
}

type SpeechMock struct {
	mock.Mock
}

func (m *SpeechMock) Synthesize(ctx context.Context, script string) ([]byte, error) {
	args := m.Called(ctx, script)
	if v := args.Get(0); v != nil {
		return v.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

type VideoMock struct {
	mock.Mock
}

func (m *VideoMock) Synthesize(ctx context.Context, image, audio []byte) ([]byte, error) {
	args := m.Called(ctx, image, audio)
	if v := args.Get(0); v != nil {
		return v.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

// artifactFake keeps artifacts in a map, path scheme matching the disk
// store.
type artifactFake struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newArtifactFake() *artifactFake {
	return &artifactFake{files: make(map[string][]byte)}
}

func (f *artifactFake) put(rel string, data []byte) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[rel] = data
	return rel
}

func (f *artifactFake) SaveImage(id uuid.UUID, name string, data []byte) (string, error) {
	return f.put("reels/"+id.String()+"/image.png", data), nil
}

func (f *artifactFake) SaveAudio(id uuid.UUID, data []byte) (string, error) {
	return f.put("reels/"+id.String()+"/audio.mp3", data), nil
}

func (f *artifactFake) SaveVideo(id uuid.UUID, data []byte) (string, error) {
	return f.put("reels/"+id.String()+"/video.mp4", data), nil
}

func (f *artifactFake) Read(rel string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[rel]
	if !ok {
		return nil, models.ErrNotFound
	}
	return data, nil
}

func (f *artifactFake) RemoveJob(id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := "reels/" + id.String() + "/"
	for k := range f.files {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(f.files, k)
		}
	}
	return nil
}

func (f *artifactFake) has(rel string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[rel]
	return ok
}
