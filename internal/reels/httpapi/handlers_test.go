package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasannasamana/ai-reel-generator/internal/reels/models"
	"github.com/prasannasamana/ai-reel-generator/internal/reels/repository"
	"github.com/prasannasamana/ai-reel-generator/internal/reels/service"
	mediastore "github.com/prasannasamana/ai-reel-generator/internal/storage/media"
)

type rewriterFunc func(ctx context.Context, script string, tone models.Tone, maxSeconds int) (string, error)

func (f rewriterFunc) Rewrite(ctx context.Context, script string, tone models.Tone, maxSeconds int) (string, error) {
	return f(ctx, script, tone, maxSeconds)
}

type speechFunc func(ctx context.Context, script string) ([]byte, error)

func (f speechFunc) Synthesize(ctx context.Context, script string) ([]byte, error) { return f(ctx, script) }

type videoFunc func(ctx context.Context, image, audio []byte) ([]byte, error)

func (f videoFunc) Synthesize(ctx context.Context, image, audio []byte) ([]byte, error) {
	return f(ctx, image, audio)
}

type testServer struct {
	srv  *httptest.Server
	repo *repository.MemoryRepository

	rewrite rewriterFunc
	speech  speechFunc
	video   videoFunc
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		repo: repository.NewMemoryRepository(),
		rewrite: func(ctx context.Context, script string, tone models.Tone, maxSeconds int) (string, error) {
			return "rewritten: " + script, nil
		},
		speech: func(ctx context.Context, script string) ([]byte, error) { return []byte("mp3"), nil },
		video:  func(ctx context.Context, image, audio []byte) ([]byte, error) { return []byte("mp4"), nil },
	}

	store, err := mediastore.NewStore(t.TempDir())
	require.NoError(t, err)

	d := service.NewDispatcher(1, 8, zerolog.Nop())
	t.Cleanup(d.Close)

	svc := service.New(service.Deps{
		Repo:  ts.repo,
		Media: store,
		Rewriter: rewriterFunc(func(ctx context.Context, script string, tone models.Tone, maxSeconds int) (string, error) {
			return ts.rewrite(ctx, script, tone, maxSeconds)
		}),
		Speech: speechFunc(func(ctx context.Context, script string) ([]byte, error) {
			return ts.speech(ctx, script)
		}),
		Video: videoFunc(func(ctx context.Context, image, audio []byte) ([]byte, error) {
			return ts.video(ctx, image, audio)
		}),
		Dispatcher: d,
		Logger:     zerolog.Nop(),
	})

	h := New(svc, "http://api.test", zerolog.Nop())
	ts.srv = httptest.NewServer(NewRouter(h, store.Root()))
	t.Cleanup(ts.srv.Close)

	return ts
}

func multipartBody(t *testing.T, fields map[string]string, withImage bool) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if withImage {
		fw, err := mw.CreateFormFile("image", "face.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake-image-bytes"))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (ts *testServer) createReel(t *testing.T, fields map[string]string) ReelResponse {
	t.Helper()

	body, contentType := multipartBody(t, fields, true)
	resp, err := http.Post(ts.srv.URL+"/api/reels/", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out ReelResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (ts *testServer) post(t *testing.T, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	resp, err := http.Post(ts.srv.URL+path, "application/json", reader)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInfo(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/api/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "AI Reel Generator API", out["name"])
}

func TestCreateReel_NoRewrite(t *testing.T) {
	ts := newTestServer(t)

	out := ts.createReel(t, map[string]string{
		"script":      "hello world",
		"use_rewrite": "false",
	})

	assert.Equal(t, "script_approved", out.Status)
	assert.True(t, out.ScriptApproved)
	require.NotNil(t, out.FinalScript)
	assert.Equal(t, "hello world", *out.FinalScript)
	require.NotNil(t, out.AudioURL)
	assert.Contains(t, *out.AudioURL, "http://api.test/media/reels/")
	assert.Nil(t, out.ErrorMessage)
}

func TestCreateReel_WithRewrite(t *testing.T) {
	ts := newTestServer(t)

	out := ts.createReel(t, map[string]string{
		"script":      "hello world",
		"tone":        "dramatic",
		"max_seconds": "30",
	})

	assert.Equal(t, "script_pending_approval", out.Status)
	assert.False(t, out.ScriptApproved)
	require.NotNil(t, out.FinalScript)
	assert.Equal(t, "rewritten: hello world", *out.FinalScript)
}

func TestCreateReel_MissingImage(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartBody(t, map[string]string{"script": "s"}, false)
	resp, err := http.Post(ts.srv.URL+"/api/reels/", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateReel_InvalidTone(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartBody(t, map[string]string{"script": "s", "tone": "sarcastic"}, true)
	resp, err := http.Post(ts.srv.URL+"/api/reels/", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateReel_RewriteFailureReturnsJobWithError(t *testing.T) {
	ts := newTestServer(t)
	ts.rewrite = func(ctx context.Context, script string, tone models.Tone, maxSeconds int) (string, error) {
		return "", fmt.Errorf("%w: upstream down", models.ErrRewriteFailed)
	}

	body, contentType := multipartBody(t, map[string]string{"script": "s"}, true)
	resp, err := http.Post(ts.srv.URL+"/api/reels/", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var out ReelResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "error", out.Status)
	require.NotNil(t, out.ErrorMessage)
	assert.Contains(t, *out.ErrorMessage, "upstream down")
}

func TestGetReel_NotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/api/reels/" + uuid.NewString() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetReel_InvalidID(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/api/reels/not-a-uuid/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestApprove_ThenVideoFlow(t *testing.T) {
	ts := newTestServer(t)

	created := ts.createReel(t, map[string]string{"script": "hello"})

	resp, data := ts.post(t, "/api/reels/"+created.ID.String()+"/approve/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var approved ReelResponse
	require.NoError(t, json.Unmarshal(data, &approved))
	assert.True(t, approved.ScriptApproved)
	assert.Equal(t, "script_approved", approved.Status)

	resp, data = ts.post(t, "/api/reels/"+created.ID.String()+"/video/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var done ReelResponse
	require.NoError(t, json.Unmarshal(data, &done))
	assert.Equal(t, "done", done.Status)
	require.NotNil(t, done.VideoURL)
	require.NotNil(t, done.AudioURL)
}

func TestApprove_WithoutFinalScriptRejected(t *testing.T) {
	ts := newTestServer(t)

	// A freshly failed rewrite leaves no final script to approve.
	ts.rewrite = func(ctx context.Context, script string, tone models.Tone, maxSeconds int) (string, error) {
		return "", fmt.Errorf("%w: nope", models.ErrRewriteFailed)
	}
	body, contentType := multipartBody(t, map[string]string{"script": "s"}, true)
	resp, err := http.Post(ts.srv.URL+"/api/reels/", contentType, body)
	require.NoError(t, err)

	var out ReelResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()

	r2, data := ts.post(t, "/api/reels/"+out.ID.String()+"/approve/", nil)
	assert.Equal(t, http.StatusConflict, r2.StatusCode, string(data))
}

func TestApprove_Async(t *testing.T) {
	ts := newTestServer(t)

	created := ts.createReel(t, map[string]string{"script": "hello"})

	resp, data := ts.post(t, "/api/reels/"+created.ID.String()+"/approve/?async=true", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(data))

	var accepted ReelResponse
	require.NoError(t, json.Unmarshal(data, &accepted))
	assert.Contains(t, []string{"script_approved", "processing"}, accepted.Status)

	// Poll the job resource until the background run lands.
	deadline := time.Now().Add(5 * time.Second)
	for {
		r, err := http.Get(ts.srv.URL + "/api/reels/" + created.ID.String() + "/")
		require.NoError(t, err)
		var got ReelResponse
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		r.Body.Close()

		if got.Status == "done" || got.Status == "error" {
			assert.Equal(t, "done", got.Status)
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in status %s", got.Status)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestGenerateAudio_Idempotent(t *testing.T) {
	ts := newTestServer(t)

	calls := 0
	ts.speech = func(ctx context.Context, script string) ([]byte, error) {
		calls++
		return []byte("mp3"), nil
	}

	created := ts.createReel(t, map[string]string{"script": "hello", "use_rewrite": "false"})
	require.Equal(t, 1, calls) // auto-approve already generated audio

	resp, data := ts.post(t, "/api/reels/"+created.ID.String()+"/audio/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, 1, calls) // no new synthesis
}

func TestRegenerate_ResetsApproval(t *testing.T) {
	ts := newTestServer(t)

	created := ts.createReel(t, map[string]string{"script": "hello", "use_rewrite": "false"})
	require.True(t, created.ScriptApproved)

	resp, data := ts.post(t, "/api/reels/"+created.ID.String()+"/regenerate/",
		ScriptRequest{MaxSeconds: 15})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var out ReelResponse
	require.NoError(t, json.Unmarshal(data, &out))
	assert.False(t, out.ScriptApproved)
	assert.Equal(t, "script_pending_approval", out.Status)
}

func TestVideo_BeforeApprovalRejected(t *testing.T) {
	ts := newTestServer(t)

	created := ts.createReel(t, map[string]string{"script": "hello"}) // pending approval

	resp, data := ts.post(t, "/api/reels/"+created.ID.String()+"/video/", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(data))
}

func TestVideo_FailureReturnsJobInError(t *testing.T) {
	ts := newTestServer(t)
	ts.video = func(ctx context.Context, image, audio []byte) ([]byte, error) {
		return nil, fmt.Errorf("%w: gpu worker crashed", models.ErrVideoFailed)
	}

	created := ts.createReel(t, map[string]string{"script": "hello", "use_rewrite": "false"})

	resp, data := ts.post(t, "/api/reels/"+created.ID.String()+"/video/", nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var out ReelResponse
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "error", out.Status)
	require.NotNil(t, out.ErrorMessage)
	assert.Contains(t, *out.ErrorMessage, "gpu worker crashed")
}

func TestList_PaginationAndFilter(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 3; i++ {
		ts.createReel(t, map[string]string{"script": fmt.Sprintf("script %d", i), "use_rewrite": "false"})
	}
	ts.createReel(t, map[string]string{"script": "pending one"}) // pending approval

	resp, err := http.Get(ts.srv.URL + "/api/reels/?status=script_approved&page=1&page_size=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out PaginatedResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 3, out.Count)
	assert.Len(t, out.Results, 2)
	require.NotNil(t, out.Next)
	assert.Contains(t, *out.Next, "page=2")
	assert.Contains(t, *out.Next, "status=script_approved")
	assert.Nil(t, out.Previous)
}

func TestList_OversizedPageSizeClampedInLinks(t *testing.T) {
	ts := newTestServer(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 120; i++ {
		job := &models.ReelJob{
			ID:             uuid.New(),
			Status:         models.ApprovedStatus,
			Tone:           models.NeutralTone,
			OriginalScript: "seeded",
			ImagePath:      "reels/seed/image.png",
			Version:        1,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
			UpdatedAt:      base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, ts.repo.Create(context.Background(), job))
	}

	resp, err := http.Get(ts.srv.URL + "/api/reels/?page_size=1000")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out PaginatedResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 120, out.Count)
	assert.Len(t, out.Results, 100)
	require.NotNil(t, out.Next, "clamped page size leaves a second page")
	assert.Contains(t, *out.Next, "page=2")
	assert.Contains(t, *out.Next, "page_size=100")
}

func TestList_InvalidStatus(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/api/reels/?status=weird")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteReel(t *testing.T) {
	ts := newTestServer(t)

	created := ts.createReel(t, map[string]string{"script": "hello", "use_rewrite": "false"})

	req, err := http.NewRequest(http.MethodDelete, ts.srv.URL+"/api/reels/"+created.ID.String()+"/", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	r2, err := http.Get(ts.srv.URL + "/api/reels/" + created.ID.String() + "/")
	require.NoError(t, err)
	defer r2.Body.Close()
	assert.Equal(t, http.StatusNotFound, r2.StatusCode)
}

func TestWriteServiceError_BusyWithJobCarriesJobBody(t *testing.T) {
	h := New(nil, "http://api.test", zerolog.Nop())

	// Approval persisted, then the queue refused the background run.
	job := &models.ReelJob{
		ID:             uuid.New(),
		Status:         models.ApprovedStatus,
		Tone:           models.NeutralTone,
		ScriptApproved: true,
	}

	rec := httptest.NewRecorder()
	h.writeServiceError(rec, job, models.ErrBusy)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var out ReelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, job.ID, out.ID)
	assert.Equal(t, "script_approved", out.Status)
	assert.True(t, out.ScriptApproved)
}

func TestWriteServiceError_BusyWithoutJob(t *testing.T) {
	h := New(nil, "http://api.test", zerolog.Nop())

	rec := httptest.NewRecorder()
	h.writeServiceError(rec, nil, models.ErrBusy)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NotEmpty(t, out["error"])
}

func TestUnknownAction(t *testing.T) {
	ts := newTestServer(t)

	created := ts.createReel(t, map[string]string{"script": "hello", "use_rewrite": "false"})

	resp, _ := ts.post(t, "/api/reels/"+created.ID.String()+"/transmogrify/", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
