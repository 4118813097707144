package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prasannasamana/ai-reel-generator/internal/reels/models"
	"github.com/prasannasamana/ai-reel-generator/internal/reels/service"
)

const maxUploadBytes = 32 << 20

type Handler struct {
	svc     *service.Service
	baseURL string
	log     zerolog.Logger
}

func New(svc *service.Service, baseURL string, log zerolog.Logger) *Handler {
	return &Handler{
		svc:     svc,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		log:     log.With().Str("component", "httpapi").Logger(),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Info documents the API surface, mirroring what clients expect at the
// API root.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/" {
		writeErrorJSON(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "AI Reel Generator API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"create_reel":       "POST /api/reels/",
			"list_reels":        "GET /api/reels/",
			"get_reel":          "GET /api/reels/{id}/",
			"delete_reel":       "DELETE /api/reels/{id}/",
			"rewrite_script":    "POST /api/reels/{id}/rewrite/",
			"regenerate_script": "POST /api/reels/{id}/regenerate/",
			"approve_script":    "POST /api/reels/{id}/approve/?async=true|false",
			"generate_audio":    "POST /api/reels/{id}/audio/",
			"generate_video":    "POST /api/reels/{id}/video/?async=true|false",
		},
	})
}

// Reels dispatches everything under /api/reels/.
func (h *Handler) Reels(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/reels/")

	if rest == "" {
		switch r.Method {
		case http.MethodGet:
			h.listReels(w, r)
		case http.MethodPost:
			h.createReel(w, r)
		default:
			writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	parts := strings.Split(strings.Trim(rest, "/"), "/")
	id, err := uuid.Parse(parts[0])
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid id")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.getReel(w, r, id)
		case http.MethodDelete:
			h.deleteReel(w, r, id)
		default:
			writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if len(parts) != 2 || r.Method != http.MethodPost {
		writeErrorJSON(w, http.StatusNotFound, "not found")
		return
	}

	switch parts[1] {
	case "rewrite":
		h.rewriteScript(w, r, id, false)
	case "regenerate":
		h.rewriteScript(w, r, id, true)
	case "approve":
		h.approveScript(w, r, id)
	case "audio":
		h.generateAudio(w, r, id)
	case "video":
		h.generateVideo(w, r, id)
	default:
		writeErrorJSON(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) createReel(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "failed to read image")
		return
	}

	useRewrite := true
	if v := r.FormValue("use_rewrite"); v != "" {
		useRewrite, err = strconv.ParseBool(v)
		if err != nil {
			writeErrorJSON(w, http.StatusBadRequest, "use_rewrite must be a boolean")
			return
		}
	}

	maxSeconds := 0
	if v := r.FormValue("max_seconds"); v != "" {
		maxSeconds, err = strconv.Atoi(v)
		if err != nil {
			writeErrorJSON(w, http.StatusBadRequest, "max_seconds must be an integer")
			return
		}
	}

	job, err := h.svc.CreateJob(r.Context(), service.CreateParams{
		ImageName:  header.Filename,
		Image:      image,
		Script:     r.FormValue("script"),
		Tone:       models.Tone(r.FormValue("tone")),
		UseRewrite: useRewrite,
		MaxSeconds: maxSeconds,
	})
	if err != nil {
		h.writeServiceError(w, job, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toReelResponse(job))
}

func (h *Handler) listReels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var status *models.Status
	if v := q.Get("status"); v != "" {
		st := models.Status(v)
		status = &st
	}

	// Clamp here too so Next/Previous links carry the effective page
	// size, not the raw query value.
	page := intQuery(q.Get("page"), 1)
	if page < 1 {
		page = 1
	}
	pageSize := intQuery(q.Get("page_size"), service.DefaultPageSize)
	if pageSize < 1 {
		pageSize = service.DefaultPageSize
	}
	if pageSize > service.MaxPageSize {
		pageSize = service.MaxPageSize
	}

	jobs, total, err := h.svc.ListJobs(r.Context(), status, page, pageSize)
	if err != nil {
		h.writeServiceError(w, nil, err)
		return
	}

	results := make([]ReelListItem, 0, len(jobs))
	for i := range jobs {
		results = append(results, h.toReelListItem(&jobs[i]))
	}

	resp := PaginatedResponse{Count: total, Results: results}
	if page*pageSize < total {
		resp.Next = h.pageURL(q.Get("status"), page+1, pageSize)
	}
	if page > 1 {
		resp.Previous = h.pageURL(q.Get("status"), page-1, pageSize)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) pageURL(status string, page, pageSize int) *string {
	u := fmt.Sprintf("%s/api/reels/?page=%d&page_size=%d", h.baseURL, page, pageSize)
	if status != "" {
		u += "&status=" + status
	}
	return &u
}

func (h *Handler) getReel(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	job, err := h.svc.GetJob(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toReelResponse(job))
}

func (h *Handler) deleteReel(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.svc.DeleteJob(r.Context(), id); err != nil {
		h.writeServiceError(w, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Reel deleted successfully"})
}

func (h *Handler) rewriteScript(w http.ResponseWriter, r *http.Request, id uuid.UUID, regenerate bool) {
	var req ScriptRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid json body")
		return
	}

	var (
		job *models.ReelJob
		err error
	)
	if regenerate {
		job, err = h.svc.RegenerateScript(r.Context(), id, req.Tone, req.MaxSeconds)
	} else {
		job, err = h.svc.RewriteScript(r.Context(), id, req.Tone, req.MaxSeconds)
	}
	if err != nil {
		h.writeServiceError(w, job, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toReelResponse(job))
}

func (h *Handler) approveScript(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	async := boolQuery(r.URL.Query().Get("async"))

	job, _, err := h.svc.ApproveScript(r.Context(), id, async)
	if err != nil {
		h.writeServiceError(w, job, err)
		return
	}

	status := http.StatusOK
	if async {
		status = http.StatusAccepted
	}
	writeJSON(w, status, h.toReelResponse(job))
}

func (h *Handler) generateAudio(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	job, err := h.svc.GenerateAudio(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, job, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toReelResponse(job))
}

func (h *Handler) generateVideo(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	async := boolQuery(r.URL.Query().Get("async"))

	job, _, err := h.svc.GenerateVideo(r.Context(), id, async)
	if err != nil {
		h.writeServiceError(w, job, err)
		return
	}

	status := http.StatusOK
	if async {
		status = http.StatusAccepted
	}
	writeJSON(w, status, h.toReelResponse(job))
}

// writeServiceError maps service errors to HTTP. Requests rejected before
// any state mutation get a bare 4xx; a stage failure after the job was
// touched gets a 5xx carrying the serialized job so the client sees
// status=error and error_message.
func (h *Handler) writeServiceError(w http.ResponseWriter, job *models.ReelJob, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		writeErrorJSON(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrPrecondition):
		writeErrorJSON(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrConflict):
		writeErrorJSON(w, http.StatusConflict, "conflict")
	case errors.Is(err, models.ErrBusy):
		// A non-nil job means a mutation (like approval) already
		// persisted before the queue refused the background run; return
		// it so the client can see where the job stands.
		if job != nil {
			writeJSON(w, http.StatusServiceUnavailable, h.toReelResponse(job))
			return
		}
		writeErrorJSON(w, http.StatusServiceUnavailable, "busy, try again later")
	case job != nil && (errors.Is(err, models.ErrRewriteFailed) ||
		errors.Is(err, models.ErrAudioFailed) ||
		errors.Is(err, models.ErrVideoFailed)):
		writeJSON(w, http.StatusInternalServerError, h.toReelResponse(job))
	default:
		h.log.Error().Err(err).Msg("internal error")
		writeErrorJSON(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeOptionalJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func intQuery(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolQuery(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
