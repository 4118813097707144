package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/prasannasamana/ai-reel-generator/internal/reels/models"
)

type ReelResponse struct {
	ID             uuid.UUID `json:"id"`
	Status         string    `json:"status"`
	Tone           string    `json:"tone"`
	OriginalScript string    `json:"original_script"`
	FinalScript    *string   `json:"final_script"`
	ScriptApproved bool      `json:"script_approved"`
	ImageURL       *string   `json:"image_url"`
	AudioURL       *string   `json:"audio_url"`
	VideoURL       *string   `json:"video_url"`
	ErrorMessage   *string   `json:"error_message"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ReelListItem is the lightweight shape used by the list endpoint.
type ReelListItem struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	Tone      string    `json:"tone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	VideoURL  *string   `json:"video_url"`
}

type PaginatedResponse struct {
	Count    int            `json:"count"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
	Results  []ReelListItem `json:"results"`
}

// ScriptRequest is the optional body of rewrite/regenerate calls.
type ScriptRequest struct {
	Tone       *models.Tone `json:"tone"`
	MaxSeconds int          `json:"max_seconds"`
}

func (h *Handler) artifactURL(rel string) *string {
	u := h.baseURL + "/media/" + rel
	return &u
}

func (h *Handler) toReelResponse(job *models.ReelJob) ReelResponse {
	resp := ReelResponse{
		ID:             job.ID,
		Status:         string(job.Status),
		Tone:           string(job.Tone),
		OriginalScript: job.OriginalScript,
		FinalScript:    job.FinalScript,
		ScriptApproved: job.ScriptApproved,
		ErrorMessage:   job.ErrorMessage,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}
	if job.ImagePath != "" {
		resp.ImageURL = h.artifactURL(job.ImagePath)
	}
	if job.AudioPath != nil {
		resp.AudioURL = h.artifactURL(*job.AudioPath)
	}
	if job.VideoPath != nil {
		resp.VideoURL = h.artifactURL(*job.VideoPath)
	}
	return resp
}

func (h *Handler) toReelListItem(job *models.ReelJob) ReelListItem {
	item := ReelListItem{
		ID:        job.ID,
		Status:    string(job.Status),
		Tone:      string(job.Tone),
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
	if job.VideoPath != nil {
		item.VideoURL = h.artifactURL(*job.VideoPath)
	}
	return item
}
