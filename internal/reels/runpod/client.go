package runpod

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/prasannasamana/ai-reel-generator/internal/reels/models"
)

// GPU inference is slow; the serverless endpoint may hold the request for
// several minutes before the video comes back.
const requestTimeout = 10 * time.Minute

// Client calls the Runpod serverless endpoint that runs the talking-head
// model. Input is a face image plus the narration audio, both base64 in
// the payload; output is the encoded video.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewClient(endpoint, apiKey string, log zerolog.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		log:        log.With().Str("component", "runpod").Logger(),
	}
}

type runRequest struct {
	Input runInput `json:"input"`
}

type runInput struct {
	Image string `json:"image"`
	Audio string `json:"audio"`
}

type runResponse struct {
	Output struct {
		VideoBase64 string `json:"video_base64"`
		Error       string `json:"error"`
	} `json:"output"`
	Error string `json:"error"`
}

func (c *Client) Synthesize(ctx context.Context, image, audio []byte) ([]byte, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("%w: RUNPOD_ENDPOINT_URL not configured", models.ErrVideoFailed)
	}

	payload := runRequest{Input: runInput{
		Image: base64.StdEncoding.EncodeToString(image),
		Audio: base64.StdEncoding.EncodeToString(audio),
	}}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", models.ErrVideoFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", models.ErrVideoFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrVideoFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", models.ErrVideoFailed, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out runResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", models.ErrVideoFailed, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", models.ErrVideoFailed, out.Error)
	}
	if out.Output.Error != "" {
		return nil, fmt.Errorf("%w: %s", models.ErrVideoFailed, out.Output.Error)
	}
	if out.Output.VideoBase64 == "" {
		return nil, fmt.Errorf("%w: no video in response", models.ErrVideoFailed)
	}

	video, err := base64.StdEncoding.DecodeString(out.Output.VideoBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: decode video: %v", models.ErrVideoFailed, err)
	}

	c.log.Info().
		Int("video_bytes", len(video)).
		Dur("took", time.Since(start)).
		Msg("video synthesized")
	return video, nil
}
