package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prasannasamana/ai-reel-generator/internal/reels/models"
)

const (
	ttsModel = "tts-1"
	ttsVoice = "alloy"
)

type speechRequest struct {
	Model string `json:"model"`
	Voice string `json:"voice"`
	Input string `json:"input"`
}

// Synthesize turns the approved script into MP3 bytes.
func (c *Client) Synthesize(ctx context.Context, script string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY not configured", models.ErrAudioFailed)
	}

	body, err := json.Marshal(speechRequest{Model: ttsModel, Voice: ttsVoice, Input: script})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", models.ErrAudioFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", models.ErrAudioFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrAudioFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", models.ErrAudioFailed, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read audio: %v", models.ErrAudioFailed, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio response", models.ErrAudioFailed)
	}

	c.log.Debug().
		Int("bytes", len(audio)).
		Dur("took", time.Since(start)).
		Msg("speech synthesized")
	return audio, nil
}
