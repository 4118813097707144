package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prasannasamana/ai-reel-generator/internal/reels/domain"
	"github.com/prasannasamana/ai-reel-generator/internal/reels/models"
)

const (
	rewriteModel       = "gpt-4o-mini"
	rewriteTemperature = 0.7
	rewriteMaxTokens   = 1000

	rewriteSystemPrompt = "You are a professional script writer. Rewrite scripts to match the requested tone while preserving the core message."
)

var toneInstructions = map[models.Tone]string{
	models.NeutralTone:   "Keep the tone neutral and professional.",
	models.FriendlyTone:  "Make the tone warm, approachable, and conversational.",
	models.FormalTone:    "Use a formal, professional, and authoritative tone.",
	models.EnergeticTone: "Make it energetic, enthusiastic, and exciting.",
	models.DramaticTone:  "Use a dramatic, impactful, and emotionally engaging tone.",
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Rewrite asks the model for a tone-conditioned rendition of the script.
// maxSeconds <= 0 means no duration hint.
func (c *Client) Rewrite(ctx context.Context, script string, tone models.Tone, maxSeconds int) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: OPENAI_API_KEY not configured", models.ErrRewriteFailed)
	}

	prompt := fmt.Sprintf("Rewrite the following script to have a %s tone. %s\n\nOriginal script:\n%s\n\nRewritten script:",
		tone, toneInstructions[tone], script)
	if maxSeconds > 0 {
		prompt += fmt.Sprintf("\n\nTarget length: approximately %d seconds when spoken (roughly %d words).",
			maxSeconds, domain.WordBudget(maxSeconds))
	}

	reqBody := chatRequest{
		Model: rewriteModel,
		Messages: []chatMessage{
			{Role: "system", Content: rewriteSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: rewriteTemperature,
		MaxTokens:   rewriteMaxTokens,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", models.ErrRewriteFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", models.ErrRewriteFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrRewriteFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: status %d: %s", models.ErrRewriteFailed, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", models.ErrRewriteFailed, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", models.ErrRewriteFailed)
	}

	rewritten := strings.TrimSpace(out.Choices[0].Message.Content)
	if rewritten == "" {
		return "", fmt.Errorf("%w: empty completion", models.ErrRewriteFailed)
	}

	c.log.Debug().Str("tone", string(tone)).Int("max_seconds", maxSeconds).Msg("script rewritten")
	return rewritten, nil
}
