// Package openrouter validates generated slide images against their slide
// descriptions with a vision model behind the OpenRouter chat completions
// API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GarrickGarcia/SlideShow-Agent/internal/types"
)

const requestTimeout = 90 * time.Second

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
}

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = "anthropic/claude-3.5-haiku"
	}
	baseURL = normalizeBaseURL(baseURL)
	return &Adapter{key: apiKey, model: model, baseURL: baseURL, client: &http.Client{Timeout: 2 * time.Minute}}
}

func (a *Adapter) ValidateSlide(ctx context.Context, imagePath string, slide types.Slide) (bool, string, error) {
	img, err := os.ReadFile(imagePath)
	if err != nil {
		return false, "", fmt.Errorf("read slide image: %w", err)
	}
	mt := mime.TypeByExtension(filepath.Ext(imagePath))
	if mt == "" {
		mt = "image/png"
	}
	dataURL := "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(img)

	payload := map[string]any{
		"model":  a.model,
		"stream": false,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": buildPrompt(slide)},
					{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
				},
			},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name": "slide_validation",
				"schema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"approved": map[string]any{"type": "boolean"},
						"feedback": map[string]any{"type": "string"},
					},
					"required": []string{"approved", "feedback"},
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return false, "", fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, a.baseURL+"/api/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return false, "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return false, "", fmt.Errorf("openrouter timeout after %s (model=%s)", requestTimeout, a.model)
		}
		return false, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, "", fmt.Errorf("openrouter status %d: %s", resp.StatusCode, strings.TrimSpace(string(rb)))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return false, "", err
	}
	if len(raw.Choices) == 0 {
		return false, "", errors.New("openrouter returned no choices")
	}

	var out struct {
		Approved bool   `json:"approved"`
		Feedback string `json:"feedback"`
	}
	content := extractJSONObject(raw.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return false, "", fmt.Errorf("parse validation verdict: %w", err)
	}
	return out.Approved, strings.TrimSpace(out.Feedback), nil
}

func buildPrompt(s types.Slide) string {
	var b strings.Builder
	b.WriteString("You review presentation slide images. Check the attached image against the slide description. ")
	b.WriteString("Approve only if the heading is legible and correctly spelled, the listed bullet points appear as written, ")
	b.WriteString("and the visual matches the description. Return strictly valid JSON matching the provided schema.\n\n")
	fmt.Fprintf(&b, "Heading: %q\n", s.Title)
	if len(s.BulletPoints) > 0 {
		fmt.Fprintf(&b, "Bullet points: %s\n", strings.Join(s.BulletPoints, " | "))
	}
	if s.VisualDescription != "" {
		fmt.Fprintf(&b, "Visual: %s\n", s.VisualDescription)
	}
	return b.String()
}

// extractJSONObject strips code fences and surrounding prose some models wrap
// around the JSON body.
func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}
