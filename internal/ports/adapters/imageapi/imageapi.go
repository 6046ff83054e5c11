// Package imageapi generates slide images through an OpenAI-compatible
// chat completions endpoint serving an image model. The model answers with
// either an image URL or an inline base64 data URL; both are written to the
// requested output path.
package imageapi

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
	"regexp"
	"strings"
	"time"

	"github.com/GarrickGarcia/SlideShow-Agent/internal/ports/adapters/download"
)

const requestTimeout = 3 * time.Minute

var imageURLPattern = regexp.MustCompile(`https?://[^\s)'"]+`)

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
}

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = "gpt-4o-image"
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return &Adapter{key: apiKey, model: model, baseURL: baseURL, client: &http.Client{Timeout: 5 * time.Minute}}
}

func (a *Adapter) GenerateImage(ctx context.Context, prompt string, referenceImages []string, outPath string) error {
	content, err := buildContent(prompt, referenceImages)
	if err != nil {
		return err
	}
	payload := map[string]any{
		"model": a.model,
		"messages": []map[string]any{
			{"role": "user", "content": content},
		},
		"n": 1,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, a.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("image api status %d: %s", resp.StatusCode, strings.TrimSpace(string(rb)))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("decode image api response: %w", err)
	}
	if len(raw.Choices) == 0 {
		return errors.New("image api returned no choices")
	}

	ref, err := extractImageRef(raw.Choices[0].Message.Content)
	if err != nil {
		return err
	}
	if strings.HasPrefix(ref, "data:") {
		return download.Base64ToFile(ref, outPath)
	}
	return download.ToFile(ctx, a.client, ref, outPath)
}

// extractImageRef pulls the first image URL or base64 data URL out of the
// model's answer text.
func extractImageRef(content string) (string, error) {
	if i := strings.Index(content, "data:image/"); i >= 0 {
		ref := content[i:]
		if j := strings.IndexAny(ref, " \n)\"'"); j >= 0 {
			ref = ref[:j]
		}
		return ref, nil
	}
	if m := imageURLPattern.FindString(content); m != "" {
		return m, nil
	}
	return "", fmt.Errorf("no image reference in response: %s", truncate(content, 200))
}

// buildContent assembles the multimodal message: the text prompt followed by
// each local reference image as an inline data URL part.
func buildContent(prompt string, referenceImages []string) ([]map[string]any, error) {
	content := []map[string]any{
		{"type": "text", "text": prompt},
	}
	for _, ref := range referenceImages {
		b, err := os.ReadFile(ref)
		if err != nil {
			return nil, fmt.Errorf("read reference image: %w", err)
		}
		mt := mime.TypeByExtension(filepath.Ext(ref))
		if mt == "" {
			mt = "image/png"
		}
		content = append(content, map[string]any{
			"type": "image_url",
			"image_url": map[string]any{
				"url": "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(b),
			},
		})
	}
	return content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
