// Package elevenlabs synthesizes narration audio through the ElevenLabs
// text-to-speech API. The response body is the encoded audio stream, written
// directly to the output file.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const requestTimeout = 2 * time.Minute

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
}

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = "eleven_multilingual_v2"
	}
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io"
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &Adapter{key: apiKey, model: model, baseURL: baseURL, client: &http.Client{Timeout: 5 * time.Minute}}
}

func (a *Adapter) Synthesize(ctx context.Context, text, voice string, outPath string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("narration text is empty")
	}
	if strings.TrimSpace(voice) == "" {
		return fmt.Errorf("voice id is empty")
	}

	payload := map[string]any{
		"text":     text,
		"model_id": a.model,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	endpoint := a.baseURL + "/v1/text-to-speech/" + url.PathEscape(voice)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("xi-api-key", a.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("elevenlabs status %d: %s", resp.StatusCode, strings.TrimSpace(string(rb)))
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	return f.Close()
}
