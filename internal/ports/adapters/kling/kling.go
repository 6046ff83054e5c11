// Package kling generates transition clips through the Kling image-to-video
// API. Generation is asynchronous: create a task with the start and end
// frames, poll until it settles, then download the produced clip.
package kling

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/GarrickGarcia/SlideShow-Agent/internal/ports/adapters/download"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultTaskTimeout  = 15 * time.Minute
)

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client

	pollInterval time.Duration
	taskTimeout  time.Duration
}

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = "kling-v1-6"
	}
	if baseURL == "" {
		baseURL = "https://api.klingai.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &Adapter{
		key:          apiKey,
		model:        model,
		baseURL:      baseURL,
		client:       &http.Client{Timeout: 2 * time.Minute},
		pollInterval: defaultPollInterval,
		taskTimeout:  defaultTaskTimeout,
	}
}

func (a *Adapter) GenerateTransition(ctx context.Context, startImage, endImage, prompt string, outPath string) error {
	taskID, err := a.createTask(ctx, startImage, endImage, prompt)
	if err != nil {
		return err
	}
	videoURL, err := a.waitForTask(ctx, taskID)
	if err != nil {
		return err
	}
	return download.ToFile(ctx, a.client, videoURL, outPath)
}

func (a *Adapter) createTask(ctx context.Context, startImage, endImage, prompt string) (string, error) {
	start, err := encodeImage(startImage)
	if err != nil {
		return "", err
	}
	end, err := encodeImage(endImage)
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"model_name": a.model,
		"image":      start,
		"image_tail": end,
		"prompt":     prompt,
		"mode":       "pro",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/videos/image2video", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("kling create task status %d: %s", resp.StatusCode, strings.TrimSpace(string(rb)))
	}

	var raw struct {
		Data struct {
			TaskID string `json:"task_id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("decode create task response: %w", err)
	}
	if raw.Data.TaskID == "" {
		return "", errors.New("kling returned no task id")
	}
	return raw.Data.TaskID, nil
}

// waitForTask polls the task until it succeeds, fails, or the overall task
// timeout elapses.
func (a *Adapter) waitForTask(ctx context.Context, taskID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.taskTimeout)
	defer cancel()

	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		url, done, err := a.queryTask(ctx, taskID)
		if err != nil {
			return "", err
		}
		if done {
			return url, nil
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("kling task %s: %w", taskID, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (a *Adapter) queryTask(ctx context.Context, taskID string) (videoURL string, done bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/v1/videos/image2video/"+taskID, nil)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Authorization", "Bearer "+a.key)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", false, fmt.Errorf("kling query task status %d: %s", resp.StatusCode, strings.TrimSpace(string(rb)))
	}

	var raw struct {
		Data struct {
			TaskStatus    string `json:"task_status"`
			TaskStatusMsg string `json:"task_status_msg"`
			TaskResult    struct {
				Videos []struct {
					URL string `json:"url"`
				} `json:"videos"`
			} `json:"task_result"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", false, fmt.Errorf("decode query task response: %w", err)
	}

	switch raw.Data.TaskStatus {
	case "succeed":
		if len(raw.Data.TaskResult.Videos) == 0 || raw.Data.TaskResult.Videos[0].URL == "" {
			return "", false, fmt.Errorf("kling task %s succeeded without a video url", taskID)
		}
		return raw.Data.TaskResult.Videos[0].URL, true, nil
	case "failed":
		return "", false, fmt.Errorf("kling task %s failed: %s", taskID, raw.Data.TaskStatusMsg)
	default: // submitted, processing
		return "", false, nil
	}
}

func encodeImage(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read frame image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
