package kling

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func writeFrame(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(name), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestGenerateTransition(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/videos/image2video":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["image"] == "" || body["image_tail"] == "" {
				t.Error("start/end frames not sent")
			}
			if body["prompt"] != "morph it" {
				t.Errorf("prompt not forwarded: %v", body["prompt"])
			}
			fmt.Fprint(w, `{"data":{"task_id":"task-1"}}`)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/videos/image2video/task-1":
			if polls.Add(1) < 3 {
				fmt.Fprint(w, `{"data":{"task_status":"processing"}}`)
				return
			}
			fmt.Fprintf(w, `{"data":{"task_status":"succeed","task_result":{"videos":[{"url":"http://%s/clip.mp4"}]}}}`, r.Host)
		case r.URL.Path == "/clip.mp4":
			_, _ = w.Write([]byte("mp4-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a := New("key", "", srv.URL)
	a.client = srv.Client()
	a.pollInterval = time.Millisecond
	a.taskTimeout = time.Second

	out := filepath.Join(t.TempDir(), "transition_01.mp4")
	err := a.GenerateTransition(context.Background(), writeFrame(t, "a.png"), writeFrame(t, "b.png"), "morph it", out)
	if err != nil {
		t.Fatalf("GenerateTransition: %v", err)
	}
	if polls.Load() < 3 {
		t.Fatalf("expected at least 3 polls, got %d", polls.Load())
	}
	b, _ := os.ReadFile(out)
	if string(b) != "mp4-bytes" {
		t.Fatalf("unexpected clip content %q", b)
	}
}

func TestGenerateTransition_TaskFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			fmt.Fprint(w, `{"data":{"task_id":"task-2"}}`)
			return
		}
		fmt.Fprint(w, `{"data":{"task_status":"failed","task_status_msg":"content rejected"}}`)
	}))
	defer srv.Close()

	a := New("key", "", srv.URL)
	a.client = srv.Client()
	a.pollInterval = time.Millisecond
	a.taskTimeout = time.Second

	err := a.GenerateTransition(context.Background(), writeFrame(t, "a.png"), writeFrame(t, "b.png"), "p", filepath.Join(t.TempDir(), "x.mp4"))
	if err == nil || !strings.Contains(err.Error(), "content rejected") {
		t.Fatalf("expected task failure error, got %v", err)
	}
}

func TestGenerateTransition_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			fmt.Fprint(w, `{"data":{"task_id":"task-3"}}`)
			return
		}
		fmt.Fprint(w, `{"data":{"task_status":"processing"}}`)
	}))
	defer srv.Close()

	a := New("key", "", srv.URL)
	a.client = srv.Client()
	a.pollInterval = time.Millisecond
	a.taskTimeout = 20 * time.Millisecond

	err := a.GenerateTransition(context.Background(), writeFrame(t, "a.png"), writeFrame(t, "b.png"), "p", filepath.Join(t.TempDir(), "x.mp4"))
	if err == nil || !strings.Contains(err.Error(), "deadline") {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestGenerateTransition_MissingFrame(t *testing.T) {
	a := New("key", "", "https://api.klingai.com")
	err := a.GenerateTransition(context.Background(), "/nope/a.png", "/nope/b.png", "p", "x.mp4")
	if err == nil {
		t.Fatal("expected error for unreadable frame image")
	}
}
