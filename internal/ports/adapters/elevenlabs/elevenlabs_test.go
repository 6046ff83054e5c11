package elevenlabs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestSynthesize(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	a := New("secret", "", srv.URL)
	a.client = srv.Client()

	out := filepath.Join(t.TempDir(), "narration_01.mp3")
	if err := a.Synthesize(context.Background(), "Welcome to the show", "voice-123", out); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if gotPath != "/v1/text-to-speech/voice-123" {
		t.Fatalf("unexpected endpoint %q", gotPath)
	}
	if gotKey != "secret" {
		t.Fatalf("api key not sent, got %q", gotKey)
	}
	if gotBody["text"] != "Welcome to the show" {
		t.Fatalf("text not forwarded: %v", gotBody["text"])
	}
	if gotBody["model_id"] != "eleven_multilingual_v2" {
		t.Fatalf("default model not applied: %v", gotBody["model_id"])
	}
	b, _ := os.ReadFile(out)
	if string(b) != "mp3-bytes" {
		t.Fatalf("unexpected audio content %q", b)
	}
}

func TestSynthesize_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid voice"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := New("secret", "", srv.URL)
	a.client = srv.Client()

	err := a.Synthesize(context.Background(), "hello", "v", filepath.Join(t.TempDir(), "x.mp3"))
	if err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestSynthesize_RejectsEmptyInputs(t *testing.T) {
	a := New("secret", "", "https://api.elevenlabs.io")
	if err := a.Synthesize(context.Background(), " ", "v", "out.mp3"); err == nil {
		t.Fatal("expected error for empty text")
	}
	if err := a.Synthesize(context.Background(), "hi", "", "out.mp3"); err == nil {
		t.Fatal("expected error for empty voice")
	}
}
