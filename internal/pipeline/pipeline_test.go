package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GarrickGarcia/SlideShow-Agent/internal/types"
)

func TestBuildRunDir(t *testing.T) {
	now := time.Date(2026, 2, 12, 10, 30, 45, 1234, time.UTC)
	got := buildRunDir(".scratch", "/tmp/My Cool.Presentation.mp4", now)
	base := filepath.Base(got)
	if filepath.Dir(got) != ".scratch" {
		t.Fatalf("unexpected parent dir: %s", got)
	}
	if !strings.HasPrefix(base, "my-cool-presentation-20260212-103045Z-") {
		t.Fatalf("unexpected run dir format: %s", base)
	}
	if len(base) != len("my-cool-presentation-20260212-103045Z-")+6 {
		t.Fatalf("unexpected run dir suffix length: %s", base)
	}
}

func TestNormalizePathSegment(t *testing.T) {
	tests := map[string]string{
		"  My Cool.Video  ": "my-cool-video",
		"___":               "",
		"abc123":            "abc123",
		"Name (v2)!":        "name-v2",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := normalizePathSegment(in); got != want {
				t.Fatalf("normalizePathSegment(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func validSpec(t *testing.T) types.PresentationSpec {
	t.Helper()
	return types.PresentationSpec{
		Slides: []types.Slide{
			{Title: "One", Narration: "first"},
			{Title: "Two", Narration: "second"},
		},
		Voice:                 "voice-1",
		TransitionDurationSec: 2.5,
		OutputPath:            filepath.Join(t.TempDir(), "out.mp4"),
	}
}

func validConfig() Config {
	return Config{
		ImageAPIKey:      "ik",
		ImageBaseURL:     "https://images.example.com",
		ElevenLabsAPIKey: "ek",
		KlingAPIKey:      "kk",
	}
}

func TestValidateForGenerate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config, *types.PresentationSpec)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config, *types.PresentationSpec) {}},
		{
			name:    "no slides",
			mutate:  func(_ *Config, s *types.PresentationSpec) { s.Slides = nil },
			wantErr: "no slides",
		},
		{
			name:    "missing narration",
			mutate:  func(_ *Config, s *types.PresentationSpec) { s.Slides[1].Narration = " " },
			wantErr: "no narration",
		},
		{
			name:    "missing voice",
			mutate:  func(_ *Config, s *types.PresentationSpec) { s.Voice = "" },
			wantErr: "voice",
		},
		{
			name:    "bad transition duration",
			mutate:  func(_ *Config, s *types.PresentationSpec) { s.TransitionDurationSec = 0 },
			wantErr: "transition duration",
		},
		{
			name:    "wrong transition prompt count",
			mutate:  func(_ *Config, s *types.PresentationSpec) { s.TransitionPrompts = []string{"a", "b"} },
			wantErr: "transition prompts",
		},
		{
			name:    "missing image key",
			mutate:  func(c *Config, _ *types.PresentationSpec) { c.ImageAPIKey = "" },
			wantErr: "image API key",
		},
		{
			name:    "missing kling key",
			mutate:  func(c *Config, _ *types.PresentationSpec) { c.KlingAPIKey = "" },
			wantErr: "Kling",
		},
		{
			name: "single slide needs no kling key",
			mutate: func(c *Config, s *types.PresentationSpec) {
				c.KlingAPIKey = ""
				s.Slides = s.Slides[:1]
				s.TransitionDurationSec = 0
			},
		},
		{
			name:    "validation needs openrouter key",
			mutate:  func(_ *Config, s *types.PresentationSpec) { s.ValidateSlides = true },
			wantErr: "OpenRouter API key",
		},
		{
			name:    "missing reference image",
			mutate:  func(_ *Config, s *types.PresentationSpec) { s.ReferenceImages = []string{"/nope/logo.png"} },
			wantErr: "reference image",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			spec := validSpec(t)
			tc.mutate(&cfg, &spec)
			err := cfg.ValidateForGenerate(spec)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateForGenerate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestAssembleParamsValidate(t *testing.T) {
	tmp := t.TempDir()
	img := filepath.Join(tmp, "a.png")
	if err := os.WriteFile(img, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	aud := filepath.Join(tmp, "a.mp3")
	if err := os.WriteFile(aud, []byte("mp3"), 0o644); err != nil {
		t.Fatal(err)
	}

	ok := AssembleParams{
		Images:     []string{img},
		Audios:     []string{aud},
		OutputPath: filepath.Join(tmp, "out.mp4"),
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	missing := ok
	missing.Images = []string{filepath.Join(tmp, "nope.png")}
	if err := missing.Validate(); err == nil {
		t.Fatal("expected error for missing input")
	}

	empty := AssembleParams{OutputPath: "out.mp4"}
	if err := empty.Validate(); err == nil {
		t.Fatal("expected error for empty image list")
	}
}
