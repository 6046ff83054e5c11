//go:build integration

package itest

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GarrickGarcia/SlideShow-Agent/internal/domain/assembly"
	"github.com/GarrickGarcia/SlideShow-Agent/internal/pipeline"
	"github.com/GarrickGarcia/SlideShow-Agent/internal/ports/adapters/ffmpeg"
	"github.com/GarrickGarcia/SlideShow-Agent/internal/usecase"
)

const frameInterval = 1.0 / 30

func TestAssembleE2E(t *testing.T) {
	tmp := t.TempDir()

	imgA := filepath.Join(tmp, "a.png")
	imgB := filepath.Join(tmp, "b.png")
	audA := filepath.Join(tmp, "a.mp3")
	audB := filepath.Join(tmp, "b.mp3")
	trans := filepath.Join(tmp, "trans.mp4")
	makeImage(t, imgA, "navy")
	makeImage(t, imgB, "white")
	makeAudio(t, audA, 4.0)
	makeAudio(t, audB, 3.0)
	makeClip(t, trans, 5.0)

	scratch := filepath.Join(tmp, "segments")
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(tmp, "final.mp4")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	uc := usecase.New(usecase.Deps{Video: ffmpeg.New("ffmpeg", "ffprobe")})
	res, err := uc.Assemble(ctx, usecase.AssembleInput{
		Images:             []string{imgA, imgB},
		Audios:             []string{audA, audB},
		Transitions:        []string{trans},
		TransitionDuration: 2500 * time.Millisecond,
		ScratchDir:         scratch,
		OutputPath:         out,
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	if len(res.Sequence) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(res.Sequence))
	}

	// Slide segments track their audio duration within one frame interval;
	// the trimmed transition is exactly the requested length.
	wantSegs := []struct {
		path string
		dur  float64
		tol  float64
	}{
		{res.Sequence[0], 4.0, frameInterval + 0.1},
		{res.Sequence[1], 2.5, frameInterval},
		{res.Sequence[2], 3.0, frameInterval + 0.1},
	}
	for i, want := range wantSegs {
		got, err := probeDurationSeconds(want.path)
		if err != nil {
			t.Fatalf("probe segment %d: %v", i, err)
		}
		if math.Abs(got-want.dur) > want.tol {
			t.Fatalf("segment %d duration = %.3f, want %.3f ± %.3f", i, got, want.dur, want.tol)
		}
	}

	if res.Manifest.Transitions[0].StartSec != 1.25 {
		t.Fatalf("transition window start = %v, want 1.25", res.Manifest.Transitions[0].StartSec)
	}

	total, err := probeDurationSeconds(out)
	if err != nil {
		t.Fatalf("probe output: %v", err)
	}
	if math.Abs(total-9.5) > 0.3 {
		t.Fatalf("final duration = %.3f, want about 9.5", total)
	}
}

func TestAssembleE2E_TransitionSourceTooShort(t *testing.T) {
	tmp := t.TempDir()

	imgA := filepath.Join(tmp, "a.png")
	imgB := filepath.Join(tmp, "b.png")
	audA := filepath.Join(tmp, "a.mp3")
	audB := filepath.Join(tmp, "b.mp3")
	trans := filepath.Join(tmp, "trans.mp4")
	makeImage(t, imgA, "navy")
	makeImage(t, imgB, "white")
	makeAudio(t, audA, 1.0)
	makeAudio(t, audB, 1.0)
	makeClip(t, trans, 2.0)

	scratch := filepath.Join(tmp, "segments")
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	uc := usecase.New(usecase.Deps{Video: ffmpeg.New("ffmpeg", "ffprobe")})
	_, err := uc.Assemble(ctx, usecase.AssembleInput{
		Images:             []string{imgA, imgB},
		Audios:             []string{audA, audB},
		Transitions:        []string{trans},
		TransitionDuration: 2500 * time.Millisecond,
		ScratchDir:         scratch,
		OutputPath:         filepath.Join(tmp, "final.mp4"),
	})
	var ise *assembly.InsufficientSourceError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InsufficientSourceError, got %v", err)
	}

	// Earlier segments stay on disk for manual resumption.
	if _, err := os.Stat(filepath.Join(scratch, "slide_01.mp4")); err != nil {
		t.Fatalf("first slide segment not preserved: %v", err)
	}
}

func TestRunAssembleE2E_SingleSlide(t *testing.T) {
	tmp := t.TempDir()

	img := filepath.Join(tmp, "a.png")
	aud := filepath.Join(tmp, "a.mp3")
	makeImage(t, img, "navy")
	makeAudio(t, aud, 2.0)

	out := filepath.Join(tmp, "final.mp4")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg := pipeline.Config{ScratchRoot: filepath.Join(tmp, "scratch")}
	err := pipeline.RunAssemble(ctx, cfg, pipeline.AssembleParams{
		Images:     []string{img},
		Audios:     []string{aud},
		OutputPath: out,
	})
	if err != nil {
		t.Fatalf("run assemble: %v", err)
	}

	got, err := probeDurationSeconds(out)
	if err != nil {
		t.Fatalf("probe output: %v", err)
	}
	if math.Abs(got-2.0) > frameInterval+0.1 {
		t.Fatalf("final duration = %.3f, want about 2.0", got)
	}

	// One manifest.json per run dir.
	entries, err := os.ReadDir(filepath.Join(tmp, "scratch"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected a single run dir, got %v (err %v)", entries, err)
	}
	if _, err := os.Stat(filepath.Join(tmp, "scratch", entries[0].Name(), "manifest.json")); err != nil {
		t.Fatalf("missing manifest: %v", err)
	}
}
