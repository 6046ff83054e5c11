//go:build integration

package itest

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"testing"
)

func probeDurationSeconds(path string) (float64, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}

// makeImage renders a solid-color PNG fixture.
func makeImage(t *testing.T, path, color string) {
	t.Helper()
	runFFmpeg(t,
		"-f", "lavfi",
		"-i", "color=c="+color+":s=640x360",
		"-frames:v", "1",
		path,
	)
}

// makeAudio renders a sine-tone MP3 of the given duration.
func makeAudio(t *testing.T, path string, seconds float64) {
	t.Helper()
	runFFmpeg(t,
		"-f", "lavfi",
		"-i", fmt.Sprintf("sine=frequency=440:duration=%.3f", seconds),
		"-c:a", "libmp3lame",
		path,
	)
}

// makeClip renders a moving test pattern of the given duration.
func makeClip(t *testing.T, path string, seconds float64) {
	t.Helper()
	runFFmpeg(t,
		"-f", "lavfi",
		"-i", fmt.Sprintf("testsrc=duration=%.3f:size=640x360:rate=30", seconds),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		path,
	)
}

func runFFmpeg(t *testing.T, args ...string) {
	t.Helper()
	cmd := exec.Command("ffmpeg", append([]string{"-y"}, args...)...)
	if b, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
}
