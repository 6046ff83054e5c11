// Package ffmpeg invokes ffmpeg/ffprobe as blocking subprocesses. Encoding
// parameters are fixed (libx264, yuv420p, 30 fps) across both segment kinds
// so the final concat can stream-copy.
package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/GarrickGarcia/SlideShow-Agent/internal/domain/assembly"
)

const frameRate = "30"

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, &assembly.MediaUnreadableError{Path: path, Err: err}
	}
	if fi.Size() == 0 {
		return 0, &assembly.MediaUnreadableError{Path: path, Err: errors.New("empty file")}
	}

	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) && len(ee.Stderr) > 0 {
			err = fmt.Errorf("%w\n%s", err, string(ee.Stderr))
		}
		return 0, &assembly.MediaUnreadableError{Path: path, Err: fmt.Errorf("ffprobe: %w", err)}
	}

	d, err := parseProbeDuration(out)
	if err != nil {
		return 0, &assembly.MediaUnreadableError{Path: path, Err: err}
	}
	return d, nil
}

func parseProbeDuration(out []byte) (time.Duration, error) {
	var res struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &res); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	s := strings.TrimSpace(res.Format.Duration)
	if s == "" {
		return 0, errors.New("container reports no duration")
	}
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	if sec <= 0 {
		return 0, fmt.Errorf("non-positive duration %s", s)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

func (a *Adapter) RenderSlideSegment(ctx context.Context, imagePath, audioPath string, d time.Duration, outPath string) error {
	// The image is looped indefinitely and cut at the probed audio length;
	// -shortest guards against the audio container overrunning it.
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-loop", "1",
		"-framerate", frameRate,
		"-i", imagePath,
		"-i", audioPath,
		"-t", fmtSeconds(d),
		"-r", frameRate,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		outPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg render slide segment: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) TrimClip(ctx context.Context, inPath string, start, d time.Duration, outPath string) error {
	// Re-encode rather than stream-copy so the trim is frame-accurate and
	// the output matches the slide segments' codec parameters. -an drops
	// any audio track; transitions are silent.
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-ss", fmtSeconds(start),
		"-i", inPath,
		"-t", fmtSeconds(d),
		"-an",
		"-r", frameRate,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-pix_fmt", "yuv420p",
		outPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg trim clip: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) Concat(ctx context.Context, listPath, outPath string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg concat: %w\n%s", err, string(b))
	}
	return nil
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
