package ports

import (
	"context"
	"time"

	"github.com/GarrickGarcia/SlideShow-Agent/internal/types"
)

// VideoTool is the media probing and transcoding boundary. All methods block
// until the underlying tool exits. Outputs are overwritten when present and
// share identical codec, pixel format and frame rate so that Concat can
// stream-copy them.
type VideoTool interface {
	// ProbeDuration returns the container duration of an audio or video
	// file. Missing, empty or unparsable files are reported as
	// *assembly.MediaUnreadableError.
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)

	// RenderSlideSegment encodes a constant-frame-rate segment holding one
	// image for exactly d, muxed with the audio track unmodified.
	RenderSlideSegment(ctx context.Context, imagePath, audioPath string, d time.Duration, outPath string) error

	// TrimClip re-encodes the window [start, start+d) of inPath, dropping
	// the audio track.
	TrimClip(ctx context.Context, inPath string, start, d time.Duration, outPath string) error

	// Concat losslessly concatenates the segments listed in the concat
	// list file into outPath.
	Concat(ctx context.Context, listPath, outPath string) error
}

// ImageGenerator produces one slide image from a text prompt and optional
// local reference images, writing the result to outPath.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, referenceImages []string, outPath string) error
}

// SpeechSynthesizer produces one narration audio clip for the given voice,
// writing the result to outPath.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string, outPath string) error
}

// MotionSynthesizer produces one transition clip that animates from the
// start image to the end image following the motion prompt.
type MotionSynthesizer interface {
	GenerateTransition(ctx context.Context, startImage, endImage, prompt string, outPath string) error
}

// SlideValidator judges whether a generated slide image matches its slide
// description, returning actionable feedback when it does not.
type SlideValidator interface {
	ValidateSlide(ctx context.Context, imagePath string, slide types.Slide) (ok bool, feedback string, err error)
}
