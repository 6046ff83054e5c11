package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/GarrickGarcia/SlideShow-Agent/internal/domain/assembly"
	"github.com/GarrickGarcia/SlideShow-Agent/internal/domain/slides"
	"github.com/GarrickGarcia/SlideShow-Agent/internal/ports"
	"github.com/GarrickGarcia/SlideShow-Agent/internal/types"
)

type Deps struct {
	Video     ports.VideoTool
	Images    ports.ImageGenerator
	Speech    ports.SpeechSynthesizer
	Motion    ports.MotionSynthesizer
	Validator ports.SlideValidator // optional
	Log       hclog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Log == nil {
		d.Log = hclog.NewNullLogger()
	}
	return Usecase{d: d}
}

// AssembleInput describes one assembly run. ScratchDir must be run-scoped
// and exclusively owned by this run; segments and the concat list are
// written there and never cleaned up, so a failed run can be inspected and
// resumed manually.
type AssembleInput struct {
	Images             []string
	Audios             []string
	Transitions        []string
	TransitionDuration time.Duration
	ScratchDir         string
	OutputPath         string
}

type AssembleResult struct {
	Manifest types.Manifest

	// Sequence lists the segment files in playback order,
	// slide 1, transition 1, slide 2, ..., slide N.
	Sequence []string
}

// Assemble builds one video segment per slide and one trimmed transition
// between each adjacent pair, then losslessly concatenates them in order.
// Work is strictly sequential; the first failure stops the run and is
// returned wrapped in a *assembly.StepError naming the stage and position.
func (u Usecase) Assemble(ctx context.Context, in AssembleInput) (AssembleResult, error) {
	if err := assembly.ValidateCounts(len(in.Images), len(in.Audios), len(in.Transitions)); err != nil {
		return AssembleResult{}, err
	}
	if len(in.Transitions) > 0 && in.TransitionDuration <= 0 {
		return AssembleResult{}, fmt.Errorf("transition duration must be > 0, got %s", in.TransitionDuration)
	}
	scratch, err := filepath.Abs(in.ScratchDir)
	if err != nil {
		return AssembleResult{}, err
	}

	n := len(in.Images)
	seq := make([]string, 0, assembly.SequenceLen(n))
	m := types.Manifest{Output: in.OutputPath}
	var total time.Duration

	for i := 0; i < n; i++ {
		pos := i + 1
		segPath := filepath.Join(scratch, fmt.Sprintf("slide_%02d.mp4", pos))
		d, err := u.buildSlideSegment(ctx, in.Images[i], in.Audios[i], segPath)
		if err != nil {
			return AssembleResult{}, &assembly.StepError{Stage: assembly.StageSlide, Index: pos, Err: err}
		}
		u.d.Log.Debug("slide segment built", "position", pos, "duration", d, "segment", segPath)
		seq = append(seq, segPath)
		total += d
		m.Slides = append(m.Slides, types.ManifestSlide{
			Position:    pos,
			Image:       in.Images[i],
			Audio:       in.Audios[i],
			Segment:     segPath,
			DurationSec: d.Seconds(),
		})

		if i == n-1 {
			continue
		}
		trimPath := filepath.Join(scratch, fmt.Sprintf("transition_%02d.mp4", pos))
		start, err := u.trimTransition(ctx, in.Transitions[i], in.TransitionDuration, trimPath)
		if err != nil {
			return AssembleResult{}, &assembly.StepError{Stage: assembly.StageTransition, Index: pos, Err: err}
		}
		u.d.Log.Debug("transition trimmed", "position", pos, "start", start, "segment", trimPath)
		seq = append(seq, trimPath)
		total += in.TransitionDuration
		m.Transitions = append(m.Transitions, types.ManifestTransition{
			Position:    pos,
			Source:      in.Transitions[i],
			Segment:     trimPath,
			StartSec:    start.Seconds(),
			DurationSec: in.TransitionDuration.Seconds(),
		})
	}

	listPath := filepath.Join(scratch, "concat.txt")
	list, err := assembly.RenderConcatList(seq)
	if err != nil {
		return AssembleResult{}, &assembly.StepError{Stage: assembly.StageManifest, Err: err}
	}
	if err := os.WriteFile(listPath, []byte(list), 0o644); err != nil {
		return AssembleResult{}, &assembly.StepError{Stage: assembly.StageManifest, Err: err}
	}

	u.d.Log.Info("concatenating", "segments", len(seq), "output", in.OutputPath)
	if err := u.d.Video.Concat(ctx, listPath, in.OutputPath); err != nil {
		// Scratch segments stay in place for postmortem inspection.
		return AssembleResult{}, &assembly.StepError{
			Stage: assembly.StageConcat,
			Err:   &assembly.ConcatError{ListPath: listPath, Err: err},
		}
	}

	m.DurationSec = total.Seconds()
	return AssembleResult{Manifest: m, Sequence: seq}, nil
}

// buildSlideSegment probes the audio clip and renders the image held for
// exactly that duration. The probed duration is returned for the manifest.
func (u Usecase) buildSlideSegment(ctx context.Context, imagePath, audioPath, outPath string) (time.Duration, error) {
	d, err := u.d.Video.ProbeDuration(ctx, audioPath)
	if err != nil {
		return 0, err
	}
	if err := u.d.Video.RenderSlideSegment(ctx, imagePath, audioPath, d, outPath); err != nil {
		return 0, err
	}
	return d, nil
}

// trimTransition extracts a centered, silent window of target length from
// the source clip. The window's start offset is returned for the manifest.
func (u Usecase) trimTransition(ctx context.Context, srcPath string, target time.Duration, outPath string) (time.Duration, error) {
	full, err := u.d.Video.ProbeDuration(ctx, srcPath)
	if err != nil {
		return 0, err
	}
	start, err := assembly.TrimWindow(full, target)
	if err != nil {
		return 0, fmt.Errorf("trim %s: %w", srcPath, err)
	}
	if err := u.d.Video.TrimClip(ctx, srcPath, start, target, outPath); err != nil {
		return 0, err
	}
	return start, nil
}

// GenerateInput describes a full generation run driven by a presentation
// spec. Layout holds the run-scoped directories generated assets land in.
type GenerateInput struct {
	Spec   types.PresentationSpec
	Layout RunLayout
}

// RunLayout is the scratch directory structure of one run. All four
// directories must exist and be exclusively owned by the run.
type RunLayout struct {
	SlidesDir      string
	AudioDir       string
	TransitionsDir string
	SegmentsDir    string
}

type GenerateResult struct {
	Manifest types.Manifest
}

// Generate produces every asset the spec asks for and assembles the final
// video: one image and one narration clip per slide, one motion clip per
// adjacent slide pair. Generation is strictly sequential, matching the
// assembly model.
func (u Usecase) Generate(ctx context.Context, in GenerateInput) (GenerateResult, error) {
	spec := in.Spec
	n := len(spec.Slides)

	images := make([]string, n)
	audios := make([]string, n)
	for i, s := range spec.Slides {
		pos := i + 1
		imgPath := filepath.Join(in.Layout.SlidesDir, fmt.Sprintf("slide_%02d.png", pos))
		if err := u.generateSlideImage(ctx, s, spec, imgPath); err != nil {
			return GenerateResult{}, fmt.Errorf("slide %d image: %w", pos, err)
		}
		images[i] = imgPath

		audioPath := filepath.Join(in.Layout.AudioDir, fmt.Sprintf("narration_%02d.mp3", pos))
		u.d.Log.Info("synthesizing narration", "slide", pos)
		if err := u.d.Speech.Synthesize(ctx, s.Narration, spec.Voice, audioPath); err != nil {
			return GenerateResult{}, fmt.Errorf("slide %d narration: %w", pos, err)
		}
		audios[i] = audioPath
	}

	transitions := make([]string, 0, n)
	for i := 0; i < n-1; i++ {
		pos := i + 1
		outPath := filepath.Join(in.Layout.TransitionsDir, fmt.Sprintf("transition_%02d.mp4", pos))
		prompt := slides.TransitionPromptAt(spec, i)
		u.d.Log.Info("generating transition", "position", pos)
		if err := u.d.Motion.GenerateTransition(ctx, images[i], images[i+1], prompt, outPath); err != nil {
			return GenerateResult{}, fmt.Errorf("transition %d: %w", pos, err)
		}
		transitions = append(transitions, outPath)
	}

	res, err := u.Assemble(ctx, AssembleInput{
		Images:             images,
		Audios:             audios,
		Transitions:        transitions,
		TransitionDuration: time.Duration(spec.TransitionDurationSec * float64(time.Second)),
		ScratchDir:         in.Layout.SegmentsDir,
		OutputPath:         spec.OutputPath,
	})
	if err != nil {
		return GenerateResult{}, err
	}
	return GenerateResult{Manifest: res.Manifest}, nil
}

// generateSlideImage renders one slide image, optionally looping through the
// validator with its feedback folded into the regeneration prompt. When all
// attempts are rejected the last image is kept; a rejected slide is worth a
// warning, not a failed run.
func (u Usecase) generateSlideImage(ctx context.Context, s types.Slide, spec types.PresentationSpec, outPath string) error {
	attempts := 1
	if spec.ValidateSlides && u.d.Validator != nil {
		attempts = spec.MaxValidationAttempts
		if attempts < 1 {
			attempts = 3
		}
	}

	prompt := slides.ImagePrompt(s)
	var feedback string
	for attempt := 1; attempt <= attempts; attempt++ {
		u.d.Log.Info("generating slide image", "slide", s.Title, "attempt", attempt)
		if err := u.d.Images.GenerateImage(ctx, prompt, spec.ReferenceImages, outPath); err != nil {
			return err
		}
		if !spec.ValidateSlides || u.d.Validator == nil {
			return nil
		}

		ok, fb, err := u.d.Validator.ValidateSlide(ctx, outPath, s)
		if err != nil {
			return fmt.Errorf("validate: %w", err)
		}
		if ok {
			return nil
		}
		feedback = fb
		u.d.Log.Warn("slide image rejected", "slide", s.Title, "attempt", attempt, "feedback", feedback)
		prompt = slides.ImagePromptWithFeedback(s, feedback)
	}

	u.d.Log.Warn("keeping last slide image despite rejection", "slide", s.Title, "feedback", feedback)
	return nil
}
