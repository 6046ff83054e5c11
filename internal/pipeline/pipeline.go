// Package pipeline wires the adapters together and runs one slideshow job
// inside a run-scoped scratch directory.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/hashicorp/go-hclog"

	"github.com/GarrickGarcia/SlideShow-Agent/internal/ports"
	"github.com/GarrickGarcia/SlideShow-Agent/internal/ports/adapters/elevenlabs"
	"github.com/GarrickGarcia/SlideShow-Agent/internal/ports/adapters/ffmpeg"
	"github.com/GarrickGarcia/SlideShow-Agent/internal/ports/adapters/imageapi"
	"github.com/GarrickGarcia/SlideShow-Agent/internal/ports/adapters/kling"
	"github.com/GarrickGarcia/SlideShow-Agent/internal/ports/adapters/openrouter"
	"github.com/GarrickGarcia/SlideShow-Agent/internal/types"
	"github.com/GarrickGarcia/SlideShow-Agent/internal/usecase"
)

type Config struct {
	// ScratchRoot is the base directory for run-scoped scratch dirs.
	// If empty, defaults to ".scratch".
	ScratchRoot string

	Log hclog.Logger

	FFmpegPath  string
	FFprobePath string

	ImageAPIKey  string
	ImageModel   string
	ImageBaseURL string

	ElevenLabsAPIKey  string
	ElevenLabsModel   string
	ElevenLabsBaseURL string

	KlingAPIKey  string
	KlingModel   string
	KlingBaseURL string

	OpenRouterAPIKey       string
	OpenRouterModel        string
	OpenRouterBaseURL      string
	OpenRouterAllowedHosts []string
}

func (c Config) logger() hclog.Logger {
	if c.Log == nil {
		return hclog.NewNullLogger()
	}
	return c.Log
}

// ValidateForGenerate checks the spec and every credential the generation
// services need.
func (c Config) ValidateForGenerate(spec types.PresentationSpec) error {
	if len(spec.Slides) == 0 {
		return errors.New("spec has no slides")
	}
	for i, s := range spec.Slides {
		if strings.TrimSpace(s.Narration) == "" {
			return fmt.Errorf("slide %d has no narration", i+1)
		}
	}
	if strings.TrimSpace(spec.Voice) == "" {
		return errors.New("voice is required")
	}
	if spec.TransitionDurationSec <= 0 && len(spec.Slides) > 1 {
		return errors.New("transition duration must be > 0")
	}
	if len(spec.TransitionPrompts) > 0 && len(spec.TransitionPrompts) != len(spec.Slides)-1 {
		return fmt.Errorf("got %d transition prompts for %d slides, want %d",
			len(spec.TransitionPrompts), len(spec.Slides), len(spec.Slides)-1)
	}
	if spec.OutputPath == "" {
		return errors.New("output path is required")
	}
	for _, ref := range spec.ReferenceImages {
		if _, err := os.Stat(ref); err != nil {
			return fmt.Errorf("stat reference image: %w", err)
		}
	}
	if c.ImageAPIKey == "" {
		return errors.New("image API key is required")
	}
	if c.ImageBaseURL == "" {
		return errors.New("image API base URL is required")
	}
	if c.ElevenLabsAPIKey == "" {
		return errors.New("ElevenLabs API key is required")
	}
	if c.KlingAPIKey == "" && len(spec.Slides) > 1 {
		return errors.New("Kling API key is required")
	}
	if spec.ValidateSlides {
		if c.OpenRouterAPIKey == "" {
			return errors.New("OpenRouter API key is required for slide validation")
		}
		if err := openrouter.ValidateBaseURL(c.OpenRouterBaseURL, c.OpenRouterAllowedHosts); err != nil {
			return err
		}
	}
	return nil
}

// AssembleParams are the inputs of an assembly-only run over pre-generated
// assets.
type AssembleParams struct {
	Images                []string
	Audios                []string
	Transitions           []string
	TransitionDurationSec float64
	OutputPath            string
}

func (p AssembleParams) Validate() error {
	if len(p.Images) == 0 {
		return errors.New("at least one image is required")
	}
	if p.OutputPath == "" {
		return errors.New("output path is required")
	}
	for _, path := range append(append(append([]string{}, p.Images...), p.Audios...), p.Transitions...) {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("stat input: %w", err)
		}
	}
	return nil
}

// RunGenerate runs the full pipeline: generate every asset the spec asks
// for, then assemble the final video. The run's scratch directory is
// reported on completion and kept around either way.
func RunGenerate(ctx context.Context, cfg Config, spec types.PresentationSpec) error {
	log := cfg.logger()

	runDir, err := prepareRunDir(cfg.ScratchRoot, spec.OutputPath, time.Now().UTC())
	if err != nil {
		return err
	}
	layout := usecase.RunLayout{
		SlidesDir:      filepath.Join(runDir, "slides"),
		AudioDir:       filepath.Join(runDir, "audio"),
		TransitionsDir: filepath.Join(runDir, "transitions"),
		SegmentsDir:    filepath.Join(runDir, "segments"),
	}
	for _, d := range []string{layout.SlidesDir, layout.AudioDir, layout.TransitionsDir, layout.SegmentsDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	log.Info("run scratch dir prepared", "dir", runDir)

	uc := usecase.New(generateDeps(cfg, spec, log))
	res, err := uc.Generate(ctx, usecase.GenerateInput{Spec: spec, Layout: layout})
	if err != nil {
		log.Error("run failed, scratch kept for inspection", "dir", runDir, "error", err)
		return err
	}

	if err := writeManifest(runDir, res.Manifest); err != nil {
		return err
	}
	log.Info("slideshow complete", "output", spec.OutputPath, "duration_sec", res.Manifest.DurationSec)
	return nil
}

// RunAssemble assembles pre-generated assets without calling any generation
// service.
func RunAssemble(ctx context.Context, cfg Config, params AssembleParams) error {
	log := cfg.logger()

	in, err := absParams(params)
	if err != nil {
		return err
	}

	runDir, err := prepareRunDir(cfg.ScratchRoot, params.OutputPath, time.Now().UTC())
	if err != nil {
		return err
	}
	segmentsDir := filepath.Join(runDir, "segments")
	if err := os.MkdirAll(segmentsDir, 0o755); err != nil {
		return err
	}
	log.Info("run scratch dir prepared", "dir", runDir)

	uc := usecase.New(usecase.Deps{
		Video: ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath),
		Log:   log,
	})
	res, err := uc.Assemble(ctx, usecase.AssembleInput{
		Images:             in.Images,
		Audios:             in.Audios,
		Transitions:        in.Transitions,
		TransitionDuration: time.Duration(params.TransitionDurationSec * float64(time.Second)),
		ScratchDir:         segmentsDir,
		OutputPath:         in.OutputPath,
	})
	if err != nil {
		log.Error("run failed, scratch kept for inspection", "dir", runDir, "error", err)
		return err
	}

	if err := writeManifest(runDir, res.Manifest); err != nil {
		return err
	}
	log.Info("slideshow complete", "output", in.OutputPath, "duration_sec", res.Manifest.DurationSec)
	return nil
}

func generateDeps(cfg Config, spec types.PresentationSpec, log hclog.Logger) usecase.Deps {
	deps := usecase.Deps{
		Video:  ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath),
		Images: imageapi.New(cfg.ImageAPIKey, cfg.ImageModel, cfg.ImageBaseURL),
		Speech: elevenlabs.New(cfg.ElevenLabsAPIKey, cfg.ElevenLabsModel, cfg.ElevenLabsBaseURL),
		Motion: kling.New(cfg.KlingAPIKey, cfg.KlingModel, cfg.KlingBaseURL),
		Log:    log,
	}
	if spec.ValidateSlides {
		deps.Validator = openrouter.New(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.OpenRouterBaseURL)
	}
	return deps
}

func absParams(p AssembleParams) (AssembleParams, error) {
	out := AssembleParams{TransitionDurationSec: p.TransitionDurationSec}
	var err error
	abs := func(paths []string) []string {
		res := make([]string, len(paths))
		for i, path := range paths {
			res[i], err = filepath.Abs(path)
			if err != nil {
				return nil
			}
		}
		return res
	}
	out.Images = abs(p.Images)
	out.Audios = abs(p.Audios)
	out.Transitions = abs(p.Transitions)
	if err != nil {
		return AssembleParams{}, err
	}
	out.OutputPath, err = filepath.Abs(p.OutputPath)
	if err != nil {
		return AssembleParams{}, err
	}
	return out, nil
}

// prepareRunDir creates a run-scoped scratch directory so concurrent runs
// never share segment paths.
func prepareRunDir(scratchRoot, outputPath string, now time.Time) (string, error) {
	if scratchRoot == "" {
		scratchRoot = ".scratch"
	}
	dir := buildRunDir(scratchRoot, outputPath, now)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Abs(dir)
}

func buildRunDir(scratchRoot, outputPath string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(outputPath), filepath.Ext(outputPath))
	name = normalizePathSegment(name)
	if name == "" {
		name = "run"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", outputPath, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(scratchRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

func writeManifest(runDir string, m types.Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(runDir, "manifest.json"), b, 0o644)
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.ImageGenerator = (*imageapi.Adapter)(nil)
var _ ports.SpeechSynthesizer = (*elevenlabs.Adapter)(nil)
var _ ports.MotionSynthesizer = (*kling.Adapter)(nil)
var _ ports.SlideValidator = (*openrouter.Adapter)(nil)
