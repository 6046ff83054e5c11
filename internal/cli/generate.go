package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/GarrickGarcia/SlideShow-Agent/internal/pipeline"
	"github.com/GarrickGarcia/SlideShow-Agent/internal/types"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <spec.json>",
		Short: "Generate slides, narration and transitions from a presentation spec, then assemble",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args[0])
		},
	}
	cmd.Flags().String("out", "", "Override the spec's output path")
	return cmd
}

func runGenerate(cmd *cobra.Command, specPath string) error {
	spec, err := readSpec(specPath)
	if err != nil {
		return err
	}
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		spec.OutputPath = out
	}

	cfg := configFromEnv(cmd)
	if err := cfg.ValidateForGenerate(spec); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Hour)
	defer cancel()

	return pipeline.RunGenerate(ctx, cfg, spec)
}

func readSpec(path string) (types.PresentationSpec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return types.PresentationSpec{}, fmt.Errorf("read spec: %w", err)
	}
	var spec types.PresentationSpec
	if err := json.Unmarshal(b, &spec); err != nil {
		return types.PresentationSpec{}, fmt.Errorf("parse spec %s: %w", path, err)
	}
	if spec.OutputPath != "" && !filepath.IsAbs(spec.OutputPath) {
		// Resolve relative to the spec file, not the working directory.
		spec.OutputPath = filepath.Join(filepath.Dir(path), spec.OutputPath)
	}
	return spec, nil
}

func configFromEnv(cmd *cobra.Command) pipeline.Config {
	scratch, _ := cmd.Flags().GetString("scratch")
	ffmpegPath, _ := cmd.Flags().GetString("ffmpeg")
	ffprobePath, _ := cmd.Flags().GetString("ffprobe")

	cfg := pipeline.Config{
		ScratchRoot: scratch,
		Log:         newLogger(cmd),

		FFmpegPath:  ffmpegPath,
		FFprobePath: ffprobePath,

		ImageAPIKey:  os.Getenv("IMAGEGEN_API_KEY"),
		ImageModel:   os.Getenv("IMAGEGEN_MODEL"),
		ImageBaseURL: os.Getenv("IMAGEGEN_BASE_URL"),

		ElevenLabsAPIKey:  os.Getenv("ELEVENLABS_API_KEY"),
		ElevenLabsModel:   os.Getenv("ELEVENLABS_MODEL"),
		ElevenLabsBaseURL: os.Getenv("ELEVENLABS_BASE_URL"),

		KlingAPIKey:  os.Getenv("KLING_API_KEY"),
		KlingModel:   os.Getenv("KLING_MODEL"),
		KlingBaseURL: os.Getenv("KLING_BASE_URL"),

		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:   getenvDefault("OPENROUTER_MODEL", "anthropic/claude-3.5-haiku"),
		OpenRouterBaseURL: getenvDefault("OPENROUTER_BASE_URL", "https://openrouter.ai"),
	}
	if hosts := os.Getenv("OPENROUTER_ALLOWED_HOSTS"); hosts != "" {
		cfg.OpenRouterAllowedHosts = strings.Split(hosts, ",")
	}
	return cfg
}
