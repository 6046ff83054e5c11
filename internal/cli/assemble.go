package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/GarrickGarcia/SlideShow-Agent/internal/pipeline"
)

func newAssembleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assemble <output.mp4>",
		Short: "Assemble pre-generated slides, narration and transitions into one video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssemble(cmd, args[0])
		},
	}
	cmd.Flags().StringArrayP("image", "i", nil, "Slide image, in order (repeatable)")
	cmd.Flags().StringArrayP("audio", "a", nil, "Narration clip, in order (repeatable)")
	cmd.Flags().StringArrayP("transition", "t", nil, "Transition source clip, in order (repeatable)")
	cmd.Flags().Float64("transition-duration", 2.5, "Transition length in seconds")
	_ = cmd.MarkFlagRequired("image")
	_ = cmd.MarkFlagRequired("audio")
	return cmd
}

func runAssemble(cmd *cobra.Command, outputPath string) error {
	images, _ := cmd.Flags().GetStringArray("image")
	audios, _ := cmd.Flags().GetStringArray("audio")
	transitions, _ := cmd.Flags().GetStringArray("transition")
	transitionDuration, _ := cmd.Flags().GetFloat64("transition-duration")

	params := pipeline.AssembleParams{
		Images:                images,
		Audios:                audios,
		Transitions:           transitions,
		TransitionDurationSec: transitionDuration,
		OutputPath:            outputPath,
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("inputs: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Hour)
	defer cancel()

	return pipeline.RunAssemble(ctx, configFromEnv(cmd), params)
}
