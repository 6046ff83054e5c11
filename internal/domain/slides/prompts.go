// Package slides builds the text prompts sent to the image and motion
// generators from slide descriptions. Prompt wording is mechanical: every
// field of the slide appears verbatim, style phrasing is fixed per kind.
package slides

import (
	"fmt"
	"strings"

	"github.com/GarrickGarcia/SlideShow-Agent/internal/types"
)

// ImagePrompt renders the generation prompt for one slide image.
func ImagePrompt(s types.Slide) string {
	var b strings.Builder
	if s.IsTitleSlide {
		b.WriteString("Title slide for a professional presentation. ")
	} else {
		b.WriteString("Content slide for a professional presentation. ")
	}
	fmt.Fprintf(&b, "Heading text: %q. ", s.Title)
	if len(s.BulletPoints) > 0 {
		b.WriteString("Bullet points, shown exactly as written: ")
		for i, p := range s.BulletPoints {
			if i > 0 {
				b.WriteString("; ")
			}
			fmt.Fprintf(&b, "%q", p)
		}
		b.WriteString(". ")
	}
	if v := strings.TrimSpace(s.VisualDescription); v != "" {
		fmt.Fprintf(&b, "Visual: %s. ", v)
	}
	b.WriteString("Clean layout, minimal text, high contrast, 16:9.")
	return b.String()
}

// ImagePromptWithFeedback appends validator feedback to the base prompt for
// a regeneration attempt.
func ImagePromptWithFeedback(s types.Slide, feedback string) string {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return ImagePrompt(s)
	}
	return ImagePrompt(s) + " Correct the previous attempt: " + feedback
}

// TransitionPrompt renders the motion prompt for the transition between two
// adjacent slides. @Image1 and @Image2 name the start and end frames the
// motion generator receives alongside the prompt.
func TransitionPrompt(style string, from, to types.Slide) string {
	switch style {
	case "fade":
		return fmt.Sprintf(
			"Starting from @Image1 (%s), the composition gently dissolves, elements fading out "+
				"while the layout of @Image2 (%s) fades in and settles exactly on its final composition. "+
				"Smooth, professional motion.",
			from.Title, to.Title)
	case "sweep":
		return fmt.Sprintf(
			"Starting from @Image1 (%s), all elements sweep off to the left as the elements of "+
				"@Image2 (%s) sweep in from the right, landing exactly on the final composition. "+
				"Smooth, professional motion.",
			from.Title, to.Title)
	default: // morph
		return fmt.Sprintf(
			"Starting from @Image1 (%s), the graphic elements animate and reshape, morphing fluidly "+
				"into the composition of @Image2 (%s). Text elements slide and transform into their new "+
				"positions. The animation ends precisely on @Image2. Professional, fluid motion throughout.",
			from.Title, to.Title)
	}
}

// TransitionPromptAt picks the prompt for transition i (0-based, between
// slide i and slide i+1), preferring a custom prompt when one is set.
func TransitionPromptAt(spec types.PresentationSpec, i int) string {
	if i < len(spec.TransitionPrompts) {
		if p := strings.TrimSpace(spec.TransitionPrompts[i]); p != "" {
			return p
		}
	}
	return TransitionPrompt(spec.TransitionStyle, spec.Slides[i], spec.Slides[i+1])
}
