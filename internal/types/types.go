package types

// Slide describes one presentation slide: what is shown (title, bullets,
// visual description driving the image generator) and what is spoken.
type Slide struct {
	Title             string   `json:"title"`
	BulletPoints      []string `json:"bullet_points,omitempty"`
	Narration         string   `json:"narration"`
	VisualDescription string   `json:"visual_description"`
	IsTitleSlide      bool     `json:"is_title_slide,omitempty"`
}

// PresentationSpec is the user-provided description of a full slideshow.
type PresentationSpec struct {
	Slides []Slide `json:"slides"`

	// Voice is the speech-synthesis voice identifier, passed through as-is.
	Voice string `json:"voice"`

	// TransitionStyle selects the built-in motion prompt ("morph", "fade",
	// "sweep"). Ignored for indices that carry a custom prompt.
	TransitionStyle string `json:"transition_style,omitempty"`

	// TransitionPrompts optionally overrides the motion prompt per
	// transition. Length must be len(Slides)-1 when set.
	TransitionPrompts []string `json:"transition_prompts,omitempty"`

	// TransitionDurationSec is the length every transition is trimmed to.
	TransitionDurationSec float64 `json:"transition_duration"`

	// ReferenceImages are local style/brand reference image paths forwarded
	// to the image generator with every slide prompt.
	ReferenceImages []string `json:"reference_images,omitempty"`

	OutputPath string `json:"output_path"`

	ValidateSlides        bool `json:"validate_slides,omitempty"`
	MaxValidationAttempts int  `json:"max_validation_attempts,omitempty"`
}

// Manifest records what an assembly run produced: every segment in playback
// order with its timing decisions, plus the final output.
type Manifest struct {
	Output      string               `json:"output"`
	DurationSec float64              `json:"duration_sec"`
	Slides      []ManifestSlide      `json:"slides"`
	Transitions []ManifestTransition `json:"transitions,omitempty"`
}

type ManifestSlide struct {
	Position    int     `json:"position"`
	Image       string  `json:"image"`
	Audio       string  `json:"audio"`
	Segment     string  `json:"segment"`
	DurationSec float64 `json:"duration_sec"`
}

type ManifestTransition struct {
	Position    int     `json:"position"`
	Source      string  `json:"source"`
	Segment     string  `json:"segment"`
	StartSec    float64 `json:"start_sec"`
	DurationSec float64 `json:"duration_sec"`
}
