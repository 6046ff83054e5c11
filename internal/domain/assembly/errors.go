package assembly

import (
	"fmt"
	"time"
)

// MediaUnreadableError reports an input file whose duration could not be
// determined: missing, empty, or not parseable by the probe.
type MediaUnreadableError struct {
	Path string
	Err  error
}

func (e *MediaUnreadableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("media unreadable: %s", e.Path)
	}
	return fmt.Sprintf("media unreadable: %s: %v", e.Path, e.Err)
}

func (e *MediaUnreadableError) Unwrap() error { return e.Err }

// InsufficientSourceError reports a transition source shorter than the
// requested trim duration. The caller must supply a longer source or a
// shorter target; no padding is performed.
type InsufficientSourceError struct {
	Full   time.Duration
	Target time.Duration
}

func (e *InsufficientSourceError) Error() string {
	return fmt.Sprintf("source is %s, shorter than requested %s", e.Full, e.Target)
}

// LengthMismatchError reports input lists that violate the
// N images, N audios, N-1 transitions invariant.
type LengthMismatchError struct {
	Images      int
	Audios      int
	Transitions int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("sequence length mismatch: %d images, %d audios, %d transitions (want N, N, N-1 with N >= 1)",
		e.Images, e.Audios, e.Transitions)
}

// ConcatError reports a failed final concatenation. The scratch directory is
// left untouched so the produced segments can be inspected.
type ConcatError struct {
	ListPath string
	Err      error
}

func (e *ConcatError) Error() string {
	return fmt.Sprintf("concatenation failed (list %s): %v", e.ListPath, e.Err)
}

func (e *ConcatError) Unwrap() error { return e.Err }

// Stage names the assembly step a failure occurred in.
type Stage string

const (
	StageSlide      Stage = "slide"
	StageTransition Stage = "transition"
	StageManifest   Stage = "manifest"
	StageConcat     Stage = "concat"
)

// StepError wraps a failure with the stage and the 1-based position it
// occurred at, so callers can tell exactly which segment failed.
type StepError struct {
	Stage Stage
	Index int
	Err   error
}

func (e *StepError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("%s %d: %v", e.Stage, e.Index, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
