// Package assembly holds the timing and ordering decisions of slideshow
// assembly: the centered trim window, the slide/transition interleaving
// invariant, and the concat list format. It issues no subprocess calls.
package assembly

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// TrimWindow returns the start offset of a window of target length centered
// within a clip of full length. The window is head-biased: the start is never
// clamped against the tail, so when full and target are close the extra
// content comes from the head side.
func TrimWindow(full, target time.Duration) (time.Duration, error) {
	if target <= 0 {
		return 0, fmt.Errorf("target duration must be > 0, got %s", target)
	}
	if full < target {
		return 0, &InsufficientSourceError{Full: full, Target: target}
	}
	start := (full - target) / 2
	if start < 0 {
		start = 0
	}
	return start, nil
}

// ValidateCounts checks the N images, N audios, N-1 transitions invariant
// before any segment work starts.
func ValidateCounts(images, audios, transitions int) error {
	if images < 1 || audios != images || transitions != images-1 {
		return &LengthMismatchError{Images: images, Audios: audios, Transitions: transitions}
	}
	return nil
}

// SequenceLen is the number of segments an assembly of n slides produces:
// slide, transition, slide, ..., slide.
func SequenceLen(n int) int { return 2*n - 1 }

// RenderConcatList renders the concat demuxer input, one `file '<path>'`
// line per segment in playback order. Paths must be absolute so the list is
// independent of the tool's working directory.
func RenderConcatList(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", errors.New("empty segment list")
	}
	var b strings.Builder
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			return "", fmt.Errorf("segment path is not absolute: %s", p)
		}
		b.WriteString("file '")
		b.WriteString(escapeConcatPath(p))
		b.WriteString("'\n")
	}
	return b.String(), nil
}

// escapeConcatPath escapes single quotes per the concat demuxer's quoting
// rules: a quoted string cannot contain a literal ', so close the quote,
// emit an escaped quote, and reopen.
func escapeConcatPath(p string) string {
	return strings.ReplaceAll(p, "'", `'\''`)
}
