// Package notes turns per-frame pitch observations into discrete,
// quantized note events.
package notes

import (
	"fmt"

	"pianoscribe/internal/pitch"
)

// Playable octave range. Anything below is assumed to be a subharmonic
// artifact, anything above a captured overtone; neither belongs in the
// transcription.
const (
	MinOctave = 1
	MaxOctave = 7
)

// Note is the fundamental transcription unit.
type Note struct {
	Onset     float64 // seconds from the start of the signal
	Class     pitch.Class
	Octave    int
	Frequency float64 // Hz, the tracked value, not the tempered one
	Duration  float64 // seconds
}

// Name returns the symbolic name, e.g. "A#3".
func (n Note) Name() string {
	return fmt.Sprintf("%s%d", n.Class, n.Octave)
}

// SamePitch reports whether two notes share class and octave.
func (n Note) SamePitch(other Note) bool {
	return n.Class == other.Class && n.Octave == other.Octave
}

// End returns the note's end time in seconds.
func (n Note) End() float64 {
	return n.Onset + n.Duration
}

// Sequence is an ordered run of notes, non-decreasing by onset, with
// adjacent same-pitch near-duplicates merged.
type Sequence []Note
