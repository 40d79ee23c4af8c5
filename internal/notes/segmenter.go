package notes

import (
	"math"

	"pianoscribe/internal/log"
	"pianoscribe/internal/pitch"
)

// Segmentation thresholds.
const (
	// MinNoteDuration is the shortest event kept; anything briefer is
	// treated as tracker noise, silently.
	MinNoteDuration = 0.100

	// MinOnsetGap is the smallest believable gap between two onsets of
	// the same pitch. Same-pitch pairs closer than this are one note
	// with a tracker dropout in the middle.
	MinOnsetGap = 0.050

	// continuationCents is how far a frame may drift from the held
	// pitch and still count as the same note.
	continuationCents = 50
)

// segmenterState is the explicit state of the onset machine.
type segmenterState int

const (
	stateIdle    segmenterState = iota // no open note
	stateHolding                       // tracking an open note
)

// Segmenter converts a pitch-frame stream into a Sequence. It is a
// two-state machine: idle until a voiced frame opens a note, holding
// until the pitch moves or voicing drops.
type Segmenter struct {
	state segmenterState

	heldClass  pitch.Class
	heldOctave int
	heldFreq   float64
	heldStart  float64

	out Sequence
}

// NewSegmenter returns a segmenter in the idle state.
func NewSegmenter() *Segmenter {
	return &Segmenter{state: stateIdle}
}

// Segment consumes the whole frame stream and returns the filtered
// sequence. frameDuration is the hop interval, used to close the final
// open note past the last frame.
func Segment(frames []pitch.Frame, frameDuration float64) Sequence {
	s := NewSegmenter()
	for _, f := range frames {
		s.Feed(f)
	}
	var endTime float64
	if n := len(frames); n > 0 {
		endTime = frames[n-1].Time + frameDuration
	}
	return s.Finish(endTime)
}

// Feed advances the machine by one frame.
func (s *Segmenter) Feed(f pitch.Frame) {
	class, octave, ok := s.resolve(f)
	if !ok {
		// Unvoiced or unusable frame: close whatever is open.
		s.close(f.Time)
		return
	}

	switch s.state {
	case stateIdle:
		s.open(f.Time, class, octave, f.Frequency)
	case stateHolding:
		if s.continues(f.Frequency, class, octave) {
			return // same note, keep holding
		}
		s.close(f.Time)
		s.open(f.Time, class, octave, f.Frequency)
	}
}

// Finish closes any open note at endTime and returns the post-filtered
// sequence.
func (s *Segmenter) Finish(endTime float64) Sequence {
	s.close(endTime)
	return mergeCloseRepeats(s.out)
}

// resolve maps the frame's frequency to a playable pitch, applying the
// subharmonic-doubling hypothesis for octaves below the valid range.
func (s *Segmenter) resolve(f pitch.Frame) (pitch.Class, int, bool) {
	if !f.Voiced || f.Frequency <= 0 {
		return 0, 0, false
	}
	class, octave, ok := pitch.NoteForFrequency(f.Frequency)
	if !ok {
		return 0, 0, false
	}
	if octave < MinOctave {
		// The tracker may have locked onto a subharmonic; test the
		// octave-up hypothesis and discard the frame if it fails too.
		class, octave, ok = pitch.NoteForFrequency(f.Frequency * 2)
		if !ok || octave < MinOctave || octave > MaxOctave {
			return 0, 0, false
		}
		return class, octave, true
	}
	if octave > MaxOctave {
		// Above C7 it is almost certainly a captured overtone.
		return 0, 0, false
	}
	return class, octave, true
}

// continues reports whether a frame extends the held note: within 50
// cents of the held frequency and mapping to the same symbolic pitch.
func (s *Segmenter) continues(freq float64, class pitch.Class, octave int) bool {
	cents := math.Abs(pitch.CentsBetween(s.heldFreq, freq))
	return cents < continuationCents && class == s.heldClass && octave == s.heldOctave
}

func (s *Segmenter) open(t float64, class pitch.Class, octave int, freq float64) {
	s.state = stateHolding
	s.heldClass = class
	s.heldOctave = octave
	s.heldFreq = freq
	s.heldStart = t
}

func (s *Segmenter) close(t float64) {
	if s.state != stateHolding {
		return
	}
	s.state = stateIdle

	duration := t - s.heldStart
	if duration < MinNoteDuration {
		return // noise, not an error
	}
	s.out = append(s.out, Note{
		Onset:     s.heldStart,
		Class:     s.heldClass,
		Octave:    s.heldOctave,
		Frequency: s.heldFreq,
		Duration:  duration,
	})
}

// mergeCloseRepeats enforces the minimum onset gap. Two adjacent notes
// of the same pitch closer than the gap are a single note interrupted by
// a tracker dropout: extend the first to cover the second. Different
// pitches are always kept, however close; fast passages and broken
// chords are legitimate.
func mergeCloseRepeats(in Sequence) Sequence {
	if len(in) == 0 {
		return in
	}
	out := make(Sequence, 0, len(in))
	out = append(out, in[0])
	for _, note := range in[1:] {
		prev := &out[len(out)-1]
		gap := note.Onset - prev.End()
		if note.SamePitch(*prev) && gap < MinOnsetGap {
			if end := note.End(); end > prev.End() {
				prev.Duration = end - prev.Onset
			}
			log.Debugf("segment: merged %s repeat at %.3fs (gap %.0fms)",
				note.Name(), note.Onset, gap*1000)
			continue
		}
		out = append(out, note)
	}
	return out
}
