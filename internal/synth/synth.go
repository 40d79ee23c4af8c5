// Package synth renders a MIDI file back to audio for auditioning. The
// voice model is a handful of decaying partials per note - nowhere near
// a sampled piano, but close enough to check a transcription by ear.
package synth

import (
	"fmt"
	"math"

	"pianoscribe/internal/audio"
	"pianoscribe/internal/midifile"
	"pianoscribe/internal/notes"
)

// Synthesizer renders MIDI to an audio file. The pipeline treats it as
// an optional capability: a nil Synthesizer means previews are off.
type Synthesizer interface {
	Synthesize(midiPath, outputPath string, sampleRate int) error
}

// Additive is the built-in engine.
type Additive struct{}

// NewAdditive returns the built-in additive engine.
func NewAdditive() *Additive {
	return &Additive{}
}

// Partial amplitudes relative to the fundamental. Roughly the spectral
// tilt of a struck string: strong fundamental, fading overtones.
var partialAmps = [...]float64{1.0, 0.55, 0.32, 0.2, 0.12, 0.07}

const (
	attackTime  = 0.008 // seconds to full amplitude
	releaseTime = 0.05  // seconds of fade after the note ends
	decayRate   = 1.1   // exponential amplitude decay per second
	noteGain    = 0.28  // headroom so chords do not clip before normalize
)

// Synthesize renders the MIDI at midiPath to a mono WAV.
func (a *Additive) Synthesize(midiPath, outputPath string, sampleRate int) error {
	seq, _, err := midifile.Decode(midiPath)
	if err != nil {
		return fmt.Errorf("parse MIDI for synthesis: %w", err)
	}
	if len(seq) == 0 {
		return fmt.Errorf("nothing to synthesize in %s", midiPath)
	}

	var end float64
	for _, n := range seq {
		if e := n.End(); e > end {
			end = e
		}
	}
	out := make([]float64, int((end+releaseTime)*float64(sampleRate))+1)

	for _, n := range seq {
		renderVoice(out, n, sampleRate)
	}

	audio.Normalize(out)
	return audio.EncodeWAV(outputPath, out, sampleRate)
}

// renderVoice adds one note's partials into the mix buffer.
func renderVoice(out []float64, n notes.Note, sampleRate int) {
	freq := keyFrequency(midifile.Key(int(n.Class), n.Octave))
	startSample := int(n.Onset * float64(sampleRate))
	numSamples := int((n.Duration + releaseTime) * float64(sampleRate))

	for i := 0; i < numSamples && startSample+i < len(out); i++ {
		t := float64(i) / float64(sampleRate)

		env := math.Exp(-decayRate * t)
		if t < attackTime {
			env *= t / attackTime
		}
		if past := t - n.Duration; past > 0 {
			env *= math.Max(0, 1-past/releaseTime)
		}

		var sample float64
		for p, amp := range partialAmps {
			f := freq * float64(p+1)
			if f*2 > float64(sampleRate) {
				break // above Nyquist
			}
			sample += amp * math.Sin(2*math.Pi*f*t)
		}
		out[startSample+i] += noteGain * env * sample
	}
}

// keyFrequency returns the equal-tempered frequency of a MIDI key
// (A4 = key 69 = 440 Hz).
func keyFrequency(key int) float64 {
	return 440.0 * math.Pow(2, float64(key-69)/12.0)
}
