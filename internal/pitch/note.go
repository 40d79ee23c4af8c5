// Package pitch estimates per-frame fundamental frequencies and maps
// frequencies to symbolic pitches under equal temperament.
package pitch

import "math"

// Class is one of the 12 chromatic pitch classes, C = 0 through B = 11.
type Class int

// Chromatic pitch classes.
const (
	C Class = iota
	CSharp
	D
	DSharp
	E
	F
	FSharp
	G
	GSharp
	A
	ASharp
	B
)

var classNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// String returns the letter name with accidental, e.g. "C#".
func (c Class) String() string {
	if c < 0 || c > 11 {
		return "?"
	}
	return classNames[c]
}

const (
	a4Frequency = 440.0

	// Sanity bounds around the piano range. Frequencies outside have no
	// symbolic meaning for this pipeline.
	minMappableFreq = 20.0
	maxMappableFreq = 5000.0
)

// NoteForFrequency maps a frequency in Hz to its nearest equal-tempered
// pitch class and octave (octave 4 contains middle C). ok is false for
// frequencies with no plausible symbolic pitch.
//
// A tracker locked onto a subharmonic reports an implausibly low octave;
// when that happens the doubled frequency is tried once before giving up.
func NoteForFrequency(freq float64) (class Class, octave int, ok bool) {
	if freq < minMappableFreq || freq > maxMappableFreq {
		return 0, 0, false
	}

	class, octave = resolve(freq)

	// Subharmonic correction: below C2 the estimate is suspect.
	if octave < 1 && freq < 65.0 {
		doubled := freq * 2.0
		if doubled >= 32.0 && doubled <= maxMappableFreq {
			class, octave = resolve(doubled)
			freq = doubled
		}
	}

	if octave < 0 || octave > 8 {
		return 0, 0, false
	}

	// A very low frequency claiming a playable octave means the rounding
	// landed wrong; step down once and re-check.
	if freq < 30.0 && octave >= 1 {
		octave--
		if octave < 0 {
			return 0, 0, false
		}
	}

	return class, octave, true
}

// resolve computes the raw class and octave for a frequency. The octave
// derivation must floor correctly for semitone offsets below C4.
func resolve(freq float64) (Class, int) {
	semitones := int(math.Round(12 * math.Log2(freq/a4Frequency)))

	// A4 is 9 semitones above C4.
	fromC4 := semitones + 9
	classIdx := fromC4 % 12
	if classIdx < 0 {
		classIdx += 12
	}

	octave := 4
	if fromC4 >= 0 {
		octave += fromC4 / 12
	} else {
		octave += (fromC4 - 11) / 12
	}
	return Class(classIdx), octave
}

// CentsBetween returns the signed distance from a to b in cents.
func CentsBetween(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return math.Inf(1)
	}
	return 1200 * math.Log2(b/a)
}
