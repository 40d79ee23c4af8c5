package pitch

import (
	"math"
	"testing"
)

func TestNoteForFrequency(t *testing.T) {
	cases := []struct {
		freq   float64
		class  Class
		octave int
	}{
		{440.0, A, 4},
		{261.63, C, 4},
		{220.0, A, 3},
		{880.0, A, 5},
		{4186.0, C, 8},
		{55.0, A, 1},
		{32.70, C, 1},
		{2093.0, C, 7},
		{466.16, ASharp, 4},
		{246.94, B, 3},
	}
	for _, c := range cases {
		class, octave, ok := NoteForFrequency(c.freq)
		if !ok {
			t.Errorf("NoteForFrequency(%v) not ok", c.freq)
			continue
		}
		if class != c.class || octave != c.octave {
			t.Errorf("NoteForFrequency(%v) = %v%d, want %v%d",
				c.freq, class, octave, c.class, c.octave)
		}
	}
}

func TestNoteForFrequencyRejectsOutOfRange(t *testing.T) {
	for _, freq := range []float64{0, -10, 5, 19.9, 5000.1, 12000} {
		if _, _, ok := NoteForFrequency(freq); ok {
			t.Errorf("NoteForFrequency(%v) should not resolve", freq)
		}
	}
}

func TestSubharmonicDoubling(t *testing.T) {
	// 55 Hz sits at A1 directly. Half of that, 27.5 Hz, is octave 0 and
	// below C2, so the mapper doubles it back up to A1.
	class, octave, ok := NoteForFrequency(27.5)
	if !ok {
		t.Fatal("27.5 Hz should resolve after doubling")
	}
	if class != A || octave != 1 {
		t.Errorf("27.5 Hz resolved to %v%d, want A1 after subharmonic doubling", class, octave)
	}
}

func TestClassString(t *testing.T) {
	if C.String() != "C" || CSharp.String() != "C#" || B.String() != "B" {
		t.Error("unexpected class names")
	}
	if Class(99).String() != "?" {
		t.Error("out-of-range class must stringify to ?")
	}
}

func TestCentsBetween(t *testing.T) {
	// One octave is 1200 cents, one semitone 100.
	if got := CentsBetween(440, 880); math.Abs(got-1200) > 1e-9 {
		t.Errorf("octave = %v cents, want 1200", got)
	}
	if got := CentsBetween(440, 466.1638); math.Abs(got-100) > 0.01 {
		t.Errorf("semitone = %v cents, want 100", got)
	}
	if got := CentsBetween(440, 440); got != 0 {
		t.Errorf("unison = %v cents, want 0", got)
	}
}
