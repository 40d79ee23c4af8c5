package notes

import (
	"math"
	"testing"

	"pianoscribe/internal/pitch"
)

var frameDur = 0.064 // 1024-sample hop at 16 kHz

// frameRun builds a run of frames at frameDur spacing starting at t0.
// freq <= 0 produces unvoiced frames.
func frameRun(t0 float64, count int, freq float64) []pitch.Frame {
	out := make([]pitch.Frame, count)
	for i := range out {
		out[i] = pitch.Frame{
			Time:      t0 + float64(i)*frameDur,
			Frequency: freq,
			Voiced:    freq > 0,
		}
	}
	return out
}

func TestSegmentSteadyToneThenSilence(t *testing.T) {
	// 2 seconds of A3 (220 Hz) then 1 second of silence: exactly one
	// note, A3, duration about 2.0 s, nothing during the tail.
	var frames []pitch.Frame
	frames = append(frames, frameRun(0, int(2.0/frameDur), 220)...)
	silStart := frames[len(frames)-1].Time + frameDur
	frames = append(frames, frameRun(silStart, int(1.0/frameDur), 0)...)

	seq := Segment(frames, frameDur)
	if len(seq) != 1 {
		t.Fatalf("got %d notes, want exactly 1", len(seq))
	}
	n := seq[0]
	if n.Class != pitch.A || n.Octave != 3 {
		t.Errorf("pitch = %s, want A3", n.Name())
	}
	if math.Abs(n.Duration-2.0) > 0.1 {
		t.Errorf("duration = %v, want 2.0 +/- 0.1", n.Duration)
	}
}

func TestSegmentMergesDropout(t *testing.T) {
	// Two C4 (261.63 Hz) segments split by a 30 ms unvoiced gap, below
	// the 50 ms minimum onset gap: one merged note spanning both.
	var frames []pitch.Frame
	frames = append(frames, frameRun(0, 8, 261.63)...) // ~512 ms
	gapEnd := frames[len(frames)-1].Time + frameDur + 0.030
	frames = append(frames, pitch.Frame{Time: frames[len(frames)-1].Time + frameDur})
	frames[len(frames)-1].Voiced = false
	frames = append(frames, frameRun(gapEnd, 8, 261.63)...)

	seq := Segment(frames, frameDur)
	if len(seq) != 1 {
		t.Fatalf("got %d notes, want 1 merged note", len(seq))
	}
	n := seq[0]
	if n.Class != pitch.C || n.Octave != 4 {
		t.Errorf("pitch = %s, want C4", n.Name())
	}
	wantEnd := frames[len(frames)-1].Time + frameDur
	if math.Abs(n.End()-wantEnd) > frameDur {
		t.Errorf("merged note ends at %v, want ~%v", n.End(), wantEnd)
	}
}

func TestSegmentDistinctPitchesKept(t *testing.T) {
	// A3 then C4 back to back: two notes, not merged.
	var frames []pitch.Frame
	frames = append(frames, frameRun(0, 5, 220)...)
	frames = append(frames, frameRun(5*frameDur, 5, 261.63)...)

	seq := Segment(frames, frameDur)
	if len(seq) != 2 {
		t.Fatalf("got %d notes, want 2", len(seq))
	}
	if seq[0].Class != pitch.A || seq[1].Class != pitch.C {
		t.Errorf("got %s, %s; want A3, C4", seq[0].Name(), seq[1].Name())
	}
}

func TestSegmentDiscardsShortBlips(t *testing.T) {
	// A single voiced frame (64 ms < 100 ms minimum) is noise.
	var frames []pitch.Frame
	frames = append(frames, frameRun(0, 1, 440)...)
	frames = append(frames, frameRun(frameDur, 5, 0)...)

	if seq := Segment(frames, frameDur); len(seq) != 0 {
		t.Errorf("got %d notes from a 64 ms blip, want 0", len(seq))
	}
}

func TestSegmentMonotonicOnsets(t *testing.T) {
	var frames []pitch.Frame
	pos := 0.0
	for _, freq := range []float64{220, 0, 261.63, 0, 329.63, 0, 261.63} {
		run := frameRun(pos, 4, freq)
		frames = append(frames, run...)
		pos = run[len(run)-1].Time + frameDur
	}

	seq := Segment(frames, frameDur)
	for i := 1; i < len(seq); i++ {
		if seq[i].Onset < seq[i-1].Onset {
			t.Fatalf("onsets not monotonic: %v after %v", seq[i].Onset, seq[i-1].Onset)
		}
		if seq[i].SamePitch(seq[i-1]) && seq[i].Onset-seq[i-1].End() < MinOnsetGap {
			t.Fatalf("unmerged same-pitch pair at %v", seq[i].Onset)
		}
	}
}

func TestSegmentOctaveCorrection(t *testing.T) {
	// 55 Hz maps to A1 within range. 30 Hz maps below the playable
	// range and doubling (60 Hz -> B1) rescues it; the segmenter must
	// not emit anything below octave 1 either way.
	var frames []pitch.Frame
	frames = append(frames, frameRun(0, 5, 30)...)
	frames = append(frames, frameRun(5*frameDur, 5, 0)...)

	seq := Segment(frames, frameDur)
	for _, n := range seq {
		if n.Octave < MinOctave || n.Octave > MaxOctave {
			t.Errorf("note %s outside playable octave range", n.Name())
		}
	}
}

func TestSegmentEmptyInput(t *testing.T) {
	if seq := Segment(nil, frameDur); len(seq) != 0 {
		t.Errorf("got %d notes from no frames", len(seq))
	}
}
