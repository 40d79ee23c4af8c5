package audio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestMonoMixdown(t *testing.T) {
	buf := &Buffer{
		SampleRate: 8000,
		Channels: [][]float64{
			{1, 0.5, 0},
			{0, 0.5, 1},
		},
	}
	mono := buf.Mono()
	want := []float64{0.5, 0.5, 0.5}
	for i := range want {
		if math.Abs(mono[i]-want[i]) > 1e-12 {
			t.Errorf("mono[%d] = %v, want %v", i, mono[i], want[i])
		}
	}
}

func TestTruncate(t *testing.T) {
	buf := NewMono(make([]float64, 16000), 8000)
	buf.Truncate(1.0)
	if buf.NumFrames() != 8000 {
		t.Errorf("expected 8000 frames after truncate, got %d", buf.NumFrames())
	}
	if math.Abs(buf.Duration()-1.0) > 1e-9 {
		t.Errorf("expected 1s duration, got %v", buf.Duration())
	}

	// Zero limit means full file.
	buf2 := NewMono(make([]float64, 100), 8000)
	buf2.Truncate(0)
	if buf2.NumFrames() != 100 {
		t.Errorf("zero limit must not truncate, got %d frames", buf2.NumFrames())
	}
}

func TestResamplePreservesDuration(t *testing.T) {
	// One second of a 440 Hz sine at 44100 Hz down to 16000 Hz.
	src := make([]float64, 44100)
	for i := range src {
		src[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 44100)
	}
	buf := NewMono(src, 44100)
	out := buf.Resample(16000)

	if out.SampleRate != 16000 {
		t.Fatalf("sample rate = %d, want 16000", out.SampleRate)
	}
	if math.Abs(out.Duration()-1.0) > 0.01 {
		t.Errorf("duration = %v, want ~1.0", out.Duration())
	}
}

func TestNormalize(t *testing.T) {
	samples := []float64{0.1, -0.5, 0.25}
	Normalize(samples)
	if math.Abs(samples[1]) != 1.0 {
		t.Errorf("peak after normalize = %v, want 1.0", math.Abs(samples[1]))
	}

	silent := []float64{0, 0, 0}
	Normalize(silent)
	for _, s := range silent {
		if s != 0 {
			t.Errorf("silence must stay silent, got %v", s)
		}
	}
}

func TestWAVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")

	src := make([]float64, 8000)
	for i := range src {
		src[i] = 0.5 * math.Sin(2*math.Pi*220*float64(i)/8000)
	}
	if err := EncodeWAV(path, src, 8000); err != nil {
		t.Fatalf("encode: %v", err)
	}

	buf, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if buf.SampleRate != 8000 {
		t.Errorf("sample rate = %d, want 8000", buf.SampleRate)
	}
	if buf.NumFrames() != len(src) {
		t.Fatalf("frames = %d, want %d", buf.NumFrames(), len(src))
	}
	for i := 0; i < len(src); i += 997 {
		if math.Abs(buf.Channels[0][i]-src[i]) > 1e-3 {
			t.Errorf("sample %d = %v, want %v", i, buf.Channels[0][i], src[i])
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := DecodeFile("no-such-file.wav"); err == nil {
		t.Error("expected error for missing file")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "notes.xyz")
	if err := os.WriteFile(path, []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeFile(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestPCM16ToFloatRange(t *testing.T) {
	cases := []struct {
		sample int16
		want   float64
	}{
		{0, 0},
		{-32768, -1.0},
		{32767, 32767.0 / 32768.0},
		{16384, 0.5},
		{-16384, -0.5},
	}
	for _, tc := range cases {
		raw := []byte{byte(uint16(tc.sample)), byte(uint16(tc.sample) >> 8)}
		if got := pcm16ToFloat(raw); got != tc.want {
			t.Errorf("pcm16ToFloat(%d) = %v, want %v", tc.sample, got, tc.want)
		}
		if got := pcm16ToFloat(raw); got < -1 || got > 1 {
			t.Errorf("pcm16ToFloat(%d) = %v, outside [-1, 1]", tc.sample, got)
		}
	}
}
