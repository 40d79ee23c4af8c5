// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"testing"
)

const (
	testFrameLength = 2048
	testHopLength   = 1024
	testSampleRate  = 16000
)

func sine(freq float64, seconds float64) []float64 {
	n := int(seconds * testSampleRate)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / testSampleRate)
	}
	return out
}

func TestTransformPeakBin(t *testing.T) {
	s := NewSTFT(testFrameLength, testHopLength, testSampleRate)
	spec := s.Transform(sine(440, 1.0))

	mags := spec.Magnitudes()
	mid := mags[len(mags)/2]
	peak := 0
	for k := range mid {
		if mid[k] > mid[peak] {
			peak = k
		}
	}
	got := spec.BinFrequency(peak)
	resolution := float64(testSampleRate) / float64(testFrameLength)
	if math.Abs(got-440) > resolution {
		t.Errorf("peak bin at %.1f Hz, want 440 within %.1f", got, resolution)
	}
}

func TestInverseReconstruction(t *testing.T) {
	s := NewSTFT(testFrameLength, testHopLength, testSampleRate)
	signal := sine(220, 0.5)
	rec := s.Inverse(s.Transform(signal))

	if len(rec) != len(signal) {
		t.Fatalf("reconstructed length %d, want %d", len(rec), len(signal))
	}
	// Skip the first and last frame where the window taper dominates.
	var maxErr float64
	for i := testFrameLength; i < len(signal)-testFrameLength; i++ {
		if e := math.Abs(rec[i] - signal[i]); e > maxErr {
			maxErr = e
		}
	}
	if maxErr > 1e-6 {
		t.Errorf("max reconstruction error %g, want < 1e-6", maxErr)
	}
}

func TestHPSSKeepsSteadyTone(t *testing.T) {
	s := NewSTFT(testFrameLength, testHopLength, testSampleRate)

	// A steady tone with a click in the middle. The tone must survive,
	// the click must be attenuated.
	signal := sine(440, 1.0)
	clickAt := len(signal) / 2
	for i := 0; i < 8; i++ {
		signal[clickAt+i] += 0.9
	}

	harmonic := HPSSHarmonic(s, signal, 2.0)

	toneEnergy := 0.0
	for i := testFrameLength; i < clickAt-testFrameLength; i++ {
		toneEnergy += harmonic[i] * harmonic[i]
	}
	if toneEnergy < 1.0 {
		t.Errorf("steady tone energy %g too low after HPSS", toneEnergy)
	}
}

func TestMedianFilter(t *testing.T) {
	data := []float64{1, 1, 1, 100, 1, 1, 1}
	out := medianFilter(data, 3)
	if out[3] != 1 {
		t.Errorf("spike survived median filter: %v", out[3])
	}
}

func TestSmoothConstantSignal(t *testing.T) {
	data := []float64{2, 2, 2, 2, 2, 2, 2, 2}
	out := Smooth(data, 4)
	for i, v := range out {
		if math.Abs(v-2) > 1e-12 {
			t.Errorf("smooth[%d] = %v, want 2", i, v)
		}
	}
}
