// SPDX-License-Identifier: MIT
package dsp

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"pianoscribe/pkg/bitint"
)

// Spectrogram holds the complex STFT of a signal along with the analysis
// geometry needed to invert it or map bins to frequencies.
type Spectrogram struct {
	// Frames[t][k] is the complex coefficient of bin k at frame t.
	// Each frame has frameLength/2+1 bins.
	Frames      [][]complex128
	SampleRate  int
	FrameLength int
	HopLength   int
	NumSamples  int // original signal length, for exact inversion
}

// NumBins returns the number of frequency bins per frame.
func (s *Spectrogram) NumBins() int {
	return s.FrameLength/2 + 1
}

// BinFrequency returns the center frequency in Hz of bin k.
func (s *Spectrogram) BinFrequency(k int) float64 {
	return float64(k) * float64(s.SampleRate) / float64(s.FrameLength)
}

// Magnitudes returns |Frames| as a newly allocated matrix.
func (s *Spectrogram) Magnitudes() [][]float64 {
	out := make([][]float64, len(s.Frames))
	for t, frame := range s.Frames {
		row := make([]float64, len(frame))
		for k, c := range frame {
			row[k] = cmplx.Abs(c)
		}
		out[t] = row
	}
	return out
}

// STFT holds pre-allocated state for forward and inverse short-time
// transforms with a Hann window.
type STFT struct {
	frameLength int
	hopLength   int
	sampleRate  int
	fft         *fourier.FFT
	win         []float64
	input       []float64
	output      []complex128
}

// NewSTFT creates a transform for the given geometry. frameLength must be
// a power of 2 and hopLength must not exceed it; 50% overlap is required
// for artifact-free inversion with a Hann window.
func NewSTFT(frameLength, hopLength, sampleRate int) *STFT {
	if !bitint.IsPowerOfTwo(frameLength) {
		panic("stft: frame length must be a power of 2")
	}
	if hopLength <= 0 || hopLength > frameLength {
		panic("stft: hop length out of range")
	}
	return &STFT{
		frameLength: frameLength,
		hopLength:   hopLength,
		sampleRate:  sampleRate,
		fft:         fourier.NewFFT(frameLength),
		win:         window.Hann(makeOnes(frameLength)),
		input:       make([]float64, frameLength),
		output:      make([]complex128, frameLength/2+1),
	}
}

func makeOnes(n int) []float64 {
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	return ones
}

// Transform computes the STFT of signal. Frames are zero-padded at the
// end so that every sample is covered.
func (s *STFT) Transform(signal []float64) *Spectrogram {
	numFrames := 1
	if len(signal) > s.frameLength {
		numFrames = 1 + (len(signal)-s.frameLength+s.hopLength-1)/s.hopLength
	}

	spec := &Spectrogram{
		Frames:      make([][]complex128, numFrames),
		SampleRate:  s.sampleRate,
		FrameLength: s.frameLength,
		HopLength:   s.hopLength,
		NumSamples:  len(signal),
	}

	for t := 0; t < numFrames; t++ {
		start := t * s.hopLength
		for i := 0; i < s.frameLength; i++ {
			if start+i < len(signal) {
				s.input[i] = signal[start+i] * s.win[i]
			} else {
				s.input[i] = 0
			}
		}
		coeffs := make([]complex128, s.frameLength/2+1)
		s.fft.Coefficients(coeffs, s.input)
		spec.Frames[t] = coeffs
	}
	return spec
}

// Inverse reconstructs the time-domain signal by windowed overlap-add.
// The per-sample window energy is tracked and divided out, which keeps
// reconstruction exact for any COLA-satisfying hop.
func (s *STFT) Inverse(spec *Spectrogram) []float64 {
	outLen := spec.NumSamples
	if outLen == 0 {
		outLen = (len(spec.Frames)-1)*s.hopLength + s.frameLength
	}
	out := make([]float64, outLen)
	winSum := make([]float64, outLen)

	frame := make([]float64, s.frameLength)
	scale := 1.0 / float64(s.frameLength) // gonum's inverse is unnormalized

	for t, coeffs := range spec.Frames {
		s.fft.Sequence(frame, coeffs)
		start := t * s.hopLength
		for i := 0; i < s.frameLength && start+i < outLen; i++ {
			out[start+i] += frame[i] * scale * s.win[i]
			winSum[start+i] += s.win[i] * s.win[i]
		}
	}
	for i := range out {
		if winSum[i] > 1e-9 {
			out[i] /= winSum[i]
		}
	}
	return out
}
