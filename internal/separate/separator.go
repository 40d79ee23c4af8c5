// Package separate isolates harmonic, piano-like content from a mixed
// recording. The approach is subtractive: harmonic/percussive splitting
// first, then a stereo difference trick against center-panned vocals,
// then a spectral mask biased toward the piano's fundamental range.
package separate

import (
	"math/cmplx"

	"pianoscribe/internal/audio"
	"pianoscribe/internal/config"
	"pianoscribe/internal/dsp"
	"pianoscribe/internal/log"
)

// Params are the empirically chosen separation constants. They are
// exposed as tunables; none of them is derived from a physical model.
type Params struct {
	PianoMinFreq float64 // below this, bins are attenuated hard (A0)
	PianoMaxFreq float64 // above this, bins are attenuated hard (C8)
	VocalMinFreq float64 // vocal fundamental band lower edge
	VocalMaxFreq float64 // vocal fundamental band upper edge

	OutOfRangeGain  float64 // gain applied outside the piano range
	VocalGain       float64 // gain applied inside the vocal band
	HarmonicBoost   float64 // gain for bins backed by strong overtones
	OvertoneMinimum float64 // fraction of frame peak an overtone must reach

	HPSSMargin  float64 // harmonic/percussive mask margin
	DiffWeight  float64 // stereo difference channel weight
	SumWeight   float64 // stereo sum channel weight
	SmoothBlend float64 // dry share when blending in the smoothed signal
}

// DefaultParams returns the tuned values.
func DefaultParams() Params {
	return Params{
		PianoMinFreq:    config.PianoMinFreq,
		PianoMaxFreq:    config.PianoMaxFreq,
		VocalMinFreq:    80.0,
		VocalMaxFreq:    300.0,
		OutOfRangeGain:  0.1,
		VocalGain:       0.05,
		HarmonicBoost:   1.2,
		OvertoneMinimum: 0.3,
		HPSSMargin:      8.0,
		DiffWeight:      0.8,
		SumWeight:       0.2,
		SmoothBlend:     0.8,
	}
}

// Separator extracts the piano track from a decoded buffer.
type Separator struct {
	params      Params
	sampleRate  int
	frameLength int
	hopLength   int
	stft        *dsp.STFT
}

// New creates a Separator operating at the given analysis geometry.
func New(sampleRate, frameLength, hopLength int, params Params) *Separator {
	return &Separator{
		params:      params,
		sampleRate:  sampleRate,
		frameLength: frameLength,
		hopLength:   hopLength,
		stft:        dsp.NewSTFT(frameLength, hopLength, sampleRate),
	}
}

// Separate returns a mono buffer believed to contain predominantly piano
// content, peak-normalized. The input is downsampled to the analysis
// rate and optionally truncated first; the caller's buffer is not
// modified beyond truncation.
func (s *Separator) Separate(in *audio.Buffer, maxDuration float64) *audio.Buffer {
	in.Truncate(maxDuration)
	work := in.Resample(s.sampleRate)

	var signal []float64
	if work.NumChannels() >= 2 {
		signal = s.stereoReduce(work)
	} else {
		log.Debugf("separate: mono input, harmonic component only")
		signal = dsp.HPSSHarmonic(s.stft, work.Channels[0], s.params.HPSSMargin)
	}

	signal = s.maskSpectrum(signal)

	// A short moving average knocks down residual transient artifacts;
	// blend rather than replace so attacks keep some definition.
	smoothWin := s.sampleRate / 100 // 10 ms
	if smoothWin > 1 {
		smooth := dsp.Smooth(signal, smoothWin)
		dry := s.params.SmoothBlend
		for i := range signal {
			signal[i] = dry*signal[i] + (1-dry)*smooth[i]
		}
	}

	audio.Normalize(signal)
	return audio.NewMono(signal, s.sampleRate)
}

// stereoReduce removes center-panned content. Centered sources (lead
// vocals, typically) cancel in L-R while panned instruments survive; a
// little of the sum channel is mixed back in for body.
func (s *Separator) stereoReduce(buf *audio.Buffer) []float64 {
	left := dsp.HPSSHarmonic(s.stft, buf.Channels[0], s.params.HPSSMargin)
	right := dsp.HPSSHarmonic(s.stft, buf.Channels[1], s.params.HPSSMargin)

	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		diff := left[i] - right[i]
		sum := (left[i] + right[i]) / 2
		out[i] = s.params.DiffWeight*diff + s.params.SumWeight*sum
	}
	return out
}

// maskSpectrum applies the frequency-domain mask: hard attenuation
// outside the piano's fundamental range, harder attenuation in the vocal
// fundamental band, and a mild boost for bins whose integer overtones
// carry energy, which is what a struck piano string looks like.
func (s *Separator) maskSpectrum(signal []float64) []float64 {
	spec := s.stft.Transform(signal)
	numBins := spec.NumBins()

	for t, frame := range spec.Frames {
		mags := make([]float64, numBins)
		framePeak := 0.0
		for k, c := range frame {
			mags[k] = cmplx.Abs(c)
			if mags[k] > framePeak {
				framePeak = mags[k]
			}
		}
		if framePeak == 0 {
			continue
		}

		for k := 0; k < numBins; k++ {
			freq := spec.BinFrequency(k)
			switch {
			case freq < s.params.PianoMinFreq || freq > s.params.PianoMaxFreq:
				spec.Frames[t][k] *= complex(s.params.OutOfRangeGain, 0)
			case freq >= s.params.VocalMinFreq && freq <= s.params.VocalMaxFreq:
				spec.Frames[t][k] *= complex(s.params.VocalGain, 0)
			default:
				if s.overtonesPresent(mags, k, framePeak) {
					spec.Frames[t][k] *= complex(s.params.HarmonicBoost, 0)
				}
			}
		}
	}
	return s.stft.Inverse(spec)
}

// overtonesPresent reports whether any of the 2nd-4th harmonics of bin k
// are strong relative to the frame peak.
func (s *Separator) overtonesPresent(mags []float64, k int, framePeak float64) bool {
	for _, h := range []int{2, 3, 4} {
		idx := k * h
		if idx >= len(mags) {
			break
		}
		if mags[idx] > s.params.OvertoneMinimum*framePeak {
			return true
		}
	}
	return false
}

