// SPDX-License-Identifier: MIT
package dsp

import "sort"

// Harmonic/percussive separation by median filtering. Sustained tones
// form horizontal ridges in the magnitude spectrogram, transients form
// vertical ones; a median across time enhances the former and a median
// across frequency the latter. Bins where the harmonic estimate beats
// the percussive estimate by the margin keep their energy, the rest are
// zeroed (hard mask).
const (
	hpssKernel = 17 // median filter length, frames or bins
)

// HPSSHarmonic returns the harmonic component of signal. margin sets how
// decisively a bin must be tonal to survive; larger margins keep less.
func HPSSHarmonic(stft *STFT, signal []float64, margin float64) []float64 {
	spec := stft.Transform(signal)
	mags := spec.Magnitudes()
	if len(mags) == 0 {
		return make([]float64, len(signal))
	}

	numFrames := len(mags)
	numBins := len(mags[0])

	// Median across time for each bin (harmonic estimate).
	harm := make([][]float64, numFrames)
	for t := range harm {
		harm[t] = make([]float64, numBins)
	}
	col := make([]float64, 0, numFrames)
	for k := 0; k < numBins; k++ {
		col = col[:0]
		for t := 0; t < numFrames; t++ {
			col = append(col, mags[t][k])
		}
		filtered := medianFilter(col, hpssKernel)
		for t := 0; t < numFrames; t++ {
			harm[t][k] = filtered[t]
		}
	}

	// Median across frequency for each frame (percussive estimate),
	// then mask the complex spectrogram in place.
	for t := 0; t < numFrames; t++ {
		perc := medianFilter(mags[t], hpssKernel)
		for k := 0; k < numBins; k++ {
			if harm[t][k] < margin*perc[k] {
				spec.Frames[t][k] = 0
			}
		}
	}

	return stft.Inverse(spec)
}

// medianFilter applies a running median of the given odd length with
// edge replication.
func medianFilter(data []float64, length int) []float64 {
	if length < 3 || len(data) == 0 {
		out := make([]float64, len(data))
		copy(out, data)
		return out
	}
	half := length / 2
	out := make([]float64, len(data))
	win := make([]float64, 0, length)
	for i := range data {
		win = win[:0]
		for j := i - half; j <= i+half; j++ {
			idx := j
			if idx < 0 {
				idx = 0
			} else if idx >= len(data) {
				idx = len(data) - 1
			}
			win = append(win, data[idx])
		}
		sort.Float64s(win)
		out[i] = win[len(win)/2]
	}
	return out
}

// Smooth applies a centered moving average of the given window length.
// Lengths below 2 return the input unchanged.
func Smooth(signal []float64, length int) []float64 {
	if length < 2 || len(signal) == 0 {
		return signal
	}
	half := length / 2
	out := make([]float64, len(signal))
	sum := 0.0
	count := 0
	// Sliding window; recompute incrementally to stay O(n).
	for i := -half; i < len(signal); i++ {
		add := i + half
		if add < len(signal) && add >= 0 {
			sum += signal[add]
			count++
		}
		drop := i - half - 1
		if drop >= 0 {
			sum -= signal[drop]
			count--
		}
		if i >= 0 {
			out[i] = sum / float64(count)
		}
	}
	return out
}
