// Package audio holds the PCM buffer type shared across the pipeline and
// the file codecs that produce and consume it.
package audio

import "math"

// Buffer is a decoded PCM signal. Samples are normalized float64 in
// [-1, 1], one slice per channel (1 = mono, 2 = stereo). The pipeline
// treats an input Buffer as read-only and derives new buffers from it.
type Buffer struct {
	Channels   [][]float64
	SampleRate int
}

// NewMono wraps a single channel of samples in a Buffer.
func NewMono(samples []float64, sampleRate int) *Buffer {
	return &Buffer{Channels: [][]float64{samples}, SampleRate: sampleRate}
}

// NumChannels returns the channel count.
func (b *Buffer) NumChannels() int {
	return len(b.Channels)
}

// NumFrames returns the per-channel sample count.
func (b *Buffer) NumFrames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.NumFrames()) / float64(b.SampleRate)
}

// Mono returns the first channel for a mono buffer, or the channel
// average for multi-channel buffers.
func (b *Buffer) Mono() []float64 {
	if b.NumChannels() == 1 {
		return b.Channels[0]
	}
	n := b.NumFrames()
	out := make([]float64, n)
	for _, ch := range b.Channels {
		for i := 0; i < n && i < len(ch); i++ {
			out[i] += ch[i]
		}
	}
	scale := 1.0 / float64(b.NumChannels())
	for i := range out {
		out[i] *= scale
	}
	return out
}

// Truncate limits the buffer to maxSeconds. A non-positive limit leaves
// the buffer untouched.
func (b *Buffer) Truncate(maxSeconds float64) {
	if maxSeconds <= 0 {
		return
	}
	limit := int(maxSeconds * float64(b.SampleRate))
	for i, ch := range b.Channels {
		if len(ch) > limit {
			b.Channels[i] = ch[:limit]
		}
	}
}

// Resample returns a new buffer converted to targetRate using linear
// interpolation. Adequate here: the analysis stages only need the
// spectrum below 2 kHz and the target rate is well above Nyquist for it.
func (b *Buffer) Resample(targetRate int) *Buffer {
	if targetRate == b.SampleRate || b.NumFrames() == 0 {
		return b
	}
	ratio := float64(b.SampleRate) / float64(targetRate)
	outFrames := int(float64(b.NumFrames()) / ratio)
	out := &Buffer{SampleRate: targetRate, Channels: make([][]float64, b.NumChannels())}
	for c, ch := range b.Channels {
		res := make([]float64, outFrames)
		for i := range res {
			pos := float64(i) * ratio
			j := int(pos)
			if j >= len(ch)-1 {
				res[i] = ch[len(ch)-1]
				continue
			}
			frac := pos - float64(j)
			res[i] = ch[j]*(1-frac) + ch[j+1]*frac
		}
		out.Channels[c] = res
	}
	return out
}

// Normalize scales all channels in place to unit peak amplitude. Silent
// buffers are left unchanged.
func Normalize(samples []float64) {
	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	scale := 1.0 / peak
	for i := range samples {
		samples[i] *= scale
	}
}
