package pitch

import "pianoscribe/internal/audio"

// Tracker estimates a fundamental frequency per analysis frame using the
// YIN difference function. The search range is deliberately narrower
// than the piano's full compass; estimates at the extremes are too
// unreliable to segment.
type Tracker struct {
	sampleRate  int
	frameLength int
	hopLength   int
	minFreq     float64
	maxFreq     float64
	threshold   float64

	diff []float64 // scratch for the per-frame difference function
}

// Frame is one pitch observation. Voiced is false when no stable
// fundamental was found; Frequency is meaningless in that case.
type Frame struct {
	Time      float64
	Frequency float64
	Voiced    bool
}

const (
	// Effective tracking range, narrower than the full piano range.
	// Below 60 Hz the frame is too short for a reliable estimate.
	defaultMinFreq = 60.0
	defaultMaxFreq = 2000.0

	// Aperiodicity threshold for the cumulative mean normalized
	// difference. Lower is stricter.
	yinThreshold = 0.15
)

// NewTracker creates a tracker for the given analysis geometry.
func NewTracker(sampleRate, frameLength, hopLength int) *Tracker {
	return &Tracker{
		sampleRate:  sampleRate,
		frameLength: frameLength,
		hopLength:   hopLength,
		minFreq:     defaultMinFreq,
		maxFreq:     defaultMaxFreq,
		threshold:   yinThreshold,
		diff:        make([]float64, frameLength/2+1),
	}
}

// Track runs pitch estimation over the whole buffer and returns one
// Frame per hop.
func (t *Tracker) Track(buf *audio.Buffer) []Frame {
	signal := buf.Mono()
	if len(signal) < t.frameLength {
		return nil
	}

	numFrames := 1 + (len(signal)-t.frameLength)/t.hopLength
	frames := make([]Frame, 0, numFrames)
	for i := 0; i < numFrames; i++ {
		start := i * t.hopLength
		freq, voiced := t.estimate(signal[start : start+t.frameLength])
		frames = append(frames, Frame{
			Time:      float64(start) / float64(t.sampleRate),
			Frequency: freq,
			Voiced:    voiced,
		})
	}
	return frames
}

// FrameDuration returns the hop interval in seconds.
func (t *Tracker) FrameDuration() float64 {
	return float64(t.hopLength) / float64(t.sampleRate)
}

// estimate runs YIN on a single frame: difference function, cumulative
// mean normalization, absolute threshold, parabolic refinement.
func (t *Tracker) estimate(frame []float64) (float64, bool) {
	minLag := int(float64(t.sampleRate) / t.maxFreq)
	maxLag := int(float64(t.sampleRate) / t.minFreq)
	if maxLag >= len(t.diff) {
		maxLag = len(t.diff) - 1
	}
	if minLag < 2 {
		minLag = 2
	}
	if minLag >= maxLag {
		return 0, false
	}

	half := len(frame) / 2
	d := t.diff
	d[0] = 0
	for lag := 1; lag <= maxLag; lag++ {
		sum := 0.0
		for j := 0; j < half; j++ {
			delta := frame[j] - frame[j+lag]
			sum += delta * delta
		}
		d[lag] = sum
	}

	// Cumulative mean normalized difference, in place.
	running := 0.0
	d[0] = 1
	for lag := 1; lag <= maxLag; lag++ {
		running += d[lag]
		if running == 0 {
			d[lag] = 1
		} else {
			d[lag] = d[lag] * float64(lag) / running
		}
	}

	// First dip under the threshold wins; follow it to its local bottom.
	lag := -1
	for candidate := minLag; candidate <= maxLag; candidate++ {
		if d[candidate] < t.threshold {
			for candidate+1 <= maxLag && d[candidate+1] < d[candidate] {
				candidate++
			}
			lag = candidate
			break
		}
	}
	if lag < 0 {
		return 0, false
	}

	refined := t.refine(d, lag, minLag, maxLag)
	freq := float64(t.sampleRate) / refined
	if freq < t.minFreq || freq > t.maxFreq {
		return 0, false
	}
	return freq, true
}

// refine interpolates the true minimum between samples of the
// normalized difference with a parabola through the dip.
func (t *Tracker) refine(d []float64, lag, minLag, maxLag int) float64 {
	if lag <= minLag || lag >= maxLag {
		return float64(lag)
	}
	a := d[lag-1]
	b := d[lag]
	c := d[lag+1]
	denom := a - 2*b + c
	if denom == 0 {
		return float64(lag)
	}
	return float64(lag) + (a-c)/(2*denom)
}
