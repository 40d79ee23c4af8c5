package notes

import "math"

// standardDurations are the notated values in seconds at the reference
// tempo (120 BPM, quarter = 0.5 s): whole down to sixty-fourth.
var standardDurations = [...]float64{4.0, 2.0, 1.0, 0.5, 0.25, 0.125, 0.0625}

// shrinkTolerance guards against quantization destroying a clearly
// sustained note: if the snapped value is below this fraction of the
// measured duration, the measured value wins.
const shrinkTolerance = 0.7

// QuantizeDuration snaps a duration to the nearest standard value.
// Quantizing an already-quantized duration returns it unchanged.
func QuantizeDuration(duration float64) float64 {
	best := standardDurations[0]
	bestDist := math.Abs(duration - best)
	for _, d := range standardDurations[1:] {
		if dist := math.Abs(duration - d); dist < bestDist {
			best = d
			bestDist = dist
		}
	}
	if best < duration*shrinkTolerance {
		return duration
	}
	return best
}

// Quantize snaps every duration in the sequence in place and returns it.
func Quantize(seq Sequence) Sequence {
	for i := range seq {
		seq[i].Duration = QuantizeDuration(seq[i].Duration)
	}
	return seq
}
