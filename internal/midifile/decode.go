package midifile

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"pianoscribe/internal/notes"
	"pianoscribe/internal/pitch"
)

// Decode reads an SMF back into a note sequence and its tempo. Notes are
// reconstructed by pairing each note-on with the next matching note-off
// on the same key.
func Decode(path string) (notes.Sequence, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", path, err)
	}
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("parse %s: %w", path, err)
	}

	tpq := float64(ticksPerQuarter)
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		tpq = float64(mt.Resolution())
	}

	tempo := 120.0
	type openNote struct {
		startTick uint64
		key       uint8
	}

	var seq notes.Sequence
	for _, tr := range s.Tracks {
		var absTick uint64
		var open []openNote
		for _, ev := range tr {
			absTick += uint64(ev.Delta)

			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) {
				tempo = bpm
				continue
			}

			var ch, key, vel uint8
			if ev.Message.GetNoteStart(&ch, &key, &vel) {
				open = append(open, openNote{startTick: absTick, key: key})
				continue
			}
			if ev.Message.GetNoteEnd(&ch, &key) {
				for i, o := range open {
					if o.key != key {
						continue
					}
					open = append(open[:i], open[i+1:]...)
					seq = append(seq, noteFromTicks(o.startTick, absTick, key, tempo, tpq))
					break
				}
			}
		}
	}

	sort.SliceStable(seq, func(i, j int) bool { return seq[i].Onset < seq[j].Onset })
	return seq, int(tempo + 0.5), nil
}

func noteFromTicks(startTick, endTick uint64, key uint8, tempo, tpq float64) notes.Note {
	secondsPerBeat := 60.0 / tempo
	onset := float64(startTick) / tpq * secondsPerBeat
	duration := float64(endTick-startTick) / tpq * secondsPerBeat
	return notes.Note{
		Onset:    onset,
		Class:    pitch.Class(int(key) % 12),
		Octave:   int(key)/12 - 1,
		Duration: duration,
	}
}
