// Package midifile serializes note sequences to standard MIDI files and
// reads them back for the notation and synthesis stages.
package midifile

import (
	"fmt"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"pianoscribe/internal/log"
	"pianoscribe/internal/notes"
)

const (
	ticksPerQuarter = 960
	channel         = 0
	velocity        = 100

	// Useful piano range in MIDI key numbers, C1 to C7.
	minKey = 24
	maxKey = 108

	// Event duration clamps in beats. Anything shorter than a
	// thirty-second note is unreadable, anything past 16 beats is a
	// tracking artifact.
	minDurationBeats = 0.125
	maxDurationBeats = 16.0
)

// Key returns the MIDI key number for a pitch class and octave
// (C4 = 60).
func Key(class int, octave int) int {
	return (octave+1)*12 + class
}

// Encode writes seq as a single-track SMF with one tempo event. The only
// failure mode is I/O on the output path.
func Encode(path string, seq notes.Sequence, tempo int) error {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	type timedEvent struct {
		tick uint32
		on   bool
		key  uint8
	}
	events := make([]timedEvent, 0, len(seq)*2)

	beatsPerSecond := float64(tempo) / 60.0
	for _, n := range seq {
		if n.Octave < notes.MinOctave || n.Octave > notes.MaxOctave {
			// Upstream already filters these; skip defensively.
			log.Warnf("midifile: skipping out-of-range note %s", n.Name())
			continue
		}
		key := Key(int(n.Class), n.Octave)
		if key < minKey {
			key = minKey
		} else if key > maxKey {
			key = maxKey
		}

		onsetBeats := n.Onset * beatsPerSecond
		durBeats := n.Duration * beatsPerSecond
		if durBeats < minDurationBeats {
			durBeats = minDurationBeats
		} else if durBeats > maxDurationBeats {
			durBeats = maxDurationBeats
		}

		onTick := uint32(onsetBeats * ticksPerQuarter)
		offTick := uint32((onsetBeats + durBeats) * ticksPerQuarter)
		events = append(events,
			timedEvent{tick: onTick, on: true, key: uint8(key)},
			timedEvent{tick: offTick, on: false, key: uint8(key)},
		)
	}

	// Note-offs sort before note-ons at the same tick so repeated
	// pitches do not produce overlapping sounding notes.
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return !events[i].on && events[j].on
	})

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(float64(tempo)))
	lastTick := uint32(0)
	for _, ev := range events {
		delta := ev.tick - lastTick
		lastTick = ev.tick
		if ev.on {
			tr.Add(delta, midi.NoteOn(channel, ev.key, velocity))
		} else {
			tr.Add(delta, midi.NoteOff(channel, ev.key))
		}
	}
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		return fmt.Errorf("assemble MIDI track: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := s.WriteTo(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
