// Package notation turns a MIDI file into a rendered score through a
// MusicXML intermediate, with a ladder of fallback renderers when the
// external engine is missing or misbehaves.
package notation

import (
	"encoding/xml"
	"fmt"
	"math"
	"os"

	"pianoscribe/internal/log"
	"pianoscribe/internal/notes"
)

// MusicXML score-partwise document, reduced to the elements a
// single-voice piano transcription needs. The same structs serve both
// for writing the intermediate file and for the fallback renderers that
// read it back.

type Score struct {
	XMLName  xml.Name `xml:"score-partwise"`
	Version  string   `xml:"version,attr"`
	Work     Work     `xml:"work"`
	PartList PartList `xml:"part-list"`
	Parts    []Part   `xml:"part"`
}

type Work struct {
	Title string `xml:"work-title"`
}

type PartList struct {
	ScoreParts []ScorePart `xml:"score-part"`
}

type ScorePart struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"part-name"`
}

type Part struct {
	ID       string    `xml:"id,attr"`
	Measures []Measure `xml:"measure"`
}

type Measure struct {
	Number     int         `xml:"number,attr"`
	Attributes *Attributes `xml:"attributes,omitempty"`
	Direction  *Direction  `xml:"direction,omitempty"`
	Notes      []XMLNote   `xml:"note"`
}

type Attributes struct {
	Divisions int   `xml:"divisions"`
	Key       KeyEl `xml:"key"`
	Time      Time  `xml:"time"`
	Clef      Clef  `xml:"clef"`
}

type KeyEl struct {
	Fifths int `xml:"fifths"`
}

type Time struct {
	Beats    int `xml:"beats"`
	BeatType int `xml:"beat-type"`
}

type Clef struct {
	Sign string `xml:"sign"`
	Line int    `xml:"line"`
}

type Direction struct {
	Sound Sound `xml:"sound"`
}

type Sound struct {
	Tempo int `xml:"tempo,attr"`
}

type XMLNote struct {
	Pitch    *Pitch    `xml:"pitch,omitempty"`
	Rest     *struct{} `xml:"rest,omitempty"`
	Duration int       `xml:"duration"`
	Type     string    `xml:"type,omitempty"`
}

type Pitch struct {
	Step   string `xml:"step"`
	Alter  int    `xml:"alter,omitempty"`
	Octave int    `xml:"octave"`
}

const (
	// Sixteenth-note resolution: 4 divisions per quarter, 16 per 4/4
	// measure.
	divisionsPerQuarter = 4
	divisionsPerMeasure = 16

	defaultTitle = "Piano Sheet Music"
)

// pitch class -> MusicXML step and alter. Sharps only; the transcription
// carries no key context to prefer flats.
var stepAlter = [12]struct {
	step  string
	alter int
}{
	{"C", 0}, {"C", 1}, {"D", 0}, {"D", 1}, {"E", 0}, {"F", 0},
	{"F", 1}, {"G", 0}, {"G", 1}, {"A", 0}, {"A", 1}, {"B", 0},
}

var typeByBeats = []struct {
	beats float64
	name  string
}{
	{4.0, "whole"},
	{2.0, "half"},
	{1.0, "quarter"},
	{0.5, "eighth"},
	{0.25, "16th"},
	{0.125, "32nd"},
	{0.0625, "64th"},
}

func noteTypeName(beats float64) string {
	best := typeByBeats[0]
	bestDist := math.Abs(beats - best.beats)
	for _, c := range typeByBeats[1:] {
		if d := math.Abs(beats - c.beats); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best.name
}

// BuildScore lays the sequence out as a single-part 4/4 score. Gaps
// between notes become rests; a note spilling past its measure is
// clipped to the barline to keep the document valid. Missing metadata
// gets defaults (title, tempo marking in the first measure).
func BuildScore(seq notes.Sequence, tempo int, title string) *Score {
	if title == "" {
		title = defaultTitle
	}

	// Second quantization pass at the symbolic level. A failure here is
	// cosmetic, never fatal: fall back to the measured durations.
	quantized := quantizeTolerant(seq)

	beatsPerSecond := float64(tempo) / 60.0
	part := Part{ID: "P1"}

	measure := newMeasure(1, tempo)
	cursor := 0 // divisions filled in the current measure

	flush := func() {
		part.Measures = append(part.Measures, measure)
		measure = newMeasure(len(part.Measures)+1, 0)
		cursor = 0
	}

	clock := 0.0 // running time in seconds at the cursor position
	for _, n := range quantized {
		// Rest to cover any gap before the onset.
		if gap := n.Onset - clock; gap > 0 {
			gapDivs := int(math.Round(gap * beatsPerSecond * divisionsPerQuarter))
			for gapDivs > 0 {
				fill := gapDivs
				if remaining := divisionsPerMeasure - cursor; fill > remaining {
					fill = remaining
				}
				measure.Notes = append(measure.Notes, XMLNote{Rest: &struct{}{}, Duration: fill})
				cursor += fill
				gapDivs -= fill
				if cursor >= divisionsPerMeasure {
					flush()
				}
			}
		}

		beats := n.Duration * beatsPerSecond
		divs := int(math.Round(beats * divisionsPerQuarter))
		if divs < 1 {
			divs = 1
		}
		if remaining := divisionsPerMeasure - cursor; divs > remaining {
			divs = remaining // clip at the barline
		}

		sa := stepAlter[int(n.Class)%12]
		measure.Notes = append(measure.Notes, XMLNote{
			Pitch:    &Pitch{Step: sa.step, Alter: sa.alter, Octave: n.Octave},
			Duration: divs,
			Type:     noteTypeName(float64(divs) / divisionsPerQuarter),
		})
		cursor += divs
		if cursor >= divisionsPerMeasure {
			flush()
		}

		if end := n.End(); end > clock {
			clock = end
		}
	}

	// Pad the final measure with a rest so every measure is full.
	if cursor > 0 {
		measure.Notes = append(measure.Notes, XMLNote{
			Rest:     &struct{}{},
			Duration: divisionsPerMeasure - cursor,
		})
		part.Measures = append(part.Measures, measure)
	}
	if len(part.Measures) == 0 {
		m := newMeasure(1, tempo)
		m.Notes = append(m.Notes, XMLNote{Rest: &struct{}{}, Duration: divisionsPerMeasure})
		part.Measures = append(part.Measures, m)
	}

	return &Score{
		Version:  "3.1",
		Work:     Work{Title: title},
		PartList: PartList{ScoreParts: []ScorePart{{ID: "P1", Name: "Piano"}}},
		Parts:    []Part{part},
	}
}

func newMeasure(number int, tempo int) Measure {
	m := Measure{Number: number}
	if number == 1 {
		m.Attributes = &Attributes{
			Divisions: divisionsPerQuarter,
			Key:       KeyEl{Fifths: 0},
			Time:      Time{Beats: 4, BeatType: 4},
			Clef:      Clef{Sign: "G", Line: 2},
		}
	}
	if tempo > 0 {
		m.Direction = &Direction{Sound: Sound{Tempo: tempo}}
	}
	return m
}

func quantizeTolerant(seq notes.Sequence) (out notes.Sequence) {
	out = seq
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("notation: symbolic quantization failed (%v), using measured durations", r)
			out = seq
		}
	}()
	q := make(notes.Sequence, len(seq))
	copy(q, seq)
	return notes.Quantize(q)
}

// WriteMusicXML serializes the score to path.
func WriteMusicXML(path string, score *Score) error {
	data, err := xml.MarshalIndent(score, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal musicxml: %w", err)
	}
	doc := append([]byte(xml.Header), data...)
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadMusicXML parses a score written by WriteMusicXML. The fallback
// renderers use it to work from the same intermediate the external
// engine sees.
func ReadMusicXML(path string) (*Score, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var score Score
	if err := xml.Unmarshal(data, &score); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &score, nil
}
