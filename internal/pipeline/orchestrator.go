// Package pipeline sequences the transcription stages against one
// working directory and collects whatever artifacts succeeded.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pianoscribe/internal/audio"
	"pianoscribe/internal/config"
	"pianoscribe/internal/log"
	"pianoscribe/internal/midifile"
	"pianoscribe/internal/notation"
	"pianoscribe/internal/notes"
	"pianoscribe/internal/pitch"
	"pianoscribe/internal/separate"
	"pianoscribe/internal/synth"
)

// Manifest is the terminal artifact of a successful run. File ownership
// passes to the caller, which is responsible for eventual deletion.
type Manifest struct {
	PianoAudioPath       string
	MIDIPath             string
	PDFPath              string // empty when every renderer failed
	SynthesizedAudioPath string // empty when synthesis unavailable
	NotesCount           int
	NotationStrategy     string // which renderer produced the PDF
}

// Orchestrator wires the stages together. The exporter and synthesizer
// are injected capabilities: their absence is a configuration fact
// checked here once, not a scattering of availability booleans.
type Orchestrator struct {
	cfg       *config.Config
	separator *separate.Separator
	tracker   *pitch.Tracker
	exporter  *notation.Exporter
	synth     synth.Synthesizer // nil = previews disabled
}

// New builds an orchestrator from configuration with the standard
// capability set.
func New(cfg *config.Config) *Orchestrator {
	var s synth.Synthesizer
	if cfg.SynthEnabled {
		s = synth.NewAdditive()
	}
	return &Orchestrator{
		cfg:       cfg,
		separator: separate.New(cfg.SampleRate, cfg.FrameLength, cfg.HopLength, separate.DefaultParams()),
		tracker:   pitch.NewTracker(cfg.SampleRate, cfg.FrameLength, cfg.HopLength),
		exporter:  notation.NewExporter(cfg.RendererPath),
		synth:     s,
	}
}

// NewWithCapabilities is the injection point for tests.
func NewWithCapabilities(cfg *config.Config, exporter *notation.Exporter, s synth.Synthesizer) *Orchestrator {
	o := New(cfg)
	o.exporter = exporter
	o.synth = s
	return o
}

// Transcribe runs the full pipeline on inputPath. Fatal failures are a
// decode error, zero extracted notes, or an I/O failure writing the
// MIDI; notation and synthesis failures degrade the manifest instead.
func (o *Orchestrator) Transcribe(ctx context.Context, inputPath string) (*Manifest, error) {
	start := time.Now()

	ws, err := NewWorkspace()
	if err != nil {
		return nil, stageErr("workspace", err)
	}
	defer ws.Cleanup()

	if err := os.MkdirAll(o.cfg.OutputDir, 0o755); err != nil {
		return nil, stageErr("workspace", err)
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))

	// Stage 1: decode and separate.
	log.Infof("transcribe: separating piano from %s", filepath.Base(inputPath))
	in, err := audio.DecodeFile(inputPath)
	if err != nil {
		return nil, stageErr("decode", err)
	}
	piano := o.separator.Separate(in, o.cfg.MaxDuration)
	if err := audio.EncodeWAV(ws.PianoWAV(base), piano.Channels[0], piano.SampleRate); err != nil {
		return nil, stageErr("separate", err)
	}

	// Stage 2: pitch tracking and segmentation.
	log.Infof("transcribe: extracting notes")
	frames := o.tracker.Track(piano)
	seq := notes.Segment(frames, o.tracker.FrameDuration())
	if len(seq) == 0 {
		return nil, stageErr("segment", ErrNoNotes)
	}
	log.Infof("transcribe: %d notes extracted", len(seq))

	// Stage 3: quantize and encode MIDI. I/O here is fatal; the MIDI is
	// the root of every remaining artifact.
	seq = notes.Quantize(seq)
	midiStaged := ws.MIDI(base)
	if err := midifile.Encode(midiStaged, seq, o.cfg.Tempo); err != nil {
		return nil, stageErr("midi", err)
	}

	manifest := &Manifest{NotesCount: len(seq)}

	// Stage 4: notation, degradable.
	log.Infof("transcribe: rendering notation")
	pdfStaged := ws.SheetPDF(base)
	strategy, err := o.exporter.Export(ctx, midiStaged, ws.MusicXML(), pdfStaged, scoreTitle(base))
	if err != nil {
		log.Warnf("transcribe: notation unavailable: %v", err)
	} else {
		// The strategy is only recorded alongside a PDF that made it out.
		if final, err := ws.Promote(pdfStaged, o.cfg.OutputDir); err == nil {
			manifest.PDFPath = final
			manifest.NotationStrategy = strategy
		} else {
			log.Warnf("transcribe: keeping run without PDF: %v", err)
		}
	}

	// Stage 5: resynthesis, best-effort.
	if o.synth != nil {
		log.Infof("transcribe: synthesizing preview")
		synthStaged := ws.SynthWAV(base)
		if err := o.synth.Synthesize(midiStaged, synthStaged, o.cfg.SampleRate); err != nil {
			log.Warnf("transcribe: synthesis unavailable: %v", err)
		} else if final, err := ws.Promote(synthStaged, o.cfg.OutputDir); err == nil {
			manifest.SynthesizedAudioPath = final
		}
	}

	// Promote the mandatory artifacts last; failure here is fatal
	// because the manifest would be pointing at nothing.
	if manifest.PianoAudioPath, err = ws.Promote(ws.PianoWAV(base), o.cfg.OutputDir); err != nil {
		return nil, stageErr("separate", err)
	}
	if manifest.MIDIPath, err = ws.Promote(midiStaged, o.cfg.OutputDir); err != nil {
		return nil, stageErr("midi", err)
	}

	log.Infof("transcribe: done in %v", time.Since(start).Round(time.Millisecond))
	return manifest, nil
}

func scoreTitle(base string) string {
	title := strings.ReplaceAll(base, "_", " ")
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	return fmt.Sprintf("Piano Sheet Music - %s", title)
}
