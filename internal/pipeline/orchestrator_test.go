package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"pianoscribe/internal/audio"
	"pianoscribe/internal/config"
	"pianoscribe/internal/midifile"
	"pianoscribe/internal/notation"
	"pianoscribe/internal/pitch"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.OutputDir = t.TempDir()
	cfg.SynthEnabled = true
	return cfg
}

// writeToneWAV writes seconds of a sine at freq followed by tailSilence
// seconds of silence.
func writeToneWAV(t *testing.T, path string, freq, seconds, tailSilence float64) {
	t.Helper()
	sr := config.DefaultSampleRate
	n := int(seconds * float64(sr))
	total := n + int(tailSilence*float64(sr))
	samples := make([]float64, total)
	for i := 0; i < n; i++ {
		samples[i] = 0.8 * math.Sin(2*math.Pi*freq*float64(i)/float64(sr))
	}
	if err := audio.EncodeWAV(path, samples, sr); err != nil {
		t.Fatalf("write tone: %v", err)
	}
}

func TestTranscribeSteadyTone(t *testing.T) {
	cfg := testConfig(t)
	input := filepath.Join(t.TempDir(), "a3_take.wav")
	writeToneWAV(t, input, 220, 2.0, 1.0)

	manifest, err := New(cfg).Transcribe(context.Background(), input)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}

	if manifest.NotesCount != 1 {
		t.Errorf("notes count = %d, want 1 for a steady tone", manifest.NotesCount)
	}
	for _, p := range []string{manifest.PianoAudioPath, manifest.MIDIPath} {
		if info, err := os.Stat(p); err != nil || info.Size() == 0 {
			t.Errorf("mandatory artifact missing or empty: %s (%v)", p, err)
		}
	}
	if manifest.PDFPath == "" {
		t.Error("notation should have fallen back to a built-in renderer")
	}
	if manifest.SynthesizedAudioPath == "" {
		t.Error("synthesis enabled but no preview produced")
	}

	// Artifact names derive from the input base name.
	if filepath.Base(manifest.MIDIPath) != "a3_take_piano.mid" {
		t.Errorf("MIDI artifact named %s", filepath.Base(manifest.MIDIPath))
	}
}

func TestTranscribeSilenceIsNoNotes(t *testing.T) {
	cfg := testConfig(t)
	input := filepath.Join(t.TempDir(), "silence.wav")
	writeToneWAV(t, input, 440, 0, 2.0)

	_, err := New(cfg).Transcribe(context.Background(), input)
	if !errors.Is(err, ErrNoNotes) {
		t.Fatalf("expected ErrNoNotes, got %v", err)
	}

	var stage *StageError
	if !errors.As(err, &stage) || stage.Stage != "segment" {
		t.Errorf("error should carry the segment stage, got %v", err)
	}
}

func TestTranscribeMissingInput(t *testing.T) {
	cfg := testConfig(t)
	_, err := New(cfg).Transcribe(context.Background(), "does-not-exist.wav")
	if !errors.Is(err, audio.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestTranscribeSynthDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.SynthEnabled = false
	input := filepath.Join(t.TempDir(), "tone.wav")
	writeToneWAV(t, input, 261.63, 1.5, 0.5)

	manifest, err := New(cfg).Transcribe(context.Background(), input)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if manifest.SynthesizedAudioPath != "" {
		t.Error("preview produced with synthesis disabled")
	}
}

type failingRenderer struct{}

func (failingRenderer) Name() string { return "failing" }
func (failingRenderer) Render(ctx context.Context, musicxmlPath, outputPath string) error {
	return errors.New("render backend down")
}

func TestTranscribeDegradesWithoutNotation(t *testing.T) {
	cfg := testConfig(t)
	input := filepath.Join(t.TempDir(), "tone.wav")
	writeToneWAV(t, input, 220, 1.5, 0.5)

	exporter := notation.NewExporterWithChain(failingRenderer{})
	o := NewWithCapabilities(cfg, exporter, nil)

	manifest, err := o.Transcribe(context.Background(), input)
	if err != nil {
		t.Fatalf("notation failure must not fail the run: %v", err)
	}
	if manifest.PDFPath != "" || manifest.NotationStrategy != "" {
		t.Errorf("manifest claims notation despite exhausted chain: %+v", manifest)
	}
	if manifest.MIDIPath == "" || manifest.PianoAudioPath == "" {
		t.Error("mandatory artifacts missing from degraded run")
	}
}

// vanishingRenderer claims success without writing the document, so the
// staged PDF never exists when the run tries to move it out.
type vanishingRenderer struct{}

func (vanishingRenderer) Name() string { return "vanishing" }
func (vanishingRenderer) Render(ctx context.Context, musicxmlPath, outputPath string) error {
	return nil
}

func TestManifestOmitsStrategyWhenPDFIsLost(t *testing.T) {
	cfg := testConfig(t)
	input := filepath.Join(t.TempDir(), "tone.wav")
	writeToneWAV(t, input, 220, 1.5, 0.5)

	exporter := notation.NewExporterWithChain(vanishingRenderer{})
	manifest, err := NewWithCapabilities(cfg, exporter, nil).Transcribe(context.Background(), input)
	if err != nil {
		t.Fatalf("a lost PDF must not fail the run: %v", err)
	}
	if manifest.PDFPath != "" {
		t.Errorf("PDFPath = %q for a document that was never written", manifest.PDFPath)
	}
	if manifest.NotationStrategy != "" {
		t.Errorf("strategy %q recorded without a PDF to back it", manifest.NotationStrategy)
	}
}

func TestTranscribedPitchIsCorrect(t *testing.T) {
	cfg := testConfig(t)
	input := filepath.Join(t.TempDir(), "c4.wav")
	writeToneWAV(t, input, 261.63, 1.5, 0.5)

	manifest, err := New(cfg).Transcribe(context.Background(), input)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	seq, _, err := midifile.Decode(manifest.MIDIPath)
	if err != nil {
		t.Fatalf("decode manifest MIDI: %v", err)
	}
	if len(seq) != 1 {
		t.Fatalf("decoded %d notes, want 1", len(seq))
	}
	if seq[0].Class != pitch.C || seq[0].Octave != 4 {
		t.Errorf("transcribed %s, want C4", seq[0].Name())
	}
}
