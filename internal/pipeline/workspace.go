package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace is the exclusively-owned staging area for one invocation.
// Every intermediate lands here; final artifacts are copied out to the
// output directory before cleanup. Distinct invocations get distinct
// directories, so concurrent runs never collide.
type Workspace struct {
	Dir string
}

// NewWorkspace creates a uuid-named directory under the system temp dir.
func NewWorkspace() (*Workspace, error) {
	dir := filepath.Join(os.TempDir(), "pianoscribe-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

// Intermediate file paths.
func (w *Workspace) MusicXML() string { return filepath.Join(w.Dir, "score.musicxml") }

// Staged artifact paths, named deterministically from the input base name.
func (w *Workspace) PianoWAV(base string) string {
	return filepath.Join(w.Dir, base+"_piano.wav")
}
func (w *Workspace) MIDI(base string) string {
	return filepath.Join(w.Dir, base+"_piano.mid")
}
func (w *Workspace) SheetPDF(base string) string {
	return filepath.Join(w.Dir, base+"_sheet_music.pdf")
}
func (w *Workspace) SynthWAV(base string) string {
	return filepath.Join(w.Dir, base+"_synthesized.wav")
}

// Cleanup removes the workspace and everything left in it. Runs on both
// success and failure paths.
func (w *Workspace) Cleanup() error {
	return os.RemoveAll(w.Dir)
}

// Promote moves a staged artifact into the output directory and returns
// its final path. A cross-device rename falls back to copy.
func (w *Workspace) Promote(staged, outputDir string) (string, error) {
	final := filepath.Join(outputDir, filepath.Base(staged))
	if err := os.Rename(staged, final); err == nil {
		return final, nil
	}
	data, err := os.ReadFile(staged)
	if err != nil {
		return "", fmt.Errorf("promote %s: %w", staged, err)
	}
	if err := os.WriteFile(final, data, 0o644); err != nil {
		return "", fmt.Errorf("promote %s: %w", staged, err)
	}
	return final, nil
}
