package notation

import (
	"context"
	"errors"
	"fmt"

	"pianoscribe/internal/log"
	"pianoscribe/internal/midifile"
)

// Renderer turns a MusicXML document into a rendered score document.
// Implementations must be safe to try and fail: the chain treats any
// error as "try the next one".
type Renderer interface {
	Name() string
	Render(ctx context.Context, musicxmlPath, outputPath string) error
}

// ErrAllRenderersFailed is returned when the whole degradation ladder is
// exhausted.
var ErrAllRenderersFailed = errors.New("all notation renderers failed")

// Exporter drives the MIDI -> MusicXML -> document pipeline against an
// ordered renderer chain.
type Exporter struct {
	chain []Renderer
}

// NewExporter builds the standard degradation ladder: the external
// engine (when a binary can be found), then the drawn-score fallback,
// then the plain-text listing. Renderers are attempted in order.
func NewExporter(enginePath string) *Exporter {
	chain := []Renderer{}
	if engine := NewEngineRenderer(enginePath); engine != nil {
		chain = append(chain, engine)
	}
	chain = append(chain, &scoreRenderer{}, &textRenderer{})
	return &Exporter{chain: chain}
}

// NewExporterWithChain is the injection point for tests and callers with
// a custom ladder.
func NewExporterWithChain(chain ...Renderer) *Exporter {
	return &Exporter{chain: chain}
}

// Export renders midiPath to a document at outputPath, staging the
// MusicXML intermediate at musicxmlPath. It returns the name of the
// renderer that succeeded.
func (e *Exporter) Export(ctx context.Context, midiPath, musicxmlPath, outputPath, title string) (string, error) {
	seq, tempo, err := midifile.Decode(midiPath)
	if err != nil {
		return "", fmt.Errorf("parse MIDI for notation: %w", err)
	}

	score := BuildScore(seq, tempo, title)
	if err := WriteMusicXML(musicxmlPath, score); err != nil {
		return "", err
	}

	var lastErr error
	for _, r := range e.chain {
		if err := r.Render(ctx, musicxmlPath, outputPath); err != nil {
			log.Warnf("notation: %s renderer failed: %v", r.Name(), err)
			lastErr = err
			continue
		}
		log.Infof("notation: rendered with %s", r.Name())
		return r.Name(), nil
	}
	if lastErr != nil {
		return "", fmt.Errorf("%w: last error: %v", ErrAllRenderersFailed, lastErr)
	}
	return "", ErrAllRenderersFailed
}
