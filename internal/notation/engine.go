package notation

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"pianoscribe/internal/config"
	"pianoscribe/internal/log"
)

// RenderTimeout bounds the external engine subprocess. Scores produced
// by this pipeline are small; a minute means the engine is wedged.
const RenderTimeout = config.RendererTimeoutSeconds * time.Second

// candidateBinaries are the MuseScore-compatible executables probed on
// PATH when no explicit path is configured.
var candidateBinaries = []string{"mscore", "musescore", "mscore4", "musescore4", "MuseScore4"}

// engineRenderer shells out to a MuseScore-compatible CLI:
// <bin> <input.musicxml> -o <output> -f
type engineRenderer struct {
	binary string
}

// NewEngineRenderer locates the external engine. It returns nil when no
// binary can be found, which the caller treats as "engine unavailable"
// rather than an error.
func NewEngineRenderer(path string) Renderer {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			log.Warnf("notation: configured engine %s not found", path)
			return nil
		}
		return &engineRenderer{binary: path}
	}
	for _, name := range candidateBinaries {
		if found, err := exec.LookPath(name); err == nil {
			return &engineRenderer{binary: found}
		}
	}
	log.Debugf("notation: no external engine on PATH")
	return nil
}

func (r *engineRenderer) Name() string { return "engine" }

func (r *engineRenderer) Render(ctx context.Context, musicxmlPath, outputPath string) error {
	ctx, cancel := context.WithTimeout(ctx, RenderTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, musicxmlPath, "-o", outputPath, "-f")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	log.Debugf("notation: %s took %v", r.binary, time.Since(start))

	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("engine timed out after %v", RenderTimeout)
	}
	if err != nil {
		return fmt.Errorf("engine failed: %w: %s", err, stderr.String())
	}

	// A zero-exit run that produced nothing still counts as a failure.
	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("engine produced no output at %s", outputPath)
	}
	return nil
}
