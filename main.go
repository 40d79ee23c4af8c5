package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pianoscribe/cmd"
	"pianoscribe/internal/log"
	"pianoscribe/internal/pipeline"
	"pianoscribe/pkg/build"
)

// main is the entry point for the transcription tool. The program flow
// has three phases:
//
// 1. Startup:
//   - Initialize build information
//   - Parse command line arguments and load configuration
//   - Exit early for commands that do not run the pipeline
//
// 2. Transcription:
//   - Run the full pipeline with a signal-cancelable context
//
// 3. Report:
//   - Print the artifact manifest, or the failure
func main() {
	build.Initialize()

	config, err := cmd.ParseArgs()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	// Help, version and usage errors are handled inside ParseArgs.
	if config.Command != "transcribe" {
		return
	}

	if level, ok := log.ParseLevel(config.LogLevel); ok {
		log.SetLevel(level)
	}

	// Ctrl-C cancels the run; the notation subprocess inherits the
	// cancellation through the context.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manifest, err := pipeline.New(config).Transcribe(ctx, config.InputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	printManifest(manifest)
}

func printManifest(m *pipeline.Manifest) {
	fmt.Printf("notes:      %d\n", m.NotesCount)
	fmt.Printf("piano:      %s\n", m.PianoAudioPath)
	fmt.Printf("midi:       %s\n", m.MIDIPath)
	if m.PDFPath != "" {
		fmt.Printf("sheet:      %s (%s)\n", m.PDFPath, m.NotationStrategy)
	} else {
		fmt.Printf("sheet:      unavailable\n")
	}
	if m.SynthesizedAudioPath != "" {
		fmt.Printf("preview:    %s\n", m.SynthesizedAudioPath)
	}
}
