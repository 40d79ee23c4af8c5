package config

// Core constants that define the boundaries and defaults for the
// transcription pipeline.
const (
	// Default values for a pipeline invocation
	DefaultTempo        = 120    // Tempo in BPM for MIDI and notation output
	DefaultMaxDuration  = 60.0   // Seconds of input processed (0 = full file)
	DefaultSampleRate   = 16000  // Analysis sample rate; input is downsampled to this
	DefaultFrameLength  = 2048   // STFT / pitch analysis frame size (power of 2)
	DefaultHopLength    = 1024   // STFT / pitch analysis hop size
	DefaultOutputDir    = "out"  // Directory receiving final artifacts
	DefaultRendererPath = ""     // Notation engine binary; empty = search PATH
	DefaultSynthEnabled = true   // Render an audio preview of the MIDI
	DefaultLogLevel     = "info" // Logging verbosity

	// Practical tempo range for generated scores. Values outside this
	// range produce unreadable notation.
	MinTempo = 60
	MaxTempo = 180

	// Piano fundamental range, A0 to C8.
	PianoMinFreq = 27.5
	PianoMaxFreq = 4186.0

	// Renderer subprocess bound.
	RendererTimeoutSeconds = 60
)

// Config holds all runtime options for a transcription run. It is
// constructed from defaults, then a YAML file, then command line flags.
type Config struct {
	// Transcription settings
	Tempo       int     `yaml:"tempo"`        // Target tempo in BPM (60-180)
	MaxDuration float64 `yaml:"max_duration"` // Max seconds of input to process (0 = full file)

	// Analysis settings
	SampleRate  int `yaml:"sample_rate"`  // Analysis sample rate in Hz
	FrameLength int `yaml:"frame_length"` // STFT frame size (power of 2)
	HopLength   int `yaml:"hop_length"`   // STFT hop size

	// Output settings
	OutputDir    string `yaml:"output_dir"`    // Where final artifacts land
	RendererPath string `yaml:"renderer_path"` // Notation engine binary (MuseScore-compatible CLI)
	SynthEnabled bool   `yaml:"synth_enabled"` // Render audio preview of the MIDI

	// Debug settings
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
	Verbose  bool   `yaml:"-"`         // Flag-only shortcut for log_level=debug

	// Invocation state filled by the CLI, never by a config file.
	Command   string `yaml:"-"` // Subcommand selected on the command line
	InputPath string `yaml:"-"` // Audio file to transcribe
}

// NewConfig creates a Config with default values. This is the base
// configuration before applying a config file or command line flags.
func NewConfig() *Config {
	return &Config{
		Tempo:        DefaultTempo,
		MaxDuration:  DefaultMaxDuration,
		SampleRate:   DefaultSampleRate,
		FrameLength:  DefaultFrameLength,
		HopLength:    DefaultHopLength,
		OutputDir:    DefaultOutputDir,
		RendererPath: DefaultRendererPath,
		SynthEnabled: DefaultSynthEnabled,
		LogLevel:     DefaultLogLevel,
	}
}
