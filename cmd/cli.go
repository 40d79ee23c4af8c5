package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pianoscribe/internal/config"
	"pianoscribe/pkg/build"
)

// ParseArgs builds the command line interface, executes it against
// os.Args and returns the resulting configuration. Precedence is
// defaults, then the config file, then explicit flags.
func ParseArgs() (*config.Config, error) {
	buildInfo := build.GetBuildFlags()
	options := config.NewConfig()

	var (
		configPath string
		noSynth    bool
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Extract piano from a recording and produce MIDI and sheet music",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	transcribeCmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe the piano part of an audio file",
		Long: "Transcribe isolates the piano in a WAV or MP3 recording and writes\n" +
			"the separated audio, a MIDI file, rendered sheet music, and an\n" +
			"optional synthesized preview to the output directory.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// Explicit flags win over the config file.
			flagged := *options
			*options = *loaded
			if cmd.Flags().Changed("tempo") {
				options.Tempo = flagged.Tempo
			}
			if cmd.Flags().Changed("max-duration") {
				options.MaxDuration = flagged.MaxDuration
			}
			if cmd.Flags().Changed("output-dir") {
				options.OutputDir = flagged.OutputDir
			}
			if cmd.Flags().Changed("renderer") {
				options.RendererPath = flagged.RendererPath
			}
			if noSynth {
				options.SynthEnabled = false
			}
			if flagged.Verbose {
				options.Verbose = true
				options.LogLevel = "debug"
			}
			if err := options.Validate(); err != nil {
				return err
			}

			options.Command = "transcribe"
			options.InputPath = args[0]
			return nil
		},
	}

	transcribeCmd.Flags().IntVarP(&options.Tempo, "tempo", "t", config.DefaultTempo,
		"Tempo in BPM for the MIDI and sheet music (60-180)")
	transcribeCmd.Flags().Float64VarP(&options.MaxDuration, "max-duration", "m", config.DefaultMaxDuration,
		"Maximum seconds of input to process (0 = whole file)")
	transcribeCmd.Flags().StringVarP(&options.OutputDir, "output-dir", "o", config.DefaultOutputDir,
		"Directory receiving the final artifacts")
	transcribeCmd.Flags().StringVar(&options.RendererPath, "renderer", config.DefaultRendererPath,
		"Notation engine binary (MuseScore-compatible CLI); empty searches PATH")
	transcribeCmd.Flags().BoolVar(&noSynth, "no-synth", false,
		"Skip the synthesized audio preview")
	transcribeCmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to a YAML config file")
	rootCmd.AddCommand(transcribeCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s (%s, built %s)\n",
				buildInfo.Name, buildInfo.Version, buildInfo.Commit, buildInfo.Time)
		},
	}
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().BoolVarP(&options.Verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}
