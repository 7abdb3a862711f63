package main

import (
	"os"

	"github.com/aS4meone/qutty-ai-public/internal/config"
	"github.com/aS4meone/qutty-ai-public/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Build identity, set with -ldflags "-X main.commitHash=... -X main.buildTime=...".
var (
	commitHash string
	buildTime  string
)

// Persistent flags
var (
	backendFlag  string
	maxDimFlag   int
	metricsFlag  bool
	testNumFlag  int
	targetsFlag  []string
	responseFlag []string
)

// rootCmd is the main Cobra command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "qutty-gestures",
	Short: "Timed gesture-stimulus capture for cognitive assessment tests",
	Long: `Qutty Gestures runs the four timed gesture tests of the assessment: it
generates the stimulus sequence, walks the memorize/countdown/capture timeline,
samples a frame per second while a target is on screen, and submits the
labelled frames to the classification backend.

Examples:
  qutty-gestures sequence --test 3
  qutty-gestures run --test 2 --frames ./webcam-dump
  qutty-gestures serve --listen :8090 --backend http://localhost:8000`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Classification backend base URL (default from "+config.EnvBackendURL+")")
	rootCmd.PersistentFlags().IntVar(&maxDimFlag, "max-dimension", -1, "Scale frames so the longer side fits (0 = keep size; default from "+config.EnvFrameMaxDimension+")")
	rootCmd.PersistentFlags().BoolVar(&metricsFlag, "metrics", false, "Emit run metrics as EMF lines on stdout")

	for _, c := range []*cobra.Command{runCmd, sequenceCmd} {
		c.Flags().IntVarP(&testNumFlag, "test", "t", 1, "Test number (1-4)")
		c.Flags().StringSliceVar(&targetsFlag, "target", nil, "Pin target stimuli for tests 2 and 3 (repeatable)")
		c.Flags().StringSliceVar(&responseFlag, "response", nil, "Pin the gesture paired with each target (repeatable)")
	}

	rootCmd.AddCommand(runCmd, sequenceCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves settings, applying flag overrides, and initializes
// logging at the configured level. Settings come first so a level set in
// .env applies.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logging.Init()
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.InitWith(cfg.LogLevel, os.Stderr)

	if backendFlag != "" {
		cfg.BackendURL = backendFlag
	}
	if maxDimFlag >= 0 {
		cfg.FrameMaxDimension = maxDimFlag
	}
	if cmd.Flags().Changed("metrics") {
		cfg.Metrics = metricsFlag
	}
	return cfg
}
