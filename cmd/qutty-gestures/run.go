package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aS4meone/qutty-ai-public/internal/capture"
	"github.com/aS4meone/qutty-ai-public/internal/classify"
	"github.com/aS4meone/qutty-ai-public/internal/frames"
	"github.com/aS4meone/qutty-ai-public/internal/logging"
	"github.com/aS4meone/qutty-ai-public/internal/metrics"
	"github.com/aS4meone/qutty-ai-public/internal/runid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	framesDirFlag string
	runIDFlag     string
	dryRunFlag    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one test headless against a directory of frames",
	Long: `Run walks a full test on the real timeline, sampling frames from a
directory (PNG/JPEG, replayed in name order) instead of a webcam, then
submits them to the classification backend and prints the result.

Examples:
  qutty-gestures run --test 1 --frames ./frames
  qutty-gestures run --test 3 --frames ./frames --run-id 6f1c2a9e-3b7d-4c1e-9a2f-0d8e5b4c3a21
  qutty-gestures run --test 4 --frames ./frames --dry-run`,
	Run: runHeadless,
}

func init() {
	runCmd.Flags().StringVarP(&framesDirFlag, "frames", "f", "", "Directory of frames to replay as the live feed")
	runCmd.Flags().StringVar(&runIDFlag, "run-id", "", "Run id (UUID); generated when empty")
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Capture without submitting")
	runCmd.MarkFlagRequired("frames")
}

func runHeadless(cmd *cobra.Command, args []string) {
	initStart := time.Now()
	cfg := loadConfig(cmd)

	id, err := runid.OrNew(runIDFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid run id")
	}
	runCfg, err := buildRunConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid test configuration")
	}
	feed, err := frames.NewDirFeed(framesDirFlag, cfg.FrameMaxDimension)
	if err != nil {
		log.Fatal().Err(err).Str("path", framesDirFlag).Msg("Failed to open frame directory")
	}

	opts := capture.SessionOptions{Feed: feed}
	if !dryRunFlag {
		opts.Submitter = classify.NewClient(cfg.BackendURL, cfg.HTTPTimeout)
	}
	if cfg.Metrics {
		opts.Metrics = metrics.NewSink(os.Stdout)
	}
	session := capture.NewSession(opts)
	defer session.Close()

	logging.NewStartupLogger("run").
		CommitHash(commitHash).
		BuildTime(buildTime).
		Endpoint("backend", cfg.BackendURL).
		Feature("submit", !dryRunFlag).
		Feature("metrics", cfg.Metrics).
		Config("frames", framesDirFlag).
		Config("frameCount", fmt.Sprint(feed.Len())).
		Config("testNumber", fmt.Sprint(runCfg.TestNumber)).
		InitDuration(time.Since(initStart)).
		Log()

	updates, unsubscribe := session.Subscribe()
	defer unsubscribe()
	go printProgress(updates)

	if _, err := session.Start(id, runCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to start run")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	final, err := session.Wait(ctx)
	if err != nil {
		log.Warn().Msg("Interrupted, abandoning run")
		session.Reset()
		os.Exit(130)
	}

	fmt.Println()
	fmt.Println("============================================")
	fmt.Printf("Run %s (test %d)\n", id, runCfg.TestNumber)
	fmt.Println("============================================")
	fmt.Printf("Frames captured: %d of %d ticks (%d missed)\n", final.FramesCaptured, final.CaptureTicks, final.CaptureMisses)
	switch {
	case final.Error != "":
		fmt.Printf("Submission failed: %s\n", final.Error)
		os.Exit(1)
	case len(final.Result) > 0:
		fmt.Printf("Result: %s\n", final.Result)
		if summary, err := final.Result.Summary(); err == nil {
			if score, ok := summary.Score(); ok {
				fmt.Printf("Correct: %d\n", score)
			}
		}
	default:
		fmt.Println("Not submitted (dry run)")
	}
}

// printProgress renders phase and countdown changes on stderr.
func printProgress(updates <-chan capture.Snapshot) {
	for snap := range updates {
		line := snap.Phase.String()
		if snap.ActiveStimulus != "" {
			line += " " + string(snap.ActiveStimulus)
		}
		if snap.Prompt != "" {
			line += " \"" + snap.Prompt + "\""
		}
		if snap.CountdownValue != nil {
			line += fmt.Sprintf(" [%d]", *snap.CountdownValue)
		}
		for _, cue := range snap.Cues {
			line += fmt.Sprintf(" %s=%s", cue.Stimulus, cue.Response)
		}
		fmt.Fprintf(os.Stderr, "  %-60s frames=%d\n", line, snap.FramesCaptured)
	}
}
