package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aS4meone/qutty-ai-public/internal/capture"
	"github.com/aS4meone/qutty-ai-public/internal/classify"
	"github.com/aS4meone/qutty-ai-public/internal/frames"
	"github.com/aS4meone/qutty-ai-public/internal/hostapi"
	"github.com/aS4meone/qutty-ai-public/internal/logging"
	"github.com/aS4meone/qutty-ai-public/internal/metrics"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	listenFlag   string
	frameAgeFlag time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the host API for the assessment page",
	Long: `Serve starts the host API: the assessment page pushes webcam frames and
starts or resets runs over HTTP, and follows run state over a websocket.

Examples:
  qutty-gestures serve
  qutty-gestures serve --listen 127.0.0.1:9000 --frame-max-age 2s`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenFlag, "listen", "", "Listen address (default from QUTTY_LISTEN_ADDR)")
	serveCmd.Flags().DurationVar(&frameAgeFlag, "frame-max-age", 3*time.Second, "Treat pushed frames older than this as missing (0 = never)")
}

func runServe(cmd *cobra.Command, args []string) {
	initStart := time.Now()
	cfg := loadConfig(cmd)
	if listenFlag != "" {
		cfg.ListenAddr = listenFlag
	}

	mailbox := frames.NewMailbox(frameAgeFlag)
	opts := capture.SessionOptions{
		Feed:      mailbox,
		Submitter: classify.NewClient(cfg.BackendURL, cfg.HTTPTimeout),
	}
	if cfg.Metrics {
		opts.Metrics = metrics.NewSink(os.Stdout)
	}
	session := capture.NewSession(opts)

	srv := &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     hostapi.NewServer(session, mailbox, cfg.FrameMaxDimension).Handler(),
		ReadTimeout: 30 * time.Second,
		// No write timeout: /api/stream connections are long-lived.
		IdleTimeout: 60 * time.Second,
	}

	logging.NewStartupLogger("serve").
		CommitHash(commitHash).
		BuildTime(buildTime).
		Endpoint("listen", cfg.ListenAddr).
		Endpoint("backend", cfg.BackendURL).
		Feature("metrics", cfg.Metrics).
		Config("feed", "mailbox").
		Config("frameMaxAge", frameAgeFlag.String()).
		Config("frameMaxDimension", fmt.Sprint(cfg.FrameMaxDimension)).
		Config("httpTimeout", cfg.HTTPTimeout.String()).
		InitDuration(time.Since(initStart)).
		Log()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		session.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	log.Info().Str("addr", cfg.ListenAddr).Msg("Starting host API")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
