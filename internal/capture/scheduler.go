// Package capture runs the timed gesture tests: it walks a run plan,
// drives the memorize/countdown/presentation display state, and samples the
// live feed once per tick while a target is on screen.
//
// All four tests share one Scheduler. What differs per test (the sequence,
// disclosure, quota and prompts) is decided up front by a Policy and carried
// in the Plan; timing comes from the Config.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aS4meone/qutty-ai-public/internal/catalog"
	"github.com/aS4meone/qutty-ai-public/internal/frames"
	"github.com/aS4meone/qutty-ai-public/internal/metrics"
	"github.com/rs/zerolog/log"
)

var (
	// ErrRunActive is returned when starting a run while another one is in progress.
	ErrRunActive = errors.New("a run is already in progress")

	// ErrCancelled is returned by Run when its context ends mid-run.
	ErrCancelled = errors.New("run cancelled")
)

// Scheduler executes one run at a time on the calling goroutine.
type Scheduler struct {
	Feed  frames.Feed
	Store *frames.Store
	Clock Clock
	// Observe receives a snapshot after every state change. It is called
	// synchronously and must not block for long.
	Observe func(Snapshot)
	// Metrics, when set, receives one EMF document per finished run.
	Metrics *metrics.Sink
}

// Run walks the plan to completion and returns the final Finished snapshot.
// The only error is ErrCancelled (wrapping the context error); feed misses
// are absorbed and show up as CaptureMisses.
func (s *Scheduler) Run(ctx context.Context, runID string, cfg Config, plan *Plan) (Snapshot, error) {
	clock := s.Clock
	if clock == nil {
		clock = RealClock{}
	}
	st := newRunState(runID, cfg.TestNumber)
	startTime := time.Now()

	emit := func() {
		if s.Observe != nil {
			s.Observe(st.snapshot(s.Store.Len()))
		}
	}
	sleep := func(d time.Duration) error {
		if err := clock.Sleep(ctx, d); err != nil {
			log.Debug().Str("runId", runID).Str("phase", st.Phase.String()).Msg("Run interrupted")
			return fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		return nil
	}
	enter := func(p Phase) {
		if st.Phase != p {
			log.Debug().Str("runId", runID).Str("from", st.Phase.String()).Str("to", p.String()).Int("cursor", st.Cursor).Msg("Phase transition")
		}
		st.Phase = p
	}

	log.Info().
		Str("runId", runID).
		Int("testNumber", cfg.TestNumber).
		Int("steps", len(plan.Steps)).
		Int("maxTicks", cfg.MaxCaptureTicks(plan)).
		Msg("Run started")

	if len(plan.Cues) > 0 && cfg.MemorizeSeconds > 0 {
		enter(PhaseMemorize)
		st.Cues = plan.Cues
		for n := cfg.MemorizeSeconds; n > 0; n-- {
			st.setCountdown(n)
			emit()
			if err := sleep(Tick); err != nil {
				return Snapshot{}, err
			}
		}
		st.Cues = nil
		st.clearCountdown()
	}

	if len(plan.Rehearsal) > 0 {
		enter(PhaseMemorize)
		for _, sym := range plan.Rehearsal {
			st.Active = sym
			emit()
			if err := sleep(time.Duration(cfg.RehearsalSeconds) * Tick); err != nil {
				return Snapshot{}, err
			}
		}
		st.Active = ""
	}

	if cfg.ReadySeconds > 0 {
		enter(PhaseCountdown)
		for n := cfg.ReadySeconds; n > 0; n-- {
			st.Prompt = "get ready: " + strconv.Itoa(n)
			st.setCountdown(n)
			emit()
			if err := sleep(Tick); err != nil {
				return Snapshot{}, err
			}
		}
		st.Prompt = ""
		st.clearCountdown()
	}

	for st.Cursor < len(plan.Steps) {
		step := plan.Steps[st.Cursor]
		enter(PhasePresenting)
		st.Active = step.Symbol
		if step.Hidden {
			st.Active = ""
		}
		st.Prompt = step.Prompt
		emit()

		if !step.IsTarget {
			if err := sleep(time.Duration(cfg.PauseSeconds) * Tick); err != nil {
				return Snapshot{}, err
			}
			st.advance()
			continue
		}

		// A target past its quota is shown but neither captured nor held.
		if plan.overQuota(step.Symbol, st.TargetHits) {
			st.advance()
			continue
		}

		enter(PhaseCapturing)
		for tick := 0; tick < cfg.CaptureSeconds; tick++ {
			if v, ok := countdownValue(cfg, tick); ok {
				st.setCountdown(v)
			} else {
				st.clearCountdown()
			}
			if err := s.captureTick(ctx, st, step.Label); err != nil {
				return Snapshot{}, err
			}
			emit()
			if err := sleep(Tick); err != nil {
				return Snapshot{}, err
			}
		}
		st.clearCountdown()
		st.Prompt = ""
		st.TargetHits[step.Symbol]++
		st.advance()

		if plan.quotaMet(st.TargetHits) {
			log.Debug().Str("runId", runID).Int("cursor", st.Cursor).Int("remaining", len(plan.Steps)-st.Cursor).Msg("Quota met")
			break
		}
	}

	enter(PhaseFinished)
	st.Active = ""
	st.Prompt = ""
	final := st.snapshot(s.Store.Len())
	if s.Observe != nil {
		s.Observe(final)
	}

	duration := time.Since(startTime)
	log.Info().
		Str("runId", runID).
		Int("frames", final.FramesCaptured).
		Int("ticks", st.Ticks).
		Int("misses", st.Misses).
		Dur("duration", duration).
		Msg("Run finished")

	s.Metrics.Recorder().
		Dimension("TestNumber", strconv.Itoa(cfg.TestNumber)).
		Count(metrics.FramesCaptured, final.FramesCaptured).
		Count(metrics.CaptureMisses, st.Misses).
		Count(metrics.CaptureTicks, st.Ticks).
		Duration(metrics.RunDurationMs, duration).
		Property("runId", runID).
		Flush()

	return final, nil
}

// captureTick samples the feed once. A miss is logged and counted; the
// frame and its label are appended together or not at all.
func (s *Scheduler) captureTick(ctx context.Context, st *RunState, label catalog.Symbol) error {
	st.Ticks++
	frame, err := s.Feed.Grab(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, ctxErr)
	}
	if err != nil {
		st.Misses++
		evt := log.Warn().Str("runId", st.RunID).Int("cursor", st.Cursor).Int("tick", st.Ticks).Str("label", string(label))
		if !errors.Is(err, frames.ErrNoFrame) {
			evt = evt.Err(err)
		}
		evt.Msg("Capture miss")
		return nil
	}
	ordinal := s.Store.Append(frame.Data, label)
	log.Debug().Str("runId", st.RunID).Int("ordinal", ordinal).Str("label", string(label)).Int("bytes", len(frame.Data)).Msg("Frame captured")
	return nil
}

// countdownValue is the number displayed on a capture tick; ok is false
// when nothing is displayed.
func countdownValue(cfg Config, tick int) (int, bool) {
	if cfg.BlankFinalTick {
		v := cfg.CaptureSeconds - 1 - tick
		return v, v > 0
	}
	return cfg.CaptureSeconds - tick, true
}
