package capture

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/aS4meone/qutty-ai-public/internal/classify"
	"github.com/aS4meone/qutty-ai-public/internal/frames"
	"github.com/aS4meone/qutty-ai-public/internal/metrics"
	"github.com/aS4meone/qutty-ai-public/internal/sequence"
	"github.com/rs/zerolog/log"
)

// subscriberBuffer is how many snapshots a slow subscriber may lag behind
// before older ones are dropped.
const subscriberBuffer = 16

// Submitter sends a finished run to the classifier.
type Submitter interface {
	Submit(ctx context.Context, s classify.Submission) (classify.Result, error)
}

// SessionOptions wires a Session.
type SessionOptions struct {
	Feed      frames.Feed
	Submitter Submitter
	Clock     Clock
	Metrics   *metrics.Sink
	// Source returns the randomness for one run. Defaults to sequence.NewSource.
	Source func() sequence.Source
}

// Session is the host-facing contract: start a run, reset to idle, and
// observe snapshots. At most one run is active; submission begins only
// after capture has finished.
type Session struct {
	opts  SessionOptions
	store *frames.Store

	mu      sync.Mutex
	gen     uint64
	latest  Snapshot
	cancel  context.CancelFunc
	done    chan struct{}
	subs    map[int]chan Snapshot
	nextSub int
}

// NewSession creates an idle session.
func NewSession(opts SessionOptions) *Session {
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Source == nil {
		opts.Source = sequence.NewSource
	}
	return &Session{
		opts:   opts,
		store:  frames.NewStore(),
		latest: IdleSnapshot(),
		subs:   make(map[int]chan Snapshot),
	}
}

// Start builds the plan for cfg and launches the run in the background.
// Generation failures are returned synchronously. ErrRunActive is returned
// while a previous run is still capturing or submitting.
func (s *Session) Start(runID string, cfg Config) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return nil, ErrRunActive
	}

	plan, err := NewPlan(cfg, s.opts.Source())
	if err != nil {
		return nil, err
	}

	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	store := frames.NewStore()
	s.cancel = cancel
	s.done = done
	s.store = store

	go s.run(ctx, gen, done, store, runID, cfg, plan)
	return plan, nil
}

func (s *Session) run(ctx context.Context, gen uint64, done chan struct{}, store *frames.Store, runID string, cfg Config, plan *Plan) {
	defer func() {
		s.mu.Lock()
		if s.gen == gen {
			s.cancel = nil
			s.done = nil
		}
		s.mu.Unlock()
		close(done)
	}()

	sched := &Scheduler{
		Feed:    s.opts.Feed,
		Store:   store,
		Clock:   s.opts.Clock,
		Observe: func(snap Snapshot) { s.publish(gen, snap) },
		Metrics: s.opts.Metrics,
	}
	final, err := sched.Run(ctx, runID, cfg, plan)
	if err != nil {
		log.Info().Str("runId", runID).Msg("Run abandoned")
		return
	}

	labels, payloads := frames.Split(store.Drain())
	if s.opts.Submitter == nil {
		final.IsComplete = true
		s.publish(gen, final)
		return
	}

	startTime := time.Now()
	result, err := s.opts.Submitter.Submit(ctx, classify.Submission{
		RunID:      runID,
		TestNumber: cfg.TestNumber,
		Labels:     labels,
		Frames:     payloads,
		GroupSize:  cfg.GroupSize,
		Strict:     true,
	})
	latency := time.Since(startTime)
	if ctx.Err() != nil {
		log.Info().Str("runId", runID).Msg("Submission abandoned")
		return
	}

	s.opts.Metrics.Recorder().
		Dimension("TestNumber", strconv.Itoa(cfg.TestNumber)).
		Duration(metrics.SubmitLatencyMs, latency).
		Property("runId", runID).
		Property("failed", err != nil).
		Flush()

	if err != nil {
		log.Error().Err(err).Str("runId", runID).Int("frames", len(payloads)).Dur("latency", latency).Msg("Submission failed")
		final.Error = err.Error()
	} else {
		log.Info().Str("runId", runID).Int("frames", len(payloads)).Dur("latency", latency).Msg("Submission complete")
		final.Result = result
	}
	final.IsComplete = true
	s.publish(gen, final)
}

// Reset cancels any active run, waits for it to stop, and returns the
// session to Idle with an empty frame store.
func (s *Session) Reset() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	// The slot stays occupied until the old run has exited, so a
	// concurrent Start sees ErrRunActive instead of overlapping it.
	if cancel != nil {
		cancel()
		<-done
	}

	s.mu.Lock()
	if s.done == done {
		s.cancel = nil
		s.done = nil
	}
	s.store.Reset()
	s.mu.Unlock()
	s.publish(gen, IdleSnapshot())
}

// Wait blocks until the active run, including submission, is over and
// returns the latest snapshot.
func (s *Session) Wait(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		}
	}
	return s.Latest(), nil
}

// Active reports whether a run is capturing or submitting.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

// Latest returns the most recent snapshot.
func (s *Session) Latest() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// FramesBuffered returns the number of frames captured so far in the active run.
func (s *Session) FramesBuffered() int {
	s.mu.Lock()
	store := s.store
	s.mu.Unlock()
	return store.Len()
}

// Subscribe returns a channel of snapshots starting with the latest one,
// and a function that ends the subscription.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, subscriberBuffer)
	ch <- s.latest
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Close ends every subscription and cancels any active run.
func (s *Session) Close() {
	s.Reset()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// publish records snap and fans it out, unless the run that produced it
// has since been reset.
func (s *Session) publish(gen uint64, snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.latest = snap
	for _, ch := range s.subs {
		offer(ch, snap)
	}
}

// offer sends without blocking, dropping the oldest pending snapshot when
// the subscriber is behind.
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}
