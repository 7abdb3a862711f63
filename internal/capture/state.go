package capture

import (
	"maps"
	"slices"

	"github.com/aS4meone/qutty-ai-public/internal/catalog"
	"github.com/aS4meone/qutty-ai-public/internal/classify"
)

// RunState is the scheduler's mutable state for one run. It is owned by the
// scheduler goroutine and only leaves it as a Snapshot copy.
type RunState struct {
	RunID      string
	TestNumber int
	Phase      Phase
	// Cursor is the index of the step being presented. It only moves forward.
	Cursor     int
	TargetHits map[catalog.Symbol]int
	Countdown  *int
	Active     catalog.Symbol
	Prompt     string
	Cues       []Cue

	Ticks  int
	Misses int
}

func newRunState(runID string, testNumber int) *RunState {
	return &RunState{
		RunID:      runID,
		TestNumber: testNumber,
		Phase:      PhaseIdle,
		TargetHits: make(map[catalog.Symbol]int),
	}
}

func (s *RunState) advance() {
	s.Cursor++
}

func (s *RunState) setCountdown(v int) {
	s.Countdown = &v
}

func (s *RunState) clearCountdown() {
	s.Countdown = nil
}

// Snapshot is the observable view of a run sent to the host.
type Snapshot struct {
	RunID          string                 `json:"runId,omitempty"`
	TestNumber     int                    `json:"testNumber,omitempty"`
	Phase          Phase                  `json:"phase"`
	ActiveStimulus catalog.Symbol         `json:"activeStimulus,omitempty"`
	ActiveAsset    string                 `json:"activeAsset,omitempty"`
	CountdownValue *int                   `json:"countdownValue"`
	Prompt         string                 `json:"prompt,omitempty"`
	Cues           []Cue                  `json:"cues,omitempty"`
	Cursor         int                    `json:"cursor"`
	TargetHits     map[catalog.Symbol]int `json:"targetHits,omitempty"`
	FramesCaptured int                    `json:"framesCaptured"`
	CaptureTicks   int                    `json:"captureTicks"`
	CaptureMisses  int                    `json:"captureMisses"`
	IsComplete     bool                   `json:"isComplete"`
	Result         classify.Result        `json:"result,omitempty"`
	Error          string                 `json:"error,omitempty"`
}

// IdleSnapshot is the state before any run and after a reset.
func IdleSnapshot() Snapshot {
	return Snapshot{Phase: PhaseIdle}
}

func (s *RunState) snapshot(framesCaptured int) Snapshot {
	snap := Snapshot{
		RunID:          s.RunID,
		TestNumber:     s.TestNumber,
		Phase:          s.Phase,
		ActiveStimulus: s.Active,
		Prompt:         s.Prompt,
		Cues:           slices.Clone(s.Cues),
		Cursor:         s.Cursor,
		TargetHits:     maps.Clone(s.TargetHits),
		FramesCaptured: framesCaptured,
		CaptureTicks:   s.Ticks,
		CaptureMisses:  s.Misses,
	}
	if s.Countdown != nil {
		v := *s.Countdown
		snap.CountdownValue = &v
	}
	if s.Active != "" {
		snap.ActiveAsset, _ = catalog.AssetFor(s.Active)
	}
	return snap
}
