package capture

import (
	"errors"
	"fmt"

	"github.com/aS4meone/qutty-ai-public/internal/catalog"
	"github.com/aS4meone/qutty-ai-public/internal/sequence"
)

// ErrUnknownTest is returned for a test number outside 1..4.
var ErrUnknownTest = errors.New("unknown test number")

// Config fully determines one run. A fresh value is built per run and is
// never mutated while the run is in progress.
type Config struct {
	TestNumber  int
	TargetCount int
	Pattern     sequence.Pattern
	// Quota is the number of captured occurrences required per target.
	// Zero disables early termination.
	Quota int

	MemorizeSeconds int
	CaptureSeconds  int
	PauseSeconds    int

	// SubsetSize bounds the free-recall sequence (test 1).
	SubsetSize int

	// Ordinal recall (test 4).
	RehearsalLength  int
	RehearsalSeconds int
	ReadySeconds     int
	PromptOrdinals   []int

	// BlankFinalTick shows N-1..1 and then no value during capture,
	// instead of N..1.
	BlankFinalTick bool

	// GroupSize is forwarded to the classifier.
	GroupSize int

	// Targets and Responses pin the disclosed stimuli and their paired
	// gestures (tests 2 and 3). Empty means drawn at random per run.
	Targets   []catalog.Symbol
	Responses []catalog.Symbol
}

// ConfigFor returns the standard configuration for a test number.
func ConfigFor(testNumber int) (Config, error) {
	switch testNumber {
	case 1:
		return Config{
			TestNumber:     1,
			SubsetSize:     10,
			CaptureSeconds: 3,
			GroupSize:      3,
		}, nil
	case 2:
		return Config{
			TestNumber:      2,
			TargetCount:     1,
			Pattern:         sequence.SingleTargetPattern,
			Quota:           3,
			MemorizeSeconds: 5,
			CaptureSeconds:  3,
			PauseSeconds:    2,
			BlankFinalTick:  true,
			GroupSize:       3,
		}, nil
	case 3:
		return Config{
			TestNumber:      3,
			TargetCount:     2,
			Pattern:         sequence.DualTargetPattern,
			Quota:           3,
			MemorizeSeconds: 5,
			CaptureSeconds:  3,
			PauseSeconds:    2,
			BlankFinalTick:  true,
			GroupSize:       3,
		}, nil
	case 4:
		return Config{
			TestNumber:       4,
			CaptureSeconds:   5,
			RehearsalLength:  5,
			RehearsalSeconds: 2,
			ReadySeconds:     3,
			PromptOrdinals:   []int{5, 3},
			GroupSize:        5,
		}, nil
	default:
		return Config{}, fmt.Errorf("%w: %d", ErrUnknownTest, testNumber)
	}
}

// MaxCaptureTicks is the number of ticks a run performs when no quota cuts
// it short.
func (c Config) MaxCaptureTicks(plan *Plan) int {
	n := 0
	for _, st := range plan.Steps {
		if st.IsTarget {
			n++
		}
	}
	if c.Quota > 0 && len(plan.Quota) > 0 {
		n = min(n, c.Quota*len(plan.Quota))
	}
	return n * c.CaptureSeconds
}
