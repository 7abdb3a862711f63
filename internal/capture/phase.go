package capture

import "fmt"

// Phase is the scheduler's position in a run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseMemorize
	PhaseCountdown
	PhasePresenting
	PhaseCapturing
	PhaseFinished
)

var phaseNames = [...]string{
	PhaseIdle:       "idle",
	PhaseMemorize:   "memorize",
	PhaseCountdown:  "countdown",
	PhasePresenting: "presenting",
	PhaseCapturing:  "capturing",
	PhaseFinished:   "finished",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// MarshalText renders the phase by name in JSON.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// Startable reports whether a new run may begin from this phase.
func (p Phase) Startable() bool {
	return p == PhaseIdle || p == PhaseFinished
}
