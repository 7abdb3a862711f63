// Package sequence builds stimulus sequences for the timed gesture tests.
//
// Generation is a pure function of the constraints and an injected Source:
// the same constraints with a replayed source always yield the same
// sequence. Sequences are never reordered after generation.
package sequence

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/aS4meone/qutty-ai-public/internal/catalog"
)

// Step is one element of a generated sequence.
type Step struct {
	Symbol   catalog.Symbol `json:"symbol"`
	IsTarget bool           `json:"isTarget"`
}

// Slot emits DistractorRun distractors followed by TargetsDue targets.
type Slot struct {
	TargetsDue    int `json:"targetsDue"`
	DistractorRun int `json:"distractorRun"`
}

// Pattern is the ordered list of slots walked by Generate.
type Pattern []Slot

// TargetSlots returns the total number of target positions in the pattern.
func (p Pattern) TargetSlots() int {
	n := 0
	for _, s := range p {
		n += s.TargetsDue
	}
	return n
}

// Len returns the length of the sequence the pattern produces.
func (p Pattern) Len() int {
	n := 0
	for _, s := range p {
		n += s.TargetsDue + s.DistractorRun
	}
	return n
}

// Flat builds a pattern from alternating distractor-run and target counts,
// e.g. Flat(3, 1, 2, 1, 3, 1). A trailing odd value is a distractor run.
func Flat(counts ...int) Pattern {
	p := make(Pattern, 0, (len(counts)+1)/2)
	for i := 0; i < len(counts); i += 2 {
		s := Slot{DistractorRun: counts[i]}
		if i+1 < len(counts) {
			s.TargetsDue = counts[i+1]
		}
		p = append(p, s)
	}
	return p
}

// ParseFlat parses a comma separated Flat pattern such as "3,1,2,1,3,1".
func ParseFlat(s string) (Pattern, error) {
	parts := strings.Split(s, ",")
	counts := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern element %q: %w", part, err)
		}
		counts = append(counts, n)
	}
	return Flat(counts...), nil
}

// Observed patterns of the shape tests.
var (
	// SingleTargetPattern: 3 distractors, target, 2 distractors, target, 3 distractors, target.
	SingleTargetPattern = Flat(3, 1, 2, 1, 3, 1)

	// DualTargetPattern: distractor runs 2,3,4,3,2,3 each followed by one target slot.
	DualTargetPattern = Pattern{
		{0, 2}, {1, 0}, {0, 3}, {1, 0}, {0, 4}, {1, 0},
		{0, 3}, {1, 0}, {0, 2}, {1, 0}, {0, 3}, {1, 0},
	}
)

// GenerationError reports constraints no sequence can satisfy. It is a
// configuration defect, not a runtime condition.
type GenerationError struct {
	Reason string
}

func (e *GenerationError) Error() string {
	return "sequence generation: " + e.Reason
}

func generationErrorf(format string, args ...any) error {
	return &GenerationError{Reason: fmt.Sprintf(format, args...)}
}

// Constraints fully determine a generated sequence, up to randomness.
type Constraints struct {
	// Pool is the catalog the distractors are drawn from; it must contain the targets.
	Pool []catalog.Symbol
	// Targets holds one or two target symbols.
	Targets []catalog.Symbol
	// Quota is the required occurrences per target. Zero disables the check.
	Quota   int
	Pattern Pattern
}

func (c Constraints) validate() ([]catalog.Symbol, error) {
	switch len(c.Targets) {
	case 1, 2:
	default:
		return nil, generationErrorf("expected 1 or 2 targets, got %d", len(c.Targets))
	}
	if len(c.Targets) == 2 && c.Targets[0] == c.Targets[1] {
		return nil, generationErrorf("targets must be distinct, got %q twice", c.Targets[0])
	}
	for _, t := range c.Targets {
		if !slices.Contains(c.Pool, t) {
			return nil, generationErrorf("target %q is not in the symbol pool", t)
		}
	}
	if c.Quota < 0 {
		return nil, generationErrorf("negative quota %d", c.Quota)
	}

	distractors := make([]catalog.Symbol, 0, len(c.Pool))
	for _, s := range c.Pool {
		if !slices.Contains(c.Targets, s) && !slices.Contains(distractors, s) {
			distractors = append(distractors, s)
		}
	}

	maxRun := 0
	for i, s := range c.Pattern {
		if s.TargetsDue < 0 || s.DistractorRun < 0 {
			return nil, generationErrorf("slot %d has negative counts", i)
		}
		maxRun = max(maxRun, s.DistractorRun)
	}
	if maxRun > 0 && len(distractors) == 0 {
		return nil, generationErrorf("pattern needs distractors but the pool holds only targets")
	}
	if maxRun > 1 && len(distractors) < 2 {
		return nil, generationErrorf("a run of %d distractors needs at least 2 distractor symbols", maxRun)
	}

	need := c.Quota * len(c.Targets)
	if slots := c.Pattern.TargetSlots(); slots < need {
		return nil, generationErrorf("target quota %d x %d exceeds %d pattern target slots", c.Quota, len(c.Targets), slots)
	}
	return distractors, nil
}

// Generate walks the pattern, emitting random distractors that never equal a
// target nor the previous step, then the slot's targets. With two targets the
// choice is random until one meets its quota, after which the other is forced.
func Generate(c Constraints, src Source) ([]Step, error) {
	distractors, err := c.validate()
	if err != nil {
		return nil, err
	}

	steps := make([]Step, 0, c.Pattern.Len())
	hits := make(map[catalog.Symbol]int, len(c.Targets))
	candidates := make([]catalog.Symbol, 0, len(distractors))

	for _, slot := range c.Pattern {
		for range slot.DistractorRun {
			candidates = candidates[:0]
			for _, d := range distractors {
				if len(steps) == 0 || steps[len(steps)-1].Symbol != d {
					candidates = append(candidates, d)
				}
			}
			if len(candidates) == 0 {
				return nil, generationErrorf("no distractor can follow %q", steps[len(steps)-1].Symbol)
			}
			steps = append(steps, Step{Symbol: pick(src, candidates)})
		}

		for range slot.TargetsDue {
			t := chooseTarget(src, c.Targets, hits, c.Quota)
			hits[t]++
			steps = append(steps, Step{Symbol: t, IsTarget: true})
		}
	}
	return steps, nil
}

func chooseTarget(src Source, targets []catalog.Symbol, hits map[catalog.Symbol]int, quota int) catalog.Symbol {
	if len(targets) == 1 {
		return targets[0]
	}

	var under []catalog.Symbol
	for _, t := range targets {
		if quota == 0 || hits[t] < quota {
			under = append(under, t)
		}
	}
	switch len(under) {
	case 1:
		return under[0]
	case 0:
		// every quota met; spare slots go to the least used target
		a, b := targets[0], targets[1]
		switch {
		case hits[a] < hits[b]:
			return a
		case hits[b] < hits[a]:
			return b
		}
		under = targets
	}
	return pick(src, under)
}

// Symbols returns the symbol of every step, in order.
func Symbols(steps []Step) []catalog.Symbol {
	out := make([]catalog.Symbol, len(steps))
	for i, s := range steps {
		out[i] = s.Symbol
	}
	return out
}
