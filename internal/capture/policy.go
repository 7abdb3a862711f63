package capture

import (
	"fmt"

	"github.com/aS4meone/qutty-ai-public/internal/catalog"
	"github.com/aS4meone/qutty-ai-public/internal/sequence"
)

// Cue is one disclosed stimulus and the gesture the subject must answer with.
type Cue struct {
	Stimulus catalog.Symbol `json:"stimulus"`
	Response catalog.Symbol `json:"response"`
}

// Step is one presentation in a run.
type Step struct {
	// Symbol is what is displayed.
	Symbol catalog.Symbol `json:"symbol"`
	// Label is stored with every frame captured during this step.
	Label    catalog.Symbol `json:"label"`
	IsTarget bool           `json:"isTarget"`
	// Hidden steps capture without showing Symbol (ordinal recall).
	Hidden  bool   `json:"hidden,omitempty"`
	Prompt  string `json:"prompt,omitempty"`
	Ordinal int    `json:"ordinal,omitempty"`
}

// Plan is everything a run will show, built once at run start.
type Plan struct {
	TestNumber int              `json:"testNumber"`
	Cues       []Cue            `json:"cues,omitempty"`
	Rehearsal  []catalog.Symbol `json:"rehearsal,omitempty"`
	Steps      []Step           `json:"steps"`
	// Quota maps each target symbol to its required captured occurrences.
	// Empty means the run always walks every step.
	Quota map[catalog.Symbol]int `json:"quota,omitempty"`
}

// Symbols lists the displayed symbols of every step in order.
func (p *Plan) Symbols() []catalog.Symbol {
	out := make([]catalog.Symbol, len(p.Steps))
	for i, st := range p.Steps {
		out[i] = st.Symbol
	}
	return out
}

func (p *Plan) quotaMet(hits map[catalog.Symbol]int) bool {
	if len(p.Quota) == 0 {
		return false
	}
	for sym, q := range p.Quota {
		if hits[sym] < q {
			return false
		}
	}
	return true
}

func (p *Plan) overQuota(sym catalog.Symbol, hits map[catalog.Symbol]int) bool {
	q, ok := p.Quota[sym]
	return ok && hits[sym] >= q
}

// Policy builds the plan for one test mode.
type Policy interface {
	TestNumber() int
	Plan(cfg Config, src sequence.Source) (*Plan, error)
}

// PolicyFor returns the policy for a test number.
func PolicyFor(testNumber int) (Policy, error) {
	switch testNumber {
	case 1:
		return freeRecall{}, nil
	case 2, 3:
		return cuedTarget{testNumber: testNumber}, nil
	case 4:
		return ordinalRecall{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownTest, testNumber)
	}
}

// NewPlan builds the plan for cfg using the matching policy.
func NewPlan(cfg Config, src sequence.Source) (*Plan, error) {
	policy, err := PolicyFor(cfg.TestNumber)
	if err != nil {
		return nil, err
	}
	return policy.Plan(cfg, src)
}

// freeRecall presents a shuffled subset of gestures; each one is captured.
type freeRecall struct{}

func (freeRecall) TestNumber() int { return 1 }

func (freeRecall) Plan(cfg Config, src sequence.Source) (*Plan, error) {
	pool := catalog.Gestures().Symbols()
	n := min(cfg.SubsetSize, len(pool))
	if n <= 0 {
		return nil, &sequence.GenerationError{Reason: "free recall needs a positive subset size"}
	}
	plan := &Plan{TestNumber: 1}
	for _, sym := range sequence.Subset(src, pool, n) {
		plan.Steps = append(plan.Steps, Step{Symbol: sym, Label: sym, IsTarget: true})
	}
	return plan, nil
}

// cuedTarget discloses one or two stimuli with paired gestures, then walks
// a distractor pattern capturing only on target occurrences.
type cuedTarget struct {
	testNumber int
}

func (p cuedTarget) TestNumber() int { return p.testNumber }

func (p cuedTarget) Plan(cfg Config, src sequence.Source) (*Plan, error) {
	targets, pool, err := resolveTargets(cfg, src)
	if err != nil {
		return nil, err
	}
	responses, err := resolveResponses(cfg, targets, src)
	if err != nil {
		return nil, err
	}

	steps, err := sequence.Generate(sequence.Constraints{
		Pool:    pool,
		Targets: targets,
		Quota:   cfg.Quota,
		Pattern: cfg.Pattern,
	}, src)
	if err != nil {
		return nil, err
	}

	response := make(map[catalog.Symbol]catalog.Symbol, len(targets))
	plan := &Plan{TestNumber: p.testNumber}
	for i, t := range targets {
		response[t] = responses[i]
		plan.Cues = append(plan.Cues, Cue{Stimulus: t, Response: responses[i]})
	}
	if cfg.Quota > 0 {
		plan.Quota = make(map[catalog.Symbol]int, len(targets))
		for _, t := range targets {
			plan.Quota[t] = cfg.Quota
		}
	}
	for _, st := range steps {
		label := st.Symbol
		if st.IsTarget {
			label = response[st.Symbol]
		}
		plan.Steps = append(plan.Steps, Step{Symbol: st.Symbol, Label: label, IsTarget: st.IsTarget})
	}
	return plan, nil
}

// resolveTargets returns the targets and the pool they are drawn against.
// Pinned targets must all belong to one catalog.
func resolveTargets(cfg Config, src sequence.Source) ([]catalog.Symbol, []catalog.Symbol, error) {
	if len(cfg.Targets) == 0 {
		shapes := catalog.Shapes().Symbols()
		if cfg.TargetCount < 1 || cfg.TargetCount > len(shapes) {
			return nil, nil, &sequence.GenerationError{Reason: fmt.Sprintf("invalid target count %d", cfg.TargetCount)}
		}
		return sequence.Subset(src, shapes, cfg.TargetCount), shapes, nil
	}
	if len(cfg.Targets) != cfg.TargetCount {
		return nil, nil, &sequence.GenerationError{
			Reason: fmt.Sprintf("test %d needs %d targets, got %d", cfg.TestNumber, cfg.TargetCount, len(cfg.Targets)),
		}
	}
	for _, c := range []*catalog.Catalog{catalog.Shapes(), catalog.Gestures()} {
		if c.Validate(cfg.Targets...) == nil {
			return cfg.Targets, c.Symbols(), nil
		}
	}
	if catalog.Shapes().Contains(cfg.Targets[0]) {
		return nil, nil, catalog.Shapes().Validate(cfg.Targets...)
	}
	return nil, nil, catalog.Gestures().Validate(cfg.Targets...)
}

// resolveResponses pairs each target with the gesture it is answered by.
// Gesture targets answer with themselves.
func resolveResponses(cfg Config, targets []catalog.Symbol, src sequence.Source) ([]catalog.Symbol, error) {
	if len(cfg.Responses) > 0 {
		if len(cfg.Responses) != len(targets) {
			return nil, &sequence.GenerationError{
				Reason: fmt.Sprintf("%d responses for %d targets", len(cfg.Responses), len(targets)),
			}
		}
		if err := catalog.Gestures().Validate(cfg.Responses...); err != nil {
			return nil, err
		}
		return cfg.Responses, nil
	}
	if isGesture(targets[0]) {
		return targets, nil
	}
	return sequence.Subset(src, catalog.Gestures().Symbols(), len(targets)), nil
}

func isGesture(s catalog.Symbol) bool {
	return catalog.Gestures().Contains(s)
}

// ordinalRecall rehearses a shuffled list, then asks for list positions
// from memory. The rehearsed symbols are not shown while capturing.
type ordinalRecall struct{}

func (ordinalRecall) TestNumber() int { return 4 }

func (ordinalRecall) Plan(cfg Config, src sequence.Source) (*Plan, error) {
	pool := catalog.Gestures().Symbols()
	if cfg.RehearsalLength <= 0 || cfg.RehearsalLength > len(pool) {
		return nil, &sequence.GenerationError{Reason: fmt.Sprintf("invalid rehearsal length %d", cfg.RehearsalLength)}
	}
	plan := &Plan{TestNumber: 4, Rehearsal: sequence.Subset(src, pool, cfg.RehearsalLength)}
	for i, ordinal := range cfg.PromptOrdinals {
		if ordinal < 1 || ordinal > len(plan.Rehearsal) {
			return nil, &sequence.GenerationError{Reason: fmt.Sprintf("prompt ordinal %d outside rehearsal", ordinal)}
		}
		sym := plan.Rehearsal[ordinal-1]
		plan.Steps = append(plan.Steps, Step{
			Symbol:   sym,
			Label:    sym,
			IsTarget: true,
			Hidden:   true,
			Prompt:   ordinalPrompt(i, ordinal),
			Ordinal:  ordinal,
		})
	}
	return plan, nil
}

func ordinalPrompt(i, ordinal int) string {
	if i == 0 {
		return fmt.Sprintf("show gesture number %d", ordinal)
	}
	return fmt.Sprintf("now show gesture number %d", ordinal)
}
