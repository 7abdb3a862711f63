package sequence

import (
	"math/rand/v2"
	"slices"

	"github.com/aS4meone/qutty-ai-public/internal/catalog"
)

// Source is the randomness used by the generator. IntN returns a value in [0, n).
// *rand.Rand from math/rand/v2 satisfies it, so tests can inject a seeded source.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// NewSource returns the production source backed by the runtime's global generator.
func NewSource() Source { return globalSource{} }

// Shuffle permutes symbols in place (Fisher-Yates).
func Shuffle(src Source, symbols []catalog.Symbol) {
	for i := len(symbols) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		symbols[i], symbols[j] = symbols[j], symbols[i]
	}
}

// Subset returns up to n distinct symbols from pool in random order.
// pool is not modified.
func Subset(src Source, pool []catalog.Symbol, n int) []catalog.Symbol {
	out := slices.Clone(pool)
	Shuffle(src, out)
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// pick returns one element of from chosen uniformly.
func pick(src Source, from []catalog.Symbol) catalog.Symbol {
	return from[src.IntN(len(from))]
}
