package neat

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// Rand is the injected random source. *math/rand/v2.Rand satisfies it, and
// its Uint64 method lets it feed gonum distributions directly.
type Rand interface {
	Uint64() uint64
	Float64() float64
	NormFloat64() float64
	IntN(n int) int
}

// --------------------------- Genes ---------------------------

// Link is a connection gene. Its endpoints are stored once, in the ledger
// entry for Innovation.
type Link struct {
	Innovation int
	Weight     float64
	Enabled    bool
}

// String returns a string representation of the Link.
func (l Link) String() string {
	return fmt.Sprintf("Link(Innov: %d, Weight: %.3f, Enabled: %t)", l.Innovation, l.Weight, l.Enabled)
}

// Node is a neuron. Index is its position in the genome's node slice and is
// never reused; Incoming holds local indices into the genome's link slice.
type Node struct {
	Index    int
	Incoming []int
}

func (n Node) clone() Node {
	return Node{Index: n.Index, Incoming: append([]int(nil), n.Incoming...)}
}

// --------------------------- Weight strategies ---------------------------

// WeightStrategyKind selects how a weight is drawn or mutated.
type WeightStrategyKind int

const (
	// WeightGaussian samples N(0, Power).
	WeightGaussian WeightStrategyKind = iota
	// WeightUniform samples U(-Power, Power).
	WeightUniform
	// WeightReroll replaces the weight with a fresh initial weight.
	WeightReroll
)

// String returns the configuration name of the kind.
func (k WeightStrategyKind) String() string {
	switch k {
	case WeightGaussian:
		return "gaussian"
	case WeightUniform:
		return "uniform"
	case WeightReroll:
		return "reroll"
	default:
		return fmt.Sprintf("WeightStrategyKind(%d)", int(k))
	}
}

// WeightStrategy is a weight initialisation or perturbation distribution.
type WeightStrategy struct {
	Kind  WeightStrategyKind
	Power float64 // standard deviation (gaussian) or half range (uniform)
}

// NewWeightStrategy parses a strategy name. Gaussian and uniform strategies
// need a positive power.
func NewWeightStrategy(kind string, power float64) (WeightStrategy, error) {
	var s WeightStrategy
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "gaussian", "normal", "":
		s.Kind = WeightGaussian
	case "uniform":
		s.Kind = WeightUniform
	case "reroll", "replace":
		return WeightStrategy{Kind: WeightReroll}, nil
	default:
		return s, fmt.Errorf("%w: unknown weight strategy '%s'", ErrConfig, kind)
	}
	if !(power > 0) {
		return s, fmt.Errorf("%w: %s weight strategy needs a positive power, got %v", ErrConfig, s.Kind, power)
	}
	s.Power = power
	return s, nil
}

// Sample draws one value from the strategy's distribution. A reroll strategy
// has no distribution of its own and samples 0.
func (s WeightStrategy) Sample(rng Rand) float64 {
	switch s.Kind {
	case WeightGaussian:
		return distuv.Normal{Mu: 0, Sigma: s.Power, Src: rng}.Rand()
	case WeightUniform:
		return distuv.Uniform{Min: -s.Power, Max: s.Power, Src: rng}.Rand()
	default:
		return 0
	}
}
