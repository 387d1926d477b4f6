package neat

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var xorCases = [][3]float64{{0, 0, 0}, {0, 1, 1}, {1, 0, 1}, {1, 1, 0}}

func xorFitness(genomes []*Genome) error {
	for _, g := range genomes {
		net, err := g.Compile()
		if err != nil {
			return err
		}
		sse := 0.0
		for _, c := range xorCases {
			out, err := net.Activate(c[:2])
			if err != nil {
				return err
			}
			d := out[0] - c[2]
			sse += d * d
		}
		g.Fitness = 4 - sse
	}
	return nil
}

func TestNewPopulationRejectsBadShape(t *testing.T) {
	conf := DefaultConfig()
	_, err := NewPopulation(0, 2, 1, conf)
	assert.ErrorIs(t, err, ErrConfig)
	_, err = NewPopulation(10, 0, 1, conf)
	assert.ErrorIs(t, err, ErrConfig)

	bad := DefaultConfig()
	bad.Genome.ConnAddProb = 2
	_, err = NewPopulation(10, 2, 1, bad)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestNewPopulationSeedsMinimalGenomes(t *testing.T) {
	conf := DefaultConfig()
	pop, err := NewPopulation(150, 2, 1, conf, WithRand(newTestRand(50)))
	require.NoError(t, err)

	assert.Len(t, pop.Genomes, 150)
	assert.Equal(t, 3, pop.Ledger.Len(), "identical initial links share innovations")
	assert.Equal(t, 0, pop.Generation)
	assert.Equal(t, 0, pop.SpeciesCount())
	for _, g := range pop.Genomes {
		assert.Equal(t, []int{0, 1, 2}, innovations(g))
	}
}

func TestZeroWeightPopulationOutputsHalf(t *testing.T) {
	conf := fixedWeights{Config: DefaultConfig(), w: 0}
	pop, err := NewPopulation(150, 2, 1, conf, WithRand(newTestRand(59)))
	require.NoError(t, err)

	for _, g := range pop.Genomes {
		assert.Equal(t, 0, g.HiddenNodesCount())
		assert.Equal(t, 3, g.EnabledLinksCount())
		out, err := g.Evaluate([]float64{0.5, 0.5})
		require.NoError(t, err)
		assert.Equal(t, []float64{0.5}, out)
	}
}

func TestPopulationKeepsSizeAcrossGenerations(t *testing.T) {
	conf := DefaultConfig()
	conf.Stagnation.SpeciesElitism = 1
	pop, err := NewPopulation(60, 2, 1, conf, WithRand(newTestRand(51)))
	require.NoError(t, err)

	for gen := 0; gen < 30; gen++ {
		require.NoError(t, pop.RunGeneration(xorFitness, conf))
		require.Len(t, pop.Genomes, 60)
		assert.Equal(t, gen+1, pop.Generation)
		assert.NotZero(t, pop.SpeciesCount())
		for _, g := range pop.Genomes {
			requireConsistent(t, g)
			assert.Zero(t, g.Fitness)
		}
		for _, s := range pop.Species {
			assert.NotEmpty(t, s.Members)
		}
	}
}

func TestStaleSpeciesGoesExtinct(t *testing.T) {
	conf := DefaultConfig()
	conf.SpeciesSet.CompatibilityThreshold = 1e9
	pop, err := NewPopulation(20, 2, 1, conf, WithRand(newTestRand(52)))
	require.NoError(t, err)

	// Fitness stays at zero, so the single species never improves. The
	// generation that founds it counts as its first stale pass: advance k
	// checks the staleness left by the k-1 passes before it, so after 15
	// stale passes the 16th advance is the first to see the threshold.
	for gen := 1; gen <= 15; gen++ {
		require.NoError(t, pop.Advance(conf), "advance %d", gen)
		require.Equal(t, 1, pop.SpeciesCount())
	}
	assert.Equal(t, 15, pop.Species[0].Staleness)

	err = pop.Advance(conf)
	assert.ErrorIs(t, err, ErrExtinction)
}

func TestResetOnExtinction(t *testing.T) {
	conf := DefaultConfig()
	conf.SpeciesSet.CompatibilityThreshold = 1e9
	conf.Neat.ResetOnExtinction = true
	pop, err := NewPopulation(20, 2, 1, conf, WithRand(newTestRand(53)))
	require.NoError(t, err)

	for gen := 1; gen <= 16; gen++ {
		require.NoError(t, pop.Advance(conf), "advance %d", gen)
	}
	assert.Equal(t, 16, pop.Generation)
	assert.Equal(t, 0, pop.SpeciesCount())
	require.Len(t, pop.Genomes, 20)
	for _, g := range pop.Genomes {
		assert.Equal(t, 0, g.HiddenNodesCount())
		assert.Equal(t, 3, g.LinksCount())
	}

	require.NoError(t, pop.Advance(conf))
	assert.Equal(t, 1, pop.SpeciesCount())
}

func TestAdvanceRejectsInvalidFitness(t *testing.T) {
	conf := DefaultConfig()
	for _, f := range []float64{-1, math.NaN(), math.Inf(1)} {
		pop, err := NewPopulation(10, 2, 1, conf, WithRand(newTestRand(54)))
		require.NoError(t, err)
		pop.Genomes[3].Fitness = f
		assert.ErrorIs(t, pop.Advance(conf), ErrInvalidFitness)
		assert.Equal(t, 0, pop.Generation)
	}
}

func TestRunGenerationPropagatesFitnessError(t *testing.T) {
	conf := DefaultConfig()
	pop, err := NewPopulation(10, 2, 1, conf, WithRand(newTestRand(55)))
	require.NoError(t, err)

	boom := errors.New("simulator crashed")
	err = pop.RunGeneration(func([]*Genome) error { return boom }, conf)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, pop.Generation)
}

func TestSeededRunsAreReproducible(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Neat.PopSize = 40
	cfg.Neat.Seed = 1234

	run := func() *Population {
		pop, err := NewPopulationFromConfig(cfg)
		require.NoError(t, err)
		for i := 0; i < 8; i++ {
			require.NoError(t, pop.RunGeneration(xorFitness, cfg))
		}
		return pop
	}
	a, b := run(), run()

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Ledger.Len(), b.Ledger.Len())
	require.Len(t, b.Genomes, len(a.Genomes))
	for i := range a.Genomes {
		assert.Equal(t, a.Genomes[i].Links, b.Genomes[i].Links)
		assert.Len(t, b.Genomes[i].Nodes, len(a.Genomes[i].Nodes))
	}
}

// noCrossover overrides a single parameter on top of a Config.
type noCrossover struct{ *Config }

func (noCrossover) CrossoverProb() float64 { return 0 }

func TestEmbeddedConfigOverride(t *testing.T) {
	conf := noCrossover{DefaultConfig()}
	pop, err := NewPopulation(30, 2, 1, conf, WithRand(newTestRand(56)))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, pop.RunGeneration(xorFitness, conf))
	}
	assert.Len(t, pop.Genomes, 30)
}

func TestPopulationLogsGenerations(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	conf := DefaultConfig()
	pop, err := NewPopulation(10, 2, 1, conf, WithRand(newTestRand(57)), WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, pop.RunGeneration(xorFitness, conf))

	out := buf.String()
	assert.Contains(t, out, `"msg":"population created"`)
	assert.Contains(t, out, `"msg":"generation advanced"`)
	assert.Contains(t, out, pop.ID.String())
}

func TestBestAndStats(t *testing.T) {
	conf := DefaultConfig()
	pop, err := NewPopulation(4, 2, 1, conf, WithRand(newTestRand(58)))
	require.NoError(t, err)
	for i, g := range pop.Genomes {
		g.Fitness = float64(i)
	}

	assert.Same(t, pop.Genomes[3], pop.Best())

	s := pop.Stats()
	assert.Equal(t, 0, s.Generation)
	assert.InDelta(t, 1.5, s.MeanFitness, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.StdevFitness, 1e-12)
	assert.Equal(t, 3.0, s.BestFitness)
	assert.Equal(t, 0.0, s.MeanHiddenNodes)
	assert.Equal(t, 3.0, s.MeanEnabledLinks)
	assert.Contains(t, s.String(), "gen 0")
}
