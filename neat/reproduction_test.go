package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSpawnAmounts(t *testing.T) {
	species := []*Species{
		{AverageFitness: 1},
		{AverageFitness: 2},
		{AverageFitness: 3},
	}
	amounts := computeSpawnAmounts(species, 100)
	assert.Equal(t, []int{16, 33, 50}, amounts)
	assert.Equal(t, 2, bestSpecies(species))

	total := 0
	for _, n := range amounts {
		total += n
	}
	assert.LessOrEqual(t, total, 100)
}

func TestComputeSpawnAmountsZeroTotal(t *testing.T) {
	species := []*Species{{AverageFitness: 0}, {AverageFitness: 0}}
	assert.Equal(t, []int{0, 0}, computeSpawnAmounts(species, 10))
	assert.Equal(t, 0, bestSpecies(species), "ties go to the earlier species")
}

func TestMakeChild(t *testing.T) {
	conf := DefaultConfig()
	genomes := withFitness(3, 1, 2)
	s := speciesOf(genomes, 0, 1, 2)
	require.NoError(t, s.FitnessSharing(genomes))

	ledger := genomes[0].ledger
	rng := newTestRand(40)
	for i := 0; i < 100; i++ {
		child, err := s.MakeChild(ledger.Len(), genomes, conf, rng)
		require.NoError(t, err)
		assert.Zero(t, child.Fitness)
		assert.False(t, child.InSpecies)
		requireConsistent(t, child)
		for _, g := range genomes {
			assert.NotSame(t, g, child)
		}
		_, err = child.Compile()
		require.NoError(t, err)
	}
}

func TestMakeChildWithoutCrossover(t *testing.T) {
	conf := DefaultConfig()
	conf.Reproduction.CrossoverProb = 0
	conf.Genome.ConnAddProb = 0
	conf.Genome.NodeAddProb = 0
	conf.Genome.WeightMutateRate = 0
	conf.Genome.ConnDisableProb = 0

	genomes := withFitness(0, 5)
	s := speciesOf(genomes, 0, 1)
	require.NoError(t, s.FitnessSharing(genomes))

	child, err := s.MakeChild(genomes[0].ledger.Len(), genomes, conf, newTestRand(41))
	require.NoError(t, err)
	assert.Equal(t, genomes[1].Links, child.Links, "only the fit member can be drawn")
}
