package neat

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ChooseParent picks a member with probability proportional to its shared
// fitness and returns its population index. A species whose average fitness
// is zero picks uniformly.
func (s *Species) ChooseParent(rng Rand) (int, error) {
	if err := s.checkSelectable(); err != nil {
		return -1, err
	}
	if !(s.AverageFitness > 0) {
		return s.Members[rng.IntN(len(s.Members))], nil
	}

	target := rng.Float64() * s.AverageFitness
	sum := 0.0
	for i, shared := range s.SharedFitness {
		sum += shared
		if target < sum {
			return s.Members[i], nil
		}
	}
	return s.lastPositive()
}

// ChooseParents draws two parents with one scan over the cumulative shared
// fitness. The first returned parent comes from the smaller draw, so it is
// never ranked below the second after culling.
func (s *Species) ChooseParents(rng Rand) (int, int, error) {
	if err := s.checkSelectable(); err != nil {
		return -1, -1, err
	}
	if !(s.AverageFitness > 0) {
		return s.Members[rng.IntN(len(s.Members))], s.Members[rng.IntN(len(s.Members))], nil
	}

	t1 := rng.Float64() * s.AverageFitness
	t2 := rng.Float64() * s.AverageFitness
	if t2 < t1 {
		t1, t2 = t2, t1
	}

	p1 := -1
	sum := 0.0
	for i, shared := range s.SharedFitness {
		sum += shared
		if p1 < 0 && t1 < sum {
			p1 = s.Members[i]
		}
		if t2 < sum {
			return p1, s.Members[i], nil
		}
	}

	// Rounding left a draw at the very top of the distribution.
	last, err := s.lastPositive()
	if err != nil {
		return -1, -1, err
	}
	if p1 < 0 {
		p1 = last
	}
	return p1, last, nil
}

func (s *Species) checkSelectable() error {
	if len(s.Members) == 0 {
		return fmt.Errorf("%w: species %d has no members", ErrParentSelection, s.ID)
	}
	if len(s.SharedFitness) != len(s.Members) {
		return fmt.Errorf("%w: species %d has %d shared fitness values for %d members",
			ErrParentSelection, s.ID, len(s.SharedFitness), len(s.Members))
	}
	return nil
}

func (s *Species) lastPositive() (int, error) {
	for i := len(s.SharedFitness) - 1; i >= 0; i-- {
		if s.SharedFitness[i] > 0 {
			return s.Members[i], nil
		}
	}
	return -1, fmt.Errorf("%w: species %d, average %v", ErrParentSelection, s.ID, s.AverageFitness)
}

// MakeChild produces one offspring: with probability conf.CrossoverProb the
// crossover of two selected parents (a copy when both draws pick the same
// genome), otherwise a copy of one selected parent. The child is always
// mutated, with innovations looked up from index since of the ledger.
func (s *Species) MakeChild(since int, genomes []*Genome, conf Conf, rng Rand) (*Genome, error) {
	var child *Genome
	if rng.Float64() < conf.CrossoverProb() {
		p1, p2, err := s.ChooseParents(rng)
		if err != nil {
			return nil, err
		}
		if p1 != p2 {
			child = genomes[p1].Crossover(genomes[p2], conf, rng)
		} else {
			child = genomes[p1].Clone()
		}
	} else {
		p, err := s.ChooseParent(rng)
		if err != nil {
			return nil, err
		}
		child = genomes[p].Clone()
	}

	child.Fitness = 0
	child.InSpecies = false
	if err := child.Mutate(since, conf, rng); err != nil {
		return nil, fmt.Errorf("species %d child: %w", s.ID, err)
	}
	return child, nil
}

// computeSpawnAmounts gives each species floor(average / total * popSize)
// offspring. When the total is not positive nobody gets a proportional share
// and the caller fills the population from the best species.
func computeSpawnAmounts(species []*Species, popSize int) []int {
	averages := make([]float64, len(species))
	for i, s := range species {
		averages[i] = s.AverageFitness
	}
	total := floats.Sum(averages)

	amounts := make([]int, len(species))
	if !(total > 0) {
		return amounts
	}
	remaining := popSize
	for i, avg := range averages {
		n := int(math.Floor(avg / total * float64(popSize)))
		n = min(n, remaining)
		amounts[i] = n
		remaining -= n
	}
	return amounts
}

// bestSpecies returns the index of the species with the highest average
// fitness; ties go to the earlier species.
func bestSpecies(species []*Species) int {
	best := 0
	for i, s := range species {
		if s.AverageFitness > species[best].AverageFitness {
			best = i
		}
	}
	return best
}
