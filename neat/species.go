package neat

import (
	"fmt"
	"math"
	"sort"
)

// Species represents a group of genetically similar genomes.
//
// Members are indices into the population's current genome slice. The
// representative is an owned copy, so mutating live genomes never moves the
// compatibility baseline.
type Species struct {
	ID             int       // Unique identifier for the species.
	Created        int       // Generation number when the species was created.
	Representative *Genome   // Snapshot genome new members are compared with.
	Members        []int     // Population indices of the current members.
	SharedFitness  []float64 // Member fitness divided by member count, aligned with Members.
	Staleness      int       // Generations since BestFitness last improved.
	BestFitness    float64
	AverageFitness float64 // Sum of SharedFitness.
}

// NewSpecies creates a species represented by a copy of seed. The seed is not
// added as a member.
func NewSpecies(id, generation int, seed *Genome) *Species {
	return &Species{
		ID:             id,
		Created:        generation,
		Representative: seed.Clone(),
	}
}

// String returns a string representation of the Species.
func (s *Species) String() string {
	return fmt.Sprintf("Species(ID: %d, Members: %d, Staleness: %d, Best: %.4f, Avg: %.4f)",
		s.ID, len(s.Members), s.Staleness, s.BestFitness, s.AverageFitness)
}

// Clear drops the members; representative and staleness persist.
func (s *Species) Clear() {
	s.Members = s.Members[:0]
	s.SharedFitness = s.SharedFitness[:0]
}

// TryAdd adds the genome when its compatibility distance to the
// representative is below conf.CompatThreshold. Genomes already placed in a
// species are never added again.
func (s *Species) TryAdd(g *Genome, index int, conf Conf) bool {
	if g.InSpecies {
		return false
	}
	if g.Distance(s.Representative, conf) < conf.CompatThreshold() {
		s.Members = append(s.Members, index)
		g.InSpecies = true
		return true
	}
	return false
}

// IsStale reports whether the species has gone threshold generations
// without improving its best fitness.
func (s *Species) IsStale(threshold int) bool {
	return s.Staleness >= threshold
}

// Cull sorts members by descending fitness and keeps the top
// ceil(conf.CullSurvivalPercentage * len(Members)). Equal fitness keeps the
// previous member order.
func (s *Species) Cull(genomes []*Genome, conf Conf) {
	sort.SliceStable(s.Members, func(i, j int) bool {
		return genomes[s.Members[i]].Fitness > genomes[s.Members[j]].Fitness
	})
	keep := int(math.Ceil(conf.CullSurvivalPercentage() * float64(len(s.Members))))
	if keep < len(s.Members) {
		s.Members = s.Members[:keep]
	}
}

// FitnessSharing updates staleness and best fitness, and divides each
// member's fitness by the member count.
func (s *Species) FitnessSharing(genomes []*Genome) error {
	s.Staleness++
	s.SharedFitness = s.SharedFitness[:0]
	s.AverageFitness = 0

	n := float64(len(s.Members))
	for _, m := range s.Members {
		f := genomes[m].Fitness
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: genome %d in species %d has fitness %v", ErrInvalidFitness, m, s.ID, f)
		}
		if s.BestFitness < f {
			s.Staleness = 0
			s.BestFitness = f
		}
		shared := f / n
		s.SharedFitness = append(s.SharedFitness, shared)
		s.AverageFitness += shared
	}
	return nil
}

// ChooseRandomRepresentative replaces the representative with a copy of a
// uniformly chosen member.
func (s *Species) ChooseRandomRepresentative(genomes []*Genome, rng Rand) {
	if len(s.Members) == 0 {
		return
	}
	s.Representative = genomes[s.Members[rng.IntN(len(s.Members))]].Clone()
}
