package neat

import "sort"

// extinctSpecies returns, in ascending order, the indices of species that
// must be removed before reproduction: those with no members and those whose
// staleness reached conf.StalenessThreshold. The conf.SpeciesElitism
// non-empty species with the highest best fitness are spared from staleness.
func extinctSpecies(species []*Species, conf Conf) []int {
	elite := make(map[int]bool)
	if n := conf.SpeciesElitism(); n > 0 {
		ranked := make([]int, 0, len(species))
		for i, s := range species {
			if len(s.Members) > 0 {
				ranked = append(ranked, i)
			}
		}
		sort.SliceStable(ranked, func(a, b int) bool {
			return species[ranked[a]].BestFitness > species[ranked[b]].BestFitness
		})
		for _, i := range ranked[:min(n, len(ranked))] {
			elite[i] = true
		}
	}

	var extinct []int
	for i, s := range species {
		if len(s.Members) == 0 || (s.IsStale(conf.StalenessThreshold()) && !elite[i]) {
			extinct = append(extinct, i)
		}
	}
	return extinct
}
