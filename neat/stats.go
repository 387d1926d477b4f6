package neat

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises the current generation for reporting.
type Stats struct {
	Generation       int
	Species          int
	MeanFitness      float64
	StdevFitness     float64
	BestFitness      float64
	MeanHiddenNodes  float64
	MeanEnabledLinks float64
}

// String returns a one-line report.
func (s Stats) String() string {
	return fmt.Sprintf("gen %d: species %d, fitness mean %.4f (sd %.4f) best %.4f, hidden %.2f, links %.2f",
		s.Generation, s.Species, s.MeanFitness, s.StdevFitness, s.BestFitness, s.MeanHiddenNodes, s.MeanEnabledLinks)
}

// Stats computes fitness and topology statistics over the current genomes.
// Fitness values are whatever the driver last assigned.
func (p *Population) Stats() Stats {
	n := len(p.Genomes)
	fitness := make([]float64, n)
	hidden := make([]float64, n)
	links := make([]float64, n)
	for i, g := range p.Genomes {
		fitness[i] = g.Fitness
		hidden[i] = float64(g.HiddenNodesCount())
		links[i] = float64(g.EnabledLinksCount())
	}

	s := Stats{Generation: p.Generation, Species: len(p.Species)}
	if n == 0 {
		return s
	}
	s.MeanFitness = stat.Mean(fitness, nil)
	if n > 1 {
		s.StdevFitness = stat.StdDev(fitness, nil)
	}
	s.BestFitness = floats.Max(fitness)
	s.MeanHiddenNodes = stat.Mean(hidden, nil)
	s.MeanEnabledLinks = stat.Mean(links, nil)
	return s
}
