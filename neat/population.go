package neat

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// FitnessFunc is the type for the function provided by the user to evaluate genome fitness.
// It takes the current generation of genomes and should set their Fitness field.
type FitnessFunc func(genomes []*Genome) error

// Population holds the state of the NEAT evolutionary process.
type Population struct {
	ID         uuid.UUID // Run identifier attached to every log record.
	Size       int
	NumInputs  int
	NumOutputs int
	Genomes    []*Genome  // Current generation, wholly replaced by Advance.
	Species    []*Species // Persist across generations through their representative.
	Ledger     *Ledger
	Generation int

	nextSpeciesID int
	rng           Rand
	logger        *slog.Logger
}

// Option configures a Population.
type Option func(*Population)

// WithRand sets the random source. Runs with the same seeded source and
// driver are reproducible.
func WithRand(rng Rand) Option {
	return func(p *Population) { p.rng = rng }
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Population) { p.logger = logger }
}

// NewPopulation creates size minimal genomes with the given number of inputs
// and outputs. A conf with a Validate method is validated first.
func NewPopulation(size, inputs, outputs int, conf Conf, opts ...Option) (*Population, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: population size must be positive, got %d", ErrConfig, size)
	}
	if inputs <= 0 || outputs <= 0 {
		return nil, fmt.Errorf("%w: need at least one input and one output, got %d and %d", ErrConfig, inputs, outputs)
	}
	if v, ok := conf.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	p := &Population{
		ID:            uuid.New(),
		Size:          size,
		NumInputs:     inputs,
		NumOutputs:    outputs,
		Ledger:        NewLedger(),
		nextSpeciesID: 1,
		rng:           rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(slog.String("component", "population"), slog.String("run", p.ID.String()))

	p.Genomes = p.seedGenomes(conf)
	p.logger.Info("population created",
		slog.Int("size", size), slog.Int("inputs", inputs), slog.Int("outputs", outputs),
		slog.Int("innovations", p.Ledger.Len()))
	return p, nil
}

// NewPopulationFromConfig creates a population sized and shaped by cfg. A
// non-zero cfg.Neat.Seed seeds the random source unless WithRand overrides it.
func NewPopulationFromConfig(cfg *Config, opts ...Option) (*Population, error) {
	if cfg.Neat.Seed != 0 {
		seed := uint64(cfg.Neat.Seed)
		opts = append([]Option{WithRand(rand.New(rand.NewPCG(seed, seed)))}, opts...)
	}
	return NewPopulation(cfg.Neat.PopSize, cfg.Genome.NumInputs, cfg.Genome.NumOutputs, cfg, opts...)
}

// seedGenomes builds a fresh minimal generation. Identical initial links
// share innovation numbers through the current ledger window.
func (p *Population) seedGenomes(conf Conf) []*Genome {
	since := p.Ledger.Len()
	genomes := make([]*Genome, p.Size)
	for i := range genomes {
		genomes[i] = NewGenome(p.NumInputs, p.NumOutputs, p.Ledger, since, conf, p.rng)
	}
	return genomes
}

// RunGeneration evaluates the current genomes with fitnessFunc and then
// advances to the next generation.
func (p *Population) RunGeneration(fitnessFunc FitnessFunc, conf Conf) error {
	if err := fitnessFunc(p.Genomes); err != nil {
		return fmt.Errorf("fitness evaluation failed in generation %d: %w", p.Generation, err)
	}
	return p.Advance(conf)
}

// Advance replaces the current generation with the next one. Genome fitness
// must have been set by the driver. It speciates the genomes, culls and
// shares fitness inside each species, removes empty and stale species,
// allocates offspring and breeds exactly Size children.
func (p *Population) Advance(conf Conf) error {
	start := time.Now()
	for i, g := range p.Genomes {
		if f := g.Fitness; f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: genome %d has fitness %v in generation %d", ErrInvalidFitness, i, f, p.Generation)
		}
	}

	// 1. Assign genomes to species, first fit.
	created := p.speciate(conf)

	// 2. Maintain species.
	extinct := extinctSpecies(p.Species, conf)
	dead := make(map[int]bool, len(extinct))
	for _, i := range extinct {
		dead[i] = true
	}
	for i, s := range p.Species {
		if dead[i] {
			continue
		}
		s.Cull(p.Genomes, conf)
		if err := s.FitnessSharing(p.Genomes); err != nil {
			return fmt.Errorf("generation %d: %w", p.Generation, err)
		}
		s.ChooseRandomRepresentative(p.Genomes, p.rng)
	}
	for k := len(extinct) - 1; k >= 0; k-- {
		i := extinct[k]
		p.logger.Debug("species extinct",
			slog.Int("species", p.Species[i].ID), slog.Int("members", len(p.Species[i].Members)),
			slog.Int("staleness", p.Species[i].Staleness))
		p.Species = append(p.Species[:i], p.Species[i+1:]...)
	}

	if len(p.Species) == 0 {
		if !conf.ResetOnExtinction() {
			return fmt.Errorf("%w in generation %d", ErrExtinction, p.Generation)
		}
		p.logger.Warn("all species extinct, resetting population", slog.Int("generation", p.Generation))
		p.Genomes = p.seedGenomes(conf)
		p.Generation++
		return nil
	}

	// 3. Allocate offspring.
	amounts := computeSpawnAmounts(p.Species, p.Size)
	best := bestSpecies(p.Species)

	// 4. Reproduce.
	since := p.Ledger.Len()
	next := make([]*Genome, 0, p.Size)
	for i, s := range p.Species {
		for k := 0; k < amounts[i]; k++ {
			child, err := s.MakeChild(since, p.Genomes, conf, p.rng)
			if err != nil {
				return fmt.Errorf("reproduction failed in generation %d: %w", p.Generation, err)
			}
			next = append(next, child)
		}
	}
	for len(next) < p.Size {
		child, err := p.Species[best].MakeChild(since, p.Genomes, conf, p.rng)
		if err != nil {
			return fmt.Errorf("reproduction failed in generation %d: %w", p.Generation, err)
		}
		next = append(next, child)
	}

	// 5. Replace.
	p.Genomes = next
	p.Generation++

	p.logger.Info("generation advanced",
		slog.Int("generation", p.Generation),
		slog.Int("species", len(p.Species)),
		slog.Int("created", created),
		slog.Int("extinct", len(extinct)),
		slog.Int("best_species", p.Species[best].ID),
		slog.Int("new_innovations", p.Ledger.Len()-since),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// speciate clears every species and places each genome, in index order, in
// the first species that accepts it. A genome nobody accepts founds a new
// species as its first member. It returns the number of new species.
func (p *Population) speciate(conf Conf) int {
	for _, s := range p.Species {
		s.Clear()
	}
	created := 0
	for i, g := range p.Genomes {
		g.InSpecies = false
		for _, s := range p.Species {
			if s.TryAdd(g, i, conf) {
				break
			}
		}
		if g.InSpecies {
			continue
		}
		s := NewSpecies(p.nextSpeciesID, p.Generation, g)
		p.nextSpeciesID++
		s.Members = append(s.Members, i)
		g.InSpecies = true
		p.Species = append(p.Species, s)
		created++
	}
	return created
}

// Best returns the genome with the highest fitness in the current generation.
func (p *Population) Best() *Genome {
	var best *Genome
	for _, g := range p.Genomes {
		if best == nil || g.Fitness > best.Fitness {
			best = g
		}
	}
	return best
}

// SpeciesCount returns the number of living species.
func (p *Population) SpeciesCount() int {
	return len(p.Species)
}
