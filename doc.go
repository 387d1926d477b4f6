// Package neat provides a Go implementation of the NeuroEvolution of Augmenting Topologies (NEAT) algorithm.
//
// NEAT is a genetic algorithm for the generation of evolving artificial neural networks.
// It alters both the weighting parameters and structures of networks, attempting to find
// a balance between the fitness of evolved solutions and their diversity.
//
// This implementation is based on the original paper by Kenneth O. Stanley and Risto Miikkulainen.
// The engine lives in the neat subpackage and the phenotype in neat/nn.
//
// Basic usage:
//
//	// Load configuration (ini, yaml or toml)
//	config, err := neat.LoadConfig("path/to/config.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	// Create a new population
//	pop, err := neat.NewPopulationFromConfig(config, neat.WithLogger(slog.Default()))
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//
//	// Run for 100 generations with your fitness function
//	for i := 0; i < 100; i++ {
//		if err := pop.RunGeneration(evalGenomes, config); err != nil {
//			log.Fatalf("Error running generation: %v", err)
//		}
//		fmt.Println(pop.Stats())
//	}
//
// A fitness function compiles each genome and assigns a non-negative Fitness:
//
//	func evalGenomes(genomes []*neat.Genome) error {
//		for _, g := range genomes {
//			net, err := g.Compile()
//			if err != nil {
//				return err
//			}
//			out, err := net.Activate([]float64{1, 0})
//			if err != nil {
//				return err
//			}
//			g.Fitness = out[0]
//		}
//		return nil
//	}
//
// Every engine operation reads its parameters through the neat.Conf
// interface. Embed *neat.Config to override single parameters:
//
//	type greedy struct{ *neat.Config }
//
//	func (greedy) CrossoverProb() float64 { return 0 }
package neat
