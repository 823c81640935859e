// Package neat implements a NeuroEvolution of Augmenting Topologies (NEAT)
// engine: genomes encoded as node/connection graphs, structural and numeric
// mutation with global innovation tracking, innovation-aligned crossover and
// speciation distance, and population bookkeeping.
//
// The compiled, executable form of a genome lives in the nn subpackage;
// fitness comes from whatever the caller's FitnessFunc does with the
// population — in this repository, a concurrent board-game tournament.
//
// Basic usage:
//
//	config := neat.DefaultConfig()
//	pop, err := neat.NewPopulation(config, time.Now().UnixNano())
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//
//	for i := 0; i < 100; i++ {
//		winner, err := pop.RunGeneration(evalGenomes)
//		if err != nil {
//			log.Fatalf("Error running generation: %v", err)
//		}
//		if winner != nil {
//			fmt.Println("Solution found!")
//			break
//		}
//	}
package neat
