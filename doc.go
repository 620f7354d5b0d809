// Package vai provides very artificial intelligence: small dense ReLU networks
// tuned by random perturbation and selection instead of gradient descent.
//
// A candidate network is cloned, randomly perturbed, scored by a caller
// supplied fitness function and kept only if it scores better. The vai package
// holds the networks, their mutation operators, the forward pass and a plain
// text file format. The climb subpackage drives the select-if-better loop.
//
// Basic usage:
//
//	best := vai.NewDynamicDeterministic(0, 2, 4, 1)
//	bestScore := score(best)
//
//	for i := 0; i < 1000; i++ {
//		candidate := best.CreateVariant(5)
//		if s := score(candidate); s < bestScore {
//			best, bestScore = candidate, s
//		}
//	}
//
//	f, err := os.Create("best.vai")
//	if err != nil {
//		log.Fatalf("Error creating file: %v", err)
//	}
//	defer f.Close()
//	if _, err := best.WriteTo(f); err != nil {
//		log.Fatalf("Error saving network: %v", err)
//	}
package vai
