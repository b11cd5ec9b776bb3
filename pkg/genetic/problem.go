package genetic

import (
	"context"
	"math/rand"
)

// Problem describes the contract a specific optimization problem needs to implement.
// Fitness must be pure, since it may be called from several goroutines at once.
type Problem interface {
	Fitness(genes []byte) Fitness
	Alphabet() []byte
	Len() int
	Format(g Genotype) string
}

// Mutator is implemented by problems that mutate genotypes themselves instead
// of relying on the generic per-gene mutation. Implementations must keep the
// genotype length unchanged.
type Mutator interface {
	Mutate(rng *rand.Rand, g *Genotype, rate float64, force bool)
}

// Evaluator computes the fitness of every stale genotype in place.
type Evaluator interface {
	Evaluate(ctx context.Context, problem Problem, genotypes []Genotype) error
}

// SequentialEvaluator evaluates genotypes one after another on the calling goroutine.
type SequentialEvaluator struct{}

func (SequentialEvaluator) Evaluate(ctx context.Context, problem Problem, genotypes []Genotype) error {
	for i := range genotypes {
		if !genotypes[i].Stale() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		genotypes[i].Evaluate(problem)
	}
	return nil
}

// Observer receives the statistics and sorted population of every generation.
type Observer interface {
	ObserveGeneration(stats GenerationStats, population []Genotype)
}
