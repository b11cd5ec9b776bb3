package genetic

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/AlexanderDJackson/cs467/internal/types"
)

// CrossoverMethod is the topology used to recombine two parents.
type CrossoverMethod string

const (
	OnePoint CrossoverMethod = types.CrossoverOne
	TwoPoint CrossoverMethod = types.CrossoverTwo
	Uniform  CrossoverMethod = types.CrossoverUniform
)

// ParseCrossoverMethod validates a configured crossover method name.
func ParseCrossoverMethod(name string) (CrossoverMethod, error) {
	switch m := CrossoverMethod(name); m {
	case OnePoint, TwoPoint, Uniform:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown crossover method %q", ErrInvalidConfig, name)
	}
}

// Reproducer turns two mates into two children by crossover and mutation.
type Reproducer struct {
	Method       CrossoverMethod
	Alphabet     []byte
	Length       int
	MutationRate float64
	Skip         float64
	Force        bool

	// Mutator overrides the generic per-gene mutation when set.
	Mutator Mutator
}

// Reproduce returns two children of p0 and p1. With probability Skip the
// parents are propagated unchanged. The parents are never modified.
func (r Reproducer) Reproduce(rng *rand.Rand, p0, p1 Genotype) (Genotype, Genotype, error) {
	if p0.Len() != p1.Len() || p0.Len() != r.Length {
		return Genotype{}, Genotype{}, fmt.Errorf("%w: %d and %d, want %d",
			ErrLengthMismatch, p0.Len(), p1.Len(), r.Length)
	}

	if rng.Float64() < r.Skip {
		return p0.Clone(), p1.Clone(), nil
	}

	points := CrossoverPoints(rng, r.Method, r.Length)
	c0, c1 := Crossover(p0, p1, points)

	r.mutate(rng, &c0)
	r.mutate(rng, &c1)

	return c0, c1, nil
}

func (r Reproducer) mutate(rng *rand.Rand, g *Genotype) {
	if r.MutationRate <= 0 {
		return
	}
	if r.Mutator != nil {
		r.Mutator.Mutate(rng, g, r.MutationRate, r.Force)
		g.stale = true
		return
	}
	Mutate(rng, g, r.Alphabet, r.MutationRate, r.Force)
}

// CrossoverPoints draws a sorted set of distinct points in [1, length).
// Genotypes too short for the requested number of points use every point available.
func CrossoverPoints(rng *rand.Rand, method CrossoverMethod, length int) []int {
	available := length - 1
	if available <= 0 {
		return nil
	}

	var count int
	switch method {
	case OnePoint:
		count = 1
	case TwoPoint:
		count = 2
	default:
		// uniform in [3, length)
		count = available
		if available > 3 {
			count = 3 + rng.Intn(available-2)
		}
	}
	if count > available {
		count = available
	}

	points := rng.Perm(available)[:count]
	for i := range points {
		points[i]++
	}
	sort.Ints(points)
	return points
}

// Crossover builds two fresh children from p0 and p1. The segments bounded by
// points are exchanged when their index is even and kept when it is odd.
func Crossover(p0, p1 Genotype, points []int) (Genotype, Genotype) {
	length := p0.Len()
	c0 := Genotype{Genes: make([]byte, length), stale: true}
	c1 := Genotype{Genes: make([]byte, length), stale: true}

	start := 0
	for k := 0; k <= len(points); k++ {
		end := length
		if k < len(points) {
			end = points[k]
		}
		if k%2 == 0 {
			copy(c0.Genes[start:end], p1.Genes[start:end])
			copy(c1.Genes[start:end], p0.Genes[start:end])
		} else {
			copy(c0.Genes[start:end], p0.Genes[start:end])
			copy(c1.Genes[start:end], p1.Genes[start:end])
		}
		start = end
	}

	return c0, c1
}
