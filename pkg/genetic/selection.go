package genetic

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/AlexanderDJackson/cs467/internal/constants"
	"github.com/AlexanderDJackson/cs467/internal/types"
)

// Selector builds the intermediate population (mating pool) from a population.
type Selector interface {
	Name() string
	Select(rng *rand.Rand, population []Genotype, size int) ([]Genotype, error)
}

// SelectionMethod names one of the built-in selection strategies.
type SelectionMethod string

const (
	Equal       SelectionMethod = types.SelectionEqual
	Replacement SelectionMethod = types.SelectionReplacement
	Remainder   SelectionMethod = types.SelectionRemainder
)

// ParseSelectionMethod validates a configured selection method name.
func ParseSelectionMethod(name string) (SelectionMethod, error) {
	switch m := SelectionMethod(name); m {
	case Equal, Replacement, Remainder:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown selection method %q", ErrInvalidConfig, name)
	}
}

// NewSelector returns the selector configured by cfg.
func NewSelector(cfg types.EngineConfig) (Selector, error) {
	method, err := ParseSelectionMethod(cfg.SelectionMethod)
	if err != nil {
		return nil, err
	}

	switch method {
	case Replacement:
		return ReplacementSelector{Floor: cfg.WeightFloor}, nil
	case Remainder:
		return RemainderSelector{MaxPasses: cfg.RemainderMaxPasses}, nil
	default:
		return EqualSelector{}, nil
	}
}

// EqualSelector resamples the population uniformly with replacement,
// independent of fitness.
type EqualSelector struct{}

func (EqualSelector) Name() string {
	return "equal"
}

func (EqualSelector) Select(rng *rand.Rand, population []Genotype, size int) ([]Genotype, error) {
	if len(population) == 0 {
		return nil, ErrEmptyPopulation
	}

	pool := make([]Genotype, 0, size)
	for len(pool) < size {
		pool = append(pool, population[rng.Intn(len(population))].Clone())
	}
	return pool, nil
}

// RemainderSelector implements remainder stochastic sampling. Each genotype
// receives one copy per whole multiple of the average fitness and one more
// copy with probability equal to the fractional remainder.
type RemainderSelector struct {
	// MaxPasses caps the passes over the population. Zero means the pool
	// size, which always suffices since every pass adds at least one copy.
	MaxPasses int
}

func (RemainderSelector) Name() string {
	return "remainder stochastic sampling"
}

func (s RemainderSelector) Select(rng *rand.Rand, population []Genotype, size int) ([]Genotype, error) {
	if len(population) == 0 {
		return nil, ErrEmptyPopulation
	}

	sum := 0.0
	for _, g := range population {
		if g.Fitness.Valid && !math.IsNaN(g.Fitness.Score) {
			sum += g.Fitness.Score
		}
	}
	avg := constants.AverageFitnessFloor
	if sum > 0 {
		avg = sum / float64(len(population))
	}

	maxPasses := s.MaxPasses
	if maxPasses <= 0 {
		maxPasses = size
	}

	pool := make([]Genotype, 0, size)
	for pass := 0; len(pool) < size; pass++ {
		if pass >= maxPasses {
			return nil, fmt.Errorf("%w: %d of %d after %d passes",
				ErrSelectionExhausted, len(pool), size, pass)
		}

		pushed := 0
		for _, g := range population {
			if len(pool) == size {
				break
			}
			if !g.Fitness.Valid {
				continue
			}

			f := g.Fitness.Score / avg
			for f > 0 && len(pool) < size {
				if f > 1.0 {
					pool = append(pool, g.Clone())
					pushed++
					f -= 1.0
					continue
				}
				if rng.Float64() < f {
					pool = append(pool, g.Clone())
					pushed++
				}
				f = 0
			}
		}

		// guarantee progress when every remainder rounded down
		if pushed == 0 && len(pool) < size {
			pool = append(pool, population[rng.Intn(len(population))].Clone())
		}
	}

	return pool, nil
}

// ReplacementSelector implements fitness proportionate sampling with
// replacement (roulette wheel). Every genotype weighs at least Floor, so the
// wheel can be built even when most of the population is Invalid.
type ReplacementSelector struct {
	Floor float64
}

func (ReplacementSelector) Name() string {
	return "stochastic sampling with replacement"
}

func (s ReplacementSelector) Select(rng *rand.Rand, population []Genotype, size int) ([]Genotype, error) {
	if len(population) == 0 {
		return nil, ErrEmptyPopulation
	}

	floor := s.Floor
	if floor <= 0 {
		floor = constants.DefaultWeightFloor
	}

	cumulative := make([]float64, len(population))
	total := 0.0
	for i, g := range population {
		total += g.Fitness.Weight(floor)
		cumulative[i] = total
	}
	if !(total > 0) || math.IsInf(total, 0) {
		return nil, fmt.Errorf("%w: total weight %v", ErrNoWeight, total)
	}

	pool := make([]Genotype, 0, size)
	for len(pool) < size {
		r := rng.Float64() * total
		idx := sort.Search(len(cumulative), func(i int) bool {
			return cumulative[i] > r
		})
		if idx >= len(population) {
			idx = len(population) - 1
		}
		pool = append(pool, population[idx].Clone())
	}
	return pool, nil
}
