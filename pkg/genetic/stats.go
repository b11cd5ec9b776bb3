package genetic

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// GenerationStats summarizes one generation. Generation 0 is the initial population.
type GenerationStats struct {
	Generation    int           `json:"generation"`
	Best          Genotype      `json:"best"`
	BestEver      Genotype      `json:"best_ever"`
	Valid         int           `json:"valid"`
	Invalid       int           `json:"invalid"`
	MeanFitness   float64       `json:"mean_fitness"`
	StdDevFitness float64       `json:"stddev_fitness"`
	Crowded       bool          `json:"crowded"`
	MutationRate  float64       `json:"mutation_rate"`
	Evaluations   int           `json:"evaluations"`
	Duration      time.Duration `json:"duration"`
}

// summarize fills the population counters and the moments of the valid,
// finite fitness scores.
func summarize(stats *GenerationStats, population []Genotype) {
	scores := make([]float64, 0, len(population))
	for _, g := range population {
		if !g.Fitness.Valid {
			stats.Invalid++
			continue
		}
		stats.Valid++
		if !math.IsNaN(g.Fitness.Score) && !math.IsInf(g.Fitness.Score, 0) {
			scores = append(scores, g.Fitness.Score)
		}
	}

	switch len(scores) {
	case 0:
	case 1:
		stats.MeanFitness = scores[0]
	default:
		stats.MeanFitness, stats.StdDevFitness = stat.MeanStdDev(scores, nil)
	}

	if len(population) > 0 {
		stats.Best = population[Fittest(population)].Clone()
	}
}
