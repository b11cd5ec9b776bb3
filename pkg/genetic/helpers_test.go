package genetic

import (
	"bytes"
	"fmt"
	"math/rand"
)

// onesProblem scores a binary genotype by its share of ones. When
// leadingOne is set, genotypes starting with zero are Invalid.
type onesProblem struct {
	length     int
	leadingOne bool
}

func (p *onesProblem) Fitness(genes []byte) Fitness {
	if p.leadingOne && len(genes) > 0 && genes[0] != '1' {
		return Invalid
	}
	return Valid(float64(bytes.Count(genes, []byte{'1'})) / float64(len(genes)))
}

func (p *onesProblem) Alphabet() []byte {
	return []byte("01")
}

func (p *onesProblem) Len() int {
	return p.length
}

func (p *onesProblem) Format(g Genotype) string {
	return fmt.Sprintf("%s has %d ones", g.Genes, bytes.Count(g.Genes, []byte{'1'}))
}

// countingMutator delegates mutation to the problem and counts the calls.
type countingMutator struct {
	onesProblem
	calls int
}

func (m *countingMutator) Mutate(rng *rand.Rand, g *Genotype, rate float64, force bool) {
	m.calls++
	g.Genes[rng.Intn(len(g.Genes))] = '1'
}

type statsRecorder struct {
	stats []GenerationStats
	sizes []int
}

func (r *statsRecorder) ObserveGeneration(stats GenerationStats, population []Genotype) {
	r.stats = append(r.stats, stats)
	r.sizes = append(r.sizes, len(population))
}

func seeded(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func withFitness(fitness ...Fitness) []Genotype {
	out := make([]Genotype, len(fitness))
	for i, f := range fitness {
		out[i] = Genotype{Genes: []byte(fmt.Sprintf("%04d", i)), Fitness: f}
	}
	return out
}
