package genetic

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
)

// Genotype is a fixed-length sequence of alleles plus its cached fitness.
type Genotype struct {
	Genes   []byte
	Fitness Fitness

	// stale is set when Genes changed after the last evaluation.
	stale bool
}

// NewGenotype returns an unevaluated genotype holding a copy of genes.
func NewGenotype(genes []byte) Genotype {
	g := Genotype{Genes: make([]byte, len(genes)), stale: true}
	copy(g.Genes, genes)
	return g
}

// RandomGenotype draws every gene uniformly from alphabet.
func RandomGenotype(rng *rand.Rand, length int, alphabet []byte) Genotype {
	genes := make([]byte, length)
	for i := range genes {
		genes[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return Genotype{Genes: genes, stale: true}
}

// Len returns the number of genes.
func (g Genotype) Len() int {
	return len(g.Genes)
}

// Clone returns a deep copy; the two values never share gene storage.
func (g Genotype) Clone() Genotype {
	c := g
	c.Genes = make([]byte, len(g.Genes))
	copy(c.Genes, g.Genes)
	return c
}

// Stale reports whether the fitness must be recomputed.
func (g Genotype) Stale() bool {
	return g.stale
}

// Evaluate recomputes the fitness from problem.
func (g *Genotype) Evaluate(problem Problem) {
	g.Fitness = problem.Fitness(g.Genes)
	g.stale = false
}

func (g Genotype) String() string {
	return fmt.Sprintf("%s: %s", g.Genes, g.Fitness)
}

type genotypeJSON struct {
	Genes   string  `json:"genes"`
	Fitness Fitness `json:"fitness"`
}

// MarshalJSON renders genes as a string.
func (g Genotype) MarshalJSON() ([]byte, error) {
	return json.Marshal(genotypeJSON{
		Genes:   string(g.Genes),
		Fitness: g.Fitness,
	})
}

// UnmarshalJSON restores an evaluated genotype written by MarshalJSON.
func (g *Genotype) UnmarshalJSON(data []byte) error {
	var v genotypeJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*g = Genotype{Genes: []byte(v.Genes), Fitness: v.Fitness}
	return nil
}

// SortByFitness orders genotypes best first. Ties keep their relative order.
func SortByFitness(genotypes []Genotype) {
	sort.SliceStable(genotypes, func(i, j int) bool {
		return genotypes[i].Fitness.Better(genotypes[j].Fitness)
	})
}

// Fittest returns the index of the best genotype, or -1 for an empty slice.
func Fittest(genotypes []Genotype) int {
	best := -1
	for i := range genotypes {
		if best < 0 || genotypes[i].Fitness.Better(genotypes[best].Fitness) {
			best = i
		}
	}
	return best
}
