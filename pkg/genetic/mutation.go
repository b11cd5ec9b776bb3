package genetic

import (
	"bytes"
	"math/rand"
)

// Mutate replaces each gene with probability rate. With force set the
// replacement always differs from the current allele, provided the alphabet
// holds at least two symbols. It returns the number of genes replaced.
func Mutate(rng *rand.Rand, g *Genotype, alphabet []byte, rate float64, force bool) int {
	if rate <= 0 || len(alphabet) == 0 {
		return 0
	}

	mutated := 0
	for i, allele := range g.Genes {
		if rng.Float64() >= rate {
			continue
		}

		if force && len(alphabet) > 1 {
			g.Genes[i] = otherAllele(rng, alphabet, allele)
		} else {
			g.Genes[i] = alphabet[rng.Intn(len(alphabet))]
		}
		mutated++
	}

	if mutated > 0 {
		g.stale = true
	}
	return mutated
}

// otherAllele draws uniformly from alphabet minus current.
func otherAllele(rng *rand.Rand, alphabet []byte, current byte) byte {
	k := bytes.IndexByte(alphabet, current)
	if k < 0 {
		return alphabet[rng.Intn(len(alphabet))]
	}
	n := rng.Intn(len(alphabet) - 1)
	if n >= k {
		n++
	}
	return alphabet[n]
}
