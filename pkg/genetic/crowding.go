package genetic

// Crowded pairs up consecutive genotypes of the pool (0 with 1, 2 with 3 and
// so on) and reports whether the average number of matching genes per pair
// exceeds ratio of the genotype length.
func Crowded(pool []Genotype, ratio float64) bool {
	pairs := len(pool) / 2
	if pairs == 0 {
		return false
	}

	same := 0
	for i := 0; i+1 < len(pool); i += 2 {
		a, b := pool[i].Genes, pool[i+1].Genes
		for j := 0; j < len(a) && j < len(b); j++ {
			if a[j] == b[j] {
				same++
			}
		}
	}

	avg := float64(same) / float64(pairs)
	return avg > ratio*float64(pool[0].Len())
}
