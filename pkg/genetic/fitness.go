package genetic

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Fitness is either a valid score or Invalid. Invalid genotypes violate a
// problem constraint and get no reproductive weight.
type Fitness struct {
	Score float64
	Valid bool
}

// Invalid is the fitness of a genotype that violates the problem's constraints.
var Invalid = Fitness{}

// Valid returns a valid fitness with the given score.
func Valid(score float64) Fitness {
	return Fitness{Score: score, Valid: true}
}

// rank orders the three tiers: NaN < Invalid < any valid score.
func (f Fitness) rank() int {
	switch {
	case !f.Valid:
		return 1
	case math.IsNaN(f.Score):
		return 0
	default:
		return 2
	}
}

// Compare returns -1, 0 or +1 when f ranks below, equal to or above o.
func (f Fitness) Compare(o Fitness) int {
	fr, or := f.rank(), o.rank()
	if fr != or {
		if fr < or {
			return -1
		}
		return 1
	}
	if fr != 2 {
		return 0
	}
	switch {
	case f.Score < o.Score:
		return -1
	case f.Score > o.Score:
		return 1
	default:
		return 0
	}
}

// Better reports whether f ranks strictly above o.
func (f Fitness) Better(o Fitness) bool {
	return f.Compare(o) > 0
}

// Weight returns the selection weight of f, never below floor.
func (f Fitness) Weight(floor float64) float64 {
	if !f.Valid || math.IsNaN(f.Score) || f.Score < floor {
		return floor
	}
	return f.Score
}

func (f Fitness) String() string {
	if !f.Valid {
		return "Invalid!"
	}
	return fmt.Sprintf("%v", f.Score)
}

// MarshalJSON encodes valid finite scores as numbers and everything else as a string.
func (f Fitness) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return json.Marshal("invalid")
	}
	if math.IsNaN(f.Score) || math.IsInf(f.Score, 0) {
		return json.Marshal(fmt.Sprintf("%v", f.Score))
	}
	return json.Marshal(f.Score)
}

// UnmarshalJSON accepts the encoding produced by MarshalJSON.
func (f *Fitness) UnmarshalJSON(data []byte) error {
	var score float64
	if err := json.Unmarshal(data, &score); err == nil {
		*f = Valid(score)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("fitness must be a number or a string: %w", err)
	}
	if s == "invalid" {
		*f = Invalid
		return nil
	}
	score, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("unknown fitness %q", s)
	}
	*f = Valid(score)
	return nil
}
