package genetic

import "errors"

// Fatal configuration errors. A run that hits one of these cannot continue.
var (
	ErrLengthMismatch     = errors.New("genitor genotype is incorrect length")
	ErrEmptyAlphabet      = errors.New("genetic alphabet is empty")
	ErrEmptyPopulation    = errors.New("no genotypes to select from")
	ErrNoWeight           = errors.New("no genotype can be assigned a positive weight")
	ErrSelectionExhausted = errors.New("selection passes exhausted before the pool was filled")
	ErrInvalidConfig      = errors.New("invalid engine configuration")
)
