package genetic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexanderDJackson/cs467/internal/types"
)

func selectors() []Selector {
	return []Selector{EqualSelector{}, ReplacementSelector{}, RemainderSelector{}}
}

func TestSelectorsFillPool(t *testing.T) {
	pop := withFitness(Valid(0.9), Valid(0.5), Invalid, Valid(0.1), Valid(0))

	for _, s := range selectors() {
		for _, size := range []int{1, 5, 12, 100} {
			pool, err := s.Select(seeded(2), pop, size)
			require.NoError(t, err, s.Name())
			assert.Len(t, pool, size, s.Name())
		}
	}
}

func TestSelectorsEmptyPopulation(t *testing.T) {
	for _, s := range selectors() {
		_, err := s.Select(seeded(1), nil, 10)
		assert.ErrorIs(t, err, ErrEmptyPopulation, s.Name())
	}
}

func TestSelectorsCloneGenotypes(t *testing.T) {
	pop := withFitness(Valid(1))

	for _, s := range selectors() {
		pool, err := s.Select(seeded(1), pop, 3)
		require.NoError(t, err)
		pool[0].Genes[0] = 'x'
		assert.Equal(t, "0000", string(pop[0].Genes), s.Name())
	}
}

func TestReplacementSelectorSingleValid(t *testing.T) {
	pop := withFitness(Invalid, Invalid, Valid(0.9), Invalid)

	pool, err := ReplacementSelector{Floor: 0.01}.Select(seeded(4), pop, 200)
	require.NoError(t, err)

	valid := 0
	for _, g := range pool {
		if g.Fitness.Valid {
			valid++
		}
	}
	// 0.9 of a total wheel of 0.93
	assert.Greater(t, valid, 150)
}

func TestReplacementSelectorAllInvalid(t *testing.T) {
	pool, err := ReplacementSelector{}.Select(seeded(4), withFitness(Invalid, Invalid), 10)

	require.NoError(t, err)
	assert.Len(t, pool, 10)
}

func TestRemainderSelectorProportional(t *testing.T) {
	pop := withFitness(Valid(3), Valid(1), Invalid, Invalid)

	pool, err := RemainderSelector{}.Select(seeded(6), pop, 4)
	require.NoError(t, err)

	// the average is 1, so the first genotype gets three copies and the second one
	counts := map[string]int{}
	for _, g := range pool {
		counts[string(g.Genes)]++
	}
	assert.Equal(t, map[string]int{"0000": 3, "0001": 1}, counts)
}

func TestRemainderSelectorAllInvalid(t *testing.T) {
	pool, err := RemainderSelector{}.Select(seeded(6), withFitness(Invalid, Invalid, Invalid), 5)

	require.NoError(t, err)
	assert.Len(t, pool, 5)
}

func TestRemainderSelectorExhausted(t *testing.T) {
	_, err := RemainderSelector{MaxPasses: 1}.Select(seeded(6), withFitness(Invalid, Invalid), 5)

	assert.ErrorIs(t, err, ErrSelectionExhausted)
}

func TestEqualSelectorIgnoresFitness(t *testing.T) {
	pop := withFitness(Valid(100), Invalid)

	pool, err := EqualSelector{}.Select(seeded(8), pop, 400)
	require.NoError(t, err)

	invalid := 0
	for _, g := range pool {
		if !g.Fitness.Valid {
			invalid++
		}
	}
	assert.InDelta(t, 200, invalid, 50)
}

func TestNewSelector(t *testing.T) {
	s, err := NewSelector(types.EngineConfig{SelectionMethod: types.SelectionRemainder})
	require.NoError(t, err)
	assert.IsType(t, RemainderSelector{}, s)

	s, err = NewSelector(types.EngineConfig{SelectionMethod: types.SelectionReplacement, WeightFloor: 0.5})
	require.NoError(t, err)
	assert.Equal(t, ReplacementSelector{Floor: 0.5}, s)

	_, err = NewSelector(types.EngineConfig{SelectionMethod: "rank"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
