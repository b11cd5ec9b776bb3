package knapsack

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexanderDJackson/cs467/internal/types"
	"github.com/AlexanderDJackson/cs467/pkg/genetic"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func sample(t *testing.T) *Knapsack {
	t.Helper()
	k, err := NewFromItems(10, []Item{
		{Name: "A", Weight: 5, Value: 10},
		{Name: "B", Weight: 4, Value: 40},
		{Name: "C", Weight: 6, Value: 30},
		{Name: "D", Weight: 3, Value: 50},
	})
	require.NoError(t, err)
	return k
}

func TestFitness(t *testing.T) {
	k := sample(t)

	assert.Equal(t, genetic.Valid(0.9), k.Fitness([]byte("0101")))
	assert.Equal(t, genetic.Valid(0), k.Fitness([]byte("0000")))
	assert.Equal(t, genetic.Invalid, k.Fitness([]byte("1111")))
	assert.InDelta(t, 8.0/9.0, k.Fitness([]byte("0011")).Score, 1e-12)
}

func TestFormat(t *testing.T) {
	k := sample(t)
	g := genetic.NewGenotype([]byte("0101"))

	assert.Equal(t, "0101: (weight: 7, value: 90, fitness: 0.9)", k.Format(g))
	assert.Equal(t, []Item{{Name: "B", Weight: 4, Value: 40}, {Name: "D", Weight: 3, Value: 50}}, k.Packed(g.Genes))
}

func TestNewFromItemsValidation(t *testing.T) {
	_, err := NewFromItems(0, []Item{{Name: "A", Weight: 1, Value: 1}})
	assert.ErrorIs(t, err, ErrNoCapacity)

	_, err = NewFromItems(10, nil)
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = NewFromItems(10, []Item{{Name: "A", Weight: -1, Value: 1}})
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	input := `# generated set
A, 5, 10
B ,4, 40
bad, x, 3
C, 6, 30
limit, 10

D, 3, 50
`
	items, capacity, err := Parse(quietLogger(), strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 10, capacity)
	require.Len(t, items, 4)
	assert.Equal(t, Item{Name: "B", Weight: 4, Value: 40}, items[1])
	assert.Equal(t, "D", items[3].Name)
}

func TestParseBadCapacity(t *testing.T) {
	_, _, err := Parse(quietLogger(), strings.NewReader("A, 1, 1\nlimit, heavy\n"))
	assert.Error(t, err)

	_, _, err = Parse(quietLogger(), strings.NewReader("A, 1, 1\nlimit, 0\n"))
	assert.ErrorIs(t, err, ErrNoCapacity)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.txt")
	second := filepath.Join(dir, "second.txt")
	require.NoError(t, os.WriteFile(first, []byte("A, 5, 10\nB, 4, 40\nlimit, 8\n"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("C, 6, 30\nD, 3, 50\nlimit, 10\n"), 0644))

	k, err := Load(quietLogger(), first, second)
	require.NoError(t, err)

	assert.Equal(t, 10, k.Capacity())
	assert.Equal(t, 4, k.Len())
	assert.Equal(t, sample(t).Items(), k.Items())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	noCapacity := filepath.Join(dir, "items.txt")
	require.NoError(t, os.WriteFile(noCapacity, []byte("A, 5, 10\n"), 0644))

	_, err := Load(quietLogger(), noCapacity)
	assert.ErrorIs(t, err, ErrNoCapacity)

	_, err = Load(quietLogger(), filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)

	_, err = Load(quietLogger())
	assert.Error(t, err)
}

func TestEvolutionFindsOptimum(t *testing.T) {
	for _, method := range []string{types.SelectionEqual, types.SelectionReplacement} {
		t.Run(method, func(t *testing.T) {
			for _, seed := range []int64{1, 2, 3, 4} {
				cfg := types.EngineConfig{
					PopulationSize:   50,
					IntermediateSize: 100,
					MutationRate:     0.01,
					Skip:             0.1,
					CrossoverMethod:  types.CrossoverUniform,
					SelectionMethod:  method,
					MaxGenerations:   100,
					Seed:             seed,
				}
				recorder := &bestRecorder{}
				g, err := genetic.New(cfg, sample(t), genetic.WithLogger(quietLogger()), genetic.WithObserver(recorder))
				require.NoError(t, err)

				result, err := g.Run(context.Background())
				require.NoError(t, err)

				assert.Equal(t, "0101", string(result.Best.Genes), "seed %d", seed)
				assert.Equal(t, genetic.Valid(0.9), result.Best.Fitness)
				for i := 1; i < len(recorder.best); i++ {
					assert.False(t, recorder.best[i-1].Better(recorder.best[i]), "seed %d generation %d", seed, i)
				}
			}
		})
	}
}

type bestRecorder struct {
	best []genetic.Fitness
}

func (r *bestRecorder) ObserveGeneration(stats genetic.GenerationStats, _ []genetic.Genotype) {
	r.best = append(r.best, stats.BestEver.Fitness)
}
