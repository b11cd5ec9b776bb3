package problems

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexanderDJackson/cs467/internal/types"
	"github.com/AlexanderDJackson/cs467/pkg/problems/knapsack"
	"github.com/AlexanderDJackson/cs467/pkg/problems/market"
)

func TestNew(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	dir := t.TempDir()

	items := filepath.Join(dir, "items.txt")
	require.NoError(t, os.WriteFile(items, []byte("A, 1, 2\nB, 2, 3\nlimit, 2\n"), 0644))
	prices := filepath.Join(dir, "prices.csv")
	require.NoError(t, os.WriteFile(prices, []byte("close\n1\n2\n3\n2\n1\n2\n"), 0644))

	problem, err := New(logger, types.ProblemConfig{Kind: types.ProblemKnapsack, Files: []string{items}})
	require.NoError(t, err)
	assert.IsType(t, &knapsack.Knapsack{}, problem)
	assert.Equal(t, 2, problem.Len())

	problem, err = New(logger, types.ProblemConfig{Kind: types.ProblemMarket, Files: []string{prices}})
	require.NoError(t, err)
	assert.IsType(t, &market.Market{}, problem)
	assert.Equal(t, 16, problem.Len())

	_, err = New(logger, types.ProblemConfig{Kind: "tsp"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown problem")
}
