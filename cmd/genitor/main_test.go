package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexanderDJackson/cs467/internal/types"
	"github.com/AlexanderDJackson/cs467/pkg/database"
)

func writeItems(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "items.txt")
	data := "A, 5, 10\nB, 4, 40\nC, 6, 30\nD, 3, 50\nlimit, 10\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestRunKnapsack(t *testing.T) {
	items := writeItems(t)
	report := filepath.Join(t.TempDir(), "out", "report.json")
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{
		"--file", items,
		"-p", "30", "-M", "40", "-b", "3",
		"-s", "replacement", "-x", "two",
		"--seed", "5", "--workers", "2",
		"--report", report,
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "Best Solution: 0101: (weight: 7, value: 90, fitness: 0.9)")
	assert.Contains(t, out, "Top 3 genotypes:")
	assert.Contains(t, out, "40 generations")

	loaded, err := database.LoadReport(report)
	require.NoError(t, err)
	assert.Equal(t, 40, loaded.Generations)
	assert.Len(t, loaded.HallOfFame, 3)
	assert.Equal(t, types.SelectionReplacement, loaded.Config.Engine.SelectionMethod)
	assert.Equal(t, 2, loaded.Config.Evaluator.ParallelWorkers)
}

func TestRunEvaluateGenitors(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{
		"--file", writeItems(t), "-e", "-g", "1111,0011",
	}, &stdout, &stderr)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "Best Solution: 0011: (weight: 9, value: 80")
	assert.Contains(t, stdout.String(), "0 generations")
}

func TestRunConfigFileWithFlagOverride(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "genitor.toml")
	data := `
[engine]
population_size = 10
max_generations = 5
seed = 9

[problem]
kind = "knapsack"
files = ["` + filepath.ToSlash(writeItems(t)) + `"]
`
	require.NoError(t, os.WriteFile(configPath, []byte(data), 0644))
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"--config", configPath, "-M", "3"}, &stdout, &stderr)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "3 generations")
}

func TestRunGenitorLengthMismatch(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"--file", writeItems(t), "-g", "101"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "genitor genotype is incorrect length")
}

func TestRunInvalidArguments(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Error(t, run(context.Background(), []string{"--no-such-flag"}, &stdout, &stderr))
	assert.Error(t, run(context.Background(), []string{"-s", "tournament", "--file", "x"}, &stdout, &stderr))
	assert.Error(t, run(context.Background(), []string{"--file", filepath.Join(t.TempDir(), "missing.txt")}, &stdout, &stderr))
	assert.Error(t, run(context.Background(), nil, &stdout, &stderr))
}

func TestRunInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var stdout, stderr bytes.Buffer

	err := run(ctx, []string{"--file", writeItems(t)}, &stdout, &stderr)
	assert.ErrorIs(t, err, errInterrupted)
}

func TestRunVersionAndHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer

	require.NoError(t, run(context.Background(), []string{"--version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "genitor")

	require.NoError(t, run(context.Background(), []string{"--help"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "--mutation-rate")
}

func TestApplyOnlyChangedFlags(t *testing.T) {
	o, err := parseFlags([]string{"-m", "0.3", "--genitors", "01,10"}, &bytes.Buffer{})
	require.NoError(t, err)

	cfg := types.Config{Engine: types.EngineConfig{PopulationSize: 7, MutationRate: 0.1}}
	o.apply(&cfg)

	assert.Equal(t, 7, cfg.Engine.PopulationSize)
	assert.Equal(t, 0.3, cfg.Engine.MutationRate)
	assert.Equal(t, []string{"01", "10"}, cfg.Engine.Genitors)
}

func TestLoadConfigIntermediateFollowsPopulation(t *testing.T) {
	o, err := parseFlags([]string{"-p", "80", "--file", "x"}, &bytes.Buffer{})
	require.NoError(t, err)

	cfg, err := loadConfig(o)
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.Engine.PopulationSize)
	assert.Equal(t, 160, cfg.Engine.IntermediateSize)

	o, err = parseFlags([]string{"-p", "80", "-i", "30", "--file", "x"}, &bytes.Buffer{})
	require.NoError(t, err)

	cfg, err = loadConfig(o)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Engine.IntermediateSize)
}

func TestLoadConfigValidatesAfterFlags(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "genitor.toml")
	data := `
[engine]
population_size = 1
genitors = ["0101", "0011"]
`
	require.NoError(t, os.WriteFile(configPath, []byte(data), 0644))

	o, err := parseFlags([]string{"--config", configPath}, &bytes.Buffer{})
	require.NoError(t, err)
	_, err = loadConfig(o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceed the population size")

	o, err = parseFlags([]string{"--config", configPath, "-p", "6"}, &bytes.Buffer{})
	require.NoError(t, err)
	cfg, err := loadConfig(o)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Engine.PopulationSize)
	assert.Equal(t, 12, cfg.Engine.IntermediateSize)
	assert.Equal(t, []string{"0101", "0011"}, cfg.Engine.Genitors)
}
