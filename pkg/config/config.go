package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/AlexanderDJackson/cs467/internal/constants"
	"github.com/AlexanderDJackson/cs467/internal/types"
)

// Manager handles configuration loading and validation
type Manager struct {
	config *types.Config
	path   string
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		config: getDefaultConfig(),
	}
}

// Load loads configuration from a YAML or TOML file, chosen by extension,
// and validates it
func (m *Manager) Load(path string) error {
	if err := m.Read(path); err != nil {
		return err
	}

	// Validate configuration
	if err := Validate(m.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	return nil
}

// Read loads configuration from a file and applies environment overrides
// without validating. Callers that override values afterwards validate once
// they are done.
func (m *Manager) Read(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	config := getDefaultConfig()
	if err := unmarshal(path, data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	if err := m.applyEnvOverrides(config); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	m.config = config
	m.path = path
	return nil
}

// LoadEnv applies environment variable overrides to the current configuration
func (m *Manager) LoadEnv() error {
	return m.applyEnvOverrides(m.config)
}

// Save saves configuration to a file
func (m *Manager) Save(path string) error {
	data, err := marshal(path, m.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *types.Config {
	return m.config
}

// SetConfig updates the configuration
func (m *Manager) SetConfig(config *types.Config) {
	m.config = config
}

// GetPath returns the configuration file path
func (m *Manager) GetPath() string {
	return m.path
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func unmarshal(path string, data []byte, config *types.Config) error {
	if isTOML(path) {
		return toml.Unmarshal(data, config)
	}
	return yaml.Unmarshal(data, config)
}

func marshal(path string, config *types.Config) ([]byte, error) {
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(config); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return yaml.Marshal(config)
}

// applyEnvOverrides applies environment variable overrides to the configuration
func (m *Manager) applyEnvOverrides(config *types.Config) error {
	if population := os.Getenv(constants.EnvPopulation); population != "" {
		if _, err := fmt.Sscanf(population, "%d", &config.Engine.PopulationSize); err != nil {
			return fmt.Errorf("invalid %s: %w", constants.EnvPopulation, err)
		}
	}
	if intermediate := os.Getenv(constants.EnvIntermediate); intermediate != "" {
		if _, err := fmt.Sscanf(intermediate, "%d", &config.Engine.IntermediateSize); err != nil {
			return fmt.Errorf("invalid %s: %w", constants.EnvIntermediate, err)
		}
	}
	if rate := os.Getenv(constants.EnvMutationRate); rate != "" {
		if _, err := fmt.Sscanf(rate, "%g", &config.Engine.MutationRate); err != nil {
			return fmt.Errorf("invalid %s: %w", constants.EnvMutationRate, err)
		}
	}
	if generations := os.Getenv(constants.EnvMaxGenerations); generations != "" {
		if _, err := fmt.Sscanf(generations, "%d", &config.Engine.MaxGenerations); err != nil {
			return fmt.Errorf("invalid %s: %w", constants.EnvMaxGenerations, err)
		}
	}
	if seed := os.Getenv(constants.EnvSeed); seed != "" {
		if _, err := fmt.Sscanf(seed, "%d", &config.Engine.Seed); err != nil {
			return fmt.Errorf("invalid %s: %w", constants.EnvSeed, err)
		}
	}
	if workers := os.Getenv(constants.EnvWorkers); workers != "" {
		if _, err := fmt.Sscanf(workers, "%d", &config.Evaluator.ParallelWorkers); err != nil {
			return fmt.Errorf("invalid %s: %w", constants.EnvWorkers, err)
		}
	}
	if level := os.Getenv(constants.EnvLogLevel); level != "" {
		config.Output.LogLevel = strings.ToLower(level)
	}
	if report := os.Getenv(constants.EnvReport); report != "" {
		config.Output.ReportPath = report
	}

	return nil
}

// Validate validates the configuration and fills in derived defaults
func Validate(config *types.Config) error {
	engine := &config.Engine

	// Validate engine configuration
	if engine.PopulationSize <= 0 {
		return fmt.Errorf("population size must be positive")
	}
	if engine.IntermediateSize <= 0 {
		engine.IntermediateSize = 2 * engine.PopulationSize
	}
	if engine.MutationRate < 0 || engine.MutationRate > 1 {
		return fmt.Errorf("mutation rate must be between 0 and 1")
	}
	if engine.Skip < 0 || engine.Skip > 1 {
		return fmt.Errorf("skip probability must be between 0 and 1")
	}
	if engine.CrowdingMutationRate < 0 || engine.CrowdingMutationRate > 1 {
		return fmt.Errorf("crowding mutation rate must be between 0 and 1")
	}
	if engine.MaxGenerations < 0 {
		return fmt.Errorf("max generations must not be negative")
	}
	if len(engine.Genitors) > engine.PopulationSize {
		return fmt.Errorf("%d genitors exceed the population size of %d", len(engine.Genitors), engine.PopulationSize)
	}

	switch engine.CrossoverMethod {
	case types.CrossoverOne, types.CrossoverTwo, types.CrossoverUniform:
	default:
		return fmt.Errorf("unknown crossover method %q", engine.CrossoverMethod)
	}
	switch engine.SelectionMethod {
	case types.SelectionEqual, types.SelectionReplacement, types.SelectionRemainder:
	default:
		return fmt.Errorf("unknown selection method %q", engine.SelectionMethod)
	}

	// Validate problem configuration
	switch config.Problem.Kind {
	case types.ProblemKnapsack, types.ProblemMarket:
	default:
		return fmt.Errorf("unknown problem %q", config.Problem.Kind)
	}

	// Validate evaluator configuration
	if config.Evaluator.ParallelWorkers <= 0 {
		return fmt.Errorf("parallel workers must be positive")
	}

	// Validate output configuration
	if config.Output.Best <= 0 {
		return fmt.Errorf("number of best genotypes to report must be positive")
	}
	if _, err := logrus.ParseLevel(config.Output.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *types.Config {
	// IntermediateSize stays zero so Validate sizes the pool from the final
	// population size
	return &types.Config{
		Engine: types.EngineConfig{
			PopulationSize:       constants.DefaultPopulationSize,
			MutationRate:         constants.DefaultMutationRate,
			Skip:                 constants.DefaultSkip,
			CrossoverMethod:      types.CrossoverUniform,
			SelectionMethod:      types.SelectionEqual,
			CrowdingRatio:        constants.DefaultCrowdingRatio,
			CrowdingMutationRate: constants.DefaultCrowdingMutationRate,
			MaxGenerations:       constants.DefaultMaxGenerations,
			WeightFloor:          constants.DefaultWeightFloor,
		},
		Problem: types.ProblemConfig{
			Kind: types.ProblemKnapsack,
		},
		Evaluator: types.EvaluatorConfig{
			ParallelWorkers: constants.DefaultParallelWorkers,
		},
		Output: types.OutputConfig{
			Best:     constants.DefaultBest,
			LogLevel: constants.DefaultLogLevel,
		},
	}
}

// DefaultConfig returns a fresh copy of the default configuration
func DefaultConfig() *types.Config {
	return getDefaultConfig()
}

// CreateDefaultConfig creates a default configuration file
func CreateDefaultConfig(path string) error {
	manager := NewManager()
	return manager.Save(path)
}
