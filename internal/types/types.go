package types

// Config represents the main configuration
type Config struct {
	Engine    EngineConfig    `yaml:"engine" toml:"engine" json:"engine"`
	Problem   ProblemConfig   `yaml:"problem" toml:"problem" json:"problem"`
	Evaluator EvaluatorConfig `yaml:"evaluator" toml:"evaluator" json:"evaluator"`
	Output    OutputConfig    `yaml:"output" toml:"output" json:"output"`
}

// EngineConfig represents the generation driver configuration
type EngineConfig struct {
	PopulationSize       int      `yaml:"population_size" toml:"population_size" json:"population_size"`
	IntermediateSize     int      `yaml:"intermediate_size" toml:"intermediate_size" json:"intermediate_size"`
	MutationRate         float64  `yaml:"mutation_rate" toml:"mutation_rate" json:"mutation_rate"`
	Skip                 float64  `yaml:"skip" toml:"skip" json:"skip"`
	CrossoverMethod      string   `yaml:"crossover_method" toml:"crossover_method" json:"crossover_method"`
	SelectionMethod      string   `yaml:"selection_method" toml:"selection_method" json:"selection_method"`
	DetectCrowding       float64  `yaml:"detect_crowding" toml:"detect_crowding" json:"detect_crowding"`
	CrowdingRatio        float64  `yaml:"crowding_ratio" toml:"crowding_ratio" json:"crowding_ratio"`
	CrowdingMutationRate float64  `yaml:"crowding_mutation_rate" toml:"crowding_mutation_rate" json:"crowding_mutation_rate"`
	ForceMutation        bool     `yaml:"force_mutation" toml:"force_mutation" json:"force_mutation"`
	ForceCreate          bool     `yaml:"force_create" toml:"force_create" json:"force_create"`
	Evaluate             bool     `yaml:"evaluate" toml:"evaluate" json:"evaluate"`
	MaxGenerations       int      `yaml:"max_generations" toml:"max_generations" json:"max_generations"`
	Genitors             []string `yaml:"genitors,omitempty" toml:"genitors,omitempty" json:"genitors,omitempty"`
	Seed                 int64    `yaml:"seed" toml:"seed" json:"seed"`

	// Selection tuning
	WeightFloor        float64 `yaml:"weight_floor" toml:"weight_floor" json:"weight_floor"`
	RemainderMaxPasses int     `yaml:"remainder_max_passes" toml:"remainder_max_passes" json:"remainder_max_passes"`
}

// ProblemConfig selects the optimization problem and its input data
type ProblemConfig struct {
	Kind  string   `yaml:"kind" toml:"kind" json:"kind"`
	Files []string `yaml:"files,omitempty" toml:"files,omitempty" json:"files,omitempty"`
}

// EvaluatorConfig represents fitness evaluator configuration
type EvaluatorConfig struct {
	ParallelWorkers int `yaml:"parallel_workers" toml:"parallel_workers" json:"parallel_workers"`
}

// OutputConfig controls reporting of a run
type OutputConfig struct {
	Best        int    `yaml:"best" toml:"best" json:"best"`
	ReportPath  string `yaml:"report_path" toml:"report_path" json:"report_path"`
	LogLevel    string `yaml:"log_level" toml:"log_level" json:"log_level"`
	MetricsAddr string `yaml:"metrics_addr" toml:"metrics_addr" json:"metrics_addr"`
}

// Crossover methods
const (
	CrossoverOne     = "one"
	CrossoverTwo     = "two"
	CrossoverUniform = "uniform"
)

// Selection methods
const (
	SelectionEqual       = "equal"
	SelectionReplacement = "replacement"
	SelectionRemainder   = "remainder"
)

// Problem kinds
const (
	ProblemKnapsack = "knapsack"
	ProblemMarket   = "market"
)
