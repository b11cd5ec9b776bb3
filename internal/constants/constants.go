package constants

// Application constants
const (
	Name        = "genitor"
	Version     = "1.0.0"
	Description = "Genetic algorithm to generate optimal solutions"

	// Default configuration values
	DefaultPopulationSize  = 50
	DefaultMutationRate    = 0.01
	DefaultSkip            = 0.1
	DefaultMaxGenerations  = 100
	DefaultBest            = 1
	DefaultParallelWorkers = 1
	DefaultLogLevel        = "warning"

	// Crowding defaults
	DefaultCrowdingRatio        = 0.8 // share of identical genes in a mating pair
	DefaultCrowdingMutationRate = 0.2

	// Selection defaults
	DefaultWeightFloor  = 0.01
	AverageFitnessFloor = 0.0000000000001

	// Attempts per population slot when force creating valid genitors
	ForceCreateAttempts = 1000

	// Exit codes
	ExitSuccess   = 0
	ExitError     = 1
	ExitInterrupt = 2
)

// Environment overrides
const (
	EnvPopulation     = "GENITOR_POPULATION"
	EnvIntermediate   = "GENITOR_INTERMEDIATE"
	EnvMutationRate   = "GENITOR_MUTATION_RATE"
	EnvMaxGenerations = "GENITOR_MAX_GENERATIONS"
	EnvSeed           = "GENITOR_SEED"
	EnvWorkers        = "GENITOR_WORKERS"
	EnvLogLevel       = "GENITOR_LOG_LEVEL"
	EnvReport         = "GENITOR_REPORT"
)
