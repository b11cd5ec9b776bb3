package genetic

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AlexanderDJackson/cs467/internal/constants"
	"github.com/AlexanderDJackson/cs467/internal/types"
)

// Generation drives the evolution of a population across generations.
// It is not safe for concurrent use.
type Generation struct {
	config  types.EngineConfig
	problem Problem

	selector   Selector
	reproducer Reproducer
	evaluator  Evaluator
	observers  []Observer

	rng    *rand.Rand
	logger *logrus.Logger

	// Evolution state
	population   []Genotype
	intermediate []Genotype
	mutationRate float64
	populated    bool
	generation   int
	evaluations  int

	best    Genotype
	hasBest bool
}

// RunResult is the outcome of Run.
type RunResult struct {
	Best        Genotype `json:"best"`
	Generations int      `json:"generations"`
	Evaluations int      `json:"evaluations"`
	Interrupted bool     `json:"interrupted"`
}

// Option configures a Generation.
type Option func(*Generation)

// WithLogger sets the logger used for generation reports.
func WithLogger(logger *logrus.Logger) Option {
	return func(g *Generation) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithRand sets the random source. It overrides the configured seed.
func WithRand(rng *rand.Rand) Option {
	return func(g *Generation) {
		if rng != nil {
			g.rng = rng
		}
	}
}

// WithEvaluator sets the fitness evaluator. The default is SequentialEvaluator.
func WithEvaluator(evaluator Evaluator) Option {
	return func(g *Generation) {
		if evaluator != nil {
			g.evaluator = evaluator
		}
	}
}

// WithObserver registers an observer of generation statistics.
func WithObserver(observer Observer) Option {
	return func(g *Generation) {
		if observer != nil {
			g.observers = append(g.observers, observer)
		}
	}
}

// WithSelector replaces the configured selection strategy.
func WithSelector(selector Selector) Option {
	return func(g *Generation) {
		if selector != nil {
			g.selector = selector
		}
	}
}

// New creates an uninitialized Generation for problem. Call Populate, or
// Run, to create the initial population.
func New(config types.EngineConfig, problem Problem, opts ...Option) (*Generation, error) {
	if problem == nil {
		return nil, fmt.Errorf("%w: problem is required", ErrInvalidConfig)
	}
	alphabet := problem.Alphabet()
	if len(alphabet) == 0 {
		return nil, ErrEmptyAlphabet
	}
	if problem.Len() <= 0 {
		return nil, fmt.Errorf("%w: genotype length must be positive", ErrInvalidConfig)
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	method, err := ParseCrossoverMethod(config.CrossoverMethod)
	if err != nil {
		return nil, err
	}
	selector, err := NewSelector(config)
	if err != nil {
		return nil, err
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	g := &Generation{
		config:       config,
		problem:      problem,
		selector:     selector,
		evaluator:    SequentialEvaluator{},
		rng:          rand.New(rand.NewSource(seed)),
		logger:       logrus.New(),
		mutationRate: config.MutationRate,
		reproducer: Reproducer{
			Method:   method,
			Alphabet: alphabet,
			Length:   problem.Len(),
			Skip:     config.Skip,
			Force:    config.ForceMutation,
		},
	}
	if m, ok := problem.(Mutator); ok {
		g.reproducer.Mutator = m
	}

	for _, opt := range opts {
		opt(g)
	}

	g.logger.WithFields(logrus.Fields{
		"population":   config.PopulationSize,
		"intermediate": config.IntermediateSize,
		"selection":    g.selector.Name(),
		"crossover":    method,
		"mutation":     config.MutationRate,
		"skip":         config.Skip,
		"seed":         seed,
	}).Debug("Initialized generation")

	return g, nil
}

// validate checks cfg and fills in defaults for unset optional values.
func validate(cfg *types.EngineConfig) error {
	if cfg.PopulationSize <= 0 {
		return fmt.Errorf("%w: population size must be positive", ErrInvalidConfig)
	}
	if cfg.IntermediateSize <= 0 {
		cfg.IntermediateSize = 2 * cfg.PopulationSize
	}
	if cfg.MutationRate < 0 || cfg.MutationRate > 1 {
		return fmt.Errorf("%w: mutation rate must be in [0, 1]", ErrInvalidConfig)
	}
	if cfg.Skip < 0 || cfg.Skip > 1 {
		return fmt.Errorf("%w: skip probability must be in [0, 1]", ErrInvalidConfig)
	}
	if cfg.MaxGenerations < 0 {
		return fmt.Errorf("%w: max generations must not be negative", ErrInvalidConfig)
	}
	if len(cfg.Genitors) > cfg.PopulationSize {
		return fmt.Errorf("%w: %d genitors exceed population size %d",
			ErrInvalidConfig, len(cfg.Genitors), cfg.PopulationSize)
	}
	if cfg.CrossoverMethod == "" {
		cfg.CrossoverMethod = types.CrossoverUniform
	}
	if cfg.SelectionMethod == "" {
		cfg.SelectionMethod = types.SelectionEqual
	}
	if cfg.CrowdingRatio <= 0 {
		cfg.CrowdingRatio = constants.DefaultCrowdingRatio
	}
	if cfg.CrowdingMutationRate <= 0 {
		cfg.CrowdingMutationRate = constants.DefaultCrowdingMutationRate
	}
	if cfg.WeightFloor <= 0 {
		cfg.WeightFloor = constants.DefaultWeightFloor
	}
	return nil
}

// Populate builds and evaluates the initial population from the configured
// genitors, topping it up with random genotypes unless only evaluating.
func (g *Generation) Populate(ctx context.Context) error {
	length := g.problem.Len()
	alphabet := g.problem.Alphabet()

	population := make([]Genotype, 0, g.config.PopulationSize)
	for _, genitor := range g.config.Genitors {
		if len(genitor) != length {
			return fmt.Errorf("%w: %q has %d genes, want %d", ErrLengthMismatch, genitor, len(genitor), length)
		}
		population = append(population, NewGenotype([]byte(genitor)))
	}

	if !g.config.Evaluate {
		g.logger.Debug("Generating genitors")
		for len(population) < g.config.PopulationSize {
			population = append(population, g.newGenitor(length, alphabet))
		}
	}

	start := time.Now()
	if err := g.evaluate(ctx, population); err != nil {
		return err
	}
	SortByFitness(population)

	g.population = population
	g.populated = true
	g.updateBest()
	g.report(GenerationStats{
		Generation:   0,
		MutationRate: g.mutationRate,
		Evaluations:  len(population),
		Duration:     time.Since(start),
	})
	return nil
}

// newGenitor draws a random genotype. With force create it keeps drawing
// until the genotype is valid or the attempts run out.
func (g *Generation) newGenitor(length int, alphabet []byte) Genotype {
	genitor := RandomGenotype(g.rng, length, alphabet)
	if !g.config.ForceCreate {
		return genitor
	}

	for attempt := 1; ; attempt++ {
		genitor.Evaluate(g.problem)
		g.evaluations++
		if genitor.Fitness.Valid || attempt >= constants.ForceCreateAttempts {
			break
		}
		genitor = RandomGenotype(g.rng, length, alphabet)
	}
	if !genitor.Fitness.Valid {
		g.logger.WithField("attempts", constants.ForceCreateAttempts).Warn("Failed to force create a valid genitor")
	}
	return genitor
}

// Step produces the next generation: select the mating pool, adapt the
// mutation rate to crowding, reproduce until the population is full and
// evaluate the children. The current population is left untouched on error.
func (g *Generation) Step(ctx context.Context) (GenerationStats, error) {
	if !g.populated {
		return GenerationStats{}, fmt.Errorf("%w: population not initialized", ErrInvalidConfig)
	}

	start := time.Now()
	length := g.problem.Len()
	for _, genotype := range g.population {
		if genotype.Len() != length {
			return GenerationStats{}, fmt.Errorf("%w: %d genes, want %d", ErrLengthMismatch, genotype.Len(), length)
		}
	}

	// fill the intermediate population
	pool, err := g.selector.Select(g.rng, g.population, g.config.IntermediateSize)
	if err != nil {
		return GenerationStats{}, fmt.Errorf("failed to select genitors: %w", err)
	}
	SortByFitness(pool)
	g.intermediate = pool

	if g.logger.IsLevelEnabled(logrus.DebugLevel) {
		g.logger.Debug("Intermediate population:")
		for _, genotype := range pool {
			g.logger.Debugf("\t%s", genotype)
		}
	}

	old := g.mutationRate
	crowded := false
	if g.config.DetectCrowding > 0 && Crowded(pool, g.config.CrowdingRatio) {
		crowded = true
		g.mutationRate = g.config.CrowdingMutationRate
		g.logger.WithField("mutation_rate", g.mutationRate).Debug("Crowding detected! Ramping up mutation rate for a generation.")
	}
	rate := g.mutationRate

	reproducer := g.reproducer
	reproducer.MutationRate = rate

	next := make([]Genotype, 0, g.config.PopulationSize)
	for len(next) < g.config.PopulationSize {
		a := pool[g.rng.Intn(len(pool))]
		b := pool[g.rng.Intn(len(pool))]

		c0, c1, err := reproducer.Reproduce(g.rng, a, b)
		if err != nil {
			g.mutationRate = old
			return GenerationStats{}, fmt.Errorf("failed to reproduce: %w", err)
		}
		g.logger.Tracef("Produced children: %s, %s", c0.Genes, c1.Genes)

		next = append(next, c0)
		if len(next) < g.config.PopulationSize {
			next = append(next, c1)
		}
	}

	g.mutationRate = old

	evaluated := 0
	for _, child := range next {
		if child.Stale() {
			evaluated++
		}
	}
	if err := g.evaluate(ctx, next); err != nil {
		return GenerationStats{}, err
	}

	// prioritize the best performers
	SortByFitness(next)
	g.population = next
	g.generation++
	g.updateBest()

	stats := GenerationStats{
		Generation:   g.generation,
		Crowded:      crowded,
		MutationRate: rate,
		Evaluations:  evaluated,
		Duration:     time.Since(start),
	}
	return g.report(stats), nil
}

// Run evolves the population for the configured number of generations. A
// cancelled context stops the run between generations and returns the best
// genotype observed so far with Interrupted set.
func (g *Generation) Run(ctx context.Context) (RunResult, error) {
	result := RunResult{}
	if !g.populated {
		if err := g.Populate(ctx); err != nil {
			if !isCancellation(err) {
				return RunResult{}, fmt.Errorf("failed to populate: %w", err)
			}
			result.Interrupted = true
		}
	}

	if !g.config.Evaluate && !result.Interrupted {
		for g.generation < g.config.MaxGenerations {
			if ctx.Err() != nil {
				result.Interrupted = true
				break
			}

			if _, err := g.Step(ctx); err != nil {
				if isCancellation(err) {
					result.Interrupted = true
					break
				}
				result.Best, _ = g.Best()
				result.Generations = g.generation
				result.Evaluations = g.evaluations
				return result, err
			}
		}
	}

	if result.Interrupted {
		g.logger.WithField("generation", g.generation).Warn("Run interrupted, returning best genotype so far")
	}

	result.Best, _ = g.Best()
	result.Generations = g.generation
	result.Evaluations = g.evaluations
	return result, nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (g *Generation) evaluate(ctx context.Context, genotypes []Genotype) error {
	for _, genotype := range genotypes {
		if genotype.Stale() {
			g.evaluations++
		}
	}
	if err := g.evaluator.Evaluate(ctx, g.problem, genotypes); err != nil {
		return fmt.Errorf("failed to evaluate population: %w", err)
	}
	return nil
}

func (g *Generation) updateBest() {
	if len(g.population) == 0 {
		return
	}
	top := g.population[Fittest(g.population)]
	if !g.hasBest || top.Fitness.Better(g.best.Fitness) {
		g.best = top.Clone()
		g.hasBest = true
	}
}

// report completes stats, logs the generation and notifies observers.
func (g *Generation) report(stats GenerationStats) GenerationStats {
	summarize(&stats, g.population)
	stats.BestEver = g.best.Clone()

	g.logger.WithFields(logrus.Fields{
		"generation": stats.Generation,
		"best":       stats.Best.Fitness.String(),
		"best_ever":  stats.BestEver.Fitness.String(),
		"invalid":    stats.Invalid,
		"crowded":    stats.Crowded,
	}).Info("Generation completed")

	if g.logger.IsLevelEnabled(logrus.DebugLevel) {
		for _, genotype := range g.population {
			if genotype.Fitness.Valid {
				g.logger.Debug(g.problem.Format(genotype))
			} else {
				g.logger.Debugf("%s", genotype)
			}
		}
	}

	for _, observer := range g.observers {
		observer.ObserveGeneration(stats, g.population)
	}
	return stats
}

// Best returns the best genotype observed over the whole run.
func (g *Generation) Best() (Genotype, bool) {
	if !g.hasBest {
		return Genotype{}, false
	}
	return g.best.Clone(), true
}

// Population returns a copy of the current population, best first.
func (g *Generation) Population() []Genotype {
	return cloneAll(g.population)
}

// Intermediate returns a copy of the last mating pool, best first.
func (g *Generation) Intermediate() []Genotype {
	return cloneAll(g.intermediate)
}

// Number returns the number of completed generations.
func (g *Generation) Number() int {
	return g.generation
}

// MutationRate returns the configured mutation rate.
func (g *Generation) MutationRate() float64 {
	return g.mutationRate
}

// Evaluations returns the number of fitness evaluations performed so far.
func (g *Generation) Evaluations() int {
	return g.evaluations
}

func cloneAll(genotypes []Genotype) []Genotype {
	out := make([]Genotype, len(genotypes))
	for i := range genotypes {
		out[i] = genotypes[i].Clone()
	}
	return out
}
