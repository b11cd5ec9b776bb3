package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/AlexanderDJackson/cs467/internal/constants"
	"github.com/AlexanderDJackson/cs467/internal/types"
	"github.com/AlexanderDJackson/cs467/pkg/config"
	"github.com/AlexanderDJackson/cs467/pkg/database"
	"github.com/AlexanderDJackson/cs467/pkg/evaluator"
	"github.com/AlexanderDJackson/cs467/pkg/genetic"
	"github.com/AlexanderDJackson/cs467/pkg/metrics"
	"github.com/AlexanderDJackson/cs467/pkg/problems"
)

var errInterrupted = errors.New("run interrupted")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	switch {
	case err == nil:
		os.Exit(constants.ExitSuccess)
	case errors.Is(err, errInterrupted):
		os.Exit(constants.ExitInterrupt)
	default:
		logrus.WithError(err).Fatal("genitor failed")
	}
}

// options holds the parsed command line. Values only override the
// configuration when the flag was set explicitly.
type options struct {
	flags *flag.FlagSet

	configPath   string
	version      bool
	best         int
	forceCreate  bool
	crowding     float64
	evaluate     bool
	forceMutate  bool
	files        []string
	genitors     []string
	intermediate int
	skip         float64
	mutation     float64
	generations  int
	population   int
	problem      string
	selection    string
	crossover    string
	seed         int64
	workers      int
	report       string
	metricsAddr  string
	logLevel     string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{flags: flag.NewFlagSet(constants.Name, flag.ContinueOnError)}
	fs := o.flags
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "%s: %s\n\nUsage:\n", constants.Name, constants.Description)
		fs.PrintDefaults()
	}

	fs.StringVar(&o.configPath, "config", "", "YAML or TOML configuration file")
	fs.BoolVar(&o.version, "version", false, "Print the version and exit")
	fs.IntVarP(&o.best, "best", "b", constants.DefaultBest, "Print n best genotypes from all generations")
	fs.BoolVarP(&o.forceCreate, "force-create", "c", false, "Force create genitors until valid")
	fs.Float64VarP(&o.crowding, "detect-crowding", "d", 0, "Detect crowding and ramp up mutation rate")
	fs.BoolVarP(&o.evaluate, "evaluate", "e", false, "Evaluate the fitness of the given genitors")
	fs.BoolVarP(&o.forceMutate, "force-mutation", "f", false, "Force mutation if one occurs")
	fs.StringSliceVar(&o.files, "file", nil, "The files needed for the problem")
	fs.StringSliceVarP(&o.genitors, "genitors", "g", nil, "The initial population of genitors")
	fs.IntVarP(&o.intermediate, "intermediate-population", "i", 0, "The number of genotypes in each intermediate population (default twice the population)")
	fs.Float64VarP(&o.skip, "skip", "k", constants.DefaultSkip, "Chance of skipping reproduction and adding genitors to next generation")
	fs.Float64VarP(&o.mutation, "mutation-rate", "m", constants.DefaultMutationRate, "The mutation rate")
	fs.IntVarP(&o.generations, "max-generations", "M", constants.DefaultMaxGenerations, "The maximum number of generations")
	fs.IntVarP(&o.population, "population", "p", constants.DefaultPopulationSize, "The number of genitors in each population")
	fs.StringVarP(&o.problem, "problem", "r", types.ProblemKnapsack, "The problem for which to generate solutions (knapsack, market)")
	fs.StringVarP(&o.selection, "selection-method", "s", types.SelectionEqual, "Selection method (equal, replacement, remainder)")
	fs.StringVarP(&o.crossover, "sex-method", "x", types.CrossoverUniform, "Crossover method (one, two, uniform)")
	fs.Int64Var(&o.seed, "seed", 0, "Random seed, 0 seeds from the clock")
	fs.IntVar(&o.workers, "workers", constants.DefaultParallelWorkers, "Parallel fitness evaluation workers")
	fs.StringVar(&o.report, "report", "", "Write a JSON run report to this path")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	fs.StringVar(&o.logLevel, "log-level", constants.DefaultLogLevel, "Log level (trace, debug, info, warning, error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return o, nil
}

// apply copies every explicitly set flag into cfg.
func (o *options) apply(cfg *types.Config) {
	changed := o.flags.Changed

	if changed("best") {
		cfg.Output.Best = o.best
	}
	if changed("force-create") {
		cfg.Engine.ForceCreate = o.forceCreate
	}
	if changed("detect-crowding") {
		cfg.Engine.DetectCrowding = o.crowding
	}
	if changed("evaluate") {
		cfg.Engine.Evaluate = o.evaluate
	}
	if changed("force-mutation") {
		cfg.Engine.ForceMutation = o.forceMutate
	}
	if changed("file") {
		cfg.Problem.Files = o.files
	}
	if changed("genitors") {
		cfg.Engine.Genitors = o.genitors
	}
	if changed("intermediate-population") {
		cfg.Engine.IntermediateSize = o.intermediate
	}
	if changed("skip") {
		cfg.Engine.Skip = o.skip
	}
	if changed("mutation-rate") {
		cfg.Engine.MutationRate = o.mutation
	}
	if changed("max-generations") {
		cfg.Engine.MaxGenerations = o.generations
	}
	if changed("population") {
		cfg.Engine.PopulationSize = o.population
	}
	if changed("problem") {
		cfg.Problem.Kind = o.problem
	}
	if changed("selection-method") {
		cfg.Engine.SelectionMethod = o.selection
	}
	if changed("sex-method") {
		cfg.Engine.CrossoverMethod = o.crossover
	}
	if changed("seed") {
		cfg.Engine.Seed = o.seed
	}
	if changed("workers") {
		cfg.Evaluator.ParallelWorkers = o.workers
	}
	if changed("report") {
		cfg.Output.ReportPath = o.report
	}
	if changed("metrics-addr") {
		cfg.Output.MetricsAddr = o.metricsAddr
	}
	if changed("log-level") {
		cfg.Output.LogLevel = o.logLevel
	}
}

func loadConfig(o *options) (*types.Config, error) {
	manager := config.NewManager()
	if o.configPath != "" {
		if err := manager.Read(o.configPath); err != nil {
			return nil, err
		}
	} else if err := manager.LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg := manager.GetConfig()
	o.apply(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if o.version {
		fmt.Fprintf(stdout, "%s %s\n", constants.Name, constants.Version)
		return nil
	}

	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	level, _ := logrus.ParseLevel(cfg.Output.LogLevel)
	logger.SetLevel(level)
	logger.WithField("config", fmt.Sprintf("%+v", *cfg)).Trace("Arguments")

	problem, err := problems.New(logger, cfg.Problem)
	if err != nil {
		return fmt.Errorf("failed to create problem: %w", err)
	}

	archive := database.New(*cfg, cfg.Output.Best)
	archive.SetLogger(logger)
	recorder := metrics.NewRecorder(cfg.Problem.Kind)

	opts := []genetic.Option{
		genetic.WithLogger(logger),
		genetic.WithObserver(archive),
		genetic.WithObserver(recorder),
	}
	if cfg.Evaluator.ParallelWorkers > 1 {
		e := evaluator.New(cfg.Evaluator)
		e.SetLogger(logger)
		defer e.Close()
		opts = append(opts, genetic.WithEvaluator(e))
	}

	if cfg.Output.MetricsAddr != "" {
		stopMetrics := serveMetrics(logger, cfg.Output.MetricsAddr, recorder.Handler())
		defer stopMetrics()
	}

	generation, err := genetic.New(cfg.Engine, problem, opts...)
	if err != nil {
		return fmt.Errorf("failed to create generation: %w", err)
	}

	start := time.Now()
	result, err := generation.Run(ctx)
	if err != nil {
		return err
	}
	archive.Finish(result)

	printSummary(stdout, problem, archive, result, time.Since(start))

	if cfg.Output.ReportPath != "" {
		if err := archive.SaveReport(cfg.Output.ReportPath); err != nil {
			return err
		}
	}

	if result.Interrupted {
		return errInterrupted
	}
	return nil
}

func printSummary(w io.Writer, problem genetic.Problem, archive *database.Archive, result genetic.RunResult, elapsed time.Duration) {
	hall := archive.HallOfFame()
	if len(hall) == 0 {
		fmt.Fprintln(w, "No genotypes were evaluated")
		return
	}

	fmt.Fprintf(w, "Best Solution: %s\n", problem.Format(hall[0]))
	if len(hall) > 1 {
		fmt.Fprintf(w, "Top %d genotypes:\n", len(hall))
		for i, genotype := range hall {
			fmt.Fprintf(w, "%4s %s\n", humanize.Ordinal(i+1), problem.Format(genotype))
		}
	}

	fmt.Fprintf(w, "%s generations and %s evaluations in %s\n",
		humanize.Comma(int64(result.Generations)),
		humanize.Comma(int64(result.Evaluations)),
		elapsed.Round(time.Millisecond))
}

// serveMetrics starts the Prometheus endpoint and returns its shutdown function.
func serveMetrics(logger *logrus.Logger, addr string, handler http.Handler) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Metrics server failed")
		}
	}()
	logger.WithField("addr", addr).Info("Serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("Failed to shut down metrics server")
		}
	}
}
