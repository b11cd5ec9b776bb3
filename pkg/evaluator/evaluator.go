package evaluator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AlexanderDJackson/cs467/internal/types"
	"github.com/AlexanderDJackson/cs467/pkg/genetic"
)

// ErrClosed is returned by Evaluate after Close.
var ErrClosed = errors.New("evaluator is closed")

// Evaluator computes genotype fitness in parallel on a fixed pool of workers.
// It implements genetic.Evaluator.
type Evaluator struct {
	config types.EvaluatorConfig
	logger *logrus.Logger

	// Worker pool for parallel evaluation
	workerPool *WorkerPool
	closeOnce  sync.Once

	evaluations atomic.Int64
}

// WorkerPool manages parallel evaluation workers
type WorkerPool struct {
	maxWorkers int
	jobs       chan *EvaluationJob
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

// EvaluationJob represents a single fitness evaluation
type EvaluationJob struct {
	Problem    genetic.Problem
	Genotype   *genetic.Genotype
	ResultChan chan<- error
}

// New creates a new Evaluator instance
func New(config types.EvaluatorConfig) *Evaluator {
	if config.ParallelWorkers <= 0 {
		config.ParallelWorkers = 1
	}

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	evaluator := &Evaluator{
		config: config,
		logger: logger,
	}

	// Initialize worker pool
	evaluator.workerPool = NewWorkerPool(config.ParallelWorkers)
	evaluator.workerPool.Start()

	logger.WithFields(logrus.Fields{
		"parallel": config.ParallelWorkers,
	}).Debug("Initialized evaluator")

	return evaluator
}

// SetLogger replaces the evaluator logger
func (e *Evaluator) SetLogger(logger *logrus.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(maxWorkers int) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		maxWorkers: maxWorkers,
		jobs:       make(chan *EvaluationJob, maxWorkers*2),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start starts the worker pool
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.maxWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop stops the worker pool and waits for running jobs to finish
func (wp *WorkerPool) Stop() {
	wp.cancel()
	wp.wg.Wait()
}

// worker processes evaluation jobs
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case job := <-wp.jobs:
			job.ResultChan <- processJob(job)
		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob evaluates a single genotype, turning a panicking fitness
// function into an error
func processJob(job *EvaluationJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fitness evaluation of %q panicked: %v", job.Genotype.Genes, r)
		}
	}()

	job.Genotype.Evaluate(job.Problem)
	return nil
}

// Evaluate computes the fitness of every stale genotype in place. Genotypes
// that are already evaluated are left untouched. When ctx is cancelled no
// further jobs are submitted, and Evaluate returns once the submitted ones
// have finished.
func (e *Evaluator) Evaluate(ctx context.Context, problem genetic.Problem, genotypes []genetic.Genotype) error {
	if e.workerPool.ctx.Err() != nil {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	startTime := time.Now()

	// every submitted job sends exactly one result, so the channel never blocks a worker
	resultChan := make(chan error, len(genotypes))

	submitted := 0
	var submitErr error
submit:
	for i := range genotypes {
		if !genotypes[i].Stale() {
			continue
		}

		job := &EvaluationJob{
			Problem:    problem,
			Genotype:   &genotypes[i],
			ResultChan: resultChan,
		}

		select {
		case e.workerPool.jobs <- job:
			submitted++
		case <-ctx.Done():
			submitErr = ctx.Err()
			break submit
		}
	}

	// Wait for results
	var firstErr error
	for i := 0; i < submitted; i++ {
		if err := <-resultChan; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	e.evaluations.Add(int64(submitted))

	e.logger.WithFields(logrus.Fields{
		"evaluated": submitted,
		"duration":  time.Since(startTime),
	}).Trace("Evaluated batch")

	if submitErr != nil {
		return submitErr
	}
	return firstErr
}

// Evaluations returns the number of fitness evaluations performed so far
func (e *Evaluator) Evaluations() int64 {
	return e.evaluations.Load()
}

// Close shuts down the evaluator. It must not be called while Evaluate is running.
func (e *Evaluator) Close() {
	e.closeOnce.Do(func() {
		if e.workerPool != nil {
			e.workerPool.Stop()
		}
		e.logger.Debug("Evaluator shutdown complete")
	})
}
