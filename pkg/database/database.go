package database

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/AlexanderDJackson/cs467/internal/types"
	"github.com/AlexanderDJackson/cs467/pkg/genetic"
)

// Archive records the history of a run: per-generation statistics, the best
// genotype ever seen and a hall of fame of the best distinct genotypes.
// It implements genetic.Observer.
type Archive struct {
	// Configuration
	config   types.Config
	hallSize int

	// Storage
	mu sync.RWMutex

	// Generation statistics in order
	history []genetic.GenerationStats

	// Best distinct genotypes, best first, indexed by their genes
	hall    []genetic.Genotype
	inHall  map[string]struct{}
	runID   string
	started time.Time

	// Set by Finish
	finished    time.Time
	interrupted bool
	evaluations int

	// Logger
	logger *logrus.Logger
}

// Report is the JSON document written by SaveReport.
type Report struct {
	RunID       string                    `json:"run_id"`
	Config      types.Config              `json:"config"`
	StartedAt   time.Time                 `json:"started_at"`
	FinishedAt  time.Time                 `json:"finished_at"`
	Generations int                       `json:"generations"`
	Evaluations int                       `json:"evaluations"`
	Interrupted bool                      `json:"interrupted"`
	Best        *genetic.Genotype         `json:"best,omitempty"`
	HallOfFame  []genetic.Genotype        `json:"hall_of_fame"`
	History     []genetic.GenerationStats `json:"history"`
}

// New creates an Archive keeping the hallSize best distinct genotypes.
func New(config types.Config, hallSize int) *Archive {
	if hallSize <= 0 {
		hallSize = 1
	}

	archive := &Archive{
		config:   config,
		hallSize: hallSize,
		inHall:   make(map[string]struct{}),
		runID:    uuid.New().String(),
		started:  time.Now(),
		logger:   logrus.New(),
	}

	archive.logger.WithFields(logrus.Fields{
		"run_id":    archive.runID,
		"hall_size": hallSize,
	}).Debug("Initialized run archive")

	return archive
}

// SetLogger replaces the archive logger
func (a *Archive) SetLogger(logger *logrus.Logger) {
	if logger != nil {
		a.logger = logger
	}
}

// RunID returns the unique identifier of this run
func (a *Archive) RunID() string {
	return a.runID
}

// ObserveGeneration records stats and offers every genotype of the
// population to the hall of fame.
func (a *Archive) ObserveGeneration(stats genetic.GenerationStats, population []genetic.Genotype) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = append(a.history, stats)
	for _, genotype := range population {
		if genotype.Stale() {
			continue
		}
		a.offer(genotype)
	}
}

// offer inserts genotype into the hall of fame when it is distinct and
// ranks above the current worst entry. The caller holds the lock.
func (a *Archive) offer(genotype genetic.Genotype) {
	key := string(genotype.Genes)
	if _, ok := a.inHall[key]; ok {
		return
	}
	if len(a.hall) == a.hallSize && !genotype.Fitness.Better(a.hall[len(a.hall)-1].Fitness) {
		return
	}

	// first position whose entry ranks below the newcomer
	idx := sort.Search(len(a.hall), func(i int) bool {
		return genotype.Fitness.Better(a.hall[i].Fitness)
	})
	a.hall = append(a.hall, genetic.Genotype{})
	copy(a.hall[idx+1:], a.hall[idx:])
	a.hall[idx] = genotype.Clone()
	a.inHall[key] = struct{}{}

	if len(a.hall) > a.hallSize {
		dropped := a.hall[len(a.hall)-1]
		delete(a.inHall, string(dropped.Genes))
		a.hall = a.hall[:a.hallSize]
	}

	if idx == 0 {
		a.logger.WithFields(logrus.Fields{
			"genes":   key,
			"fitness": genotype.Fitness.String(),
		}).Debug("New best genotype")
	}
}

// Best returns the best genotype recorded so far
func (a *Archive) Best() (genetic.Genotype, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(a.hall) == 0 {
		return genetic.Genotype{}, false
	}
	return a.hall[0].Clone(), true
}

// HallOfFame returns copies of the best distinct genotypes, best first
func (a *Archive) HallOfFame() []genetic.Genotype {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]genetic.Genotype, len(a.hall))
	for i := range a.hall {
		out[i] = a.hall[i].Clone()
	}
	return out
}

// History returns the recorded generation statistics in order
func (a *Archive) History() []genetic.GenerationStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]genetic.GenerationStats, len(a.history))
	copy(out, a.history)
	return out
}

// Finish records the outcome of the run
func (a *Archive) Finish(result genetic.RunResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.finished = time.Now()
	a.interrupted = result.Interrupted
	a.evaluations = result.Evaluations
	if result.Best.Len() > 0 {
		a.offer(result.Best)
	}
}

// Report builds a snapshot of the run
func (a *Archive) Report() Report {
	a.mu.RLock()
	defer a.mu.RUnlock()

	report := Report{
		RunID:       a.runID,
		Config:      a.config,
		StartedAt:   a.started,
		FinishedAt:  a.finished,
		Evaluations: a.evaluations,
		Interrupted: a.interrupted,
		HallOfFame:  make([]genetic.Genotype, len(a.hall)),
		History:     make([]genetic.GenerationStats, len(a.history)),
	}
	for i := range a.hall {
		report.HallOfFame[i] = a.hall[i].Clone()
	}
	copy(report.History, a.history)

	if len(a.hall) > 0 {
		best := a.hall[0].Clone()
		report.Best = &best
	}
	if n := len(a.history); n > 0 {
		report.Generations = a.history[n-1].Generation
	}
	return report
}

// SaveReport writes the run report to path as indented JSON
func (a *Archive) SaveReport(path string) error {
	report := a.Report()

	// Serialize to JSON
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	// Create report directory
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	a.logger.WithFields(logrus.Fields{
		"run_id": report.RunID,
		"file":   path,
	}).Info("Saved run report")

	return nil
}

// LoadReport reads a report written by SaveReport
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}
