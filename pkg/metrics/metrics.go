package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AlexanderDJackson/cs467/pkg/genetic"
)

const namespace = "genitor"

// Recorder exports generation statistics as Prometheus metrics, labelled by
// problem. It implements genetic.Observer.
type Recorder struct {
	problem  string
	gatherer prometheus.Gatherer

	generation  *prometheus.GaugeVec
	bestFitness *prometheus.GaugeVec
	meanFitness *prometheus.GaugeVec
	invalid     *prometheus.GaugeVec
	crowding    *prometheus.CounterVec
	evaluations *prometheus.CounterVec
}

// NewRecorder registers the collectors on a fresh registry.
func NewRecorder(problem string) *Recorder {
	registry := prometheus.NewRegistry()
	r, err := NewRecorderWith(registry, registry, problem)
	if err != nil {
		// a fresh registry holds no conflicting collectors
		panic(err)
	}
	return r
}

// NewRecorderWith registers the collectors on registerer. The gatherer backs Handler.
func NewRecorderWith(registerer prometheus.Registerer, gatherer prometheus.Gatherer, problem string) (*Recorder, error) {
	labels := []string{"problem"}
	r := &Recorder{
		problem:  problem,
		gatherer: gatherer,
		generation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generation",
			Help:      "Number of completed generations.",
		}, labels),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_fitness",
			Help:      "Best valid fitness observed over the run.",
		}, labels),
		meanFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mean_fitness",
			Help:      "Mean valid fitness of the current population.",
		}, labels),
		invalid: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "invalid_genotypes",
			Help:      "Invalid genotypes in the current population.",
		}, labels),
		crowding: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crowding_events_total",
			Help:      "Generations in which crowding raised the mutation rate.",
		}, labels),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Fitness evaluations performed.",
		}, labels),
	}

	for _, c := range []prometheus.Collector{r.generation, r.bestFitness, r.meanFitness, r.invalid, r.crowding, r.evaluations} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveGeneration updates the collectors from stats.
func (r *Recorder) ObserveGeneration(stats genetic.GenerationStats, _ []genetic.Genotype) {
	labels := prometheus.Labels{"problem": r.problem}

	r.generation.With(labels).Set(float64(stats.Generation))
	if stats.BestEver.Fitness.Valid {
		r.bestFitness.With(labels).Set(stats.BestEver.Fitness.Score)
	}
	r.meanFitness.With(labels).Set(stats.MeanFitness)
	r.invalid.With(labels).Set(float64(stats.Invalid))
	if stats.Crowded {
		r.crowding.With(labels).Inc()
	}
	r.evaluations.With(labels).Add(float64(stats.Evaluations))
}

// Handler serves the recorder's registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
