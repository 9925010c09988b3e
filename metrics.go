package loi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects the search counters of a Planner. A nil *Metrics records nothing.
type Metrics struct {
	runs         prometheus.Counter
	evaluations  prometheus.Counter
	nonConverged prometheus.Counter
	duration     *prometheus.HistogramVec
	bestDistance prometheus.Gauge
}

// NewMetrics creates the planner metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loi_simplex_runs_total",
			Help: "Total number of Nelder-Mead runs.",
		}),
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loi_objective_evaluations_total",
			Help: "Total number of closest approach evaluations made by the simplex.",
		}),
		nonConverged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loi_simplex_nonconverged_total",
			Help: "Nelder-Mead runs which stopped on the iteration limit.",
		}),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loi_search_duration_seconds",
				Help:    "Duration of a transfer search in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		bestDistance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "loi_best_distance_km",
			Help: "Closest approach distance of the last completed search.",
		}),
	}
	for _, c := range []prometheus.Collector{m.runs, m.evaluations, m.nonConverged, m.duration, m.bestDistance} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeRun(stats SimplexStats) {
	if m == nil {
		return
	}
	m.runs.Inc()
	m.evaluations.Add(float64(stats.Evaluations))
	if !stats.Converged {
		m.nonConverged.Inc()
	}
}

func (m *Metrics) observeSearch(mode string, start time.Time, distanceKm float64) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	m.bestDistance.Set(distanceKm)
}
