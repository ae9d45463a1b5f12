package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// SignalAccepted labels demand signals that started a page load.
	SignalAccepted = "accepted"
	// SignalDropped labels demand signals ignored while loading or exhausted.
	SignalDropped = "dropped"

	// EditCommitted labels salary edits applied locally.
	EditCommitted = "committed"
	// EditInvalid labels salary edits rejected by validation.
	EditInvalid = "invalid"
	// EditNotFound labels salary edits that referenced an unknown record.
	EditNotFound = "not_found"

	// OutcomeSuccess labels remote calls the service accepted.
	OutcomeSuccess = "success"
	// OutcomeError labels remote calls that failed.
	OutcomeError = "error"
	// OutcomeDropped labels updates that never left the outbound queue.
	OutcomeDropped = "dropped"
)

var (
	demandSignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "datagrid",
			Name:      "demand_signals_total",
			Help:      "Demand signals received by the window, partitioned by whether they started a load.",
		},
		[]string{"result"},
	)

	pageLoadSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "datagrid",
			Name:      "page_load_seconds",
			Help:      "Time from accepted demand signal to page materialization.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 0.8, 1, 2, 5},
		},
	)

	salaryEditsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "datagrid",
			Name:      "salary_edits_total",
			Help:      "Salary edit commits, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	reconciliationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "datagrid",
			Name:      "reconciliations_total",
			Help:      "Remote salary reconciliations, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	reconciliationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "datagrid",
			Name:      "reconciliation_seconds",
			Help:      "Remote salary reconciliation latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	annotationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "datagrid",
			Name:      "annotations_total",
			Help:      "Annotations appended to records.",
		},
	)

	annotationPersistFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "datagrid",
			Name:      "annotation_persist_failures_total",
			Help:      "Write-through annotation persists that failed.",
		},
	)
)

// Register attaches datagrid collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		demandSignalsTotal,
		pageLoadSeconds,
		salaryEditsTotal,
		reconciliationsTotal,
		reconciliationSeconds,
		annotationsTotal,
		annotationPersistFailuresTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveDemandSignal counts a demand signal.
func ObserveDemandSignal(result string) {
	if result != SignalAccepted {
		result = SignalDropped
	}
	demandSignalsTotal.WithLabelValues(result).Inc()
}

// ObservePageLoad records how long a page took to materialize.
func ObservePageLoad(duration time.Duration) {
	pageLoadSeconds.Observe(max(duration, 0).Seconds())
}

// ObserveSalaryEdit counts a commit attempt.
func ObserveSalaryEdit(outcome string) {
	salaryEditsTotal.WithLabelValues(outcome).Inc()
}

// ObserveReconciliation records a remote call duration and outcome label.
func ObserveReconciliation(duration time.Duration, outcome string) {
	reconciliationsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeDropped {
		return
	}
	reconciliationSeconds.Observe(max(duration, 0).Seconds())
}

// ObserveAnnotation counts an appended annotation.
func ObserveAnnotation() {
	annotationsTotal.Inc()
}

// ObservePersistFailure counts a failed write-through persist.
func ObservePersistFailure() {
	annotationPersistFailuresTotal.Inc()
}
