package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ninjabrain_predictions_total",
			Help: "Total number of prediction requests by model and outcome",
		},
		[]string{"model", "outcome"},
	)

	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ninjabrain_inference_duration_seconds",
			Help:    "Duration of inference calls to the NLP server in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"model"},
	)

	ModelLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ninjabrain_model_loads_total",
			Help: "Total number of model load attempts",
		},
		[]string{"model", "outcome"},
	)

	ModelsCached = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ninjabrain_models_cached",
			Help: "Number of model handles held by the model cache",
		},
	)

	RegistrationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ninjabrain_model_registrations_total",
			Help: "Total number of model registrations written, including upserts of existing ones",
		},
	)
)

// ObservePrediction records the outcome of a prediction. outcome is
// OutcomeSuccess or an error kind.
func ObservePrediction(model, outcome string) {
	PredictionsTotal.WithLabelValues(model, outcome).Inc()
}

func ObserveInference(model string, elapsedMS int64) {
	InferenceDuration.WithLabelValues(model).
		Observe((time.Duration(elapsedMS) * time.Millisecond).Seconds())
}

func ObserveModelLoad(model string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	ModelLoadsTotal.WithLabelValues(model, outcome).Inc()
}
