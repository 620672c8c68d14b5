package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ClassificationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "botdetect_classification_requests_total",
		Help: "The total number of remote classification requests",
	}, []string{"model", "status"})

	ClassificationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "botdetect_classification_duration_seconds",
		Help:    "Duration of remote classification requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	InvalidOutputs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "botdetect_invalid_outputs_total",
		Help: "The total number of classifier outputs that did not parse to BOT or HUMAN",
	})

	JobPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "botdetect_job_polls_total",
		Help: "The total number of fine-tuning job status polls",
	}, []string{"status"})

	ExamplesLoaded = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "botdetect_examples_loaded",
		Help: "Number of labeled examples loaded per dataset",
	}, []string{"dataset"})
)
