package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage label values.
const (
	StageRewrite = "rewrite"
	StageAudio   = "audio"
	StageVideo   = "video"

	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	StageTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reel_stage_total",
		Help: "Pipeline stage executions by stage and outcome.",
	}, []string{"stage", "outcome"})

	JobsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reel_jobs_created_total",
		Help: "Reel jobs created.",
	})

	DispatcherQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reel_dispatcher_queue_depth",
		Help: "Tasks waiting in the async dispatcher queue.",
	})
)
