package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Webhook request counter.
	WebhookRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meteogram",
			Subsystem: "bot",
			Name:      "webhook_requests_total",
			Help:      "Total Telegram webhook requests",
		},
		[]string{"status"},
	)

	// Background job counter.
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meteogram",
			Subsystem: "bot",
			Name:      "jobs_total",
			Help:      "Total background jobs processed",
		},
		[]string{"kind", "status"},
	)

	// Job duration histogram.
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "meteogram",
			Subsystem: "bot",
			Name:      "job_duration_seconds",
			Help:      "Background job duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"kind"},
	)

	// Tool call counter.
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meteogram",
			Subsystem: "bot",
			Name:      "tool_calls_total",
			Help:      "Total agent tool invocations",
		},
		[]string{"tool", "status"},
	)

	// LLM request counter.
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meteogram",
			Subsystem: "bot",
			Name:      "llm_requests_total",
			Help:      "Total completion calls to the agent runtime",
		},
		[]string{"status"},
	)

	// Queue depth gauge.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "meteogram",
			Subsystem: "bot",
			Name:      "queue_depth",
			Help:      "Background job queue depth",
		},
	)
)
