package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solace_turns_total",
			Help: "Total number of processed turns by outcome",
		},
		[]string{"outcome"}, // normal, crisis, fallback
	)

	EmotionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solace_emotions_total",
			Help: "Classified emotions",
		},
		[]string{"emotion"},
	)

	ModesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solace_therapy_modes_total",
			Help: "Selected therapy modes",
		},
		[]string{"mode"},
	)

	MemoryWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solace_memory_writes_total",
			Help: "Memory writes by target and result",
		},
		[]string{"target", "result"}, // remote|local, ok|error|skipped
	)

	MemoryRecalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solace_memory_recalls_total",
			Help: "Memory recalls by the source that answered",
		},
		[]string{"source"}, // remote|local
	)

	MemoryQueueDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "solace_memory_queue_overflow_total",
			Help: "Entries written synchronously because the writer queue was full or closed",
		},
	)

	LLMLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solace_llm_latency_seconds",
			Help:    "LLM delegation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "solace_active_sessions",
			Help: "Number of live conversations",
		},
	)
)
