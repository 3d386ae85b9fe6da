package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// CommandsTotal counts handled mentions by classified command
	// ("start", "stop", "continue", "kudo", "summarize", "ignored").
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrobot_commands_total",
			Help: "Mentions handled by the bot, by command.",
		},
		[]string{"command"},
	)

	// CommandFailures counts commands that ended without their intended
	// effect (e.g. a recording whose snapshot write failed).
	CommandFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrobot_command_failures_total",
			Help: "Commands that failed, by command.",
		},
		[]string{"command"},
	)

	// GatewayErrors counts failed gateway calls by operation.
	GatewayErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrobot_gateway_errors_total",
			Help: "Failed messaging gateway calls, by operation.",
		},
		[]string{"op"},
	)

	// EntriesStored tracks the size of the feedback sequence.
	EntriesStored = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "retrobot_entries_stored",
			Help: "Number of feedback entries in the record store.",
		},
	)

	// EnrichDuration records how long a full reaction refresh takes.
	EnrichDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retrobot_enrich_duration_seconds",
			Help:    "Duration of reaction refreshes before a summary.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// EventsDropped counts inbound events the gateway discarded before the
	// bot saw them, by reason ("duplicate", "queue_full").
	EventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrobot_events_dropped_total",
			Help: "Inbound events dropped before processing, by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(CommandsTotal, CommandFailures, GatewayErrors, EntriesStored, EnrichDuration, EventsDropped)
}
