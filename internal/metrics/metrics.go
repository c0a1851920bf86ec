// Package metrics exposes Prometheus counters for the intake pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Resolutions counts resolution outcomes by the strategy that produced
	// them ("exact_key", "fold", "substring", "token_fuzzy", "string_fuzzy",
	// "llm", "cache", "unresolved").
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderbot_resolutions_total",
		Help: "Customer resolutions by winning strategy.",
	}, []string{"strategy"})

	// Parses counts message parses by method ("rule", "llm", "none").
	Parses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderbot_parses_total",
		Help: "Message parses by method.",
	}, []string{"method"})

	// LedgerAppends counts ledger writes by outcome ("ok", "error").
	LedgerAppends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderbot_ledger_appends_total",
		Help: "Ledger append attempts by outcome.",
	}, []string{"outcome"})
)
