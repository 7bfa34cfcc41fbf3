// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProcessSignalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acmplay_sink_process_signals_total",
		Help: "Signals sent to spawned sink process groups",
	}, []string{"signal", "result"})

	ProcessExitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acmplay_sink_process_exits_total",
		Help: "Spawned sink process exits observed during shutdown",
	}, []string{"result"})
)

// IncProcessSignal records a signal delivery attempt.
func IncProcessSignal(signal, result string) {
	ProcessSignalsTotal.WithLabelValues(signal, result).Inc()
}

// IncProcessExit records how a terminated process exited.
func IncProcessExit(result string) {
	ProcessExitsTotal.WithLabelValues(result).Inc()
}
