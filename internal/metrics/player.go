// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics holds the Prometheus collectors of the player daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsStartedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acmplay_sessions_started_total",
		Help: "Playback sessions started by attachment strategy",
	}, []string{"strategy"})

	SessionErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acmplay_session_errors_total",
		Help: "Fatal playback errors by kind",
	}, []string{"kind"})

	SessionWarningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acmplay_session_warnings_total",
		Help: "Non-fatal playback warnings by kind",
	}, []string{"kind"})

	StateTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acmplay_state_transitions_total",
		Help: "Applied playback state transitions",
	}, []string{"from", "to"})

	EngineDetachTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "acmplay_engine_detach_total",
		Help: "Adaptive engine instances released",
	})

	EngineEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acmplay_engine_events_total",
		Help: "Adaptive engine events received by type",
	}, []string{"type"})

	ActiveSession = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "acmplay_session_active",
		Help: "Whether a playback session is attached (1) or not (0)",
	})

	ConfigReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acmplay_config_reloads_total",
		Help: "Configuration reload attempts by outcome",
	}, []string{"outcome"}) // outcome=success|failure
)

func labelOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// IncSessionStarted records a new session for strategy.
func IncSessionStarted(strategy string) {
	SessionsStartedTotal.WithLabelValues(labelOr(strategy, "none")).Inc()
}

// IncSessionError records a fatal error of kind.
func IncSessionError(kind string) {
	SessionErrorsTotal.WithLabelValues(labelOr(kind, "unknown")).Inc()
}

// IncSessionWarning records a non-fatal warning of kind.
func IncSessionWarning(kind string) {
	SessionWarningsTotal.WithLabelValues(labelOr(kind, "unknown")).Inc()
}

// IncStateTransition records an applied from→to transition.
func IncStateTransition(from, to string) {
	StateTransitionsTotal.WithLabelValues(labelOr(from, "none"), labelOr(to, "none")).Inc()
}

// IncEngineDetach records a released engine.
func IncEngineDetach() {
	EngineDetachTotal.Inc()
}

// IncEngineEvent records an engine event by type.
func IncEngineEvent(kind string) {
	EngineEventsTotal.WithLabelValues(labelOr(kind, "unknown")).Inc()
}

// SetSessionActive toggles the active session gauge.
func SetSessionActive(active bool) {
	if active {
		ActiveSession.Set(1)
		return
	}
	ActiveSession.Set(0)
}

// RecordConfigReload records a reload outcome.
func RecordConfigReload(success bool) {
	if success {
		ConfigReloadsTotal.WithLabelValues("success").Inc()
		return
	}
	ConfigReloadsTotal.WithLabelValues("failure").Inc()
}
