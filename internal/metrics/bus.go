// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusDroppedTotal counts snapshot or gesture messages a subscriber never received.
var BusDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "acmplay_bus_dropped_total",
	Help: "Event bus messages dropped before delivery, by topic and reason",
}, []string{"topic", "reason"})

// IncBusDrop records a drop caused by a full subscriber buffer.
func IncBusDrop(topic string) { IncBusDropReason(topic, "full") }

// IncBusDropReason records a drop. Empty labels become "unknown".
func IncBusDropReason(topic, reason string) {
	BusDroppedTotal.WithLabelValues(labelOr(topic, "unknown"), labelOr(reason, "unknown")).Inc()
}
