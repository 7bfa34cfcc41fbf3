// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"net/http"

	"github.com/ManuGH/acmplay/internal/domain/player/model"
	"github.com/rs/zerolog"
)

// Player is the playback loop the daemon owns.
type Player interface {
	// Run processes intents until ctx ends.
	Run(ctx context.Context) error
	SetProfile(ctx context.Context, p model.Profile) error
}

// APIServer serves the control API until ctx ends.
type APIServer interface {
	ListenAndServe(ctx context.Context) error
}

// Deps contains dependencies required by the daemon Manager.
type Deps struct {
	// Logger is the structured logger for the daemon
	Logger zerolog.Logger

	Player Player

	// API serves the control surface
	API APIServer

	// MetricsAddr enables the Prometheus listener when set
	MetricsAddr string

	// MetricsHandler is the HTTP handler for Prometheus metrics (if enabled)
	MetricsHandler http.Handler
}

// Validate checks if the dependencies are valid.
func (d *Deps) Validate() error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.Player == nil {
		return ErrMissingPlayer
	}
	if d.API == nil {
		return ErrMissingAPIServer
	}
	return nil
}
