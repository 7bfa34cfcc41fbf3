// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

// Tuning carries the adaptive engine buffer settings.
type Tuning struct {
	MaxBufferLength    float64 `json:"maxBufferLength"`
	MaxMaxBufferLength float64 `json:"maxMaxBufferLength"`
	BackBufferLength   float64 `json:"backBufferLength"`
	LowLatencyMode     bool    `json:"lowLatencyMode"`
	WorkerOffload      bool    `json:"workerOffload"`
	// StartBitrateCap bounds the automatic start level in bits per second. 0 means no cap.
	StartBitrateCap int `json:"startBitrateCap,omitempty"`
}

// DefaultTuning mirrors the low-latency browser engine settings.
func DefaultTuning() Tuning {
	return Tuning{
		MaxBufferLength:    6,
		MaxMaxBufferLength: 30,
		BackBufferLength:   10,
		LowLatencyMode:     true,
		WorkerOffload:      true,
	}
}

// Profile is the per-session tuning plus controller behaviour flags.
type Profile struct {
	Tuning             Tuning `json:"tuning"`
	AutoplayOnManifest bool   `json:"autoplayOnManifest"`
	// AutoplayPermitted is false when the presentation requires a user
	// gesture before the first play.
	AutoplayPermitted bool `json:"autoplayPermitted"`
}

// DefaultProfile returns the stock profile with autoplay off.
func DefaultProfile() Profile {
	return Profile{Tuning: DefaultTuning(), AutoplayPermitted: true}
}

// GestureRequest asks the presentation for a user interaction before play.
type GestureRequest struct {
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason"`
}
