// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import "context"

// Bus topics used by the player.
const (
	TopicState   = "player.state"
	TopicGesture = "player.gesture"
)

// Publisher is the outbound side of the event bus.
type Publisher interface {
	Publish(ctx context.Context, topic string, event interface{}) error
}
