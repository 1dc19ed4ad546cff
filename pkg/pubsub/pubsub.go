package pubsub

import (
	"context"
	"encoding/json"
)

// Topics published by the engine host
const (
	TopicGraphState = "graph_state" // Emitted after every committed edit, undo, redo or import
	TopicNotices    = "notices"     // User-facing messages such as "nothing to undo"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "graph_state", "notices")
	Type    string          `json:"type"`    // Event type, the operation that caused it (e.g., "add_location", "undo")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// GraphState summarises the graph after a change so clients know to refetch
type GraphState struct {
	Revision  int  `json:"revision"` // Increases with every change
	Locations int  `json:"locations"`
	Paths     int  `json:"paths"`
	CanUndo   bool `json:"canUndo"`
	CanRedo   bool `json:"canRedo"`
}

// Notice is a message meant to be shown to the user
type Notice struct {
	Message string `json:"message"`
}
