// Package broker wraps the publish/subscribe transport that every
// component (scheduler, car, floor agent) speaks to the rest of the fleet
// through. Components never see the underlying MQTT client directly; they
// depend only on the Client interface, so unit tests can swap in FakeClient.
package broker

import "context"

// MessageHandler is invoked for every message delivered on a matching
// subscription. topic is the concrete topic the message arrived on (not the
// wildcard pattern it was subscribed under).
type MessageHandler func(topic string, payload []byte)

// Client is the transport surface every component depends on. It is
// intentionally narrow: connect, publish, subscribe, disconnect.
type Client interface {
	// Connect establishes the broker connection and blocks until it
	// succeeds or ctx is cancelled.
	Connect(ctx context.Context) error

	// Publish sends payload on topic at the given QoS. retained messages
	// are kept by the broker for late subscribers (used for last-value-wins
	// topics like status and capacity).
	Publish(topic string, qos byte, retained bool, payload []byte) error

	// Subscribe registers handler for topic, which may contain the `+`
	// (single-segment) and `#` (multi-segment) wildcards.
	Subscribe(topic string, qos byte, handler MessageHandler) error

	// Disconnect closes the connection cleanly; a clean disconnect does not
	// trigger the configured last-will message.
	Disconnect()
}
