package interfaces

// MessageHandler receives the payload of an inbound bus message.
type MessageHandler func(payload string)

// Publisher is the outbound message bus seam. All publishes are retained and
// fire-and-forget: delivery is at-most-once from the caller's perspective.
//
// Payload handling: strings pass through unchanged, integers are formatted
// as decimal strings, everything else is JSON-serialized.
type Publisher interface {
	// Publish sends a retained message to <topic-prefix>/<suffix>.
	Publish(suffix string, payload interface{}) error

	// PublishTopic sends a retained message to an absolute topic, bypassing
	// the configured prefix (used for discovery documents).
	PublishTopic(topic string, payload interface{}) error

	// Subscribe registers a handler for messages on <topic-prefix>/<suffix>.
	Subscribe(suffix string, handler MessageHandler) error

	// Close disconnects from the bus.
	Close()
}
