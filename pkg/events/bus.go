package events

import "errors"

// ErrQueueFull is returned by Publish when the bus cannot accept another
// event without blocking.
var ErrQueueFull = errors.New("event queue full")

type Handler func(Event)

type Subscription interface {
	Unsubscribe()
}

type TopicStats struct {
	Topic       string `json:"topic"`
	Subscribers int    `json:"subscribers"`
}

type Stats struct {
	Topics       []TopicStats `json:"topics"`
	PublishChLen int          `json:"publish-channel-length"`
	PublishChCap int          `json:"publish-channel-capacity"`
	Published    uint64       `json:"published"`
	Dropped      uint64       `json:"dropped"`
	DebugTopics  []string     `json:"debug-topics,omitempty"`
}

type Bus interface {
	Publish(topic string, event Event) error
	Subscribe(topic string, handler Handler) Subscription
	SubscribeAll(handler Handler) Subscription
	Stats() Stats
	SetDebugTopics(topics []string)
	Close() error
}
