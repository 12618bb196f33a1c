package types

import (
	"time"
)

// Queue represents a message queue
type Queue struct {
	Name         string
	URL          string
	MessageCount int
	FIFO         bool
	Created      time.Time
}

// QueueOptions configures a new queue
type QueueOptions struct {
	VisibilityTimeout      time.Duration // Default 30s
	MessageRetention       time.Duration // Default 4 days
	MaxMessageSize         int           // Bytes, default 256 KiB
	FIFO                   bool
	EnableDeadLetter       bool
	DeadLetterAfterRetries int
	Tags                   map[string]string
}

// Message is a queue message. ReceiptHandle is only set on received
// messages and is required to delete them.
type Message struct {
	ID              string
	Body            string
	Attributes      map[string]string
	DeduplicationID string // FIFO only
	GroupID         string // FIFO only
	ReceiptHandle   string
	Sent            time.Time
}

// SendMessageParams carries an outgoing message
type SendMessageParams struct {
	Body            string
	Attributes      map[string]string
	DeduplicationID string
	GroupID         string
	Delay           time.Duration
}

// ReceiveMessageParams tunes a receive call
type ReceiveMessageParams struct {
	MaxMessages       int           // Default 1, max 10
	WaitTime          time.Duration // Long-poll duration, 0 for immediate return
	VisibilityTimeout time.Duration // 0 uses the queue default
}

// SubscriptionProtocol is the delivery protocol of a topic subscription
type SubscriptionProtocol string

const (
	SubscriptionEmail SubscriptionProtocol = "email"
	SubscriptionHTTPS SubscriptionProtocol = "https"
	SubscriptionSMS   SubscriptionProtocol = "sms"
	SubscriptionQueue SubscriptionProtocol = "queue"
)

// SubscriptionStatus tracks subscription confirmation
type SubscriptionStatus string

const (
	SubscriptionPending      SubscriptionStatus = "pendingConfirmation"
	SubscriptionConfirmed    SubscriptionStatus = "confirmed"
	SubscriptionUnsubscribed SubscriptionStatus = "unsubscribed"
)

// Topic represents a pub/sub topic
type Topic struct {
	Name          string
	ARN           string
	Subscriptions []Subscription
	Tags          map[string]string
	Created       time.Time
}

// Subscription connects a topic to an endpoint. Email and HTTPS
// subscriptions start pending; other protocols start confirmed.
type Subscription struct {
	ID       string
	Topic    string
	Protocol SubscriptionProtocol
	Endpoint string
	Status   SubscriptionStatus
	Created  time.Time
}

// PublishParams carries a topic publication
type PublishParams struct {
	Subject    string
	Message    string
	Attributes map[string]string
}

// EventBus routes events to targets through rules
type EventBus struct {
	Name    string
	Tags    map[string]string
	Created time.Time
}

// EventPattern filters events. Empty Source/Type lists match any
// value; Data keys require top-level equality in the event data.
type EventPattern struct {
	Source []string
	Type   []string
	Data   map[string]interface{}
}

// Rule binds an event pattern to an ordered list of targets
type Rule struct {
	Name    string
	Bus     string
	Pattern EventPattern
	Enabled bool
	Targets []Target
	Created time.Time
}

// Target is a delivery destination for matched events
type Target struct {
	ID       string
	Type     string // Provider-interpreted (queue, function, ...)
	Endpoint string
}

// Event is a routed application event
type Event struct {
	ID     string
	Source string
	Type   string
	Time   time.Time
	Data   map[string]interface{}
}
