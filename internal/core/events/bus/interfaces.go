package bus

import "time"

// EventBus is a thread-safe, in-process pub/sub bus for collection changes.
//
// Key characteristics:
// - Topic fan-out: handlers subscribe to a topic, usually one per collection.
// - Synchronous delivery: Publish calls handlers in the caller goroutine, in
//   subscription order, so per-subscriber ordering matches publish order.
// - Error aggregation: handler errors are joined and returned from Publish.
// - Optional observability: metrics are produced only when observers are registered.
type EventBus interface {
	// Publish delivers event to every active subscriber of topic. If one or
	// more handlers return an error, a joined error is returned.
	Publish(topic string, event Event) error
	// Subscribe registers handler for topic and returns a Subscription handle
	// that can be used to cancel later.
	Subscribe(topic string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. It is safe to call with nil.
	Unsubscribe(Subscription) error

	// AddObserver registers an observer to receive delivery callbacks.
	AddObserver(obs EventBusObserver)
	// RemoveObserver unregisters a previously added observer.
	RemoveObserver(obs EventBusObserver)
	// GetMetrics returns a snapshot of accumulated metrics.
	GetMetrics() EventBusMetrics
	// GetTopics returns a snapshot of topics that have at least one subscriber.
	GetTopics() []TopicInfo
}

// Event is one collection change as it travels over the bus and the wire.
// Index is the affected position (the destination for moves). Value is unset
// for remove_all, which carries the cleared elements in Old instead.
type Event struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Kind      string    `json:"kind"`
	Index     int       `json:"index"`
	From      int       `json:"from"`
	To        int       `json:"to"`
	Value     any       `json:"value,omitempty"`
	Old       []any     `json:"old,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// EventHandler is a user callback invoked per delivered event.
type EventHandler func(event Event) error

// Subscription represents a registered handler bound to a topic.
type Subscription interface {
	// ID is a unique identifier for this subscription.
	ID() string
	Topic() string
	IsActive() bool
	// Cancel de-registers the handler from the bus. Multiple calls are safe.
	Cancel() error
}

// EventBusObserver is notified about deliveries and errors. Observers should
// return quickly.
type EventBusObserver interface {
	OnDelivered(topic string, event Event, handlers int, err error)
}

type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}

type TopicInfo struct {
	Name string
	Subs int
}
