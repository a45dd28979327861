package bus

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

var ErrNilHandler = errors.New("bus: nil handler")

type subscription struct {
	id      string
	topic   string
	handler EventHandler
	active  atomic.Bool
	cancel  func()
}

func (s *subscription) ID() string     { return s.id }
func (s *subscription) Topic() string  { return s.topic }
func (s *subscription) IsActive() bool { return s.active.Load() }
func (s *subscription) Cancel() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

type inMemoryBus struct {
	mu sync.RWMutex
	// handlers: topic -> subscriptions in subscription order
	handlers  map[string][]*subscription
	metrics   EventBusMetrics
	observers map[EventBusObserver]struct{}
}

// New creates a new EventBus instance.
func New() EventBus {
	return &inMemoryBus{
		handlers:  make(map[string][]*subscription),
		observers: make(map[EventBusObserver]struct{}),
	}
}

func (b *inMemoryBus) Subscribe(topic string, handler EventHandler) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	s := &subscription{id: uuid.NewString(), topic: topic, handler: handler}
	s.active.Store(true)
	s.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if !s.active.CompareAndSwap(true, false) {
			return
		}
		subs := slices.DeleteFunc(b.handlers[topic], func(other *subscription) bool { return other == s })
		if len(subs) == 0 {
			delete(b.handlers, topic)
		} else {
			b.handlers[topic] = subs
		}
	}
	b.handlers[topic] = append(b.handlers[topic], s)
	return s, nil
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) Publish(topic string, event Event) error {
	if event.Topic == "" {
		event.Topic = topic
	}

	b.mu.RLock()
	subs := slices.Clone(b.handlers[topic])
	observers := make([]EventBusObserver, 0, len(b.observers))
	for obs := range b.observers {
		observers = append(observers, obs)
	}
	b.mu.RUnlock()

	var all error
	delivered := 0
	for _, s := range subs {
		if !s.active.Load() {
			continue
		}
		delivered++
		if err := s.handler(event); err != nil {
			all = errors.Join(all, err)
		}
	}

	if len(observers) > 0 {
		for _, obs := range observers {
			obs.OnDelivered(topic, event, delivered, all)
		}
		b.mu.Lock()
		b.metrics.Published++
		b.metrics.DeliveredHandlers += uint64(delivered)
		if all != nil {
			b.metrics.Errors++
		}
		var active uint64
		for _, ss := range b.handlers {
			active += uint64(len(ss))
		}
		b.metrics.SubscribersActive = active
		b.mu.Unlock()
	}
	return all
}

func (b *inMemoryBus) AddObserver(obs EventBusObserver) {
	b.mu.Lock()
	b.observers[obs] = struct{}{}
	b.mu.Unlock()
}

func (b *inMemoryBus) RemoveObserver(obs EventBusObserver) {
	b.mu.Lock()
	delete(b.observers, obs)
	b.mu.Unlock()
}

func (b *inMemoryBus) GetMetrics() EventBusMetrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}

func (b *inMemoryBus) GetTopics() []TopicInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]TopicInfo, 0, len(b.handlers))
	for name, subs := range b.handlers {
		out = append(out, TopicInfo{Name: name, Subs: len(subs)})
	}
	slices.SortFunc(out, func(x, y TopicInfo) int {
		switch {
		case x.Name < y.Name:
			return -1
		case x.Name > y.Name:
			return 1
		default:
			return 0
		}
	})
	return out
}
