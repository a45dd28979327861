package server

import (
	"context"
	"fmt"
	"slices"

	"github.com/zeusync/listsync/internal/config"
	"github.com/zeusync/listsync/internal/core/events/bus"
	"github.com/zeusync/listsync/internal/core/observability/log"
	"github.com/zeusync/listsync/internal/script"
	"github.com/zeusync/listsync/pkg/observable"
)

// Hub owns the named collections. Arrays are single-threaded, so every read
// and mutation runs as a task on the goroutine executing Run.
type Hub struct {
	bus    bus.EventBus
	logger log.Log

	tasks chan task
	done  chan struct{}

	// fixed after NewHub
	names       []string
	orders      map[string]config.Order
	collections map[string]*observable.Array[string]
}

type task struct {
	fn   func()
	done chan error
}

// CollectionInfo describes a collection as reported by GET /collections.
// Subscribers counts the bus subscriptions on the collection's topic, feed
// clients included.
type CollectionInfo struct {
	Name        string       `json:"name"`
	Order       config.Order `json:"order,omitempty"`
	Len         int          `json:"len"`
	Subscribers int          `json:"subscribers"`
}

// NewHub builds one array per collection and republishes its changes on the
// bus topic named after it.
func NewHub(cols []config.CollectionConfig, b bus.EventBus, logger log.Log) *Hub {
	if logger == nil {
		logger = log.Nop()
	}
	h := &Hub{
		bus:         b,
		logger:      logger,
		tasks:       make(chan task),
		done:        make(chan struct{}),
		orders:      make(map[string]config.Order, len(cols)),
		collections: make(map[string]*observable.Array[string], len(cols)),
	}

	for _, col := range cols {
		colLogger := h.logger.With(log.String("collection", col.Name))
		arr := script.NewArray(col.Values, col.Order,
			observable.WithLogger[string](colLogger),
			observable.WithPresenceHandler[string](func(has bool) {
				colLogger.Debug("collection observed", log.Bool("observed", has))
			}),
		)
		bus.Attach(b, col.Name, arr, observable.ObserverOf(h), nil)

		h.names = append(h.names, col.Name)
		h.orders[col.Name] = col.Order
		h.collections[col.Name] = arr
	}
	slices.Sort(h.names)

	return h
}

// Names returns the collection names in lexical order.
func (h *Hub) Names() []string {
	return slices.Clone(h.names)
}

func (h *Hub) Has(name string) bool {
	_, ok := h.collections[name]
	return ok
}

// Run executes tasks until ctx is done. It must be called exactly once.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	h.logger.Debug("Hub started", log.Int("collections", len(h.names)))
	defer h.logger.Debug("Hub stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-h.tasks:
			t.done <- h.exec(t.fn)
		}
	}
}

func (h *Hub) exec(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
			h.logger.Error("Hub task panicked", log.Any("panic", r))
		}
	}()
	fn()
	return nil
}

// Do runs fn on the hub goroutine and waits for it to return. A panic inside
// fn is reported as ErrTaskPanicked.
func (h *Hub) Do(ctx context.Context, fn func()) error {
	t := task{fn: fn, done: make(chan error, 1)}
	select {
	case h.tasks <- t:
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrHubStopped
	}
	return <-t.done
}

// With runs fn against the named array on the hub goroutine. The array must
// not escape fn.
func (h *Hub) With(ctx context.Context, name string, fn func(arr *observable.Array[string])) error {
	arr, ok := h.collections[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	return h.Do(ctx, func() { fn(arr) })
}

// Apply runs ops against the named collection and returns its values
// afterwards, including when an op failed part way.
func (h *Hub) Apply(ctx context.Context, name string, ops []script.Op, keySep string) ([]string, error) {
	var (
		values   []string
		applyErr error
	)
	err := h.With(ctx, name, func(arr *observable.Array[string]) {
		applyErr = script.Apply(arr, ops, keySep)
		values = arr.Values()
	})
	if err != nil {
		return nil, err
	}
	return values, applyErr
}

// Watch hands the current values to onSnapshot and subscribes handler to the
// collection's topic in the same task, so no change falls between the two.
func (h *Hub) Watch(ctx context.Context, name string, onSnapshot func([]string), handler bus.EventHandler) (bus.Subscription, error) {
	var (
		sub    bus.Subscription
		subErr error
	)
	err := h.With(ctx, name, func(arr *observable.Array[string]) {
		onSnapshot(arr.Values())
		sub, subErr = h.bus.Subscribe(name, handler)
	})
	if err != nil {
		return nil, err
	}
	return sub, subErr
}

// Collections reports every collection in name order.
func (h *Hub) Collections(ctx context.Context) ([]CollectionInfo, error) {
	out := make([]CollectionInfo, 0, len(h.names))
	err := h.Do(ctx, func() {
		subs := make(map[string]int)
		for _, topic := range h.bus.GetTopics() {
			subs[topic.Name] = topic.Subs
		}
		for _, name := range h.names {
			out = append(out, CollectionInfo{
				Name:        name,
				Order:       h.orders[name],
				Len:         h.collections[name].Len(),
				Subscribers: subs[name],
			})
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
