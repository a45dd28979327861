package observable

import (
	"slices"

	"github.com/zeusync/listsync/internal/core/observability/log"
)

// Subscribe registers h for obs. A bundle without any structural handler
// (Insert, Remove, Move or RemoveAll) is ignored. Subscribing an observer that
// is already registered adds another bundle; both keep firing.
func (a *Array[T]) Subscribe(obs Observer, h Handlers[T]) {
	if obs.IsZero() {
		panic(ErrInvalidObserver)
	}
	if !h.structural() {
		a.logger.Debug("ignoring subscription without structural handlers")
		return
	}

	if i := a.indexOfObserver(obs); i >= 0 {
		a.observers[i].handlers = append(a.observers[i].handlers, h)
		return
	}

	a.observers = append(a.observers, registration[T]{
		observer: obs,
		handlers: []Handlers[T]{h},
	})
	if len(a.observers) == 1 {
		a.presenceChanged(true)
	}
}

// Unsubscribe drops every bundle registered for obs.
func (a *Array[T]) Unsubscribe(obs Observer) {
	i := a.indexOfObserver(obs)
	if i < 0 {
		return
	}
	a.dropObserverAt(i)
}

// HasObservers reports whether at least one observer is registered.
func (a *Array[T]) HasObservers() bool {
	return len(a.observers) > 0
}

// ObserverCount returns the number of registered observers. Observers that
// died but have not been visited by a notification yet are still counted.
func (a *Array[T]) ObserverCount() int {
	return len(a.observers)
}

func (a *Array[T]) indexOfObserver(obs Observer) int {
	return slices.IndexFunc(a.observers, func(r registration[T]) bool {
		return r.observer.same(obs)
	})
}

func (a *Array[T]) dropObserverAt(i int) {
	a.observers = slices.Delete(a.observers, i, i+1)
	if len(a.observers) == 0 {
		a.presenceChanged(false)
	}
}

func (a *Array[T]) presenceChanged(has bool) {
	a.logger.Debug("observer presence changed", log.Bool("has_observers", has))
	if a.onPresence != nil {
		a.onPresence(has)
	}
}

// notify runs fn for every bundle, most recently registered observer first.
// Observers whose identity no longer resolves are pruned as they are reached.
func (a *Array[T]) notify(fn func(Handlers[T])) {
	if len(a.observers) == 0 {
		return
	}

	a.notifying = true
	defer func() { a.notifying = false }()

	pass := slices.Clone(a.observers)
	for i := len(pass) - 1; i >= 0; i-- {
		reg := pass[i]
		idx := a.indexOfObserver(reg.observer)
		if idx < 0 {
			// unsubscribed by an earlier handler in this pass
			continue
		}
		if !reg.observer.isAlive() {
			a.logger.Debug("pruning stale observer", log.Int("remaining", len(a.observers)-1))
			a.dropObserverAt(idx)
			continue
		}
		for _, h := range reg.handlers {
			fn(h)
		}
	}
}
