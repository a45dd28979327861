package observable

import "github.com/zeusync/listsync/internal/core/observability/log"

// Less reports whether lhs must be placed before rhs.
type Less[T any] func(lhs, rhs T) bool

// Option configures an Array at construction time.
type Option[T any] func(*Array[T])

// WithOrder enforces ordering by less for every later insertion. Initial
// values are left as given.
func WithOrder[T any](less func(lhs, rhs T) bool) Option[T] {
	return func(a *Array[T]) {
		a.less = less
	}
}

// WithPresenceHandler registers fn to be called with true when the first
// observer subscribes and with false when the last one goes away.
func WithPresenceHandler[T any](fn func(hasObservers bool)) Option[T] {
	return func(a *Array[T]) {
		a.onPresence = fn
	}
}

func WithLogger[T any](logger log.Log) Option[T] {
	return func(a *Array[T]) {
		if logger != nil {
			a.logger = logger
		}
	}
}
