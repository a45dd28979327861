package concurrent

import (
	"context"

	"github.com/zeusync/listsync/pkg/sequence"
	"golang.org/x/sync/errgroup"
)

// Bounded runs action for each element of the iterator in its own goroutine,
// at most limit at once, and waits for all of them. Each action gets a context
// that is canceled as soon as one of them fails, and the first error is
// returned. A limit below one means no limit.
func Bounded[T any](ctx context.Context, i *sequence.Iterator[T], limit int, action func(context.Context, T) error) error {
	errGroup, groupCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		errGroup.SetLimit(limit)
	}

	next, stop := i.Pull()
	defer stop()

	for {
		value, valid := next()
		if !valid {
			break
		}
		if groupCtx.Err() != nil {
			break
		}

		errGroup.Go(func() error {
			return action(groupCtx, value)
		})
	}

	return errGroup.Wait()
}
