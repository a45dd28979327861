package concurrent

import (
	"context"
	"errors"

	"github.com/zeusync/listsync/pkg/sequence"
)

// ErrSkipped marks elements a pipeline never processed because it stopped early.
var ErrSkipped = errors.New("element skipped")

// PipelineErrorMode defines error handling mode for the pipeline.
type PipelineErrorMode int

const (
	// StopAllOnError stops starting new elements after the first error.
	StopAllOnError PipelineErrorMode = iota
	// IgnoreErrors records every error and processes all elements.
	IgnoreErrors
)

// PipeObject pairs the result of one element with its error.
type PipeObject[R any] struct {
	Result R
	Error  error
}

/*
Pipeline runs fn over every element of in with at most limit calls in flight.

Results come back in input order regardless of completion order. Elements that
were never started carry ErrSkipped. The returned error is the first failure
under StopAllOnError and nil under IgnoreErrors, unless ctx itself was
canceled.
*/
func Pipeline[T any, R any](
	ctx context.Context,
	in *sequence.Iterator[T],
	limit int,
	mode PipelineErrorMode,
	fn func(context.Context, T) (R, error),
) ([]PipeObject[R], error) {
	input := in.Collect()
	out := make([]PipeObject[R], len(input))
	started := make([]bool, len(input))

	indexes := make([]int, len(input))
	for i := range indexes {
		indexes[i] = i
	}

	err := Bounded(ctx, sequence.From(indexes), limit, func(ctx context.Context, i int) error {
		if ctx.Err() != nil {
			return nil
		}
		started[i] = true

		res, err := fn(ctx, input[i])
		out[i] = PipeObject[R]{Result: res, Error: err}
		if err != nil && mode == StopAllOnError {
			return err
		}
		return nil
	})

	for i := range out {
		if !started[i] {
			out[i].Error = ErrSkipped
		}
	}
	if err == nil {
		err = ctx.Err()
	}
	return out, err
}
