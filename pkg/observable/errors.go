package observable

import (
	"errors"
	"fmt"
)

var (
	ErrIndexOutOfRange   = errors.New("observable: index out of range")
	ErrReentrantMutation = errors.New("observable: collection mutated from inside a change handler")
	ErrInvalidObserver   = errors.New("observable: invalid observer")
)

// IndexError is the panic value raised when an operation receives an index
// outside the collection bounds. It unwraps to ErrIndexOutOfRange.
type IndexError struct {
	Op    string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("observable: %s: index %d out of range for length %d", e.Op, e.Index, e.Len)
}

func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}
