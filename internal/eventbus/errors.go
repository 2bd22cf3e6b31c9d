package eventbus

import (
	"errors"
	"fmt"
)

var (
	ErrNoActiveContext = errors.New("eventbus: no active context")
	ErrContextMismatch = errors.New("eventbus: context mismatch")
	ErrEmptyContext    = errors.New("eventbus: empty context id")
	ErrClosed          = errors.New("eventbus: closed")
)

// ConsistencyError reports a broken invocation sequence. It is a
// programming error, never a consequence of user input.
type ConsistencyError struct {
	Op      string
	Context ContextID
	Err     error
}

func (e *ConsistencyError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Context, e.Err)
}

func (e *ConsistencyError) Unwrap() error { return e.Err }
