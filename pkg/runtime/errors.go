package runtime

import "fmt"

// RuntimeError is the single error kind surfaced by analysis and
// evaluation. The two stages are distinguished only by message text;
// propagation is strictly upward with no internal retry.
type RuntimeError struct {
	Message string
}

func (e *RuntimeError) Error() string { return e.Message }

// Errorf builds a RuntimeError with a formatted message.
func Errorf(format string, args ...any) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...)}
}
