package radio

import "fmt"

// LinkError wraps a transport-level failure from a Driver implementation,
// per spec.md §6/§7. The exchange package wraps it again as a Protocol
// error; it is never retried at this layer.
type LinkError struct {
	Op  string
	Err error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("radio link error during %s: %v", e.Op, e.Err)
}

func (e *LinkError) Unwrap() error { return e.Err }

// Wrap builds a LinkError for the named operation.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &LinkError{Op: op, Err: err}
}
