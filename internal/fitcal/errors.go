package fitcal

import "fmt"

// StorageError wraps a fault from the underlying persistence layer. Storage
// faults are never retried automatically; callers decide how to report them.
type StorageError struct {
	Op  string // the storage operation that failed, e.g. "put activity"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ValidationError reports input that fails a shape or invariant check before
// any mutation has happened.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s", e.Reason)
}
