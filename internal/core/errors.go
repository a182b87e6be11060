package core

import "fmt"

// ValidationError is a locally detected input problem. It never reaches
// the network and leaves the collection untouched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError is returned when a mutation is attempted while a prior
// mutation on the same task is still in flight. The new request is
// dropped, not queued.
type ConflictError struct {
	ID int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("operation already in progress for task %d", e.ID)
}
