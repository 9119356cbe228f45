package ops

import (
	"fmt"
)

// DuplicateRegistrationError is returned by Registry.Register when the key is already
// bound. It indicates a build/link misconfiguration: two packages tried to provide the
// same operator binding. It is raised at registration (process startup) time, never at
// call time.
type DuplicateRegistrationError struct {
	Key OperatorKey
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("operator %s is already registered", e.Key)
}

// UnregisteredOperatorError is returned by Registry.Resolve and Registry.Invoke when no
// handler is bound for the exact key. There is no partial matching, so a near-miss (same
// name, different variant) still yields this error.
type UnregisteredOperatorError struct {
	Key OperatorKey
}

func (e *UnregisteredOperatorError) Error() string {
	return fmt.Sprintf("no handler registered for operator %s", e.Key)
}

// ComputeError wraps a failure raised by a handler during Invoke: shape or dtype
// mismatches, invalid axis values, unsupported element types. The registry propagates it
// to the caller unmodified.
type ComputeError struct {
	Key OperatorKey
	Err error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Key, e.Err)
}

func (e *ComputeError) Unwrap() error { return e.Err }
