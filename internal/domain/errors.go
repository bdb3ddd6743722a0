package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrLeaseNotFound  = errors.New("lease not found")
	ErrSignerNotFound = errors.New("signer not found")

	// ErrStatusConflict is returned by stores when a conditional status write
	// finds the lease no longer in the expected state.
	ErrStatusConflict = errors.New("lease status changed since it was read")

	// ErrConcurrentModification matches a *GuardError caused by a status
	// conflict at commit time.
	ErrConcurrentModification = errors.New("concurrent modification")
)

// TransitionError is returned when a transition is not defined for the
// lease's current state.
type TransitionError struct {
	Transition TransitionName
	Current    Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %q is not valid from state %q", e.Transition, e.Current)
}

// GuardError is returned when a defined transition cannot run because one or
// more preconditions failed. No state change has occurred.
type GuardError struct {
	Transition TransitionName
	Current    Status
	Failures   []GuardFailure
}

func (e *GuardError) Error() string {
	reasons := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		reasons[i] = f.Reason
	}
	return fmt.Sprintf("transition %q from state %q blocked: %s", e.Transition, e.Current, strings.Join(reasons, "; "))
}

// Is lets errors.Is(err, ErrConcurrentModification) identify conflicts.
func (e *GuardError) Is(target error) bool {
	if target != ErrConcurrentModification {
		return false
	}
	for _, f := range e.Failures {
		if f.Guard == GuardStatusUnchanged {
			return true
		}
	}
	return false
}

// ConcurrentChange is the failure reported when the status moved between
// reading the context and committing.
func ConcurrentChange() GuardFailure {
	return GuardFailure{
		Guard:    GuardStatusUnchanged,
		Severity: SeverityHard,
		Reason:   "lease status changed concurrently",
	}
}

// ValidationError is returned for malformed input to lease operations.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
