package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a state has no transition for the trigger
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrGuardFailed is returned when no guarded transition admits the actor
	ErrGuardFailed = errors.New("guard condition failed")

	// ErrUnauthenticated is returned when the actor identity is missing or unparseable
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden is returned when the actor's role, ownership or the claim state denies the action
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when the referenced claim does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when the action is not defined for the claim's current state
	ErrInvalidState = errors.New("invalid state")

	// ErrValidation is returned for malformed caller input
	ErrValidation = errors.New("validation failed")
)

// ForbiddenError explains a denial with the state that was evaluated
type ForbiddenError struct {
	Action string
	State  State
	Role   RoleBucket
	Reason string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: cannot %s claim in state %s: %s", e.Action, e.State, e.Reason)
}

// Unwrap lets errors.Is match ErrForbidden
func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

// Classify maps state machine failures onto the public taxonomy.
// Errors that are already classified pass through unchanged.
func Classify(err error, action string, state State, role RoleBucket) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrGuardFailed):
		return &ForbiddenError{
			Action: action,
			State:  state,
			Role:   role,
			Reason: fmt.Sprintf("role %s may not %s at this stage", role, action),
		}
	case errors.Is(err, ErrInvalidTransition):
		return fmt.Errorf("%w: cannot %s claim in state %s", ErrInvalidState, action, state)
	default:
		return err
	}
}
