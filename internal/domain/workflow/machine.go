package workflow

import (
	"context"
	"fmt"
)

// StateMachine tracks a claim's current state and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire reports whether the actor could fire the trigger from the current state
	CanFire(ctx context.Context, trigger Trigger, actor RoleBucket) bool

	// Fire executes the trigger for the actor, moving to the first permitted target.
	// It returns ErrInvalidTransition when the state has no transition for the trigger
	// and ErrGuardFailed when transitions exist but none admit the actor.
	Fire(ctx context.Context, trigger Trigger, actor RoleBucket) error

	// PermittedTriggers returns all triggers configured for the current state
	PermittedTriggers() []Trigger
}

type stateMachine struct {
	currentState   State
	configurations map[State]*stateConfig
}

func (m *stateMachine) State() State {
	return m.currentState
}

func (m *stateMachine) CanFire(ctx context.Context, trigger Trigger, actor RoleBucket) bool {
	_, err := m.next(ctx, trigger, actor)
	return err == nil
}

func (m *stateMachine) Fire(ctx context.Context, trigger Trigger, actor RoleBucket) error {
	to, err := m.next(ctx, trigger, actor)
	if err != nil {
		return err
	}
	m.currentState = to
	return nil
}

func (m *stateMachine) next(ctx context.Context, trigger Trigger, actor RoleBucket) (State, error) {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return "", fmt.Errorf("%w: cannot fire trigger %s from state %s (no configuration)", ErrInvalidTransition, trigger, m.currentState)
	}

	transitions := config.transitions[trigger]
	if len(transitions) == 0 {
		return "", fmt.Errorf("%w: cannot fire trigger %s from state %s", ErrInvalidTransition, trigger, m.currentState)
	}

	for _, t := range transitions {
		if t.guard == nil || t.guard(ctx, actor) {
			return t.toState, nil
		}
	}

	return "", fmt.Errorf("%w: trigger %s from state %s for role %s", ErrGuardFailed, trigger, m.currentState, actor)
}

func (m *stateMachine) PermittedTriggers() []Trigger {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.transitions))
	for trigger := range config.transitions {
		triggers = append(triggers, trigger)
	}

	return triggers
}
