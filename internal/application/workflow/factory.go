package workflow

import (
	"context"

	domainwf "github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
)

func roleIn(roles ...domainwf.RoleBucket) domainwf.GuardFunc {
	return func(_ context.Context, actor domainwf.RoleBucket) bool {
		if actor == domainwf.RoleAdmin {
			return true
		}
		for _, r := range roles {
			if r == actor {
				return true
			}
		}
		return false
	}
}

// BuildClaimStateMachine creates a state machine configured for the claim approval chain.
// Administrators pass every approval guard. Reject is permitted from every state.
func BuildClaimStateMachine(initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	// PENDING: a manager approval comes first, directors may skip it
	builder.Configure(domainwf.StatePending).
		PermitIf(domainwf.TriggerApprove, domainwf.StateManagerApproved, roleIn(domainwf.RoleManager)).
		PermitIf(domainwf.TriggerApprove, domainwf.StateDirectorApproved, roleIn(domainwf.RoleDirector))

	builder.Configure(domainwf.StateManagerApproved).
		PermitIf(domainwf.TriggerApprove, domainwf.StateDirectorApproved, roleIn(domainwf.RoleDirector))

	builder.Configure(domainwf.StateDirectorApproved).
		PermitIf(domainwf.TriggerApprove, domainwf.StatePaid, roleIn(domainwf.RoleAccountant))

	for _, s := range []domainwf.State{
		domainwf.StatePending,
		domainwf.StateManagerApproved,
		domainwf.StateDirectorApproved,
		domainwf.StatePaid,
		domainwf.StateRejected,
		domainwf.StateCancelled,
	} {
		builder.Configure(s).Permit(domainwf.TriggerReject, domainwf.StateRejected)
	}

	return builder.Build(initialState)
}

// approvalRouting says who hears about a claim that just reached a state
var approvalRouting = map[domainwf.State]Routing{
	domainwf.StateManagerApproved:  {Hierarchy: true, FallbackRole: domainwf.RoleDirector},
	domainwf.StateDirectorApproved: {FallbackRole: domainwf.RoleAccountant},
	domainwf.StatePaid:             {},
}
