package workflow

// ViewScope limits which claims a role can list
type ViewScope int

const (
	ScopeOwnOnly ViewScope = iota
	ScopeAll
)

func (v ViewScope) String() string {
	if v == ScopeAll {
		return "all"
	}
	return "own"
}

var viewAllBuckets = map[RoleBucket]bool{
	RoleAdmin:      true,
	RoleDirector:   true,
	RoleManager:    true,
	RoleAccountant: true,
	RoleSales:      true,
}

var editableStates = map[RoleBucket]map[State]bool{
	RoleManager:    {StatePending: true, StateManagerApproved: true},
	RoleDirector:   {StatePending: true, StateManagerApproved: true, StateDirectorApproved: true},
	RoleAccountant: {StateDirectorApproved: true},
}

var ownerEditable = map[State]bool{StatePending: true, StateCancelled: true}

var ownerDeletable = map[State]bool{StatePending: true, StateCancelled: true, StateRejected: true}

// ViewScopeFor returns the list scope for a role bucket
func ViewScopeFor(role RoleBucket) ViewScope {
	if viewAllBuckets[role] {
		return ScopeAll
	}
	return ScopeOwnOnly
}

// CanView reports whether the actor may read a single claim
func CanView(role RoleBucket, ownerID, actorID int64) bool {
	return ViewScopeFor(role) == ScopeAll || ownerID == actorID
}

// CanEdit reports whether the actor may edit a claim in the given state.
// Ownership and role grants are independent; either one is sufficient.
func CanEdit(role RoleBucket, state State, ownerID, actorID int64) bool {
	if role == RoleAdmin {
		return true
	}
	if ownerID == actorID && ownerEditable[state] {
		return true
	}
	return editableStates[role][state]
}

// CanDelete reports whether the actor may delete a claim in the given state
func CanDelete(role RoleBucket, state State, ownerID, actorID int64) bool {
	if role == RoleAdmin {
		return true
	}
	return ownerID == actorID && ownerDeletable[state]
}

// AuthorizeEdit returns a *ForbiddenError when CanEdit denies the actor
func AuthorizeEdit(role RoleBucket, state State, ownerID, actorID int64) error {
	if CanEdit(role, state, ownerID, actorID) {
		return nil
	}
	return &ForbiddenError{
		Action: "edit",
		State:  state,
		Role:   role,
		Reason: "claim is not editable by this user at its current stage",
	}
}

// AuthorizeDelete returns a *ForbiddenError when CanDelete denies the actor
func AuthorizeDelete(role RoleBucket, state State, ownerID, actorID int64) error {
	if CanDelete(role, state, ownerID, actorID) {
		return nil
	}
	reason := "only the owner or an administrator may delete a claim"
	if ownerID == actorID {
		reason = "claim can only be deleted while pending, cancelled or rejected"
	}
	return &ForbiddenError{
		Action: "delete",
		State:  state,
		Role:   role,
		Reason: reason,
	}
}
