package event

// Type identifies the type of domain event
type Type string

const (
	TypeClaimCreated  Type = "claim.created"
	TypeClaimUpdated  Type = "claim.updated"
	TypeClaimApproved Type = "claim.approved"
	TypeClaimRejected Type = "claim.rejected"
	TypeClaimDeleted  Type = "claim.deleted"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeClaimCreated,
		TypeClaimUpdated,
		TypeClaimApproved,
		TypeClaimRejected,
		TypeClaimDeleted:
		return true
	default:
		return false
	}
}

// All returns every defined event type
func All() []Type {
	return []Type{TypeClaimCreated, TypeClaimUpdated, TypeClaimApproved, TypeClaimRejected, TypeClaimDeleted}
}
