package workflow

import "strings"

// State is a claim status in the approval chain
type State string

const (
	StatePending          State = "PENDING"
	StateManagerApproved  State = "MANAGER_APPROVED"
	StateDirectorApproved State = "DIRECTOR_APPROVED"
	StatePaid             State = "PAID"
	StateRejected         State = "REJECTED"
	StateCancelled        State = "CANCELLED"
)

var validStates = map[State]bool{
	StatePending:          true,
	StateManagerApproved:  true,
	StateDirectorApproved: true,
	StatePaid:             true,
	StateRejected:         true,
	StateCancelled:        true,
}

var terminalStates = map[State]bool{
	StatePaid:      true,
	StateRejected:  true,
	StateCancelled: true,
}

// legacyLabels maps the status labels written by the previous system to canonical states.
var legacyLabels = map[string]State{
	"đợi duyệt":      StatePending,
	"quản lý duyệt":  StateManagerApproved,
	"giám đốc duyệt": StateDirectorApproved,
	"đã thanh toán":  StatePaid,
	"từ chối":        StateRejected,
	"huỷ":            StateCancelled,
	"hủy":            StateCancelled,
}

// ParseState accepts a canonical state code or a legacy label.
// The empty string and unknown values return ok == false.
func ParseState(raw string) (State, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}

	if s := State(strings.ToUpper(trimmed)); s.IsValid() {
		return s, true
	}

	if s, ok := legacyLabels[strings.ToLower(trimmed)]; ok {
		return s, true
	}

	return "", false
}

// IsTerminal returns true if no approval-chain transition leaves this state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known claim status
func (s State) IsValid() bool {
	return validStates[s]
}

// Label returns a human readable name used in notes and notifications
func (s State) Label() string {
	switch s {
	case StatePending:
		return "Pending approval"
	case StateManagerApproved:
		return "Manager approved"
	case StateDirectorApproved:
		return "Director approved"
	case StatePaid:
		return "Paid"
	case StateRejected:
		return "Rejected"
	case StateCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}
