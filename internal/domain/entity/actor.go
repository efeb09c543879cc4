package entity

import "github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"

// Actor is the verified identity performing an action
type Actor struct {
	UserID   int64
	RoleCode string
	Name     string
}

// Role returns the actor's canonical role bucket
func (a Actor) Role() workflow.RoleBucket {
	return workflow.BucketOf(a.RoleCode)
}

// DisplayName returns the actor name or "Unknown"
func (a Actor) DisplayName() string {
	if a.Name == "" {
		return "Unknown"
	}
	return a.Name
}
