package entity

import (
	"strconv"
	"strings"

	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
)

// User is a directory entry read by the approval workflow
type User struct {
	UserID        int64  `json:"userId" yaml:"user_id" bson:"legacyId"`
	Username      string `json:"username" yaml:"username" bson:"username"`
	FullName      string `json:"fullName" yaml:"full_name" bson:"fullName"`
	Email         string `json:"email" yaml:"email" bson:"email"`
	RoleCode      string `json:"roleCode" yaml:"role_code" bson:"roleCode"`
	ManagerUserID string `json:"managerId" yaml:"manager_id" bson:"managerId"`
	Department    string `json:"department" yaml:"department" bson:"department"`
}

// Bucket returns the user's canonical role bucket
func (u *User) Bucket() workflow.RoleBucket {
	return workflow.BucketOf(u.RoleCode)
}

// ManagerID parses the weak manager reference. It returns false when the
// reference is absent or not a positive integer.
func (u *User) ManagerID() (int64, bool) {
	raw := strings.TrimSpace(u.ManagerUserID)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// DisplayName prefers the full name and falls back to the username
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Username != "" {
		return u.Username
	}
	return strconv.FormatInt(u.UserID, 10)
}
