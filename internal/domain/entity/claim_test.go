package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
)

func strPtr(s string) *string { return &s }

func TestClaimPatch_ApplyPreservesBlank(t *testing.T) {
	stored := ClaimDetails{
		Requester:   "Lan",
		Department:  "Finance",
		ProjectCode: "P-01",
		TotalAmount: 1500000,
		Attachments: []string{"a.pdf"},
	}

	merged := ClaimPatch{
		Department:  strPtr(""),
		ProjectCode: strPtr("P-02"),
	}.Apply(stored)

	assert.Equal(t, "Finance", merged.Department)
	assert.Equal(t, "P-02", merged.ProjectCode)
	assert.Equal(t, "Lan", merged.Requester)
	assert.Equal(t, float64(1500000), merged.TotalAmount)
	assert.Equal(t, []string{"a.pdf"}, merged.Attachments)

	overwritten := ClaimPatch{Department: strPtr("Sales")}.Apply(stored)
	assert.Equal(t, "Sales", overwritten.Department)
}

func TestClaimPatch_ApplyNumbersAndLists(t *testing.T) {
	zero := 0.0
	empty := []string{}
	merged := ClaimPatch{TaxRate: &zero, Attachments: &empty}.Apply(ClaimDetails{TaxRate: 10, Attachments: []string{"x"}})

	assert.Equal(t, 0.0, merged.TaxRate)
	assert.Empty(t, merged.Attachments)
}

func TestClaim_EffectiveStatus(t *testing.T) {
	tests := []struct {
		name  string
		claim Claim
		want  workflow.State
	}{
		{"stored status wins", Claim{Status: workflow.StatePaid}, workflow.StatePaid},
		{"recovered from history", Claim{History: []StatusChange{
			{Status: workflow.StatePending},
			{Status: workflow.StateManagerApproved},
			{Status: ""},
		}}, workflow.StateManagerApproved},
		{"defaults to pending", Claim{}, workflow.StatePending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.claim.EffectiveStatus())
		})
	}
}

func TestUser_ManagerID(t *testing.T) {
	cases := map[string]bool{"12": true, "": false, "abc": false, "-3": false, " 4 ": true}
	for raw, ok := range cases {
		u := User{ManagerUserID: raw}
		_, got := u.ManagerID()
		assert.Equal(t, ok, got, "manager id %q", raw)
	}

	u := User{UserID: 5, RoleCode: "quan_ly"}
	assert.Equal(t, workflow.RoleManager, u.Bucket())
	assert.Equal(t, "5", u.DisplayName())
}
