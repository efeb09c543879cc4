package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	owner    int64 = 7
	stranger int64 = 8
)

var allStates = []State{StatePending, StateManagerApproved, StateDirectorApproved, StatePaid, StateRejected, StateCancelled}

func TestBucketOf(t *testing.T) {
	cases := map[string]RoleBucket{
		"admin":           RoleAdmin,
		"giam_doc":        RoleDirector,
		"director":        RoleDirector,
		"ip_manager":      RoleManager,
		"quan_ly":         RoleManager,
		"Manager":         RoleManager,
		"ke_toan":         RoleAccountant,
		"marketing_sales": RoleSales,
		"sales":           RoleSales,
		"staff":           RoleEmployee,
		"":                RoleEmployee,
	}
	for code, want := range cases {
		assert.Equal(t, want, BucketOf(code), "code %q", code)
	}

	assert.Equal(t, []string{"ip_manager", "manager", "quan_ly"}, CodesFor(RoleManager))
	assert.Nil(t, CodesFor(RoleEmployee))
}

func TestViewScopeFor(t *testing.T) {
	for _, r := range []RoleBucket{RoleAdmin, RoleDirector, RoleManager, RoleAccountant, RoleSales} {
		assert.Equal(t, ScopeAll, ViewScopeFor(r), string(r))
	}
	assert.Equal(t, ScopeOwnOnly, ViewScopeFor(RoleEmployee))

	assert.True(t, CanView(RoleEmployee, owner, owner))
	assert.False(t, CanView(RoleEmployee, owner, stranger))
	assert.True(t, CanView(RoleAccountant, owner, stranger))
}

func TestCanEdit(t *testing.T) {
	allowed := map[RoleBucket][]State{
		RoleManager:    {StatePending, StateManagerApproved},
		RoleDirector:   {StatePending, StateManagerApproved, StateDirectorApproved},
		RoleAccountant: {StateDirectorApproved},
		RoleSales:      {},
		RoleEmployee:   {},
	}

	for role, states := range allowed {
		for _, s := range allStates {
			want := false
			for _, a := range states {
				if a == s {
					want = true
				}
			}
			assert.Equal(t, want, CanEdit(role, s, owner, stranger), "role %s state %s", role, s)
		}
	}

	for _, s := range allStates {
		assert.True(t, CanEdit(RoleAdmin, s, owner, stranger), "admin state %s", s)
	}
}

func TestCanEdit_Owner(t *testing.T) {
	assert.True(t, CanEdit(RoleEmployee, StatePending, owner, owner))
	assert.True(t, CanEdit(RoleEmployee, StateCancelled, owner, owner))
	assert.False(t, CanEdit(RoleEmployee, StateManagerApproved, owner, owner))
	assert.False(t, CanEdit(RoleEmployee, StateRejected, owner, owner))
	// manager grant still applies to their own claim
	assert.True(t, CanEdit(RoleManager, StateManagerApproved, owner, owner))
}

func TestCanDelete(t *testing.T) {
	for _, s := range allStates {
		assert.True(t, CanDelete(RoleAdmin, s, owner, stranger))
		assert.False(t, CanDelete(RoleDirector, s, owner, stranger))
		assert.False(t, CanDelete(RoleManager, s, owner, stranger))
	}

	assert.True(t, CanDelete(RoleEmployee, StatePending, owner, owner))
	assert.True(t, CanDelete(RoleEmployee, StateCancelled, owner, owner))
	assert.True(t, CanDelete(RoleEmployee, StateRejected, owner, owner))
	assert.False(t, CanDelete(RoleEmployee, StateManagerApproved, owner, owner))
	assert.False(t, CanDelete(RoleEmployee, StatePaid, owner, owner))
}

func TestAuthorize_ReturnsForbiddenWithState(t *testing.T) {
	err := AuthorizeDelete(RoleEmployee, StatePaid, owner, owner)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrNotFound))

	var fe *ForbiddenError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, StatePaid, fe.State)
	assert.Equal(t, "delete", fe.Action)

	assert.NoError(t, AuthorizeEdit(RoleDirector, StateDirectorApproved, owner, stranger))
	err = AuthorizeEdit(RoleAccountant, StatePending, owner, stranger)
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, StatePending, fe.State)
}
