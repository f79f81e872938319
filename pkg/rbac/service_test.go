package rbac_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mfakit/pkg/rbac"
)

func TestAuthorizer_Can(t *testing.T) {
	t.Parallel()
	auth := rbac.NewAuthorizer()

	tests := []struct {
		name    string
		role    rbac.Role
		action  rbac.Action
		wantErr error
	}{
		{"user may enroll", rbac.RoleUser, rbac.ActionEnroll, nil},
		{"user may disable with code", rbac.RoleUser, rbac.ActionDisable, nil},
		{"user may not disable without code", rbac.RoleUser, rbac.ActionDisableWithoutCode, rbac.ErrInsufficientPermissions},
		{"support may not disable without code", rbac.RoleSupport, rbac.ActionDisableWithoutCode, rbac.ErrInsufficientPermissions},
		{"admin may disable without code", rbac.RoleAdmin, rbac.ActionDisableWithoutCode, nil},
		{"admin may regenerate", rbac.RoleAdmin, rbac.ActionRegenerateRecoveryCodes, nil},
		{"unknown role", rbac.Role(42), rbac.ActionEnroll, rbac.ErrInvalidRole},
		{"unknown action", rbac.RoleAdmin, rbac.Action(42), rbac.ErrInvalidAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := auth.Can(tt.role, tt.action)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAuthorizer_MatrixIsTotal(t *testing.T) {
	t.Parallel()
	auth := rbac.NewAuthorizer()

	for _, role := range rbac.Roles() {
		for _, action := range rbac.Actions() {
			err := auth.Can(role, action)
			if err != nil {
				assert.ErrorIs(t, err, rbac.ErrInsufficientPermissions, "%s/%s", role, action)
			}
		}
		assert.NotEmpty(t, auth.Allowed(role), "role %s has no permissions", role)
	}
}

func TestAuthorizer_Bypass(t *testing.T) {
	t.Parallel()
	auth := rbac.NewAuthorizer(rbac.WithBypass(true))

	for _, role := range rbac.Roles() {
		assert.NoError(t, auth.Can(role, rbac.ActionDisableWithoutCode))
		assert.Len(t, auth.Allowed(role), len(rbac.Actions()))
	}
	assert.ErrorIs(t, auth.Can(rbac.Role(42), rbac.ActionEnroll), rbac.ErrInvalidRole)
}

func TestAuthorizer_WithGrant(t *testing.T) {
	t.Parallel()
	auth := rbac.NewAuthorizer(rbac.WithGrant(rbac.RoleSupport, rbac.ActionDisableWithoutCode))

	assert.NoError(t, auth.Can(rbac.RoleSupport, rbac.ActionDisableWithoutCode))
	assert.ErrorIs(t, auth.Can(rbac.RoleUser, rbac.ActionDisableWithoutCode), rbac.ErrInsufficientPermissions)
}

func TestAuthorizer_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	auth := rbac.NewAuthorizer()

	const numGoroutines = 50
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := range numGoroutines {
		go func(id int) {
			defer wg.Done()
			for range 100 {
				if id%2 == 0 {
					assert.NoError(t, auth.Can(rbac.RoleAdmin, rbac.ActionDisableWithoutCode))
				} else {
					assert.Error(t, auth.Can(rbac.RoleUser, rbac.ActionDisableWithoutCode))
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestParseRole(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    rbac.Role
		wantErr bool
	}{
		{"user", rbac.RoleUser, false},
		{"Admin", rbac.RoleAdmin, false},
		{" support ", rbac.RoleSupport, false},
		{"", rbac.RoleUser, false},
		{"root", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := rbac.ParseRole(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, rbac.ErrInvalidRole)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.String(), got.String())
		})
	}
}

func TestRoleAndActionStrings(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "admin", rbac.RoleAdmin.String())
	assert.Equal(t, "unknown", rbac.Role(42).String())
	assert.Equal(t, "mfa.disable_without_code", rbac.ActionDisableWithoutCode.String())
	assert.Equal(t, "unknown", rbac.Action(42).String())
}
