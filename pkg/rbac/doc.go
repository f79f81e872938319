// Package rbac maps a closed set of roles to the MFA actions they may perform.
//
// Roles and actions are enumerated types rather than free-form strings. The
// permission matrix is a fixed-size array indexed by role, so every role has a
// defined permission set and an unknown role can never fall through to a
// missing map entry.
//
// Key concepts:
//
//   - Role: RoleUser, RoleSupport or RoleAdmin, parsed from the profile store with ParseRole
//   - Action: an operation a caller may attempt, e.g. ActionDisableWithoutCode
//   - Bypass: WithBypass(true) grants every action and exists for test harnesses only
//
// Basic usage:
//
//	auth := rbac.NewAuthorizer()
//
//	role, err := rbac.ParseRole(profile.Role)
//	if err != nil {
//	    return err
//	}
//	if err := auth.Can(role, rbac.ActionDisableWithoutCode); err != nil {
//	    // rbac.ErrInsufficientPermissions
//	}
//
// The Authorizer is immutable after construction and safe for concurrent use.
package rbac
