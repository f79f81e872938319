package rbac

import "errors"

// Domain errors for RBAC operations.
var (
	// ErrInvalidRole is returned when a role does not exist.
	ErrInvalidRole = errors.New("rbac.invalid_role")

	// ErrInvalidAction is returned when an action does not exist.
	ErrInvalidAction = errors.New("rbac.invalid_action")

	// ErrInsufficientPermissions is returned when required permissions are not granted.
	ErrInsufficientPermissions = errors.New("rbac.insufficient_permissions")
)
