package rbac

import "strings"

// Role identifies a caller class.
type Role uint8

const (
	RoleUser Role = iota
	RoleSupport
	RoleAdmin

	roleCount
)

var roleNames = [roleCount]string{
	RoleUser:    "user",
	RoleSupport: "support",
	RoleAdmin:   "admin",
}

// String returns the role name as stored in the profile store.
func (r Role) String() string {
	if !r.Valid() {
		return "unknown"
	}
	return roleNames[r]
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	return r < roleCount
}

// ParseRole converts a stored role name to a Role. The empty string maps to RoleUser.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RoleUser, nil
	}
	for r, name := range roleNames {
		if name == s {
			return Role(r), nil
		}
	}
	return 0, ErrInvalidRole
}

// Roles returns all roles in declaration order.
func Roles() []Role {
	out := make([]Role, 0, roleCount)
	for r := range roleCount {
		out = append(out, r)
	}
	return out
}

// Action identifies an MFA operation subject to authorization.
type Action uint8

const (
	ActionEnroll Action = iota
	ActionVerifySetup
	ActionAuthenticate
	ActionValidateRecovery
	ActionDisable
	ActionDisableWithoutCode
	ActionViewStatus
	ActionRegenerateRecoveryCodes

	actionCount
)

var actionNames = [actionCount]string{
	ActionEnroll:                  "mfa.enroll",
	ActionVerifySetup:             "mfa.verify_setup",
	ActionAuthenticate:            "mfa.authenticate",
	ActionValidateRecovery:        "mfa.validate_recovery",
	ActionDisable:                 "mfa.disable",
	ActionDisableWithoutCode:      "mfa.disable_without_code",
	ActionViewStatus:              "mfa.status",
	ActionRegenerateRecoveryCodes: "mfa.regenerate_recovery_codes",
}

func (a Action) String() string {
	if !a.Valid() {
		return "unknown"
	}
	return actionNames[a]
}

// Valid reports whether a is one of the enumerated actions.
func (a Action) Valid() bool {
	return a < actionCount
}

// Actions returns all actions in declaration order.
func Actions() []Action {
	out := make([]Action, 0, actionCount)
	for a := range actionCount {
		out = append(out, a)
	}
	return out
}

// actionSet is a bitmask over Action.
type actionSet uint32

func setOf(actions ...Action) actionSet {
	var s actionSet
	for _, a := range actions {
		s |= 1 << a
	}
	return s
}

func (s actionSet) has(a Action) bool {
	return s&(1<<a) != 0
}
