package rbac

// Authorizer answers whether a role may perform an action.
type Authorizer interface {
	// Can returns nil if role is granted action.
	Can(role Role, action Action) error

	// Allowed lists every action granted to role.
	Allowed(role Role) []Action
}

var selfService = []Action{
	ActionEnroll,
	ActionVerifySetup,
	ActionAuthenticate,
	ActionValidateRecovery,
	ActionDisable,
	ActionViewStatus,
	ActionRegenerateRecoveryCodes,
}

// defaultMatrix is indexed by Role; each row is that role's complete permission set.
var defaultMatrix = [roleCount]actionSet{
	RoleUser:    setOf(selfService...),
	RoleSupport: setOf(selfService...),
	RoleAdmin:   setOf(append(selfService, ActionDisableWithoutCode)...),
}

type authorizer struct {
	matrix [roleCount]actionSet
	bypass bool
}

// Option configures an Authorizer.
type Option func(*authorizer)

// WithBypass grants every action to every role when enabled.
func WithBypass(enabled bool) Option {
	return func(a *authorizer) {
		a.bypass = enabled
	}
}

// WithGrant adds actions to a role's permission set.
func WithGrant(role Role, actions ...Action) Option {
	return func(a *authorizer) {
		if role.Valid() {
			a.matrix[role] |= setOf(actions...)
		}
	}
}

// NewAuthorizer creates an Authorizer with the default permission matrix.
func NewAuthorizer(opts ...Option) Authorizer {
	a := &authorizer{matrix: defaultMatrix}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *authorizer) Can(role Role, action Action) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if !action.Valid() {
		return ErrInvalidAction
	}
	if a.bypass || a.matrix[role].has(action) {
		return nil
	}
	return ErrInsufficientPermissions
}

func (a *authorizer) Allowed(role Role) []Action {
	if !role.Valid() {
		return nil
	}
	var out []Action
	for _, action := range Actions() {
		if a.bypass || a.matrix[role].has(action) {
			out = append(out, action)
		}
	}
	return out
}
