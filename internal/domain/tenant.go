package domain

// TenantID identifies an isolated customer organization. Every row in the
// store belongs to exactly one tenant, and every operation filters on it.
//
// Tenant identity is always passed explicitly. Background jobs capture the
// tenant id in their arguments at enqueue time and re-establish it as the
// first action of the handler; nothing is inherited from an ambient context.
type TenantID string

func (t TenantID) String() string { return string(t) }

func (t TenantID) IsZero() bool { return t == "" }
