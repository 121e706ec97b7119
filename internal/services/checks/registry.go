package checks

import "TradeGuard/internal/domain/models"

// Check is one independent rule over a read-only context C. Evaluate returns
// nil when the rule passes.
type Check[C any] struct {
	ID        string
	PassLabel string
	Evaluate  func(C) (*models.Finding, error)
}

// Registry is an ordered list of checks. It is a value type: Extend never
// mutates the receiver.
type Registry[C any] struct {
	checks []Check[C]
}

// NewRegistry builds a registry evaluated in the given order.
func NewRegistry[C any](checks ...Check[C]) Registry[C] {
	out := make([]Check[C], len(checks))
	copy(out, checks)
	return Registry[C]{checks: out}
}

// Extend returns a new registry with more checks appended.
func (r Registry[C]) Extend(more ...Check[C]) Registry[C] {
	out := make([]Check[C], 0, len(r.checks)+len(more))
	out = append(out, r.checks...)
	out = append(out, more...)
	return Registry[C]{checks: out}
}

// Len is the number of checks.
func (r Registry[C]) Len() int { return len(r.checks) }

// IDs lists check ids in evaluation order.
func (r Registry[C]) IDs() []string {
	ids := make([]string, len(r.checks))
	for i, c := range r.checks {
		ids[i] = c.ID
	}
	return ids
}
