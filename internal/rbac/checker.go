package rbac

import "context"

type permSet map[Permission]struct{}

// Checker answers permission questions against a fixed role policy.
type Checker struct {
	grants map[Role]permSet
}

func NewChecker(policy map[Role][]Permission) *Checker {
	if policy == nil {
		policy = RolePermissions
	}
	c := &Checker{grants: make(map[Role]permSet, len(policy))}
	for role, perms := range policy {
		set := make(permSet, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		c.grants[role] = set
	}
	return c
}

func (c *Checker) Has(role Role, perm Permission) bool {
	_, ok := c.grants[role][perm]
	return ok
}

func (c *Checker) Any(role Role, perms ...Permission) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

type ctxKey struct{}

func WithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, ctxKey{}, role)
}

func RoleFromContext(ctx context.Context) Role {
	r, _ := ctx.Value(ctxKey{}).(Role)
	return r
}
