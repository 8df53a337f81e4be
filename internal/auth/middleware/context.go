package auth

import (
	"context"

	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

// Principal is the caller named by a verified token.
type Principal struct {
	Subject string
	Role    rbac.Role
}

type principalKey struct{}

// withPrincipal stores p and also exposes its role to rbac guards.
func withPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = rbac.WithRole(ctx, p.Role)
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// SubjectFromContext returns "" for unauthenticated requests.
func SubjectFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.Subject
}
