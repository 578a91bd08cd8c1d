package rbac

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/fruitline/fruitline/internal/platform/httpx"
	"github.com/fruitline/fruitline/internal/shared"
)

// Middleware wires role checks for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAny ensures the signed-in operator holds at least one of roles.
// Requests without a principal are answered with 401.
func (m Middleware) RequireAny(roles ...string) func(http.Handler) http.Handler {
	allowed := normalizeRoles(roles)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUnauthorized, shared.ErrNotSignedIn))
				return
			}
			if len(allowed) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := allowed[NormalizeRole(p.Role)]; ok {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Warn("rbac denied", slog.String("user_id", p.UserID), slog.String("role", p.Role), slog.String("path", r.URL.Path))
			}
			httpx.RespondError(w, fmt.Errorf("%w: role %q may not access this resource", httpx.ErrForbidden, p.Role))
		})
	}
}

func normalizeRoles(roles []string) map[string]struct{} {
	set := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		role = NormalizeRole(role)
		if role == "" {
			continue
		}
		set[role] = struct{}{}
	}
	return set
}
