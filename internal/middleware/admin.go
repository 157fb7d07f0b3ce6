package middleware

import (
	"context"
	"net/http"

	"nftmarket/internal/models"
)

type RoleStore interface {
	GetRole(ctx context.Context, userID string) (models.Role, error)
}

// RequireAdmin checks the role stored on the user row rather than the token
// claim so promotions and demotions take effect without reissuing tokens.
// SUPERADMIN passes every admin check.
func RequireAdmin(roleStore RoleStore) func(http.Handler) http.Handler {
	return requireRole(roleStore, models.RoleAdmin)
}

func RequireSuperAdmin(roleStore RoleStore) func(http.Handler) http.Handler {
	return requireRole(roleStore, models.RoleSuperAdmin)
}

func requireRole(roleStore RoleStore, role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			current, err := roleStore.GetRole(r.Context(), userID)
			if err != nil {
				http.Error(w, "unable to verify role", http.StatusInternalServerError)
				return
			}
			if current == models.RoleSuperAdmin {
				next.ServeHTTP(w, r)
				return
			}
			if current != role {
				http.Error(w, "admin privileges required", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
