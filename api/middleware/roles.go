package middleware

import (
	"net/http"

	"github.com/biztrackhq/biztrack-backend/api/responses"
	"github.com/biztrackhq/biztrack-backend/pkg/enums"
	pkgerrors "github.com/biztrackhq/biztrack-backend/pkg/errors"
	"github.com/biztrackhq/biztrack-backend/pkg/logger"
)

// RequireRoles gates a route to the listed roles. The auth middleware must run
// earlier in the chain.
func RequireRoles(logg *logger.Logger, roles ...enums.UserRole) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[string(role)] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[RoleFromContext(r.Context())]; !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
