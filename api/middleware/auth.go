package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/biztrackhq/biztrack-backend/api/responses"
	pkgauth "github.com/biztrackhq/biztrack-backend/pkg/auth"
	"github.com/biztrackhq/biztrack-backend/pkg/config"
	pkgerrors "github.com/biztrackhq/biztrack-backend/pkg/errors"
	"github.com/biztrackhq/biztrack-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the claims.
// Every tenant-scoped route depends on the business id it injects.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if !claims.Role.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown role"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID.String())
			ctx = context.WithValue(ctx, ctxBusinessID, claims.BusinessID.String())
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":     claims.UserID.String(),
					"business_id": claims.BusinessID.String(),
					"actor_role":  string(claims.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
