package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/avelasquez/taskflow-backend/api/responses"
	pkgerrors "github.com/avelasquez/taskflow-backend/pkg/errors"
	"github.com/avelasquez/taskflow-backend/pkg/logger"
)

const userIDHeader = "X-User-Id"

// Identity reads the gateway-supplied user id header into the request
// context. Authentication happens upstream; this service trusts the header.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := strings.TrimSpace(r.Header.Get(userIDHeader))
			if raw != "" {
				userID, err := strconv.ParseInt(raw, 10, 64)
				if err != nil || userID <= 0 {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid user id header"))
					return
				}
				ctx = WithUserID(ctx, userID)
				if logg != nil {
					ctx = logg.WithUserID(ctx, userID)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity rejects requests that reached a user-scoped route without
// an identity header.
func RequireIdentity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFromContext(r.Context()) <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "user identity missing"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
