package middleware

import (
	"net/http"

	"sevapay/internal/auth"
	"sevapay/internal/logger"
	"sevapay/internal/utils"

	"go.uber.org/zap"
)

// AuthMiddleware is optional auth: anonymous requests pass through, a bad
// token is rejected. A valid token's claims land in the request context and
// the raw token is kept for forwarding to the payment backend.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(tokenStr, secret)
			if err != nil {
				logger.FromCtx(r.Context()).Warn("rejected access token", zap.Error(err))
				utils.WriteJSONError(w, "Invalid or expired session. Please login again", http.StatusUnauthorized)
				return
			}

			ctx := auth.WithAccessToken(r.Context(), tokenStr)
			if claims.UserID != 0 {
				ctx = utils.SetUserContext(ctx, claims.UserID, claims.Email, claims.Role)
			}
			if loc, ok := claims.Location(); ok {
				ctx = utils.WithLocation(ctx, loc)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
