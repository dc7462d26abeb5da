package middlewares

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"splitledger/internal/auth"
	"splitledger/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
)

// JWTMiddleware validates the Bearer cookie, rejects revoked tokens and
// stores the claims on the request context.
func JWTMiddleware(revocations auth.RevocationStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("Bearer")
			if err != nil {
				utils.WriteError(w, "unauthorized: missing Bearer token", http.StatusUnauthorized)
				return
			}

			token := strings.TrimPrefix(cookie.Value, "Bearer ")
			jwtSecret := os.Getenv("JWT_SECRET")

			parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (any, error) {
				return []byte(jwtSecret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					utils.WriteError(w, "token expired", http.StatusUnauthorized)
					return
				}
				utils.WriteError(w, "invalid login token", http.StatusUnauthorized)
				return
			}

			if !parsedToken.Valid {
				utils.WriteError(w, "invalid login token", http.StatusUnauthorized)
				return
			}

			claims, ok := parsedToken.Claims.(jwt.MapClaims)
			if !ok {
				utils.WriteError(w, "invalid login token", http.StatusUnauthorized)
				return
			}

			if jti, ok := claims["jti"].(string); ok && jti != "" {
				revoked, err := revocations.IsRevoked(r.Context(), jti)
				if err != nil {
					utils.Logger.Errorf("failed to check token revocation: %v", err)
					utils.WriteError(w, "internal server error", http.StatusInternalServerError)
					return
				}
				if revoked {
					utils.WriteError(w, "token has been revoked, please log in again", http.StatusUnauthorized)
					return
				}
			}

			ctx := context.WithValue(r.Context(), utils.ContextKey("expiresAt"), claims["exp"])
			ctx = context.WithValue(ctx, utils.ContextKey("username"), claims["user"])
			ctx = context.WithValue(ctx, utils.ContextKey("userId"), claims["uid"])
			ctx = context.WithValue(ctx, utils.ContextKey("jti"), claims["jti"])

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MiddlewaresExcludePaths applies mw to every request except those whose path
// starts with one of the excluded prefixes (signup, login and other
// pre-authentication endpoints).
func MiddlewaresExcludePaths(mw func(http.Handler) http.Handler, excluded ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		wrapped := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range excluded {
				if strings.HasPrefix(r.URL.Path, path) {
					next.ServeHTTP(w, r)
					return
				}
			}
			wrapped.ServeHTTP(w, r)
		})
	}
}
