// Package middleware provides the HTTP middlewares enforcing the storage
// protocol: version compatibility, server-level and per-user
// authentication, connection handling, and request logging.
package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/odizinne/gtacompta-storage/internal/models"
)

type ctxKey string

const userKey ctxKey = "user"

// Authenticator validates per-user credentials for the user auth
// middleware.
type Authenticator interface {
	Authenticate(username, password string) bool
}

// ConnectionClose marks every response as the last one on its
// connection. The protocol has no keep-alive; each request gets a fresh
// connection.
func ConnectionClose(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Connection", "close")
		next.ServeHTTP(w, r)
	})
}

// CheckProtocolVersion rejects requests advertising an incompatible
// X-Protocol-Version with 400 and a body naming both versions. A missing
// header is accepted. This runs before any authentication.
func CheckProtocolVersion(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientVersion := r.Header.Get(models.HeaderProtocolVersion)
		if clientVersion != "" && clientVersion != models.ProtocolVersion {
			WriteJSON(w, http.StatusBadRequest, map[string]any{
				"error":         "Unsupported protocol version",
				"serverVersion": models.ProtocolVersion,
				"clientVersion": clientVersion,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServerAuth enforces the server-wide shared secret carried in
// X-Password.
func ServerAuth(password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			supplied := r.Header.Get(models.HeaderServerPassword)
			if subtle.ConstantTimeCompare([]byte(supplied), []byte(password)) != 1 {
				WriteJSON(w, http.StatusUnauthorized, map[string]any{
					"error": "Unauthorized - Invalid server password",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserAuth validates the X-Username/X-User-Password pair and stores the
// authenticated username in the request context. Empty credentials fail
// outright.
func UserAuth(users Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username := r.Header.Get(models.HeaderUsername)
			password := r.Header.Get(models.HeaderUserPassword)
			if username == "" || password == "" || !users.Authenticate(username, password) {
				WriteJSON(w, http.StatusUnauthorized, map[string]any{
					"error": "Unauthorized - Invalid user credentials",
				})
				return
			}
			ctx := context.WithValue(r.Context(), userKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUsernameFromContext extracts the authenticated username from the
// request context. Returns an empty string if not set.
func GetUsernameFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(userKey).(string); ok {
		return s
	}
	return ""
}

// WriteJSON writes a JSON response body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
