// Package middleware holds the query API request filters.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/kalletarpila/swingmaster/internal/api/response"
	"github.com/kalletarpila/swingmaster/internal/core"
)

// APIKeyAuth returns middleware that accepts the key from X-API-Key or an
// "Authorization: Bearer" header. An empty apiKey disables the check.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if apiKey == "" {
			return next
		}
		want := []byte(apiKey)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := requestKey(r)
			if provided == "" || subtle.ConstantTimeCompare([]byte(provided), want) != 1 {
				response.Error(w, http.StatusUnauthorized, core.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestKey(r *http.Request) string {
	if k := r.Header.Get("X-API-Key"); k != "" {
		return k
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
