// Package middleware provides HTTP middleware for the gateway endpoints.
package middleware

import (
	"crypto/subtle"
	"net/http"
)

// GatewayAuth restricts callback endpoints to callers presenting one of the
// allowlisted tokens in the X-Gateway-Token header. An empty allowlist
// disables the check, which is the development-mode default.
func GatewayAuth(tokens []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		allowed[t] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(allowed) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			got := r.Header.Get("X-Gateway-Token")
			if !tokenAllowed(allowed, got) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokenAllowed(allowed map[string]struct{}, token string) bool {
	if token == "" {
		return false
	}
	// Constant-time compare against each entry so timing does not leak
	// token prefixes.
	for t := range allowed {
		if len(t) == len(token) && subtle.ConstantTimeCompare([]byte(t), []byte(token)) == 1 {
			return true
		}
	}
	return false
}
