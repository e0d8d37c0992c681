package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// publicPaths are served without a token.
var publicPaths = map[string]bool{
	"/healthz": true,
	"/metrics": true,
}

// AuthMiddleware requires the API token as "Authorization: Bearer <token>" or
// as the "token" query parameter. Browsers cannot set headers on websocket
// requests, hence the query form. An empty token disables the check.
func AuthMiddleware(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		if !validToken(requestToken(r), token) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="smartpole"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

func validToken(got, want string) bool {
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
