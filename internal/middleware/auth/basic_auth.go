package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/render"
)

// BasicAuth guards write routes. An empty username disables the check.
func BasicAuth(username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if username == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok {
				requireAuth(w, r)
				return
			}

			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
			if !userOK || !passOK {
				requireAuth(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requireAuth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Basic realm="Production Entry"`)
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, map[string]any{"success": false, "message": "Unauthorized"})
}
