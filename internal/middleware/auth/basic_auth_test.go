package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestBasicAuth(t *testing.T) {
	h := BasicAuth("shift", "secret")(okHandler())

	cases := []struct {
		name string
		user string
		pass string
		set  bool
		want int
	}{
		{name: "no header", want: http.StatusUnauthorized},
		{name: "wrong password", user: "shift", pass: "nope", set: true, want: http.StatusUnauthorized},
		{name: "wrong user", user: "admin", pass: "secret", set: true, want: http.StatusUnauthorized},
		{name: "valid", user: "shift", pass: "secret", set: true, want: http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/entries", nil)
			if tc.set {
				req.SetBasicAuth(tc.user, tc.pass)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tc.want, rr.Code)
			if tc.want == http.StatusUnauthorized {
				assert.NotEmpty(t, rr.Header().Get("WWW-Authenticate"))
				assert.JSONEq(t, `{"success":false,"message":"Unauthorized"}`, rr.Body.String())
			}
		})
	}
}

func TestBasicAuth_DisabledWithoutUser(t *testing.T) {
	h := BasicAuth("", "")(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/entries", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
}
