package auth

import (
	"crypto/subtle"
	"net/http"
)

// Policy is the API key configuration shared by the REST API and the stream.
type Policy struct {
	Mode   string // "apikey" or "none"
	Header string
	Key    string
}

// Enabled reports whether requests must carry the key.
func (p Policy) Enabled() bool {
	return p.Mode == "apikey" && p.Key != ""
}

// Allow reports whether r may change state: the policy is disabled or r
// carries the expected key in p.Header.
func (p Policy) Allow(r *http.Request) bool {
	if !p.Enabled() {
		return true
	}
	got := r.Header.Get(p.Header)
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(p.Key)) == 1
}

// RequireAPIKey returns a handler that enforces p on every non-read request
// before delegating to next.
func RequireAPIKey(p Policy, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if !p.Allow(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid api key"}` + "\n")) //nolint:errcheck
			return
		}
		next.ServeHTTP(w, r)
	})
}
