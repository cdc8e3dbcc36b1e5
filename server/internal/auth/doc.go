// Package auth provides API key authentication for state-changing requests.
//
// A Policy holds the mode, header name and expected key. Policy.Allow(r)
// reports whether r may change state:
//   - mode != "apikey" or key == "" → every request is allowed
//   - otherwise the named header must equal key
//
// RequireAPIKey(policy, next) wraps an http.Handler: GET, HEAD and OPTIONS
// always pass through; other methods failing Allow get 401 with a JSON error
// body. The WebSocket hub applies the same Policy to the upgrade request.
package auth
