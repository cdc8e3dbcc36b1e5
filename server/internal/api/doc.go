// Package api implements the HTTP REST API for growthlab-server.
//
// New(notebook, sessions, opts) returns an http.Handler that serves:
//
//	GET /api/v1/dataset  : every generated sample and the sample count
//	GET /api/v1/slider   : slider definition and the session's value
//	PUT /api/v1/slider   : set the session's value: {"value": 27}
//	GET /api/v1/summary  : descriptive statistics of the filtered subset
//	GET /api/v1/filtered : the filtered samples
//	GET /api/v1/report   : markdown summary (format=md) or HTML (format=html)
//	GET /api/v1/plot     : scatter plot (format=svg|png)
//	GET /api/v1/snapshot : summary, slider and markdown in one payload
//	GET /api/v1/sessions : live viewer sessions
//
// The session is chosen with ?session= (default "default"). Read endpoints
// accept ?threshold= to evaluate a value without storing it; the value is
// validated and snapped by the session's slider.
//
// JSON endpoints respond with Content-Type: application/json, return 405 for
// unsupported methods and {"error": "..."} bodies on failure.
package api
