// Package ws implements the WebSocket stream for growthlab-server.
//
// Hub tracks connected clients, each bound to a viewer session. It pushes a
// fresh view to a session's clients whenever that session's slider changes,
// and to every client when the dataset is regenerated.
//
// New(notebook, sessions, opts) creates a Hub; a positive opts.Interval also
// re-sends views on a timer, which keeps connected sessions alive.
// Hub.Run(ctx) blocks until ctx is cancelled, then closes all connections.
// Hub.ServeHTTP upgrades /ws/stream?session=<id>, sends the current view
// immediately, then streams updates.
//
// Messages sent to clients:
//
//	{"event": "view",  "data": { /* same schema as GET /api/v1/snapshot */ }}
//	{"event": "error", "error": "slider value out of range: ..."}
//
// Messages accepted from clients:
//
//	{"event": "slider", "value": 27}
//
// With an apikey auth policy, a connection whose upgrade request lacks the key
// may only move a viewer session minted by the page handler. Changes to the
// default session or to API-created sessions are answered with an error
// event.
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level.
package ws
