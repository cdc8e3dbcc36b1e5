// Package session keeps each viewer's slider state in memory, keyed by session
// ID. Sessions are created by Set from the current slider
// template, or minted by the page handler as viewer sessions, and evicted by
// Run once they have been idle for longer than the TTL. Lookup serves read
// paths and never creates a session.
package session
