package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/growthlab/growthlab/server/internal/control"
)

// DefaultID is used when a request names no session.
const DefaultID = "default"

// Entry is a session's slider together with the time it was last touched.
// Viewer marks a session minted for a browser page.
type Entry struct {
	ID        string
	Slider    control.Slider
	UpdatedAt time.Time
	Viewer    bool
}

// Store is a thread-safe in-memory session store.
type Store struct {
	mu       sync.RWMutex
	data     map[string]*Entry
	ttl      time.Duration
	template func() control.Slider
	now      func() time.Time // injectable for deterministic tests
}

// New creates a Store. New sessions start from template().
func New(ttl time.Duration, template func() control.Slider) *Store {
	return &Store{
		data:     make(map[string]*Entry),
		ttl:      ttl,
		template: template,
		now:      time.Now,
	}
}

// TTL returns the idle time after which a session is evicted.
func (s *Store) TTL() time.Duration { return s.ttl }

// Lookup returns the slider for id, or the template when no such session
// exists. It refreshes an existing session's idle timer but never creates one.
func (s *Store) Lookup(id string) control.Slider {
	if id == "" {
		id = DefaultID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[id]
	if !ok {
		return s.template()
	}
	e.UpdatedAt = s.now()
	return e.Slider
}

// Mint creates a viewer session for id. It reports false, leaving the store
// unchanged, when id is the default session or already exists.
func (s *Store) Mint(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" || id == DefaultID {
		return false
	}
	if _, ok := s.data[id]; ok {
		return false
	}
	s.data[id] = &Entry{ID: id, Slider: s.template(), UpdatedAt: s.now(), Viewer: true}
	return true
}

// Owned reports whether id is a live viewer session.
func (s *Store) Owned(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[id]
	return ok && e.Viewer
}

// Set validates and stores v for session id. It returns the updated slider.
func (s *Store) Set(id string, v float64) (control.Slider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.touch(id)
	sl := e.Slider
	if _, err := sl.Set(v); err != nil {
		return e.Slider, err
	}
	e.Slider = sl
	return sl, nil
}

// Get returns the entry for id without creating or touching it.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// List returns all live sessions sorted by ID.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]Entry, 0, len(s.data))
	for _, e := range s.data {
		if e.UpdatedAt.After(cutoff) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of sessions held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Rebase re-applies the template to every session after a config reload.
// A session keeps its value when the new slider accepts it.
func (s *Store) Rebase() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.data {
		next := s.template()
		if _, err := next.Set(e.Slider.Value); err != nil {
			slog.Debug("session: value reset after reload", "session", e.ID, "value", e.Slider.Value)
		}
		e.Slider = next
	}
}

// Evict removes sessions idle since before now minus TTL and returns how many
// were removed. The default session is never evicted.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for id, e := range s.data {
		if id != DefaultID && !e.UpdatedAt.After(cutoff) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Run evicts idle sessions every half TTL (minimum 1 second) until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("session: evicted idle sessions", "count", n)
			}
		}
	}
}

// touch must be called with s.mu held.
func (s *Store) touch(id string) *Entry {
	if id == "" {
		id = DefaultID
	}
	e, ok := s.data[id]
	if !ok {
		e = &Entry{ID: id, Slider: s.template()}
		s.data[id] = e
	}
	e.UpdatedAt = s.now()
	return e
}
