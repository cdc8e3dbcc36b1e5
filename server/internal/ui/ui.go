package ui

import (
	"bytes"
	"crypto/rand"
	"embed"
	"encoding/hex"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/growthlab/growthlab/server/internal/api"
	"github.com/growthlab/growthlab/server/internal/notebook"
	"github.com/growthlab/growthlab/server/internal/report"
	"github.com/growthlab/growthlab/server/internal/session"
)

//go:embed static/index.html
var files embed.FS

var page = template.Must(template.ParseFS(files, "static/index.html"))

// pageData is the template input for index.html.
type pageData struct {
	Session  string
	Snapshot api.SnapshotResponse
	Summary  template.HTML
	About    template.HTML
}

// Handler renders the page for GET /.
type Handler struct {
	nb       *notebook.Notebook
	sessions *session.Store
	about    template.HTML
}

// New returns the page handler.
func New(nb *notebook.Notebook, sessions *session.Store) (*Handler, error) {
	about, err := report.HTML(report.About)
	if err != nil {
		return nil, err
	}
	return &Handler{nb: nb, sessions: sessions, about: template.HTML(about)}, nil //nolint:gosec // rendered from a constant
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// A page may resume an existing session; anything else gets a fresh
	// viewer session that its stream connection is allowed to move.
	id := r.URL.Query().Get("session")
	if _, ok := h.sessions.Get(id); id == "" || !ok {
		id = h.mint()
	}

	snap, err := api.BuildSnapshot(h.nb, h.sessions, id)
	if err != nil {
		slog.Error("ui: build snapshot failed", "session", id, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	err = page.Execute(&buf, pageData{
		Session:  id,
		Snapshot: snap,
		Summary:  template.HTML(snap.HTML), //nolint:gosec // goldmark output of server-rendered markdown
		About:    h.about,
	})
	if err != nil {
		slog.Error("ui: render page failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes()) //nolint:errcheck
}

// mint creates a viewer session under a random 16-hex-digit identifier.
func (h *Handler) mint() string {
	for {
		var b [8]byte
		if _, err := rand.Read(b[:]); err != nil {
			slog.Error("ui: session id", "err", err)
			return session.DefaultID
		}
		id := hex.EncodeToString(b[:])
		if h.sessions.Mint(id) {
			return id
		}
	}
}
