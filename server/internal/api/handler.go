package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/growthlab/growthlab/server/internal/chart"
	"github.com/growthlab/growthlab/server/internal/control"
	"github.com/growthlab/growthlab/server/internal/metrics"
	"github.com/growthlab/growthlab/server/internal/notebook"
	"github.com/growthlab/growthlab/server/internal/report"
	"github.com/growthlab/growthlab/server/internal/session"
)

// maxBodyBytes bounds PUT /api/v1/slider bodies.
const maxBodyBytes = 1 << 10

// Notifier is told when a session's slider changes. Implemented by the
// WebSocket hub.
type Notifier interface {
	Publish(sessionID string)
}

// UpdateRecorder counts accepted slider changes. Implemented by package metrics.
type UpdateRecorder interface {
	SliderUpdated(source string)
}

// Options wires optional collaborators into the Handler.
type Options struct {
	Chart    chart.Options
	Notifier Notifier
	Recorder UpdateRecorder
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	nb       *notebook.Notebook
	sessions *session.Store
	opts     Options
	mux      *http.ServeMux
}

// New creates a Handler and registers all routes.
func New(nb *notebook.Notebook, sessions *session.Store, opts Options) http.Handler {
	if opts.Chart.Width <= 0 || opts.Chart.Height <= 0 {
		opts.Chart = chart.DefaultOptions()
	}
	h := &Handler{nb: nb, sessions: sessions, opts: opts, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/dataset", h.dataset)
	h.mux.HandleFunc("/api/v1/slider", h.slider)
	h.mux.HandleFunc("/api/v1/summary", h.summary)
	h.mux.HandleFunc("/api/v1/filtered", h.filtered)
	h.mux.HandleFunc("/api/v1/report", h.report)
	h.mux.HandleFunc("/api/v1/plot", h.plot)
	h.mux.HandleFunc("/api/v1/snapshot", h.snapshot)
	h.mux.HandleFunc("/api/v1/sessions", h.listSessions)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// dataset returns GET /api/v1/dataset with the full generated dataset.
func (h *Handler) dataset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ds := h.nb.Dataset()
	jsonResp(w, http.StatusOK, DatasetResponse{
		Count:   ds.Len(),
		Seed:    ds.Params.Seed,
		Samples: ds.Samples,
	})
}

// slider serves GET and PUT /api/v1/slider.
func (h *Handler) slider(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	switch r.Method {
	case http.MethodGet:
		jsonResp(w, http.StatusOK, toSliderResponse(id, h.sessions.Lookup(id)))

	case http.MethodPut:
		var req SliderRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Value == nil {
			jsonErr(w, http.StatusBadRequest, "value is required")
			return
		}
		sl, err := h.sessions.Set(id, *req.Value)
		if err != nil {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
		if h.opts.Recorder != nil {
			h.opts.Recorder.SliderUpdated(metrics.SourceAPI)
		}
		if h.opts.Notifier != nil {
			h.opts.Notifier.Publish(id)
		}
		jsonResp(w, http.StatusOK, toSliderResponse(id, sl))

	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// summary returns GET /api/v1/summary.
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, toSummaryResponse(v.Summary))
}

// filtered returns GET /api/v1/filtered.
func (h *Handler) filtered(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, FilteredResponse{
		Threshold: v.Threshold,
		Count:     len(v.Filtered),
		Samples:   v.Filtered,
	})
}

// report returns GET /api/v1/report as markdown or HTML.
func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(w, r)
	if !ok {
		return
	}
	switch r.URL.Query().Get("format") {
	case "", "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(v.Markdown)) //nolint:errcheck
	case "html":
		out, err := report.HTML(v.Markdown)
		if err != nil {
			jsonErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(out)) //nolint:errcheck
	default:
		jsonErr(w, http.StatusBadRequest, "format must be md or html")
	}
}

// plot returns GET /api/v1/plot as SVG or PNG.
func (h *Handler) plot(w http.ResponseWriter, r *http.Request) {
	format, err := chart.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	v, ok := h.view(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, v.Filtered, v.Threshold, format, h.opts.Chart); err != nil {
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", chart.ContentType(format))
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes()) //nolint:errcheck
}

// snapshot returns GET /api/v1/snapshot.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := sessionID(r)
	sl, err := resolveSlider(h.sessions.Lookup(id), r.URL.Query())
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := buildSnapshot(h.nb, id, sl)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResp(w, http.StatusOK, snap)
}

// listSessions returns GET /api/v1/sessions.
func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	entries := h.sessions.List()
	out := make([]SessionResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, SessionResponse{
			Session:  e.ID,
			Value:    e.Slider.Value,
			LastSeen: e.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	jsonResp(w, http.StatusOK, out)
}

// --- helpers ----------------------------------------------------------------

// BuildSnapshot computes the snapshot for session id from its stored slider,
// or from the template when the session does not exist.
func BuildSnapshot(nb *notebook.Notebook, sessions *session.Store, id string) (SnapshotResponse, error) {
	return buildSnapshot(nb, id, sessions.Lookup(id))
}

func buildSnapshot(nb *notebook.Notebook, id string, sl control.Slider) (SnapshotResponse, error) {
	v, err := nb.View(sl.Value)
	if err != nil {
		return SnapshotResponse{}, err
	}
	html, err := report.HTML(v.Markdown)
	if err != nil {
		return SnapshotResponse{}, err
	}
	q := url.Values{}
	q.Set("session", id)
	q.Set("threshold", strconv.FormatFloat(v.Threshold, 'f', -1, 64))
	return SnapshotResponse{
		Slider:      toSliderResponse(id, sl),
		Summary:     toSummaryResponse(v.Summary),
		Markdown:    v.Markdown,
		HTML:        html,
		PlotURL:     "/api/v1/plot?" + q.Encode(),
		GeneratedAt: v.GeneratedAt.Format(time.RFC3339),
	}, nil
}

// view resolves the session threshold for a GET request and computes the view.
// It writes the error response and returns false on failure.
func (h *Handler) view(w http.ResponseWriter, r *http.Request) (notebook.View, bool) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return notebook.View{}, false
	}
	sl, err := resolveSlider(h.sessions.Lookup(sessionID(r)), r.URL.Query())
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return notebook.View{}, false
	}
	v, err := h.nb.View(sl.Value)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return notebook.View{}, false
	}
	return v, true
}

// resolveSlider applies a ?threshold= override to a copy of sl.
func resolveSlider(sl control.Slider, q url.Values) (control.Slider, error) {
	raw := q.Get("threshold")
	if raw == "" {
		return sl, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return sl, fmt.Errorf("threshold %q is not a number", raw)
	}
	if _, err := sl.Set(v); err != nil {
		return sl, fmt.Errorf("threshold: %w", err)
	}
	return sl, nil
}

func sessionID(r *http.Request) string {
	if id := r.URL.Query().Get("session"); id != "" {
		return id
	}
	return session.DefaultID
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
