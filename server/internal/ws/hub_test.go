package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/growthlab/growthlab/server/internal/auth"
	"github.com/growthlab/growthlab/server/internal/control"
	"github.com/growthlab/growthlab/server/internal/dataset"
	"github.com/growthlab/growthlab/server/internal/notebook"
	"github.com/growthlab/growthlab/server/internal/session"
	wsHub "github.com/growthlab/growthlab/server/internal/ws"
)

// --- helpers ----------------------------------------------------------------

type fixture struct {
	url      string
	hub      *wsHub.Hub
	nb       *notebook.Notebook
	sessions *session.Store
	cancel   func()
}

// startHub starts a test HTTP server with the hub as its handler and runs
// the hub loop with a cancellable context.
func startHub(t *testing.T, opts wsHub.Options) *fixture {
	t.Helper()

	nb, err := notebook.New(dataset.DefaultParams(), control.Default())
	if err != nil {
		t.Fatalf("notebook.New: %v", err)
	}
	st := session.New(5*time.Minute, nb.Slider)
	hub := wsHub.New(nb, st, opts)
	ctx, cancelFn := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	go hub.Run(ctx)

	t.Cleanup(func() {
		cancelFn()
		srv.Close()
	})

	return &fixture{
		url:      "ws" + strings.TrimPrefix(srv.URL, "http"),
		hub:      hub,
		nb:       nb,
		sessions: st,
		cancel:   cancelFn,
	}
}

// dial connects a WebSocket client for session id.
func dial(t *testing.T, wsURL, id string) *websocket.Conn {
	t.Helper()
	return dialHeader(t, wsURL, id, nil)
}

// dialHeader connects like dial, sending header with the upgrade request.
func dialHeader(t *testing.T, wsURL, id string, header http.Header) *websocket.Conn {
	t.Helper()
	u := wsURL
	if id != "" {
		u += "?session=" + id
	}
	conn, _, err := websocket.DefaultDialer.Dial(u, header)
	if err != nil {
		t.Fatalf("dial %s: %v", u, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readMessage reads and decodes one message with a short deadline.
func readMessage(t *testing.T, conn *websocket.Conn) wsHub.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var m wsHub.Message
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, raw)
	}
	return m
}

var apiKeyPolicy = auth.Policy{Mode: "apikey", Header: "x-api-key", Key: "secret"}

func sendSlider(t *testing.T, conn *websocket.Conn, v float64) {
	t.Helper()
	if err := conn.WriteJSON(map[string]interface{}{"event": "slider", "value": v}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
}

// --- tests ------------------------------------------------------------------

func TestHub_Connect_ReceivesImmediateView(t *testing.T) {
	f := startHub(t, wsHub.Options{})
	conn := dial(t, f.url, "")

	m := readMessage(t, conn)
	if m.Event != wsHub.EventView {
		t.Fatalf("event: got %q, want view", m.Event)
	}
	if m.Data == nil || m.Data.GeneratedAt == "" {
		t.Fatal("data: missing")
	}
	if m.Data.Slider.Value != 25 || m.Data.Slider.Session != session.DefaultID {
		t.Errorf("slider: got %+v", m.Data.Slider)
	}
	if !strings.Contains(m.Data.Markdown, "Data Analysis Results") {
		t.Errorf("markdown: %s", m.Data.Markdown)
	}
}

func TestHub_SliderMessage_UpdatesSessionClients(t *testing.T) {
	f := startHub(t, wsHub.Options{})
	a1 := dial(t, f.url, "a")
	a2 := dial(t, f.url, "a")
	b := dial(t, f.url, "b")
	readMessage(t, a1)
	readMessage(t, a2)
	readMessage(t, b)

	sendSlider(t, a1, 31)

	for i, conn := range []*websocket.Conn{a1, a2} {
		m := readMessage(t, conn)
		if m.Event != wsHub.EventView || m.Data.Summary.Threshold != 31 {
			t.Errorf("client a%d: got event %q threshold %v", i+1, m.Event, m.Data.Summary.Threshold)
		}
	}

	// Session b must not receive session a's update.
	b.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := b.ReadMessage(); err == nil {
		t.Error("session b received an update for session a")
	}

	if v := f.sessions.Lookup("a").Value; v != 31 {
		t.Errorf("stored value: got %v, want 31", v)
	}
}

func TestHub_SliderMessage_InvalidValue(t *testing.T) {
	f := startHub(t, wsHub.Options{})
	conn := dial(t, f.url, "x")
	readMessage(t, conn)

	sendSlider(t, conn, 99)
	m := readMessage(t, conn)
	if m.Event != wsHub.EventError || m.Error == "" {
		t.Errorf("got %+v, want error event", m)
	}
	if v := f.sessions.Lookup("x").Value; v != 25 {
		t.Errorf("stored value: got %v, want 25", v)
	}
}

func TestHub_APIKey_DefaultSessionNeedsKey(t *testing.T) {
	f := startHub(t, wsHub.Options{Auth: apiKeyPolicy})
	anon := dial(t, f.url, session.DefaultID)
	readMessage(t, anon)

	sendSlider(t, anon, 33)
	if m := readMessage(t, anon); m.Event != wsHub.EventError || !strings.Contains(m.Error, "api key") {
		t.Errorf("without key: got %+v, want api key error", m)
	}
	if v := f.sessions.Lookup(session.DefaultID).Value; v != 25 {
		t.Fatalf("default session moved without key: got %v, want 25", v)
	}

	keyed := dialHeader(t, f.url, session.DefaultID, http.Header{"X-Api-Key": {"secret"}})
	readMessage(t, keyed)
	sendSlider(t, keyed, 33)
	if m := readMessage(t, keyed); m.Event != wsHub.EventView || m.Data.Summary.Threshold != 33 {
		t.Errorf("with key: got %+v, want view at 33", m)
	}
	if v := f.sessions.Lookup(session.DefaultID).Value; v != 33 {
		t.Errorf("default session: got %v, want 33", v)
	}
}

func TestHub_APIKey_APISessionNeedsKey(t *testing.T) {
	f := startHub(t, wsHub.Options{Auth: apiKeyPolicy})
	if _, err := f.sessions.Set("client-1", 20); err != nil {
		t.Fatalf("Set: %v", err)
	}
	conn := dial(t, f.url, "client-1")
	readMessage(t, conn)

	sendSlider(t, conn, 30)
	if m := readMessage(t, conn); m.Event != wsHub.EventError {
		t.Errorf("event: got %q, want error", m.Event)
	}
	if v := f.sessions.Lookup("client-1").Value; v != 20 {
		t.Errorf("stored value: got %v, want 20", v)
	}
}

func TestHub_APIKey_ViewerSessionWithoutKey(t *testing.T) {
	f := startHub(t, wsHub.Options{Auth: apiKeyPolicy})
	if !f.sessions.Mint("tab") {
		t.Fatal("Mint: not created")
	}
	conn := dial(t, f.url, "tab")
	readMessage(t, conn)

	sendSlider(t, conn, 30)
	if m := readMessage(t, conn); m.Event != wsHub.EventView || m.Data.Summary.Threshold != 30 {
		t.Errorf("got %+v, want view at 30", m)
	}
}

func TestHub_UnknownSessionIsNotCreated(t *testing.T) {
	f := startHub(t, wsHub.Options{})
	conn := dial(t, f.url, "nobody")
	if m := readMessage(t, conn); m.Data == nil || m.Data.Slider.Value != 25 {
		t.Fatalf("initial view: got %+v", m.Data)
	}
	if n := f.sessions.Count(); n != 0 {
		t.Errorf("sessions: got %d, want 0", n)
	}
}

func TestHub_UnsupportedMessage(t *testing.T) {
	f := startHub(t, wsHub.Options{})
	conn := dial(t, f.url, "")
	readMessage(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"reset"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if m := readMessage(t, conn); m.Event != wsHub.EventError {
		t.Errorf("event: got %q, want error", m.Event)
	}
}

func TestHub_PublishFromAPI(t *testing.T) {
	f := startHub(t, wsHub.Options{})
	conn := dial(t, f.url, "s")
	readMessage(t, conn)

	if _, err := f.sessions.Set("s", 18); err != nil {
		t.Fatalf("Set: %v", err)
	}
	f.hub.Publish("s")

	m := readMessage(t, conn)
	if m.Data == nil || m.Data.Slider.Value != 18 {
		t.Errorf("published view: got %+v", m.Data)
	}
}

func TestHub_RegenerateBroadcastsToAll(t *testing.T) {
	f := startHub(t, wsHub.Options{})
	f.nb.OnRegenerate(f.hub.BroadcastAll)

	a := dial(t, f.url, "a")
	b := dial(t, f.url, "b")
	readMessage(t, a)
	readMessage(t, b)

	p := dataset.DefaultParams()
	p.Samples = 10
	if err := f.nb.Regenerate(p, control.Default()); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	for _, conn := range []*websocket.Conn{a, b} {
		m := readMessage(t, conn)
		if m.Data == nil || m.Data.Summary.Total != 10 {
			t.Errorf("after regenerate: got %+v", m.Data)
		}
	}
}

func TestHub_ReceivesBroadcastOnTick(t *testing.T) {
	f := startHub(t, wsHub.Options{Interval: 20 * time.Millisecond})
	conn := dial(t, f.url, "")
	readMessage(t, conn) // consume immediate view

	if m := readMessage(t, conn); m.Event != wsHub.EventView {
		t.Errorf("tick broadcast: got %q", m.Event)
	}
}

func TestHub_CountClients(t *testing.T) {
	f := startHub(t, wsHub.Options{})
	conns := make([]*websocket.Conn, 3)
	for i := range conns {
		conns[i] = dial(t, f.url, "")
		readMessage(t, conns[i])
	}

	time.Sleep(10 * time.Millisecond)
	if n := f.hub.Count(); n != 3 {
		t.Errorf("Count: got %d, want 3", n)
	}

	conns[0].Close()
	time.Sleep(50 * time.Millisecond) // let readPump detect the close
	if n := f.hub.Count(); n != 2 {
		t.Errorf("Count after disconnect: got %d, want 2", n)
	}
}

func TestHub_CancelContextClosesConnections(t *testing.T) {
	f := startHub(t, wsHub.Options{})
	conn := dial(t, f.url, "")
	readMessage(t, conn)
	time.Sleep(10 * time.Millisecond)

	f.cancel()

	time.Sleep(50 * time.Millisecond)
	if n := f.hub.Count(); n != 0 {
		t.Errorf("Count after cancel: got %d, want 0", n)
	}
}

func TestHub_NonWebSocketRequest_Returns400(t *testing.T) {
	f := startHub(t, wsHub.Options{})
	resp, err := http.Get("http" + strings.TrimPrefix(f.url, "ws"))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
}
