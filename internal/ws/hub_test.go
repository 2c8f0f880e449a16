// README: End-to-end websocket tests over a real server and dialer.
package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/zabiza830/Ethio-Safeguard/internal/auth"
	"github.com/zabiza830/Ethio-Safeguard/internal/modules/registry"
	"github.com/zabiza830/Ethio-Safeguard/internal/types"
)

type wsFixture struct {
	srv    *httptest.Server
	hub    *Hub
	reg    *registry.Registry
	tokens *auth.Manager
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	reg := registry.New(hub)
	tokens := auth.NewManager("test-secret", time.Hour)
	handler := NewHandler(hub, reg, tokens)

	r := gin.New()
	r.GET("/ws/fleet", handler.Serve)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &wsFixture{srv: srv, hub: hub, reg: reg, tokens: tokens}
}

func (f *wsFixture) dial(t *testing.T, userID, role string) *websocket.Conn {
	t.Helper()
	token, err := f.tokens.Issue(userID, role)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/fleet?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readEvent reads frames until one with the wanted event name arrives.
func readEvent(t *testing.T, conn *websocket.Conn, event string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %q: %v", event, err)
		}
		if msg["event"] == event {
			return msg
		}
	}
	t.Fatalf("no %q frame before deadline", event)
	return nil
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var msg map[string]any
	if err := conn.ReadJSON(&msg); err == nil {
		t.Fatalf("expected no frame, got %v", msg)
	}
}

func snapshotIDs(t *testing.T, msg map[string]any) []string {
	t.Helper()
	raw, ok := msg["trucks"].([]any)
	if !ok {
		t.Fatalf("snapshot without trucks: %v", msg)
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		truck, ok := v.(map[string]any)
		if !ok {
			t.Fatalf("malformed truck entry: %v", v)
		}
		ids = append(ids, truck["id"].(string))
	}
	return ids
}

func TestServeRejectsMissingOrBadToken(t *testing.T) {
	f := newWSFixture(t)

	for _, q := range []string{"", "?token=garbage"} {
		url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/fleet" + q
		_, resp, err := websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			t.Fatalf("dial %q: expected failure", q)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("dial %q: expected 401, got %v", q, resp)
		}
	}
}

func TestConnectSendsInitialSnapshot(t *testing.T) {
	f := newWSFixture(t)
	f.reg.Register("d9", types.Point{Lat: 9.01, Lng: 38.76}, "AA-99999", true)

	conn := f.dial(t, "s1", "SENDER")
	msg := readEvent(t, conn, "fleet:snapshot")
	if ids := snapshotIDs(t, msg); len(ids) != 1 || ids[0] != "d9" {
		t.Fatalf("unexpected initial snapshot: %v", ids)
	}
}

func TestDriverTelemetryReachesObservers(t *testing.T) {
	f := newWSFixture(t)

	driver := f.dial(t, "d1", "DRIVER")
	observer := f.dial(t, "s1", "SENDER")
	readEvent(t, driver, "fleet:snapshot")
	readEvent(t, observer, "fleet:snapshot")

	err := driver.WriteJSON(map[string]any{
		"event": "truck:register",
		"truck": map[string]any{"id": "d1", "lat": 9.03, "lng": 38.74, "available": true, "plate": "AA-12345"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, conn := range []*websocket.Conn{driver, observer} {
		msg := readEvent(t, conn, "fleet:snapshot")
		if ids := snapshotIDs(t, msg); len(ids) != 1 || ids[0] != "d1" {
			t.Fatalf("unexpected snapshot after register: %v", ids)
		}
	}

	if err := driver.WriteJSON(map[string]any{
		"event":     "truck:available",
		"id":        "d1",
		"available": false,
	}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := readEvent(t, observer, "fleet:snapshot")
	trucks := msg["trucks"].([]any)
	if avail := trucks[0].(map[string]any)["available"].(bool); avail {
		t.Fatal("availability flip not reflected in snapshot")
	}
}

func TestSpoofedTruckIDIsIgnored(t *testing.T) {
	f := newWSFixture(t)

	driver := f.dial(t, "d1", "DRIVER")
	readEvent(t, driver, "fleet:snapshot")

	if err := driver.WriteJSON(map[string]any{
		"event": "truck:register",
		"truck": map[string]any{"id": "d2", "lat": 1.0, "lng": 2.0, "available": true, "plate": "XX-00000"},
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	expectSilence(t, driver)
	if snap := f.reg.Snapshot(); len(snap) != 0 {
		t.Fatalf("spoofed registration landed in the registry: %v", snap)
	}
}

func TestNonDriverCannotPublish(t *testing.T) {
	f := newWSFixture(t)

	sender := f.dial(t, "s1", "SENDER")
	readEvent(t, sender, "fleet:snapshot")

	if err := sender.WriteJSON(map[string]any{
		"event": "truck:register",
		"truck": map[string]any{"id": "s1", "lat": 1.0, "lng": 2.0, "available": true, "plate": "XX-00000"},
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	expectSilence(t, sender)
	if snap := f.reg.Snapshot(); len(snap) != 0 {
		t.Fatalf("sender registered a truck: %v", snap)
	}
}

func TestPushTargetsOnlyTheRecipient(t *testing.T) {
	f := newWSFixture(t)

	alice := f.dial(t, "u1", "SENDER")
	bob := f.dial(t, "u2", "SENDER")
	readEvent(t, alice, "fleet:snapshot")
	readEvent(t, bob, "fleet:snapshot")

	f.hub.Push("u1", map[string]any{"event": "notification", "notification": map[string]any{"title": "hi"}})

	msg := readEvent(t, alice, "notification")
	if msg["notification"] == nil {
		t.Fatalf("notification payload missing: %v", msg)
	}
	expectSilence(t, bob)
}
