// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/ubx_gateway/internal/gps"
	"github.com/relabs-tech/ubx_gateway/internal/logging"
	"github.com/relabs-tech/ubx_gateway/internal/pipeline"
	"github.com/relabs-tech/ubx_gateway/internal/signalk"
)

func newTestWeb(t *testing.T, origins []string, static string) (*webState, http.Handler) {
	t.Helper()
	log := logging.For("web-test")
	state := newWebState(signalk.Options{}, newStreamHub(origins, log))
	return state, newWebRouter(state, origins, static, log)
}

func get(h http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWeb_GPS(t *testing.T) {
	state, h := newTestWeb(t, nil, "")
	if rec := get(h, "/api/gps"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want 503", rec.Code)
	}

	payload, _ := json.Marshal(gps.Fix{Latitude: 47.5, Longitude: -8.25, Validity: "A"})
	if err := state.onFix(payload); err != nil {
		t.Fatalf("onFix: %v", err)
	}
	rec := get(h, "/api/gps")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var f gps.Fix
	if err := json.Unmarshal(rec.Body.Bytes(), &f); err != nil || f.Latitude != 47.5 {
		t.Fatalf("fix=%+v err=%v", f, err)
	}

	if err := state.onFix([]byte("not json")); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}

func TestWeb_Stats(t *testing.T) {
	state, h := newTestWeb(t, nil, "")
	payload, _ := json.Marshal(pipeline.Stats{Frames: 4, DecodeErrors: 1})
	if err := state.onStats(payload); err != nil {
		t.Fatalf("onStats: %v", err)
	}
	rec := get(h, "/api/stats")
	var body struct {
		Stats    pipeline.Stats `json:"stats"`
		Rejected uint64         `json:"rejected"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body %s: %v", rec.Body, err)
	}
	if body.Stats.Frames != 4 || body.Rejected != 1 {
		t.Fatalf("body=%+v", body)
	}
}

func TestWeb_MetricsAndDiscovery(t *testing.T) {
	_, h := newTestWeb(t, nil, "")
	get(h, "/health")
	rec := get(h, "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ubx_http_requests_total") {
		t.Fatalf("metrics status=%d", rec.Code)
	}

	rec = get(h, "/signalk")
	var disc struct {
		Endpoints map[string]map[string]string `json:"endpoints"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &disc); err != nil {
		t.Fatalf("discovery: %v", err)
	}
	if got := disc.Endpoints["v1"]["signalk-ws"]; got != "ws://example.com/signalk/v1/stream" {
		t.Fatalf("signalk-ws=%q", got)
	}
}

func TestWeb_CORS(t *testing.T) {
	_, h := newTestWeb(t, []string{"http://chart.local"}, "")
	rec := get(h, "/health", "Origin", "http://chart.local")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://chart.local" {
		t.Fatalf("allow-origin=%q", got)
	}
	rec = get(h, "/health", "Origin", "http://evil.local")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign origin status=%d want 403", rec.Code)
	}
}

func TestWeb_Static(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>fix</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, h := newTestWeb(t, nil, dir)
	rec := get(h, "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<h1>fix</h1>") {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body)
	}
}

func TestWeb_SignalKStream(t *testing.T) {
	state, h := newTestWeb(t, nil, "")
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/signalk/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var hello signalk.Hello
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Name != serverName || hello.Self != "vessels.self" {
		t.Fatalf("hello=%+v", hello)
	}

	delta, _ := json.Marshal(signalk.FromFix(gps.Fix{Latitude: 3, Longitude: 4}, signalk.Options{}))
	if err := state.onDelta(delta); err != nil {
		t.Fatalf("onDelta: %v", err)
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read delta: %v", err)
	}
	if string(msg) != string(delta) {
		t.Fatalf("got %s want %s", msg, delta)
	}
	if n := state.hub.Len(); n != 1 {
		t.Fatalf("clients=%d want 1", n)
	}

	if err := state.onDelta([]byte("{")); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}

func TestWeb_StreamReplaysLastDelta(t *testing.T) {
	state, h := newTestWeb(t, nil, "")
	delta := []byte(`{"context":"vessels.self","updates":[]}`)
	if err := state.onDelta(delta); err != nil {
		t.Fatalf("onDelta: %v", err)
	}
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/signalk/v1/stream", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	_, msg, err := conn.ReadMessage()
	if err != nil || string(msg) != string(delta) {
		t.Fatalf("replayed %s err=%v", msg, err)
	}
}
