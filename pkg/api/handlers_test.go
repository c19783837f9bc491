package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourusername/c4engine/internal/ttable"
)

func newTestHandlers() *Handlers {
	return NewHandlers(ttable.New(1<<18), "test-version", nil)
}

// TestHealthHandler tests the health endpoint.
func TestHealthHandler(t *testing.T) {
	h := newTestHandlers()

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()

	h.Health(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Health status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("Decode error: %v", err)
	}

	if health.Status != "ok" {
		t.Errorf("Status = %q, want %q", health.Status, "ok")
	}
	if health.Version != "test-version" {
		t.Errorf("Version = %q, want %q", health.Version, "test-version")
	}
	if !health.Ready {
		t.Error("Expected ready = true when the table is set")
	}
}

func TestAnalyzeHandler(t *testing.T) {
	h := newTestHandlers()

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{
			name:       "empty board",
			body:       AnalyzeRequest{Position: "", Depth: 4},
			wantStatus: http.StatusOK,
		},
		{
			name:       "mid game position",
			body:       AnalyzeRequest{Position: "4455", Depth: 4},
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid column digit",
			body:       AnalyzeRequest{Position: "48", Depth: 4},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "overfull column",
			body:       AnalyzeRequest{Position: "11111113", Depth: 4},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid json",
			body:       "not json",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var body []byte
			if s, ok := tc.body.(string); ok {
				body = []byte(s)
			} else {
				body, _ = json.Marshal(tc.body)
			}
			req := httptest.NewRequest("POST", "/api/analyze", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			h.Analyze(w, req)

			resp := w.Result()
			if resp.StatusCode != tc.wantStatus {
				t.Errorf("Status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}

			if tc.wantStatus == http.StatusOK {
				var out AnalyzeResponse
				if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
					t.Fatalf("Decode error: %v", err)
				}
				if out.BestMove < 1 || out.BestMove > 7 {
					t.Errorf("BestMove = %d, want a column 1-7", out.BestMove)
				}
				if out.Nodes <= 0 {
					t.Error("Expected positive node count")
				}
			}
		})
	}
}

func TestAnalyzeHandlerWinInOne(t *testing.T) {
	h := newTestHandlers()

	body, _ := json.Marshal(AnalyzeRequest{Position: "121212", Depth: 6})
	req := httptest.NewRequest("POST", "/api/analyze", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Analyze(w, req)

	var out AnalyzeResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&out); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if out.BestMove != 1 {
		t.Errorf("BestMove = %d, want 1", out.BestMove)
	}
	if out.MateIn == nil || *out.MateIn != 1 {
		t.Errorf("MateIn = %v, want 1", out.MateIn)
	}
}

func TestConcurrentAnalyzeRequestsDoNotInterfere(t *testing.T) {
	// Overlapping requests share only the transposition table. Neither
	// may truncate the other: both must run to the requested depth and
	// report a playable move.
	h := newTestHandlers()
	const depth = 10

	var wg sync.WaitGroup
	results := make([]AnalyzeResponse, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body, _ := json.Marshal(AnalyzeRequest{Position: "", Depth: depth})
			w := httptest.NewRecorder()
			h.Analyze(w, httptest.NewRequest("POST", "/api/analyze", bytes.NewReader(body)))
			if w.Result().StatusCode != http.StatusOK {
				t.Errorf("request %d status = %d", i, w.Result().StatusCode)
				return
			}
			if err := json.NewDecoder(w.Result().Body).Decode(&results[i]); err != nil {
				t.Errorf("request %d decode: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if r.Depth != depth {
			t.Errorf("request %d stopped at depth %d, want %d", i, r.Depth, depth)
		}
		if r.BestMove < 1 || r.BestMove > 7 {
			t.Errorf("request %d best move = %d, want a column 1-7", i, r.BestMove)
		}
	}
}

func TestClampWorkers(t *testing.T) {
	if got := clampWorkers(0); got != 1 {
		t.Errorf("clampWorkers(0) = %d, want 1", got)
	}
	if got := clampWorkers(-3); got != 1 {
		t.Errorf("clampWorkers(-3) = %d, want 1", got)
	}
	if got := clampWorkers(1); got != 1 {
		t.Errorf("clampWorkers(1) = %d, want 1", got)
	}
	if got := clampWorkers(1 << 20); got != runtime.NumCPU() {
		t.Errorf("clampWorkers(1<<20) = %d, want %d", got, runtime.NumCPU())
	}
}

func TestCacheStatsHandler(t *testing.T) {
	h := newTestHandlers()

	req := httptest.NewRequest("GET", "/api/cache", nil)
	w := httptest.NewRecorder()

	h.CacheStats(w, req)

	var stats CacheStatsResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&stats); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if stats.SizeBytes <= 0 || stats.Slots <= 0 {
		t.Errorf("Empty table reported: %+v", stats)
	}
	if stats.Load != 0 {
		t.Errorf("Fresh table load = %v, want 0", stats.Load)
	}
}

func TestCacheResizeHandler(t *testing.T) {
	h := newTestHandlers()

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{name: "valid", body: CacheSizeRequest{Megabytes: 1}, wantStatus: http.StatusOK},
		{name: "zero", body: CacheSizeRequest{Megabytes: 0}, wantStatus: http.StatusBadRequest},
		{name: "negative", body: CacheSizeRequest{Megabytes: -4}, wantStatus: http.StatusBadRequest},
		{name: "too large", body: CacheSizeRequest{Megabytes: 1 << 20}, wantStatus: http.StatusBadRequest},
		{name: "bad json", body: "{", wantStatus: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var body []byte
			if s, ok := tc.body.(string); ok {
				body = []byte(s)
			} else {
				body, _ = json.Marshal(tc.body)
			}
			req := httptest.NewRequest("POST", "/api/cache/size", bytes.NewReader(body))
			w := httptest.NewRecorder()

			h.CacheResize(w, req)

			resp := w.Result()
			if resp.StatusCode != tc.wantStatus {
				t.Errorf("Status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
			if tc.wantStatus == http.StatusOK {
				var stats CacheStatsResponse
				if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
					t.Fatalf("Decode error: %v", err)
				}
				if stats.SizeBytes > 1<<20 {
					t.Errorf("SizeBytes = %d, want at most 1 MB", stats.SizeBytes)
				}
			}
		})
	}
}

func TestCacheClearHandler(t *testing.T) {
	h := newTestHandlers()

	// Warm the table, then clear it.
	body, _ := json.Marshal(AnalyzeRequest{Position: "44", Depth: 6})
	h.Analyze(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/analyze", bytes.NewReader(body)))

	w := httptest.NewRecorder()
	h.CacheClear(w, httptest.NewRequest("POST", "/api/cache/clear", nil))
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("Clear status = %d", w.Result().StatusCode)
	}

	w = httptest.NewRecorder()
	h.CacheStats(w, httptest.NewRequest("GET", "/api/cache", nil))
	var stats CacheStatsResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&stats); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if stats.Load != 0 {
		t.Errorf("Load after clear = %v, want 0", stats.Load)
	}
}

// ============================================================================
// WebSocket Tests
// ============================================================================

func dialTestWS(t *testing.T, h *Handlers) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(h.WebSocket))
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		server.Close()
		t.Fatalf("WebSocket dial failed: %v", err)
	}
	return ws, func() { ws.Close(); server.Close() }
}

func TestWebSocketPing(t *testing.T) {
	h := newTestHandlers()
	ws, done := dialTestWS(t, h)
	defer done()

	msg := WSMessage{Type: "ping", ID: "test-ping-1"}
	if err := ws.WriteJSON(msg); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp WSResponse
	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if resp.Type != "pong" {
		t.Errorf("Response type = %q, want %q", resp.Type, "pong")
	}
	if resp.ID != "test-ping-1" {
		t.Errorf("Response ID = %q, want %q", resp.ID, "test-ping-1")
	}
}

func TestWebSocketAnalyzeStreams(t *testing.T) {
	h := newTestHandlers()
	ws, done := dialTestWS(t, h)
	defer done()

	payload, _ := json.Marshal(AnalyzeRequest{Position: "44", Depth: 5})
	msg := WSMessage{Type: "analyze", ID: "a-1", Payload: payload}
	if err := ws.WriteJSON(msg); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var infos int
	for {
		ws.SetReadDeadline(time.Now().Add(5 * time.Second))
		var resp WSResponse
		if err := ws.ReadJSON(&resp); err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if resp.ID != "a-1" {
			t.Errorf("Response ID = %q, want %q", resp.ID, "a-1")
		}
		switch resp.Type {
		case "info":
			infos++
		case "result":
			if infos == 0 {
				t.Error("Got result with no info frames")
			}
			return
		case "error":
			t.Fatalf("Unexpected error: %s", resp.Error)
		default:
			t.Fatalf("Unexpected message type %q", resp.Type)
		}
	}
}

func TestWebSocketUnknownType(t *testing.T) {
	h := newTestHandlers()
	ws, done := dialTestWS(t, h)
	defer done()

	if err := ws.WriteJSON(WSMessage{Type: "bogus", ID: "x"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp WSResponse
	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if resp.Type != "error" {
		t.Errorf("Response type = %q, want %q", resp.Type, "error")
	}
}
