package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"sync"

	"github.com/yourusername/c4engine/internal/ttable"
	"github.com/yourusername/c4engine/pkg/game"
	"github.com/yourusername/c4engine/pkg/search"
)

// DefaultDepth is used when an analyze request does not specify one.
const DefaultDepth = 12

// Handlers holds the HTTP handlers and the shared transposition table.
// Each admitted request runs its own Searcher over that table; a Searcher
// carries per-search state (node count, stop flag) and handles one root
// search at a time, while the table is the one structure built to be
// shared lock-free.
//
// The table's SetSize and ClearFast are unsafe while a search is probing
// it, so handlers take mu for reading around searches and for writing
// around cache mutations. This is the serialization the table's contract
// pushes onto its caller.
type Handlers struct {
	tt      *ttable.Table
	version string
	pool    *WorkerPool
	mu      sync.RWMutex
}

// NewHandlers creates a Handlers instance.
func NewHandlers(tt *ttable.Table, version string, pool *WorkerPool) *Handlers {
	return &Handlers{tt: tt, version: version, pool: pool}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

// parsePosition builds a board from the request's move string.
func parsePosition(moves string) (game.Board, error) {
	b, err := game.FromMoves(strings.TrimSpace(moves))
	if err != nil {
		return game.Board{}, fmt.Errorf("invalid position: %w", err)
	}
	return b, nil
}

// resultToResponse converts a search result to the wire format.
func resultToResponse(r search.Result, load float64) AnalyzeResponse {
	resp := AnalyzeResponse{
		BestMove:  r.BestMove + 1,
		Score:     r.Score,
		Depth:     r.Depth,
		PV:        pvString(r.PV),
		Nodes:     r.Nodes,
		TimeMs:    r.Elapsed.Milliseconds(),
		TableLoad: load,
	}
	if r.BestMove < 0 {
		resp.BestMove = 0
	}
	if m, ok := mateIn(r.Score); ok {
		resp.MateIn = &m
	}
	return resp
}

// mateIn converts a win/loss score to signed plies-to-outcome.
func mateIn(score int) (int, bool) {
	switch {
	case score > ttable.MaxEval:
		return ttable.MaxMate - score, true
	case score < ttable.MinEval:
		return -(score - ttable.MinMate), true
	}
	return 0, false
}

func pvString(pv []int) string {
	var sb strings.Builder
	for _, col := range pv {
		sb.WriteByte(byte('1' + col))
	}
	return sb.String()
}

// clampWorkers bounds a request's worker count to the host's CPUs; extra
// workers past that only contend for the same cores.
func clampWorkers(n int) int {
	if n < 1 {
		return 1
	}
	if ncpu := runtime.NumCPU(); n > ncpu {
		return ncpu
	}
	return n
}

// Health handles GET /api/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: h.version,
		Ready:   h.tt != nil,
	}
	if h.pool != nil {
		stats := h.pool.Stats()
		resp.Pool = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}

// Analyze handles POST /api/analyze
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	if h.pool != nil {
		if err := h.pool.Acquire(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
			return
		}
		defer h.pool.Release()
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", "INVALID_JSON")
		return
	}

	b, err := parsePosition(req.Position)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_POSITION")
		return
	}

	depth := req.Depth
	if depth <= 0 {
		depth = DefaultDepth
	}
	workers := clampWorkers(req.Workers)

	h.mu.RLock()
	result := search.New(h.tt).SearchParallel(r.Context(), b, depth, workers, nil)
	load := h.tt.Load()
	h.mu.RUnlock()

	writeJSON(w, http.StatusOK, resultToResponse(result, load))
}

// CacheStats handles GET /api/cache
func (h *Handlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	resp := CacheStatsResponse{
		SizeBytes:  h.tt.Size(),
		Slots:      h.tt.Slots(),
		Load:       h.tt.Load(),
		Generation: h.tt.Generation(),
	}
	h.mu.RUnlock()
	writeJSON(w, http.StatusOK, resp)
}

// CacheResize handles POST /api/cache/size
func (h *Handlers) CacheResize(w http.ResponseWriter, r *http.Request) {
	var req CacheSizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", "INVALID_JSON")
		return
	}
	if req.Megabytes <= 0 || req.Megabytes > 1<<14 {
		writeError(w, http.StatusBadRequest, "megabytes must be in 1..16384", "INVALID_SIZE")
		return
	}

	h.mu.Lock()
	h.tt.SetSize(req.Megabytes << 20)
	resp := CacheStatsResponse{
		SizeBytes:  h.tt.Size(),
		Slots:      h.tt.Slots(),
		Load:       h.tt.Load(),
		Generation: h.tt.Generation(),
	}
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// CacheClear handles POST /api/cache/clear
func (h *Handlers) CacheClear(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.tt.ClearFast()
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// analyzeStreaming runs a search reporting per-depth progress through
// send; used by the WebSocket handler.
func (h *Handlers) analyzeStreaming(ctx context.Context, req AnalyzeRequest, send search.ProgressFunc) (AnalyzeResponse, error) {
	b, err := parsePosition(req.Position)
	if err != nil {
		return AnalyzeResponse{}, err
	}
	depth := req.Depth
	if depth <= 0 {
		depth = DefaultDepth
	}
	workers := clampWorkers(req.Workers)

	h.mu.RLock()
	defer h.mu.RUnlock()
	result := search.New(h.tt).SearchParallel(ctx, b, depth, workers, send)
	return resultToResponse(result, h.tt.Load()), nil
}
