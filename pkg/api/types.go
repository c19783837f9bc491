// Package api provides the HTTP/JSON and WebSocket API for the engine.
package api

// AnalyzeRequest asks for an analysis of a position.
type AnalyzeRequest struct {
	Position string `json:"position"`          // moves as 1-based column digits, "" = empty board
	Depth    int    `json:"depth,omitempty"`   // max search depth (default 12)
	Workers  int    `json:"workers,omitempty"` // search workers (default 1)
}

// AnalyzeResponse is the result of an analysis.
type AnalyzeResponse struct {
	BestMove  int     `json:"best_move"`         // 1-based column, 0 if the game is over
	Score     int     `json:"score"`             // internal score, side to move's view
	MateIn    *int    `json:"mate_in,omitempty"` // plies to the forced outcome, negative when losing
	Depth     int     `json:"depth"`
	PV        string  `json:"pv"` // expected line as column digits
	Nodes     int64   `json:"nodes"`
	TimeMs    int64   `json:"time_ms"`
	TableLoad float64 `json:"table_load"`
}

// CacheStatsResponse describes the transposition table.
type CacheStatsResponse struct {
	SizeBytes  int     `json:"size_bytes"`
	Slots      int     `json:"slots"`
	Load       float64 `json:"load"`
	Generation uint32  `json:"generation"`
}

// CacheSizeRequest reconfigures the transposition table capacity.
type CacheSizeRequest struct {
	Megabytes int `json:"megabytes"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string     `json:"status"`
	Version string     `json:"version"`
	Ready   bool       `json:"ready"`
	Pool    *PoolStats `json:"pool,omitempty"`
}

// ErrorResponse is returned for all error conditions.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
