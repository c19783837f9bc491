package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/yourusername/c4engine/pkg/search"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins - configure properly in production
	},
}

// WSMessage is a generic WebSocket message.
type WSMessage struct {
	Type    string          `json:"type"`    // "analyze", "ping"
	ID      string          `json:"id"`      // Request ID for correlating responses
	Payload json.RawMessage `json:"payload"` // Type-specific payload
}

// WSResponse is a generic WebSocket response.
type WSResponse struct {
	Type    string      `json:"type"`              // "info", "result", "error", "pong"
	ID      string      `json:"id,omitempty"`      // Request ID
	Payload interface{} `json:"payload,omitempty"` // Response data
	Error   string      `json:"error,omitempty"`   // Error message if any
}

// WSInfo is the streamed per-depth progress payload.
type WSInfo struct {
	Depth  int     `json:"depth"`
	Score  int     `json:"score"`
	MateIn *int    `json:"mate_in,omitempty"`
	PV     string  `json:"pv"`
	Nodes  int64   `json:"nodes"`
	TimeMs int64   `json:"time_ms"`
	Load   float64 `json:"load"`
}

// WSClient represents a connected WebSocket client.
type WSClient struct {
	conn     *websocket.Conn
	handlers *Handlers
	sendChan chan WSResponse
}

// WebSocket handles WebSocket connections for streamed analysis: an
// "analyze" request produces one "info" message per completed depth and
// a final "result".
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	client := &WSClient{conn: conn, handlers: h, sendChan: make(chan WSResponse, 256)}
	go client.writePump()
	client.readPump(r)
}

func (c *WSClient) writePump() {
	defer c.conn.Close()
	for msg := range c.sendChan {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (c *WSClient) readPump(r *http.Request) {
	defer func() { close(c.sendChan); c.conn.Close() }()
	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		c.handleMessage(r, msg)
	}
}

func (c *WSClient) handleMessage(r *http.Request, msg WSMessage) {
	switch msg.Type {
	case "analyze":
		c.handleAnalyze(r, msg)
	case "ping":
		c.sendChan <- WSResponse{Type: "pong", ID: msg.ID}
	default:
		c.sendChan <- WSResponse{Type: "error", ID: msg.ID, Error: "unknown message type"}
	}
}

func (c *WSClient) handleAnalyze(r *http.Request, msg WSMessage) {
	var req AnalyzeRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		c.sendChan <- WSResponse{Type: "error", ID: msg.ID, Error: "invalid payload"}
		return
	}

	if c.handlers.pool != nil {
		if !c.handlers.pool.TryAcquire() {
			c.sendChan <- WSResponse{Type: "error", ID: msg.ID, Error: "server busy"}
			return
		}
		defer c.handlers.pool.Release()
	}

	resp, err := c.handlers.analyzeStreaming(r.Context(), req, func(info search.Info) bool {
		payload := WSInfo{
			Depth:  info.Depth,
			Score:  info.Score,
			PV:     pvString(info.PV),
			Nodes:  info.Nodes,
			TimeMs: info.Elapsed.Milliseconds(),
			Load:   info.Load,
		}
		if m, ok := mateIn(info.Score); ok {
			payload.MateIn = &m
		}
		select {
		case c.sendChan <- WSResponse{Type: "info", ID: msg.ID, Payload: payload}:
			return true
		default:
			return false // client can't keep up, stop the search
		}
	})
	if err != nil {
		c.sendChan <- WSResponse{Type: "error", ID: msg.ID, Error: err.Error()}
		return
	}
	c.sendChan <- WSResponse{Type: "result", ID: msg.ID, Payload: resp}
}
