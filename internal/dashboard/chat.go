package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/sprouts/internal/ask"
	"github.com/ziadkadry99/sprouts/internal/llm"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type        string         `json:"type"` // "ask" or "health"
	Messages    []llm.Message  `json:"messages"`
	Model       string         `json:"model,omitempty"`
	ExtraParams map[string]any `json:"extra_params,omitempty"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type      string        `json:"type"` // "response", "error" or "health"
	SessionID string        `json:"session_id"`
	Response  *ask.Response `json:"response,omitempty"`
	Detail    string        `json:"detail,omitempty"`
	Status    string        `json:"status,omitempty"`
}

func (d *Dashboard) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("dashboard: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	sessionID := uuid.New().String()
	// The connection outlives the request deadline set by the router.
	base := context.WithoutCancel(r.Context())

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("dashboard: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			d.sendError(conn, sessionID, "invalid message format")
			continue
		}

		switch req.Type {
		case "ask":
			d.handleAskMessage(base, conn, sessionID, req)
		case "health":
			d.send(conn, chatResponse{Type: "health", SessionID: sessionID, Status: "OK"})
		default:
			d.sendError(conn, sessionID, "unknown message type: "+req.Type)
		}
	}
}

func (d *Dashboard) handleAskMessage(base context.Context, conn *websocket.Conn, sessionID string, req chatRequest) {
	askReq := ask.Request{
		Messages:    req.Messages,
		Model:       req.Model,
		ExtraParams: req.ExtraParams,
	}
	if err := askReq.Validate(); err != nil {
		d.sendError(conn, sessionID, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(base, d.timeout)
	defer cancel()

	resp, err := d.asker.Handle(ctx, ask.EndpointChat, askReq)
	if err != nil {
		d.sendError(conn, sessionID, err.Error())
		return
	}
	d.send(conn, chatResponse{Type: "response", SessionID: sessionID, Response: resp})
}

func (d *Dashboard) send(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("dashboard: websocket write: %v", err)
	}
}

func (d *Dashboard) sendError(conn *websocket.Conn, sessionID, detail string) {
	d.send(conn, chatResponse{Type: "error", SessionID: sessionID, Detail: detail})
}
