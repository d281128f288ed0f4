package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/ludoengine/pkg/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage is a command sent by a WebSocket client.
type WSMessage struct {
	Type    string          `json:"type"`    // "roll", "move", "next", "roll-result", "board", "ping"
	ID      string          `json:"id"`      // Request ID for correlating responses
	Payload json.RawMessage `json:"payload"` // Type-specific payload
}

// WSResponse is a message sent to a WebSocket client.
type WSResponse struct {
	Type    string `json:"type"`              // "result", "event", "error", "pong"
	ID      string `json:"id,omitempty"`      // Request ID
	Payload any    `json:"payload,omitempty"` // Response data or session event
	Error   string `json:"error,omitempty"`   // Error message if any
}

// WSClient is one WebSocket connection bound to a game.
type WSClient struct {
	conn     *websocket.Conn
	handlers *Handlers
	game     *session.Session
	sendChan chan WSResponse
	done     chan struct{} // closed when the writer stops
}

// WebSocket handles GET /api/games/{id}/ws. Clients send commands and
// receive their results plus every event of the game.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request, s *session.Session) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("game_id", s.ID()), zap.Error(err))
		return
	}

	events, cancel := s.Subscribe()
	defer cancel()

	client := &WSClient{
		conn:     conn,
		handlers: h,
		game:     s,
		sendChan: make(chan WSResponse, 256),
		done:     make(chan struct{}),
	}
	go client.writePump(events)
	client.readPump()
}

func (c *WSClient) writePump(events <-chan session.Event) {
	defer func() {
		close(c.done)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.sendChan:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "game deleted")
				c.conn.WriteMessage(websocket.CloseMessage, msg)
				return
			}
			if err := c.conn.WriteJSON(WSResponse{Type: "event", Payload: ev}); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) readPump() {
	defer func() { close(c.sendChan); c.conn.Close() }()
	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		if !c.send(c.handleMessage(msg)) {
			return
		}
	}
}

// send queues a response unless the writer has stopped.
func (c *WSClient) send(resp WSResponse) bool {
	select {
	case c.sendChan <- resp:
		return true
	case <-c.done:
		return false
	}
}

func (c *WSClient) handleMessage(msg WSMessage) WSResponse {
	switch msg.Type {
	case "roll":
		player, value := c.game.Roll()
		return result(msg, RollResponse{Player: player, Roll: value})
	case "move":
		var req MoveRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return wsError(msg, "invalid payload")
		}
		return result(msg, moveResponse(c.game.Move(req.PieceID, req.Roll)))
	case "next":
		return result(msg, CurrentPlayerResponse{CurrentPlayer: c.game.NextTurn()})
	case "roll-result":
		var req RollResultRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return wsError(msg, "invalid payload")
		}
		if req.Roll < 1 || req.Roll > 6 {
			return wsError(msg, "roll must be 1-6")
		}
		passed, current := c.game.HandleRollResult(req.Roll)
		return result(msg, RollResultResponse{TurnAdvanced: passed, CurrentPlayer: current})
	case "board":
		return result(msg, c.game.Board())
	case "ping":
		return WSResponse{Type: "pong", ID: msg.ID}
	default:
		return wsError(msg, "unknown message type")
	}
}

func result(msg WSMessage, payload any) WSResponse {
	return WSResponse{Type: "result", ID: msg.ID, Payload: payload}
}

func wsError(msg WSMessage, text string) WSResponse {
	return WSResponse{Type: "error", ID: msg.ID, Error: text}
}
