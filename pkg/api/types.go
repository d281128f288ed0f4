// Package api provides the HTTP/JSON, SSE and WebSocket surface of the
// ludo server.
package api

import (
	"github.com/yourusername/ludoengine/pkg/engine"
	"github.com/yourusername/ludoengine/pkg/match"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidJSON     = "INVALID_JSON"
	CodeInvalidPlayers  = "INVALID_PLAYERS"
	CodeInvalidSnapshot = "INVALID_SNAPSHOT"
	CodeGameNotFound    = "GAME_NOT_FOUND"
	CodeInvalidRoll     = "INVALID_ROLL"
	CodeInvalidPlayer   = "INVALID_PLAYER"
	CodeServerBusy      = "SERVER_BUSY"
	CodeStoreError      = "STORE_ERROR"
	CodeStoreDisabled   = "STORE_DISABLED"
)

// ============================================================================
// Request Types
// ============================================================================

// CreateGameRequest is the body of POST /api/games. Zero players uses the
// server default.
type CreateGameRequest struct {
	Players int `json:"players,omitempty"`
}

// MoveRequest is the body of POST /api/games/{id}/move.
type MoveRequest struct {
	PieceID int `json:"pieceId"`
	Roll    int `json:"roll"`
}

// RollResultRequest is the body of POST /api/games/{id}/roll-result.
type RollResultRequest struct {
	Roll int `json:"roll"`
}

// ============================================================================
// Response Types
// ============================================================================

// ErrorResponse is returned when an error occurs.
type ErrorResponse struct {
	Error   string `json:"error"`             // Error message
	Code    string `json:"code,omitempty"`    // Error code
	Details string `json:"details,omitempty"` // Additional details
}

// HealthResponse is the response for health check.
type HealthResponse struct {
	Status      string     `json:"status"`         // "ok"
	Version     string     `json:"version"`        // Server version
	Games       int        `json:"games"`          // Hosted sessions
	Persistence bool       `json:"persistence"`    // Snapshot store configured
	Pool        *PoolStats `json:"pool,omitempty"` // Worker pool statistics
}

// GameCreatedResponse is returned by POST /api/games.
type GameCreatedResponse struct {
	ID      string             `json:"id"`
	Players int                `json:"players"`
	Board   engine.BoardStatus `json:"board"`
}

// GamesResponse lists hosted session ids.
type GamesResponse struct {
	Games []string `json:"games"`
}

// CurrentPlayerResponse is returned by GET /current and POST /next.
type CurrentPlayerResponse struct {
	CurrentPlayer int `json:"currentPlayer"`
}

// RollResponse is returned by POST /roll.
type RollResponse struct {
	Player int `json:"player"`
	Roll   int `json:"roll"`
}

// MoveResponse is returned by POST /move.
type MoveResponse struct {
	Result        engine.MoveResult `json:"result"`
	Captured      []engine.Capture  `json:"captured,omitempty"`
	CurrentPlayer int               `json:"currentPlayer"`
	WinnerID      *int              `json:"winnerId"`
}

// WinnerResponse is returned by GET /winner.
type WinnerResponse struct {
	WinnerID *int `json:"winnerId"`
	Finished bool `json:"finished"`
}

// CanMoveResponse is returned by GET /players/{player}/can-move.
type CanMoveResponse struct {
	Player  int  `json:"player"`
	Roll    int  `json:"roll"`
	CanMove bool `json:"canMove"`
}

// ValidMovesResponse is returned by GET /valid-moves.
type ValidMovesResponse struct {
	Player int   `json:"player"`
	Roll   int   `json:"roll"`
	Pieces []int `json:"pieces"`
}

// SaveResponse is returned by POST /save.
type SaveResponse struct {
	Snapshot  engine.GameState `json:"snapshot"`
	Persisted bool             `json:"persisted"`
}

// StartingPlayerResponse is returned by POST /starting-player.
type StartingPlayerResponse struct {
	StartingPlayer int            `json:"startingPlayer"`
	RollOff        engine.RollOff `json:"rollOff"`
}

// RollResultResponse is returned by POST /roll-result.
type RollResultResponse struct {
	TurnAdvanced  bool `json:"turnAdvanced"`
	CurrentPlayer int  `json:"currentPlayer"`
}

// HistoryResponse is returned by GET /history.
type HistoryResponse struct {
	Record *match.Record       `json:"record"`
	Stats  []match.PlayerStats `json:"stats"`
}
