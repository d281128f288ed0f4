package engine

import (
	"fmt"

	"github.com/yourusername/ludoengine/internal/track"
)

// MoveResult is the outcome of a move request.
type MoveResult int

const (
	Invalid           MoveResult = iota // Rule violation, nothing moved
	Moved                               // Piece moved
	MovedAndExtraTurn                   // Piece moved and the player rolls again
)

var moveResultNames = [...]string{"invalid", "moved", "moved_extra_turn"}

// String returns the wire name of the result.
func (r MoveResult) String() string {
	if r < 0 || int(r) >= len(moveResultNames) {
		return fmt.Sprintf("MoveResult(%d)", int(r))
	}
	return moveResultNames[r]
}

// MarshalText encodes the result by name.
func (r MoveResult) MarshalText() ([]byte, error) {
	if r < 0 || int(r) >= len(moveResultNames) {
		return nil, fmt.Errorf("unknown move result %d", int(r))
	}
	return []byte(moveResultNames[r]), nil
}

// UnmarshalText decodes a result name.
func (r *MoveResult) UnmarshalText(text []byte) error {
	for i, name := range moveResultNames {
		if string(text) == name {
			*r = MoveResult(i)
			return nil
		}
	}
	return fmt.Errorf("unknown move result %q", text)
}

// Capture records an opponent piece sent home by a move.
type Capture struct {
	PlayerID int `json:"playerId"`
	PieceID  int `json:"pieceId"`
	From     int `json:"from"` // Relative position before capture
}

// MoveOutcome describes a resolved move request.
type MoveOutcome struct {
	Result   MoveResult `json:"result"`
	PlayerID int        `json:"playerId"`
	PieceID  int        `json:"pieceId"`
	Roll     int        `json:"roll"`
	From     int        `json:"from"`
	To       int        `json:"to"`
	Captured []Capture  `json:"captured,omitempty"`
}

// MovePiece moves one of the current player's pieces by roll.
func (g *Game) MovePiece(pieceID, roll int) MoveResult {
	return g.Move(pieceID, roll).Result
}

// Move resolves a move request for the current player and reports what
// happened. Invalid requests leave the board untouched; a rejected home exit
// still consumes one of the turn's exit attempts.
func (g *Game) Move(pieceID, roll int) MoveOutcome {
	out := MoveOutcome{Result: Invalid, PlayerID: g.current, PieceID: pieceID, Roll: roll}

	if g.Finished() {
		return out
	}
	player := g.players[g.current]
	piece := player.piece(pieceID)
	if piece == nil || !validRoll(roll) {
		return out
	}
	out.From, out.To = piece.Position, piece.Position

	if piece.Position == track.Home {
		g.attempts++
		if g.attempts > MaxExitAttempts || roll != track.ExitRoll {
			return out
		}
		piece.Position = 0
		g.attempts = 0
		out.To = piece.Position
		out.Result = MovedAndExtraTurn
		g.CheckWinner()
		return out
	}

	step, ok := track.Advance(player.ID, piece.Position, roll)
	if !ok {
		return out
	}

	if step.Zone != track.ZoneTrack {
		// Goal lane moves never capture and never earn an extra turn.
		piece.Position = step.Position
		out.To = piece.Position
		out.Result = Moved
		g.CheckWinner()
		return out
	}

	abs := track.Absolute(player.ID, step.Position)
	if player.occupies(abs, piece.ID) {
		return out
	}
	if !track.IsSafeSquare(abs, len(g.players)) {
		for _, opp := range g.players {
			if opp.ID == player.ID {
				continue
			}
			out.Captured = append(out.Captured, opp.sendHome(abs)...)
		}
	}
	piece.Position = step.Position
	out.To = piece.Position
	out.Result = Moved
	if roll == track.ExitRoll {
		out.Result = MovedAndExtraTurn
	}
	g.CheckWinner()
	return out
}

// legalMove reports whether the piece could move by roll without changing
// any state. It mirrors Move, including the per-turn exit attempt limit for
// the current player.
func (g *Game) legalMove(player *Player, pc Piece, roll int) bool {
	if pc.Position == track.Home {
		if roll != track.ExitRoll {
			return false
		}
		return player.ID != g.current || g.attempts < MaxExitAttempts
	}

	step, ok := track.Advance(player.ID, pc.Position, roll)
	if !ok {
		return false
	}
	if step.Zone != track.ZoneTrack {
		return true
	}
	return !player.occupies(track.Absolute(player.ID, step.Position), pc.ID)
}

// CanMoveAnyPiece reports whether the player has at least one legal move.
func (g *Game) CanMoveAnyPiece(playerID, roll int) bool {
	if g.Finished() || !validRoll(roll) || playerID < 0 || playerID >= len(g.players) {
		return false
	}
	player := g.players[playerID]
	for _, pc := range player.Pieces {
		if g.legalMove(player, pc, roll) {
			return true
		}
	}
	return false
}

// ValidMoves lists the ids of the current player's pieces that can move.
func (g *Game) ValidMoves(roll int) []int {
	ids := make([]int, 0, PiecesPerPlayer)
	if g.Finished() || !validRoll(roll) {
		return ids
	}
	player := g.players[g.current]
	for _, pc := range player.Pieces {
		if g.legalMove(player, pc, roll) {
			ids = append(ids, pc.ID)
		}
	}
	return ids
}

func validRoll(roll int) bool {
	return roll >= 1 && roll <= 6
}
