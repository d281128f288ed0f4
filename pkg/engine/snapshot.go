package engine

import (
	"fmt"

	"github.com/yourusername/ludoengine/internal/track"
)

// PieceState is the persisted form of a piece.
type PieceState struct {
	ID       int `json:"id"`
	Position int `json:"position"`
}

// PlayerState is the persisted form of a player.
type PlayerState struct {
	ID     int          `json:"id"`
	Color  string       `json:"color"`
	Pieces []PieceState `json:"pieces"`
}

// GameState is the save/load snapshot. The exit attempt counter is not part
// of it and restarts at zero on load.
type GameState struct {
	CurrentPlayer int           `json:"currentPlayer"`
	WinnerID      *int          `json:"winnerId"`
	Players       []PlayerState `json:"players"`
}

// Save returns a deep copy of the game state.
func (g *Game) Save() GameState {
	state := GameState{
		CurrentPlayer: g.current,
		WinnerID:      g.winnerPtr(),
		Players:       make([]PlayerState, len(g.players)),
	}
	for i, p := range g.players {
		ps := PlayerState{ID: p.ID, Color: p.Color, Pieces: make([]PieceState, PiecesPerPlayer)}
		for j, pc := range p.Pieces {
			ps.Pieces[j] = PieceState{ID: pc.ID, Position: pc.Position}
		}
		state.Players[i] = ps
	}
	return state
}

// Load replaces the whole game state with the snapshot. Malformed snapshots
// are rejected with ErrInvalidSnapshot and leave the game unchanged. A
// snapshot without a winner in which a player has finished gets that player
// as winner.
func (g *Game) Load(state GameState) error {
	players, err := playersFromState(state)
	if err != nil {
		return err
	}
	g.players = players
	g.current = state.CurrentPlayer
	g.winner = NoWinner
	if state.WinnerID != nil {
		g.winner = *state.WinnerID
	}
	g.attempts = 0
	g.CheckWinner()
	return nil
}

// Validate checks a snapshot without loading it.
func (s GameState) Validate() error {
	_, err := playersFromState(s)
	return err
}

func playersFromState(state GameState) ([]*Player, error) {
	n := len(state.Players)
	if n == 0 {
		return nil, fmt.Errorf("%w: no players", ErrInvalidSnapshot)
	}
	if n < track.MinPlayers || n > track.MaxPlayers {
		return nil, fmt.Errorf("%w: %d players", ErrInvalidSnapshot, n)
	}
	if state.CurrentPlayer < 0 || state.CurrentPlayer >= n {
		return nil, fmt.Errorf("%w: current player %d out of range", ErrInvalidSnapshot, state.CurrentPlayer)
	}
	if w := state.WinnerID; w != nil && (*w < 0 || *w >= n) {
		return nil, fmt.Errorf("%w: winner %d out of range", ErrInvalidSnapshot, *w)
	}

	players := make([]*Player, n)
	for i, ps := range state.Players {
		if ps.ID != i {
			return nil, fmt.Errorf("%w: player at index %d has id %d", ErrInvalidSnapshot, i, ps.ID)
		}
		if len(ps.Pieces) != PiecesPerPlayer {
			return nil, fmt.Errorf("%w: player %d has %d pieces, want %d",
				ErrInvalidSnapshot, ps.ID, len(ps.Pieces), PiecesPerPlayer)
		}

		p := newPlayer(i)
		if ps.Color != "" {
			p.Color = ps.Color
		}
		var seen [PiecesPerPlayer]bool
		for _, pcs := range ps.Pieces {
			if pcs.ID < 0 || pcs.ID >= PiecesPerPlayer || seen[pcs.ID] {
				return nil, fmt.Errorf("%w: player %d has bad piece id %d", ErrInvalidSnapshot, ps.ID, pcs.ID)
			}
			if !track.Valid(pcs.Position) {
				return nil, fmt.Errorf("%w: player %d piece %d at invalid position %d",
					ErrInvalidSnapshot, ps.ID, pcs.ID, pcs.Position)
			}
			seen[pcs.ID] = true
			p.Pieces[pcs.ID].Position = pcs.Position
		}
		players[i] = p
	}
	return players, nil
}
