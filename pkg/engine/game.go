package engine

import (
	"errors"
	"fmt"

	"github.com/yourusername/ludoengine/internal/track"
)

// MaxExitAttempts is the number of home-exit tries a player gets per turn.
const MaxExitAttempts = 3

// NoWinner is the winner id of a game still in progress.
const NoWinner = -1

var (
	// ErrInvalidPlayerCount is returned when a game is created with fewer than
	// two or more than four players.
	ErrInvalidPlayerCount = errors.New("ludo requires 2-4 players")
	// ErrInvalidSnapshot is returned when a snapshot cannot be loaded.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Game is the complete mutable state of one ludo game.
// A Game is not safe for concurrent use; callers serialize access.
type Game struct {
	players  []*Player
	current  int
	winner   int
	attempts int // failed home exits by the current player this turn
	dice     Dice
}

// NewGame creates a game for totalPlayers players with every piece at home
// and player 0 to move. A nil dice uses a randomly seeded RandomDice.
func NewGame(totalPlayers int, dice Dice) (*Game, error) {
	if totalPlayers < track.MinPlayers || totalPlayers > track.MaxPlayers {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPlayerCount, totalPlayers)
	}
	if dice == nil {
		dice = NewRandomDice(0)
	}

	g := &Game{
		players: make([]*Player, totalPlayers),
		winner:  NoWinner,
		dice:    dice,
	}
	for i := range g.players {
		g.players[i] = newPlayer(i)
	}
	return g, nil
}

// CurrentPlayer returns the id of the player to move.
func (g *Game) CurrentPlayer() int {
	return g.current
}

// TotalPlayers returns the number of players.
func (g *Game) TotalPlayers() int {
	return len(g.players)
}

// ExitAttempts returns the failed home-exit attempts of the current turn.
func (g *Game) ExitAttempts() int {
	return g.attempts
}

// Winner returns the winner id, if any.
func (g *Game) Winner() (int, bool) {
	return g.winner, g.winner != NoWinner
}

// Finished reports whether a winner has been fixed.
func (g *Game) Finished() bool {
	return g.winner != NoWinner
}

// Player returns a copy of the player with the given id.
func (g *Game) Player(id int) (Player, bool) {
	if id < 0 || id >= len(g.players) {
		return Player{}, false
	}
	return *g.players[id], true
}

// RollDice rolls the game's die.
func (g *Game) RollDice() int {
	return g.dice.Roll()
}

// Reset sends every piece home and gives the move to player 0.
func (g *Game) Reset() {
	g.current = 0
	g.winner = NoWinner
	g.attempts = 0
	for _, p := range g.players {
		for i := range p.Pieces {
			p.Pieces[i].Position = track.Home
		}
	}
}

// PieceStatus is a piece as reported by BoardStatus.
type PieceStatus struct {
	ID               int  `json:"id"`
	Position         int  `json:"position"`
	AbsolutePosition *int `json:"absolutePosition"` // nil unless on the shared track
}

// PlayerStatus is a player as reported by BoardStatus.
type PlayerStatus struct {
	ID       int           `json:"id"`
	Color    string        `json:"color"`
	Finished bool          `json:"finished"`
	Pieces   []PieceStatus `json:"pieces"`
}

// BoardStatus is a read-only view of the whole board.
type BoardStatus struct {
	Players       []PlayerStatus `json:"players"`
	CurrentPlayer int            `json:"currentPlayer"`
	WinnerID      *int           `json:"winnerId"`
}

// BoardStatus returns the players, the player to move and the winner.
func (g *Game) BoardStatus() BoardStatus {
	status := BoardStatus{
		Players:       make([]PlayerStatus, len(g.players)),
		CurrentPlayer: g.current,
		WinnerID:      g.winnerPtr(),
	}
	for i, p := range g.players {
		ps := PlayerStatus{
			ID:       p.ID,
			Color:    p.Color,
			Finished: p.Finished(),
			Pieces:   make([]PieceStatus, PiecesPerPlayer),
		}
		for j, pc := range p.Pieces {
			ps.Pieces[j] = PieceStatus{ID: pc.ID, Position: pc.Position}
			if track.Classify(pc.Position) == track.ZoneTrack {
				abs := track.Absolute(p.ID, pc.Position)
				ps.Pieces[j].AbsolutePosition = &abs
			}
		}
		status.Players[i] = ps
	}
	return status
}

func (g *Game) winnerPtr() *int {
	if g.winner == NoWinner {
		return nil
	}
	w := g.winner
	return &w
}
