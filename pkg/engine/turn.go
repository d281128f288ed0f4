package engine

import "github.com/yourusername/ludoengine/internal/track"

// CheckWinner fixes the first player whose four pieces are all in the goal
// lane as winner. Once fixed the winner never changes until Reset or Load.
func (g *Game) CheckWinner() (int, bool) {
	if g.Finished() {
		return g.winner, true
	}
	for _, p := range g.players {
		if p.Finished() {
			g.winner = p.ID
			return g.winner, true
		}
	}
	return NoWinner, false
}

// NextTurn passes the move to the next unfinished player. When only one
// unfinished player remains, that player is declared winner instead.
func (g *Game) NextTurn() {
	g.attempts = 0
	if g.Finished() {
		return
	}

	remaining, last := 0, NoWinner
	for _, p := range g.players {
		if !p.Finished() {
			remaining++
			last = p.ID
		}
	}
	switch remaining {
	case 0:
		g.CheckWinner()
		return
	case 1:
		g.winner = last
		return
	}

	next := g.current
	for {
		next = (next + 1) % len(g.players)
		if !g.players[next].Finished() {
			break
		}
	}
	g.current = next
}

// HandleRollResult passes the turn when the current player cannot use roll.
// A six always keeps the turn. It reports whether the turn was passed.
func (g *Game) HandleRollResult(roll int) bool {
	if g.Finished() {
		return false
	}
	if roll == track.ExitRoll || g.CanMoveAnyPiece(g.current, roll) {
		return false
	}
	g.NextTurn()
	return true
}

// Throw is one die thrown during a roll-off.
type Throw struct {
	PlayerID int `json:"playerId"`
	Value    int `json:"value"`
}

// RollOff is the full record of a starting-player roll-off.
type RollOff struct {
	Rounds [][]Throw `json:"rounds"`
	Winner int       `json:"winner"`
}

// RollOff runs the starting-player roll-off: every candidate throws, the
// highest throwers survive, and ties are thrown again until one remains.
// The survivor becomes the current player.
func (g *Game) RollOff() RollOff {
	candidates := make([]int, len(g.players))
	for i := range candidates {
		candidates[i] = i
	}

	var result RollOff
	for len(candidates) > 1 {
		round := make([]Throw, 0, len(candidates))
		survivors := make([]int, 0, len(candidates))
		best := 0
		for _, id := range candidates {
			v := g.dice.Roll()
			round = append(round, Throw{PlayerID: id, Value: v})
			switch {
			case v > best:
				best = v
				survivors = append(survivors[:0], id)
			case v == best:
				survivors = append(survivors, id)
			}
		}
		result.Rounds = append(result.Rounds, round)
		candidates = survivors
	}

	result.Winner = candidates[0]
	g.current = result.Winner
	g.attempts = 0
	return result
}

// DetermineStartingPlayer runs a roll-off and returns the starting player.
func (g *Game) DetermineStartingPlayer() int {
	return g.RollOff().Winner
}
