// Package engine provides the ludo rules engine: piece and player state, move
// resolution, turn order, winner detection and save/load snapshots.
package engine

import "github.com/yourusername/ludoengine/internal/track"

// PiecesPerPlayer is the number of pieces every player owns.
const PiecesPerPlayer = 4

// Colors lists player colors by seat.
var Colors = [track.MaxPlayers]string{"red", "green", "blue", "yellow"}

// Piece is a single token. Position uses the relative encoding of package
// track: -1 home, 0..51 shared track, 100..105 goal lane.
type Piece struct {
	ID       int
	Position int
}

// Player owns exactly four pieces. ID doubles as the seat index.
type Player struct {
	ID     int
	Color  string
	Pieces [PiecesPerPlayer]Piece
}

// newPlayer returns a player with all pieces at home.
func newPlayer(id int) *Player {
	p := &Player{ID: id, Color: Colors[id]}
	for i := range p.Pieces {
		p.Pieces[i] = Piece{ID: i, Position: track.Home}
	}
	return p
}

// piece returns the piece with the given id, or nil.
func (p *Player) piece(id int) *Piece {
	if id < 0 || id >= PiecesPerPlayer {
		return nil
	}
	return &p.Pieces[id]
}

// Finished reports whether every piece has reached the goal lane.
func (p *Player) Finished() bool {
	for _, pc := range p.Pieces {
		if !track.InGoalLane(pc.Position) {
			return false
		}
	}
	return true
}

// sendHome resets every piece on the shared track at abs and returns the
// captured pieces.
func (p *Player) sendHome(abs int) []Capture {
	var captured []Capture
	for i := range p.Pieces {
		pc := &p.Pieces[i]
		if track.Classify(pc.Position) != track.ZoneTrack {
			continue
		}
		if track.Absolute(p.ID, pc.Position) == abs {
			captured = append(captured, Capture{PlayerID: p.ID, PieceID: pc.ID, From: pc.Position})
			pc.Position = track.Home
		}
	}
	return captured
}

// occupies reports whether a piece other than skip sits on abs.
func (p *Player) occupies(abs, skip int) bool {
	for _, pc := range p.Pieces {
		if pc.ID == skip || track.Classify(pc.Position) != track.ZoneTrack {
			continue
		}
		if track.Absolute(p.ID, pc.Position) == abs {
			return true
		}
	}
	return false
}
