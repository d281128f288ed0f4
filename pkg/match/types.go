// Package match records the sequence of actions in a ludo game and exports
// it as a plain text transcript.
package match

import (
	"time"

	"github.com/yourusername/ludoengine/pkg/engine"
)

// Record is the action log of one game session.
type Record struct {
	Session string    `json:"session"` // Session id
	Players int       `json:"players"` // Number of players
	Started time.Time `json:"started"` // Creation time
	Actions []Action  `json:"actions"` // Actions in the order they happened
}

// ActionType represents the type of game action.
type ActionType int

const (
	ActionRoll    ActionType = iota // Die roll
	ActionMove                      // Move request, valid or not
	ActionTurn                      // Turn passed to another player
	ActionRollOff                   // Starting-player roll-off
	ActionWin                       // Winner fixed
	ActionReset                     // Board reset
	ActionLoad                      // Snapshot loaded
)

var actionTypeNames = [...]string{"roll", "move", "turn", "rolloff", "win", "reset", "load"}

// String returns the action name.
func (t ActionType) String() string {
	if t < 0 || int(t) >= len(actionTypeNames) {
		return "unknown"
	}
	return actionTypeNames[t]
}

// MarshalText encodes the action type by name.
func (t ActionType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Action represents a single game action.
type Action struct {
	Type    ActionType          `json:"type"`
	Player  int                 `json:"player"`            // Acting player
	Roll    int                 `json:"roll,omitempty"`    // Die value (roll, move)
	Move    *engine.MoveOutcome `json:"move,omitempty"`    // Resolved move (ActionMove)
	RollOff *engine.RollOff     `json:"rolloff,omitempty"` // Roll-off detail (ActionRollOff)
	Passed  bool                `json:"passed,omitempty"`  // Turn lost to an unplayable roll
}

// NewRecord creates an empty record.
func NewRecord(session string, players int) *Record {
	return &Record{
		Session: session,
		Players: players,
		Started: time.Now().UTC(),
		Actions: make([]Action, 0, 64),
	}
}

// AddRoll adds a die roll.
func (r *Record) AddRoll(player, value int) {
	r.Actions = append(r.Actions, Action{Type: ActionRoll, Player: player, Roll: value})
}

// AddMove adds a resolved move request.
func (r *Record) AddMove(out engine.MoveOutcome) {
	r.Actions = append(r.Actions, Action{
		Type:   ActionMove,
		Player: out.PlayerID,
		Roll:   out.Roll,
		Move:   &out,
	})
}

// AddTurn adds a turn change to player. passed marks a turn lost to an
// unplayable roll.
func (r *Record) AddTurn(player int, passed bool) {
	r.Actions = append(r.Actions, Action{Type: ActionTurn, Player: player, Passed: passed})
}

// AddRollOff adds a starting-player roll-off.
func (r *Record) AddRollOff(ro engine.RollOff) {
	r.Actions = append(r.Actions, Action{Type: ActionRollOff, Player: ro.Winner, RollOff: &ro})
}

// AddWin adds the winner.
func (r *Record) AddWin(player int) {
	r.Actions = append(r.Actions, Action{Type: ActionWin, Player: player})
}

// AddReset adds a board reset.
func (r *Record) AddReset() {
	r.Actions = append(r.Actions, Action{Type: ActionReset})
}

// AddLoad adds a snapshot load. player is the player to move after loading.
func (r *Record) AddLoad(player int) {
	r.Actions = append(r.Actions, Action{Type: ActionLoad, Player: player})
}

// Copy returns a deep enough copy for concurrent readers.
func (r *Record) Copy() *Record {
	c := *r
	c.Actions = append([]Action(nil), r.Actions...)
	return &c
}
