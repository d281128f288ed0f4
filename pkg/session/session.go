// Package session hosts concurrent ludo games. Each Session wraps one
// engine.Game behind a mutex, keeps its action record and dice statistics,
// and fans events out to subscribers.
package session

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/ludoengine/internal/dicestats"
	"github.com/yourusername/ludoengine/pkg/engine"
	"github.com/yourusername/ludoengine/pkg/match"
)

var (
	// ErrNotFound is returned for unknown session ids.
	ErrNotFound = errors.New("game not found")
	// ErrInvalidPlayer is returned for player ids outside the game.
	ErrInvalidPlayer = errors.New("invalid player")
	// ErrStoreDisabled is returned by persistence calls without a store.
	ErrStoreDisabled = errors.New("persistence disabled")
)

// Event types.
const (
	EventRoll    = "roll"
	EventMove    = "move"
	EventTurn    = "turn"
	EventRollOff = "rolloff"
	EventWin     = "win"
	EventReset   = "reset"
	EventLoad    = "load"
)

// eventBuffer is the per-subscriber queue length. Slow subscribers miss
// events instead of blocking the game.
const eventBuffer = 32

// Event is a state change pushed to subscribers.
type Event struct {
	Type    string `json:"type"`
	Session string `json:"session"`
	Seq     uint64 `json:"seq"`
	Data    any    `json:"data,omitempty"`
}

// RollEvent is the payload of EventRoll.
type RollEvent struct {
	Player int `json:"player"`
	Value  int `json:"value"`
}

// TurnEvent is the payload of EventTurn.
type TurnEvent struct {
	Player int  `json:"player"`
	Passed bool `json:"passed"` // Turn lost to an unplayable roll
}

// WinEvent is the payload of EventWin.
type WinEvent struct {
	Player int `json:"player"`
}

// MoveReport is a resolved move together with the turn and winner that
// followed it.
type MoveReport struct {
	engine.MoveOutcome
	CurrentPlayer int  `json:"currentPlayer"`
	WinnerID      *int `json:"winnerId"`
}

// Session is one hosted game. All methods are safe for concurrent use.
type Session struct {
	id      string
	created time.Time
	logger  *zap.Logger

	mu     sync.Mutex
	game   *engine.Game
	record *match.Record
	dice   *dicestats.Tally
	seq    uint64
	subs   map[chan Event]struct{}
	closed bool
}

func newSession(id string, game *engine.Game, logger *zap.Logger) *Session {
	return &Session{
		id:      id,
		created: time.Now().UTC(),
		logger:  logger.With(zap.String("game_id", id)),
		game:    game,
		record:  match.NewRecord(id, game.TotalPlayers()),
		dice:    dicestats.NewDieTally(),
		subs:    make(map[chan Event]struct{}),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Created returns the creation time.
func (s *Session) Created() time.Time { return s.created }

// TotalPlayers returns the number of players.
func (s *Session) TotalPlayers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.TotalPlayers()
}

// CurrentPlayer returns the player to move.
func (s *Session) CurrentPlayer() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.CurrentPlayer()
}

// Roll rolls the game's die for the current player.
func (s *Session) Roll() (player, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, value = s.game.CurrentPlayer(), s.game.RollDice()
	s.tally(value)
	s.record.AddRoll(player, value)
	s.publish(EventRoll, RollEvent{Player: player, Value: value})
	return player, value
}

// Move resolves a move request for the current player.
func (s *Session) Move(pieceID, roll int) MoveReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	hadWinner := s.game.Finished()
	out := s.game.Move(pieceID, roll)
	s.record.AddMove(out)
	s.publish(EventMove, out)
	s.logger.Debug("move",
		zap.Int("player", out.PlayerID),
		zap.Int("piece", out.PieceID),
		zap.Int("roll", out.Roll),
		zap.Stringer("result", out.Result),
		zap.Int("captured", len(out.Captured)),
	)
	s.announceWinner(hadWinner)

	report := MoveReport{MoveOutcome: out, CurrentPlayer: s.game.CurrentPlayer()}
	if w, ok := s.game.Winner(); ok {
		report.WinnerID = &w
	}
	return report
}

// NextTurn passes the move and returns the new current player.
func (s *Session) NextTurn() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	hadWinner := s.game.Finished()
	s.game.NextTurn()
	s.turnChanged(false)
	s.announceWinner(hadWinner)
	return s.game.CurrentPlayer()
}

// HandleRollResult passes the turn when the current player cannot use roll.
// It returns whether the turn passed and the player now to move.
func (s *Session) HandleRollResult(roll int) (passed bool, current int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hadWinner := s.game.Finished()
	passed = s.game.HandleRollResult(roll)
	if passed {
		s.turnChanged(true)
		s.announceWinner(hadWinner)
	}
	return passed, s.game.CurrentPlayer()
}

// DetermineStartingPlayer runs a roll-off and makes the survivor current.
func (s *Session) DetermineStartingPlayer() engine.RollOff {
	s.mu.Lock()
	defer s.mu.Unlock()

	ro := s.game.RollOff()
	for _, round := range ro.Rounds {
		for _, t := range round {
			s.tally(t.Value)
		}
	}
	s.record.AddRollOff(ro)
	s.publish(EventRollOff, ro)
	s.logger.Info("starting player determined",
		zap.Int("player", ro.Winner),
		zap.Int("rounds", len(ro.Rounds)),
	)
	return ro
}

// Board returns the board status.
func (s *Session) Board() engine.BoardStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.BoardStatus()
}

// Winner returns the winner, if any.
func (s *Session) Winner() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Winner()
}

// CheckWinner fixes a winner if a player has finished and returns it.
func (s *Session) CheckWinner() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hadWinner := s.game.Finished()
	w, ok := s.game.CheckWinner()
	s.announceWinner(hadWinner)
	return w, ok
}

// CanMoveAnyPiece reports whether player has a legal move for roll.
func (s *Session) CanMoveAnyPiece(player, roll int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if player < 0 || player >= s.game.TotalPlayers() {
		return false, ErrInvalidPlayer
	}
	return s.game.CanMoveAnyPiece(player, roll), nil
}

// ValidMoves lists the current player's movable piece ids for roll.
func (s *Session) ValidMoves(roll int) (player int, pieces []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.CurrentPlayer(), s.game.ValidMoves(roll)
}

// Reset restarts the game with every piece at home and clears the dice
// statistics. The record keeps the earlier actions.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.game.Reset()
	s.dice.Reset()
	s.record.AddReset()
	s.publish(EventReset, nil)
	s.logger.Info("game reset")
}

// Save returns a snapshot of the game.
func (s *Session) Save() engine.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Save()
}

// Load replaces the game state with a snapshot. A rejected snapshot leaves
// the game unchanged.
func (s *Session) Load(state engine.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.game.Load(state); err != nil {
		return err
	}
	s.record.Players = s.game.TotalPlayers()
	s.record.AddLoad(s.game.CurrentPlayer())
	board := s.game.BoardStatus()
	s.publish(EventLoad, board)
	s.announceWinner(state.WinnerID != nil)
	s.logger.Info("snapshot loaded", zap.Int("players", s.game.TotalPlayers()))
	return nil
}

// History returns a copy of the action record.
func (s *Session) History() *match.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.Copy()
}

// DiceStats returns the goodness-of-fit summary of every die rolled.
func (s *Session) DiceStats() dicestats.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dice.Summary()
}

// Subscribe registers an event listener. The returned cancel func must be
// called to release it. The channel is closed when the session is deleted.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, eventBuffer)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[ch]; ok {
				delete(s.subs, ch)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// close ends all subscriptions.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
}

// The helpers below expect s.mu to be held.

func (s *Session) tally(value int) {
	if err := s.dice.Add(value); err != nil {
		s.logger.Warn("die value not tallied", zap.Int("value", value), zap.Error(err))
	}
}

func (s *Session) turnChanged(passed bool) {
	player := s.game.CurrentPlayer()
	s.record.AddTurn(player, passed)
	s.publish(EventTurn, TurnEvent{Player: player, Passed: passed})
}

func (s *Session) announceWinner(hadWinner bool) {
	if hadWinner {
		return
	}
	if w, ok := s.game.Winner(); ok {
		s.record.AddWin(w)
		s.publish(EventWin, WinEvent{Player: w})
		s.logger.Info("game won", zap.Int("player", w))
	}
}

func (s *Session) publish(typ string, data any) {
	s.seq++
	ev := Event{Type: typ, Session: s.id, Seq: s.seq, Data: data}
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.logger.Debug("subscriber lagging, event dropped", zap.String("event", typ))
		}
	}
}
