package match

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/yourusername/ludoengine/internal/track"
	"github.com/yourusername/ludoengine/pkg/engine"
)

// Transcript format is a line oriented log of a record.
// Example:
//
//	; [Session "6f1c..."]
//	; [Players "2"]
//	; [Started "2026-01-02T15:04:05Z"]
//
//	Roll-off: red 3 green 5 => green
//	  1) green   6: piece 0 home -> 0@13 +
//	  2) green   4: piece 0 0@13 -> 4@17
//	     red     2: no move
//	  3) red     6: piece 2 home -> 0@0 +
//	Winner: red

// ExportTranscript writes a record as a human readable transcript. It
// stops writing at the first error and returns it.
func ExportTranscript(w io.Writer, rec *Record) error {
	ew := &errWriter{w: w}
	ew.printf("; [Session %q]\n", rec.Session)
	ew.printf("; [Players \"%d\"]\n", rec.Players)
	if !rec.Started.IsZero() {
		ew.printf("; [Started %q]\n", rec.Started.Format(time.RFC3339))
	}
	ew.printf("\n")

	moveNum := 0
	rollPlayer, roll := -1, 0 // last roll not yet used by a move
	for _, action := range rec.Actions {
		switch action.Type {
		case ActionRoll:
			rollPlayer, roll = action.Player, action.Roll

		case ActionMove:
			rollPlayer = -1
			if action.Move == nil || action.Move.Result == engine.Invalid {
				ew.printf("     %-7s %d: %s\n", colorOf(action.Player), action.Roll, invalidMoveText(action))
				continue
			}
			moveNum++
			ew.printf("%3d) %-7s %d: %s\n", moveNum, colorOf(action.Player), action.Roll, formatMove(*action.Move))

		case ActionTurn:
			if action.Passed && rollPlayer >= 0 {
				ew.printf("     %-7s %d: no move\n", colorOf(rollPlayer), roll)
			}
			rollPlayer = -1

		case ActionRollOff:
			if action.RollOff != nil {
				ew.printf("Roll-off: %s\n", formatRollOff(*action.RollOff))
			}

		case ActionWin:
			ew.printf("Winner: %s\n", colorOf(action.Player))

		case ActionReset:
			moveNum = 0
			ew.printf("Reset\n")

		case ActionLoad:
			ew.printf("Loaded, %s to move\n", colorOf(action.Player))
		}
	}
	return ew.err
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

// formatMove formats a valid move, e.g. "piece 1 3@16 -> 9@22 x blue.2 +".
func formatMove(m engine.MoveOutcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "piece %d %s -> %s", m.PieceID,
		track.Describe(m.PlayerID, m.From), track.Describe(m.PlayerID, m.To))
	for _, c := range m.Captured {
		fmt.Fprintf(&b, " x %s.%d", colorOf(c.PlayerID), c.PieceID)
	}
	if m.Result == engine.MovedAndExtraTurn {
		b.WriteString(" +")
	}
	return b.String()
}

func invalidMoveText(a Action) string {
	if a.Move == nil {
		return "invalid"
	}
	return fmt.Sprintf("piece %d invalid", a.Move.PieceID)
}

func formatRollOff(ro engine.RollOff) string {
	rounds := make([]string, 0, len(ro.Rounds))
	for _, round := range ro.Rounds {
		throws := make([]string, 0, len(round))
		for _, t := range round {
			throws = append(throws, fmt.Sprintf("%s %d", colorOf(t.PlayerID), t.Value))
		}
		rounds = append(rounds, strings.Join(throws, " "))
	}
	return fmt.Sprintf("%s => %s", strings.Join(rounds, " | "), colorOf(ro.Winner))
}

func colorOf(player int) string {
	if player < 0 || player >= len(engine.Colors) {
		return fmt.Sprintf("p%d", player)
	}
	return engine.Colors[player]
}

// PlayerStats summarizes one player's actions in a record.
type PlayerStats struct {
	Moves      int `json:"moves"`
	Invalid    int `json:"invalid"`
	ExtraTurns int `json:"extraTurns"`
	Captures   int `json:"captures"`   // Opponent pieces sent home
	Captured   int `json:"captured"`   // Own pieces sent home
	PassedTurn int `json:"passedTurn"` // Turns lost to unplayable rolls
}

// Stats tallies per-player statistics from the record.
func (r *Record) Stats() []PlayerStats {
	stats := make([]PlayerStats, r.Players)
	valid := func(p int) bool { return p >= 0 && p < len(stats) }
	last := -1

	for _, a := range r.Actions {
		switch a.Type {
		case ActionRoll:
			last = a.Player
		case ActionMove:
			if !valid(a.Player) {
				continue
			}
			if a.Move == nil || a.Move.Result == engine.Invalid {
				stats[a.Player].Invalid++
				continue
			}
			stats[a.Player].Moves++
			if a.Move.Result == engine.MovedAndExtraTurn {
				stats[a.Player].ExtraTurns++
			}
			for _, c := range a.Move.Captured {
				stats[a.Player].Captures++
				if valid(c.PlayerID) {
					stats[c.PlayerID].Captured++
				}
			}
		case ActionTurn:
			if a.Passed && valid(last) {
				stats[last].PassedTurn++
			}
		}
	}
	return stats
}
