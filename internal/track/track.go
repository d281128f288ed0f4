// Package track implements the ludo position model.
//
// A piece position is stored relative to its owner: -1 is home, 0..51 is the
// distance travelled along the shared track from the owner's entry square, and
// 100..105 is the owner's private goal lane with 105 as the final square.
// Collisions between players are detected on the absolute track coordinate,
// which is the relative position shifted by the owner's start offset.
package track

import "fmt"

const (
	// Home is the position of a piece that has not entered the track.
	Home = -1
	// Length is the number of squares on the shared track.
	Length = 52
	// LastSquare is the highest relative position on the shared track.
	LastSquare = Length - 1
	// GoalBase is the first goal-lane position.
	GoalBase = 100
	// GoalSquare is the final goal position.
	GoalSquare = 105
	// MaxGoalStep is the furthest step into the goal lane (GoalSquare - GoalBase).
	MaxGoalStep = GoalSquare - GoalBase
	// MaxPlayers is the number of seats on the board.
	MaxPlayers = 4
	// MinPlayers is the smallest playable table.
	MinPlayers = 2
	// ExitRoll is the die face required to leave home.
	ExitRoll = 6
)

// StartOffsets holds each seat's entry square on the absolute track.
// The layout is canonical and does not depend on the number of players.
var StartOffsets = [MaxPlayers]int{0, 13, 26, 39}

// EntryThresholds holds, per seat, the relative position at which a piece
// leaves the shared track for its goal lane.
var EntryThresholds = [MaxPlayers]int{50, 11, 24, 37}

// Zone classifies a position.
type Zone int

const (
	ZoneInvalid  Zone = iota
	ZoneHome          // -1
	ZoneTrack         // 0..51
	ZoneGoalLane      // 100..104
	ZoneGoal          // 105
)

// String returns the zone name.
func (z Zone) String() string {
	switch z {
	case ZoneHome:
		return "home"
	case ZoneTrack:
		return "track"
	case ZoneGoalLane:
		return "goal_lane"
	case ZoneGoal:
		return "goal"
	default:
		return "invalid"
	}
}

// Classify returns the zone a position belongs to.
func Classify(pos int) Zone {
	switch {
	case pos == Home:
		return ZoneHome
	case pos >= 0 && pos <= LastSquare:
		return ZoneTrack
	case pos >= GoalBase && pos < GoalSquare:
		return ZoneGoalLane
	case pos == GoalSquare:
		return ZoneGoal
	default:
		return ZoneInvalid
	}
}

// Valid reports whether pos is a legal resting position.
func Valid(pos int) bool {
	return Classify(pos) != ZoneInvalid
}

// InGoalLane reports whether pos is anywhere in the goal lane, goal included.
func InGoalLane(pos int) bool {
	return pos >= GoalBase && pos <= GoalSquare
}

// ValidSeat reports whether seat indexes the canonical layout.
func ValidSeat(seat int) bool {
	return seat >= 0 && seat < MaxPlayers
}

// Absolute maps a relative track position to the shared track coordinate.
// It is only meaningful for relative positions in 0..51.
func Absolute(seat, relative int) int {
	return (StartOffsets[seat] + relative) % Length
}

// IsSafeSquare reports whether abs is the entry square of a seated player in
// a game of the given size. Pieces on a safe square cannot be captured.
func IsSafeSquare(abs, players int) bool {
	for seat := 0; seat < players && seat < MaxPlayers; seat++ {
		if StartOffsets[seat] == abs {
			return true
		}
	}
	return false
}

// Step is the outcome of advancing a piece that is already out of home.
type Step struct {
	Position        int  // New relative position
	Zone            Zone // Zone of the new position
	EnteredGoalLane bool // True if this step left the shared track
}

// Advance moves a piece at pos forward by roll for the given seat.
// It returns false when the move would overshoot the goal or run past the
// end of the shared track. Home pieces never advance; leaving home is a
// separate rule.
func Advance(seat, pos, roll int) (Step, bool) {
	if roll <= 0 {
		return Step{}, false
	}

	switch Classify(pos) {
	case ZoneGoalLane:
		next := pos + roll
		if next > GoalSquare {
			return Step{}, false
		}
		return Step{Position: next, Zone: Classify(next)}, true

	case ZoneTrack:
		next := pos + roll
		threshold := EntryThresholds[seat]
		if pos < threshold && next >= threshold {
			goalStep := next - threshold
			if goalStep > MaxGoalStep {
				return Step{}, false
			}
			lane := GoalBase + goalStep
			return Step{Position: lane, Zone: Classify(lane), EnteredGoalLane: true}, true
		}
		if next > LastSquare {
			return Step{}, false
		}
		return Step{Position: next, Zone: ZoneTrack}, true
	}

	return Step{}, false
}

// Describe formats a position for logs and transcripts.
func Describe(seat, pos int) string {
	switch Classify(pos) {
	case ZoneHome:
		return "home"
	case ZoneTrack:
		return fmt.Sprintf("%d@%d", pos, Absolute(seat, pos))
	case ZoneGoalLane:
		return fmt.Sprintf("lane%d", pos-GoalBase)
	case ZoneGoal:
		return "goal"
	default:
		return fmt.Sprintf("?%d", pos)
	}
}
