// ludo - command line tools for the ludo rules engine
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/ludoengine/internal/dicestats"
	"github.com/yourusername/ludoengine/internal/track"
	"github.com/yourusername/ludoengine/pkg/engine"
	"github.com/yourusername/ludoengine/pkg/match"
	"github.com/yourusername/ludoengine/pkg/session"
	"github.com/yourusername/ludoengine/pkg/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "simulate":
		cmdSimulate(args)
	case "rolloff":
		cmdRollOff(args)
	case "play":
		cmdPlay(args)
	case "rules":
		cmdRules()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`ludo - Ludo Rules Engine

Usage: ludo <command> [options]

Commands:
  simulate  Self-play random games and report seat statistics
  rolloff   Check the fairness of the starting-player roll-off
  play      Play one random game and print its transcript
  rules     Print the board layout and rules

Use "ludo <command> -h" for command-specific help.`)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func cmdSimulate(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	games := fs.Int("games", 1000, "Number of games to simulate")
	players := fs.Int("players", 4, "Players per game (2-4)")
	workers := fs.Int("workers", 0, "Number of worker goroutines (0 = auto)")
	maxPlies := fs.Int("max-plies", 10000, "Abandon a game after N rolls")
	seed := fs.Int64("seed", 0, "Random seed (0 = random)")
	fs.Parse(args)

	opts := engine.SimulateOptions{
		Games:    *games,
		Players:  *players,
		Workers:  *workers,
		MaxPlies: *maxPlies,
		Seed:     *seed,
	}

	start := time.Now()
	result, err := engine.Simulate(opts)
	elapsed := time.Since(start)
	if err != nil {
		fail("%v", err)
	}

	fmt.Printf("Simulation (%d games, %.1fs):\n", result.Games, elapsed.Seconds())
	fmt.Printf("  Rolls per game: %.1f\n", result.AvgPlies)
	fmt.Printf("  Moves: %d  Captures: %d  Extra turns: %d  Passed turns: %d\n",
		result.Moves, result.Captures, result.ExtraTurns, result.PassedTurns)
	if result.Unfinished > 0 {
		fmt.Printf("  Unfinished: %d\n", result.Unfinished)
	}

	fmt.Println()
	fmt.Println("  Seat     Starts    Wins   Win%")
	finished := result.Games - result.Unfinished
	for seat := range result.Wins {
		pct := 0.0
		if finished > 0 {
			pct = float64(result.Wins[seat]) / float64(finished) * 100
		}
		fmt.Printf("  %-7s %7d %7d %5.1f%%\n", engine.Colors[seat], result.Starts[seat], result.Wins[seat], pct)
	}

	chi, p := dicestats.ChiSquareUniform(toFloats(result.Wins))
	fmt.Printf("\n  Wins vs uniform: chi2 = %.2f, p = %.4f\n", chi, p)
}

func cmdRollOff(args []string) {
	fs := flag.NewFlagSet("rolloff", flag.ExitOnError)
	runs := fs.Int("runs", 10000, "Number of roll-offs")
	players := fs.Int("players", 4, "Players per game (2-4)")
	seed := fs.Int64("seed", 0, "Random seed (0 = random)")
	fs.Parse(args)

	if *runs <= 0 {
		fail("runs must be positive")
	}

	dice := engine.NewRandomDice(*seed)
	g, err := engine.NewGame(*players, dice)
	if err != nil {
		fail("%v", err)
	}

	winners := dicestats.NewTally(*players)
	rounds := 0
	for i := 0; i < *runs; i++ {
		ro := g.RollOff()
		rounds += len(ro.Rounds)
		winners.Add(ro.Winner + 1)
	}

	s := winners.Summary()
	fmt.Printf("Roll-off (%d runs, %d players):\n", s.Total, *players)
	fmt.Printf("  Rounds per roll-off: %.2f\n", float64(rounds)/float64(s.Total))
	for seat, n := range s.Counts {
		fmt.Printf("  %-7s %7d %5.1f%%\n", engine.Colors[seat], n, float64(n)/float64(s.Total)*100)
	}
	fmt.Printf("  chi2 = %.2f (df %d), p = %.4f\n", s.ChiSquare, s.DegreesOfFreedom, s.PValue)
}

func cmdPlay(args []string) {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	players := fs.Int("players", 4, "Players in the game (2-4)")
	seed := fs.Int64("seed", 0, "Random seed (0 = random)")
	maxPlies := fs.Int("max-plies", 10000, "Stop after N rolls")
	db := fs.String("db", "", "SQLite database to save the final position to")
	fs.Parse(args)

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	cfg := session.Config{
		NewDice: func() engine.Dice { return engine.NewRandomDice(*seed) },
	}
	if *db != "" {
		st, err := store.Open(*db, zap.NewNop())
		if err != nil {
			fail("%v", err)
		}
		defer st.Close()
		cfg.Store = st
	}

	games := session.NewManager(cfg)
	defer games.Close()

	s, err := games.Create(*players)
	if err != nil {
		fail("%v", err)
	}

	picker := rand.New(rand.NewSource(*seed ^ 0x5deece66d))
	s.DetermineStartingPlayer()
	for plies := 0; plies < *maxPlies; plies++ {
		if _, ok := s.Winner(); ok {
			break
		}
		_, roll := s.Roll()
		_, moves := s.ValidMoves(roll)
		if len(moves) == 0 {
			s.HandleRollResult(roll)
			continue
		}
		out := s.Move(moves[picker.Intn(len(moves))], roll)
		if out.Result != engine.MovedAndExtraTurn {
			s.NextTurn()
		}
	}

	rec := s.History()
	if err := match.ExportTranscript(os.Stdout, rec); err != nil {
		fail("%v", err)
	}

	fmt.Println()
	fmt.Println("  Seat     Moves Invalid  Extra  Capt  Lost  Passed")
	for i, ps := range rec.Stats() {
		fmt.Printf("  %-7s %6d %7d %6d %5d %5d %7d\n", engine.Colors[i],
			ps.Moves, ps.Invalid, ps.ExtraTurns, ps.Captures, ps.Captured, ps.PassedTurn)
	}

	ds := s.DiceStats()
	fmt.Printf("\n  Dice %v: chi2 = %.2f, p = %.4f\n", ds.Counts, ds.ChiSquare, ds.PValue)

	if games.Persistent() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := games.Persist(ctx, s.ID()); err != nil {
			fail("%v", err)
		}
		fmt.Printf("  Saved as %s\n", s.ID())
	}
}

func cmdRules() {
	var b strings.Builder
	fmt.Fprintf(&b, "Ludo for %d-%d players, %d pieces each.\n\n", track.MinPlayers, track.MaxPlayers, engine.PiecesPerPlayer)
	fmt.Fprintf(&b, "  Seat     Start  Goal entry\n")
	for seat := 0; seat < track.MaxPlayers; seat++ {
		fmt.Fprintf(&b, "  %-7s %6d %11d\n", engine.Colors[seat], track.StartOffsets[seat], track.EntryThresholds[seat])
	}
	fmt.Fprintf(&b, `
  - A piece leaves home only on a %d, onto its owner's start square.
    A player gets %d attempts per turn to roll it.
  - The shared track has %d squares. Positions are counted from the
    owner's start square, 0..%d.
  - Reaching the goal entry square moves the piece into the goal lane
    (%d..%d). Moves inside the lane must not overshoot. A piece in the
    goal lane is finished.
  - Landing on an opponent sends it home, except on a start square of
    a seated player, which is safe.
  - A piece may not land on another piece of its own color.
  - Rolling a %d out of home or along the track gives another turn.
  - The first player with all pieces finished wins. When only one
    player is left unfinished, that player wins.
  - The starting player is chosen by roll-off: highest throw wins,
    ties throw again.
`, track.ExitRoll, engine.MaxExitAttempts, track.Length, track.LastSquare,
		track.GoalBase, track.GoalSquare, track.ExitRoll)
	fmt.Print(b.String())
}

func toFloats(counts []int) []float64 {
	out := make([]float64, len(counts))
	for i, c := range counts {
		out[i] = float64(c)
	}
	return out
}
