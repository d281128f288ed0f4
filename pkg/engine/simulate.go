package engine

import (
	"math/rand"
	"runtime"
	"sync"
)

// SimulateOptions controls a self-play simulation.
type SimulateOptions struct {
	Games    int   // Number of games to play (default 1000)
	Players  int   // Players per game (default 4)
	Seed     int64 // RNG seed (0 = random)
	Workers  int   // Number of parallel workers (0 = GOMAXPROCS)
	MaxPlies int   // Rolls per game before it is abandoned (default 10000)
}

// SimulationResult aggregates the simulated games.
type SimulationResult struct {
	Games       int     `json:"games"`
	Wins        []int   `json:"wins"`       // Wins by seat
	Starts      []int   `json:"starts"`     // Roll-off wins by seat
	Unfinished  int     `json:"unfinished"` // Games that hit MaxPlies
	Plies       int     `json:"plies"`      // Total die rolls
	Moves       int     `json:"moves"`
	Captures    int     `json:"captures"`
	ExtraTurns  int     `json:"extraTurns"`
	PassedTurns int     `json:"passedTurns"`
	AvgPlies    float64 `json:"avgPlies"`
}

// DefaultSimulateOptions returns sensible defaults.
func DefaultSimulateOptions() SimulateOptions {
	return SimulateOptions{
		Games:    1000,
		Players:  4,
		Seed:     0,
		Workers:  0,
		MaxPlies: 10000,
	}
}

// Simulate plays games where every player picks a uniformly random legal
// move. The starting player of each game is chosen by roll-off. Results are
// reproducible for a fixed Seed and Workers.
func Simulate(opts SimulateOptions) (*SimulationResult, error) {
	def := DefaultSimulateOptions()
	if opts.Games <= 0 {
		opts.Games = def.Games
	}
	if opts.Players == 0 {
		opts.Players = def.Players
	}
	if opts.MaxPlies <= 0 {
		opts.MaxPlies = def.MaxPlies
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Workers > opts.Games {
		opts.Workers = opts.Games
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Int63()
	}
	// Fail before starting workers.
	if _, err := NewGame(opts.Players, nil); err != nil {
		return nil, err
	}

	gamesPerWorker := opts.Games / opts.Workers
	extraGames := opts.Games % opts.Workers

	results := make(chan *SimulationResult, opts.Workers)
	var wg sync.WaitGroup

	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		workerGames := gamesPerWorker
		if i < extraGames {
			workerGames++
		}
		workerSeed := opts.Seed + int64(i)*1000000

		go func(games int, seed int64) {
			defer wg.Done()
			results <- simulateWorker(opts, games, seed)
		}(workerGames, workerSeed)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	total := newSimulationResult(opts.Players)
	for part := range results {
		total.add(part)
	}
	if total.Games > 0 {
		total.AvgPlies = float64(total.Plies) / float64(total.Games)
	}
	return total, nil
}

func newSimulationResult(players int) *SimulationResult {
	return &SimulationResult{
		Wins:   make([]int, players),
		Starts: make([]int, players),
	}
}

func (r *SimulationResult) add(o *SimulationResult) {
	r.Games += o.Games
	r.Unfinished += o.Unfinished
	r.Plies += o.Plies
	r.Moves += o.Moves
	r.Captures += o.Captures
	r.ExtraTurns += o.ExtraTurns
	r.PassedTurns += o.PassedTurns
	for i := range r.Wins {
		r.Wins[i] += o.Wins[i]
		r.Starts[i] += o.Starts[i]
	}
}

// simulateWorker plays games sequentially with its own generators.
func simulateWorker(opts SimulateOptions, games int, seed int64) *SimulationResult {
	res := newSimulationResult(opts.Players)
	dice := NewRandomDice(seed)
	picker := rand.New(rand.NewSource(seed ^ 0x5deece66d))

	for i := 0; i < games; i++ {
		g, _ := NewGame(opts.Players, dice)
		res.Starts[g.DetermineStartingPlayer()]++
		playOut(g, picker, opts.MaxPlies, res)
		res.Games++
	}
	return res
}

// playOut plays g to completion or maxPlies rolls.
func playOut(g *Game, picker *rand.Rand, maxPlies int, res *SimulationResult) {
	for plies := 0; plies < maxPlies; plies++ {
		if w, ok := g.Winner(); ok {
			res.Wins[w]++
			return
		}
		res.Plies++

		roll := g.RollDice()
		moves := g.ValidMoves(roll)
		if len(moves) == 0 {
			if g.HandleRollResult(roll) {
				res.PassedTurns++
			}
			continue
		}

		out := g.Move(moves[picker.Intn(len(moves))], roll)
		switch out.Result {
		case MovedAndExtraTurn:
			res.Moves++
			res.ExtraTurns++
		case Moved:
			res.Moves++
			g.NextTurn()
		default:
			g.NextTurn()
		}
		res.Captures += len(out.Captured)
	}

	if w, ok := g.Winner(); ok {
		res.Wins[w]++
		return
	}
	res.Unfinished++
}
