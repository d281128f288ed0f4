package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/yourusername/ludoengine/internal/track"
	"github.com/yourusername/ludoengine/pkg/engine"
	"github.com/yourusername/ludoengine/pkg/match"
	"github.com/yourusername/ludoengine/pkg/session"
	"github.com/yourusername/ludoengine/pkg/store"
)

// SnapshotLister lists persisted snapshots.
type SnapshotLister interface {
	List(ctx context.Context) ([]store.Summary, error)
}

// HandlerOptions configures Handlers.
type HandlerOptions struct {
	Version        string
	Pool           *WorkerPool    // nil disables admission control
	Logger         *zap.Logger    // nil disables logging
	Snapshots      SnapshotLister // nil hides GET /api/snapshots results
	DefaultPlayers int            // players for POST /api/games without a count (default 4)
}

// Handlers holds the HTTP handlers and the session manager.
type Handlers struct {
	games          *session.Manager
	snapshots      SnapshotLister
	version        string
	pool           *WorkerPool
	logger         *zap.Logger
	defaultPlayers int
}

// NewHandlers creates the handlers for games.
func NewHandlers(games *session.Manager, opts HandlerOptions) *Handlers {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DefaultPlayers == 0 {
		opts.DefaultPlayers = track.MaxPlayers
	}
	return &Handlers{
		games:          games,
		snapshots:      opts.Snapshots,
		version:        opts.Version,
		pool:           opts.Pool,
		logger:         opts.Logger,
		defaultPlayers: opts.DefaultPlayers,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, msg string, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: msg,
		Code:  code,
	})
}

// gameHandler is a handler bound to a looked-up session.
type gameHandler func(w http.ResponseWriter, r *http.Request, s *session.Session)

// game resolves the {id} path value and calls fn with the session.
func (h *Handlers) game(fn gameHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.games.Get(r.PathValue("id"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error(), CodeGameNotFound)
			return
		}
		fn(w, r, s)
	}
}

// fastGame is game with a fast worker slot held for the call.
func (h *Handlers) fastGame(fn gameHandler) http.HandlerFunc {
	return h.game(func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		if h.pool != nil {
			if err := h.pool.AcquireFast(r.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, "server busy", CodeServerBusy)
				return
			}
			defer h.pool.ReleaseFast()
		}
		fn(w, r, s)
	})
}

// acquireSlow takes a store slot; the caller releases it when ok.
func (h *Handlers) acquireSlow(w http.ResponseWriter, r *http.Request) bool {
	if h.pool == nil {
		return true
	}
	if err := h.pool.AcquireSlow(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", CodeServerBusy)
		return false
	}
	return true
}

func (h *Handlers) releaseSlow() {
	if h.pool != nil {
		h.pool.ReleaseSlow()
	}
}

// parseRoll reads a die value in 1..6 from the "roll" query parameter.
func parseRoll(r *http.Request) (int, bool) {
	roll, err := strconv.Atoi(r.URL.Query().Get("roll"))
	if err != nil || roll < 1 || roll > 6 {
		return 0, false
	}
	return roll, true
}

// writeStoreError maps persistence errors to responses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrStoreDisabled):
		writeError(w, http.StatusNotImplemented, err.Error(), CodeStoreDisabled)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), CodeGameNotFound)
	case errors.Is(err, engine.ErrInvalidSnapshot):
		writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidSnapshot)
	default:
		writeError(w, http.StatusInternalServerError, err.Error(), CodeStoreError)
	}
}

// Health handles GET /api/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "ok",
		Version:     h.version,
		Games:       h.games.Len(),
		Persistence: h.games.Persistent(),
	}
	if h.pool != nil {
		stats := h.pool.Stats()
		resp.Pool = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateGame handles POST /api/games
func (h *Handlers) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON", CodeInvalidJSON)
		return
	}
	if req.Players == 0 {
		req.Players = h.defaultPlayers
	}

	s, err := h.games.Create(req.Players)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidPlayers)
		return
	}
	writeJSON(w, http.StatusCreated, GameCreatedResponse{
		ID:      s.ID(),
		Players: s.TotalPlayers(),
		Board:   s.Board(),
	})
}

// ListGames handles GET /api/games
func (h *Handlers) ListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GamesResponse{Games: h.games.IDs()})
}

// DeleteGame handles DELETE /api/games/{id}. With ?purge=1 the stored
// snapshot is removed too, and the game only has to exist in one place.
func (h *Handlers) DeleteGame(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if r.URL.Query().Get("purge") != "1" {
		if err := h.games.Delete(id); err != nil {
			writeError(w, http.StatusNotFound, err.Error(), CodeGameNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if !h.games.Persistent() {
		writeStoreError(w, session.ErrStoreDisabled)
		return
	}
	if !h.acquireSlow(w, r) {
		return
	}
	defer h.releaseSlow()

	hostedErr := h.games.Delete(id)
	err := h.games.Purge(r.Context(), id)
	if err != nil && !(errors.Is(err, store.ErrNotFound) && hostedErr == nil) {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSnapshots handles GET /api/snapshots
func (h *Handlers) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeStoreError(w, session.ErrStoreDisabled)
		return
	}
	if !h.acquireSlow(w, r) {
		return
	}
	defer h.releaseSlow()

	list, err := h.snapshots.List(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

// CurrentPlayer handles GET /api/games/{id}/current
func (h *Handlers) CurrentPlayer(w http.ResponseWriter, r *http.Request, s *session.Session) {
	writeJSON(w, http.StatusOK, CurrentPlayerResponse{CurrentPlayer: s.CurrentPlayer()})
}

// NextTurn handles POST /api/games/{id}/next
func (h *Handlers) NextTurn(w http.ResponseWriter, r *http.Request, s *session.Session) {
	writeJSON(w, http.StatusOK, CurrentPlayerResponse{CurrentPlayer: s.NextTurn()})
}

// Roll handles POST /api/games/{id}/roll
func (h *Handlers) Roll(w http.ResponseWriter, r *http.Request, s *session.Session) {
	player, value := s.Roll()
	writeJSON(w, http.StatusOK, RollResponse{Player: player, Roll: value})
}

// Board handles GET /api/games/{id}/board
func (h *Handlers) Board(w http.ResponseWriter, r *http.Request, s *session.Session) {
	writeJSON(w, http.StatusOK, s.Board())
}

// Move handles POST /api/games/{id}/move. Rule violations are reported as
// result "invalid" with status 200.
func (h *Handlers) Move(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", CodeInvalidJSON)
		return
	}
	writeJSON(w, http.StatusOK, moveResponse(s.Move(req.PieceID, req.Roll)))
}

func moveResponse(rep session.MoveReport) MoveResponse {
	return MoveResponse{
		Result:        rep.Result,
		Captured:      rep.Captured,
		CurrentPlayer: rep.CurrentPlayer,
		WinnerID:      rep.WinnerID,
	}
}

// Winner handles GET /api/games/{id}/winner. A player who has finished
// without being declared is declared here.
func (h *Handlers) Winner(w http.ResponseWriter, r *http.Request, s *session.Session) {
	resp := WinnerResponse{}
	if id, ok := s.CheckWinner(); ok {
		resp.WinnerID = &id
		resp.Finished = true
	}
	writeJSON(w, http.StatusOK, resp)
}

// Reset handles POST /api/games/{id}/reset
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request, s *session.Session) {
	s.Reset()
	writeJSON(w, http.StatusOK, s.Board())
}

// CanMove handles GET /api/games/{id}/players/{player}/can-move?roll=N
func (h *Handlers) CanMove(w http.ResponseWriter, r *http.Request, s *session.Session) {
	player, err := strconv.Atoi(r.PathValue("player"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "player must be an integer", CodeInvalidPlayer)
		return
	}
	roll, ok := parseRoll(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "roll must be 1-6", CodeInvalidRoll)
		return
	}

	can, err := s.CanMoveAnyPiece(player, roll)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidPlayer)
		return
	}
	writeJSON(w, http.StatusOK, CanMoveResponse{Player: player, Roll: roll, CanMove: can})
}

// ValidMoves handles GET /api/games/{id}/valid-moves?roll=N
func (h *Handlers) ValidMoves(w http.ResponseWriter, r *http.Request, s *session.Session) {
	roll, ok := parseRoll(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "roll must be 1-6", CodeInvalidRoll)
		return
	}
	player, pieces := s.ValidMoves(roll)
	writeJSON(w, http.StatusOK, ValidMovesResponse{Player: player, Roll: roll, Pieces: pieces})
}

// Save handles POST /api/games/{id}/save. The snapshot is also written to
// the store when one is configured.
func (h *Handlers) Save(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if !h.games.Persistent() {
		writeJSON(w, http.StatusOK, SaveResponse{Snapshot: s.Save()})
		return
	}
	if !h.acquireSlow(w, r) {
		return
	}
	defer h.releaseSlow()

	state, err := h.games.Persist(r.Context(), s.ID())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SaveResponse{Snapshot: state, Persisted: true})
}

// Load handles POST /api/games/{id}/load. The body is a snapshot, or with
// ?source=store the stored snapshot for {id} is used; a stored game that is
// not hosted is recreated.
func (h *Handlers) Load(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if r.URL.Query().Get("source") == "store" {
		if !h.acquireSlow(w, r) {
			return
		}
		defer h.releaseSlow()

		s, err := h.games.Restore(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.Board())
		return
	}

	s, err := h.games.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error(), CodeGameNotFound)
		return
	}
	var state engine.GameState
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", CodeInvalidJSON)
		return
	}
	if err := s.Load(state); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidSnapshot)
		return
	}
	writeJSON(w, http.StatusOK, s.Board())
}

// StartingPlayer handles POST /api/games/{id}/starting-player
func (h *Handlers) StartingPlayer(w http.ResponseWriter, r *http.Request, s *session.Session) {
	ro := s.DetermineStartingPlayer()
	writeJSON(w, http.StatusOK, StartingPlayerResponse{StartingPlayer: ro.Winner, RollOff: ro})
}

// RollResult handles POST /api/games/{id}/roll-result
func (h *Handlers) RollResult(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req RollResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", CodeInvalidJSON)
		return
	}
	if req.Roll < 1 || req.Roll > 6 {
		writeError(w, http.StatusBadRequest, "roll must be 1-6", CodeInvalidRoll)
		return
	}
	passed, current := s.HandleRollResult(req.Roll)
	writeJSON(w, http.StatusOK, RollResultResponse{TurnAdvanced: passed, CurrentPlayer: current})
}

// History handles GET /api/games/{id}/history
func (h *Handlers) History(w http.ResponseWriter, r *http.Request, s *session.Session) {
	rec := s.History()
	writeJSON(w, http.StatusOK, HistoryResponse{Record: rec, Stats: rec.Stats()})
}

// HistoryText handles GET /api/games/{id}/history.txt
func (h *Handlers) HistoryText(w http.ResponseWriter, r *http.Request, s *session.Session) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := match.ExportTranscript(w, s.History()); err != nil {
		h.logger.Warn("transcript export failed", zap.String("game_id", s.ID()), zap.Error(err))
	}
}

// DiceStats handles GET /api/games/{id}/dice-stats
func (h *Handlers) DiceStats(w http.ResponseWriter, r *http.Request, s *session.Session) {
	writeJSON(w, http.StatusOK, s.DiceStats())
}
