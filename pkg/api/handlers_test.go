package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourusername/ludoengine/pkg/engine"
	"github.com/yourusername/ludoengine/pkg/session"
	"github.com/yourusername/ludoengine/pkg/store"
)

// newTestServer returns a server whose games roll the scripted faces.
func newTestServer(t *testing.T, faces ...int) *Server {
	t.Helper()
	cfg := session.Config{}
	if len(faces) > 0 {
		cfg.NewDice = func() engine.Dice { return engine.NewSequenceDice(faces...) }
	}
	return NewServer(session.NewManager(cfg), nil, DefaultConfig(), "test-version", nil)
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf []byte
	switch b := body.(type) {
	case nil:
	case string:
		buf = []byte(b)
	default:
		buf, _ = json.Marshal(b)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Decode error: %v (body %q)", err, w.Body.String())
	}
}

func wantError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Errorf("Status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	var resp ErrorResponse
	decode(t, w, &resp)
	if resp.Code != code {
		t.Errorf("Code = %q, want %q", resp.Code, code)
	}
}

func createGame(t *testing.T, h http.Handler, players int) string {
	t.Helper()
	w := do(t, h, "POST", "/api/games", CreateGameRequest{Players: players})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	var resp GameCreatedResponse
	decode(t, w, &resp)
	return resp.ID
}

func TestHealthHandler(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	createGame(t, h, 2)

	w := do(t, h, "GET", "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Health status = %d", w.Code)
	}
	var health HealthResponse
	decode(t, w, &health)

	if health.Status != "ok" || health.Version != "test-version" {
		t.Errorf("health = %+v", health)
	}
	if health.Games != 1 {
		t.Errorf("Games = %d, want 1", health.Games)
	}
	if health.Persistence {
		t.Error("Persistence = true without a store")
	}
	if health.Pool == nil || health.Pool.MaxFast != 100 {
		t.Errorf("Pool = %+v", health.Pool)
	}
}

func TestCreateGame(t *testing.T) {
	h := newTestServer(t).Handler()

	tests := []struct {
		name        string
		body        interface{}
		wantStatus  int
		wantPlayers int
		wantCode    string
	}{
		{name: "two players", body: CreateGameRequest{Players: 2}, wantStatus: http.StatusCreated, wantPlayers: 2},
		{name: "default players", body: nil, wantStatus: http.StatusCreated, wantPlayers: 4},
		{name: "one player", body: CreateGameRequest{Players: 1}, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidPlayers},
		{name: "five players", body: CreateGameRequest{Players: 5}, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidPlayers},
		{name: "invalid json", body: "not json", wantStatus: http.StatusBadRequest, wantCode: CodeInvalidJSON},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, h, "POST", "/api/games", tc.body)
			if tc.wantCode != "" {
				wantError(t, w, tc.wantStatus, tc.wantCode)
				return
			}
			if w.Code != tc.wantStatus {
				t.Fatalf("Status = %d, want %d", w.Code, tc.wantStatus)
			}
			var resp GameCreatedResponse
			decode(t, w, &resp)
			if resp.ID == "" || resp.Players != tc.wantPlayers || len(resp.Board.Players) != tc.wantPlayers {
				t.Errorf("resp = %+v", resp)
			}
		})
	}

	var list GamesResponse
	decode(t, do(t, h, "GET", "/api/games", nil), &list)
	if len(list.Games) != 2 {
		t.Errorf("listed %d games, want 2", len(list.Games))
	}
}

func TestGameNotFound(t *testing.T) {
	h := newTestServer(t).Handler()
	for _, route := range []struct{ method, path string }{
		{"GET", "/api/games/nope/board"},
		{"POST", "/api/games/nope/move"},
		{"POST", "/api/games/nope/load"},
		{"DELETE", "/api/games/nope"},
	} {
		w := do(t, h, route.method, route.path, nil)
		wantError(t, w, http.StatusNotFound, CodeGameNotFound)
	}
}

func TestMoveFlow(t *testing.T) {
	h := newTestServer(t).Handler()
	id := createGame(t, h, 2)
	base := "/api/games/" + id

	steps := []struct {
		req  MoveRequest
		want engine.MoveResult
	}{
		{MoveRequest{PieceID: 0, Roll: 6}, engine.MovedAndExtraTurn},
		{MoveRequest{PieceID: 0, Roll: 3}, engine.Moved},
		{MoveRequest{PieceID: 1, Roll: 3}, engine.Invalid},
		{MoveRequest{PieceID: 7, Roll: 3}, engine.Invalid},
		{MoveRequest{PieceID: 0, Roll: 9}, engine.Invalid},
	}
	for i, step := range steps {
		w := do(t, h, "POST", base+"/move", step.req)
		if w.Code != http.StatusOK {
			t.Fatalf("step %d status = %d", i, w.Code)
		}
		var resp MoveResponse
		decode(t, w, &resp)
		if resp.Result != step.want {
			t.Errorf("step %d result = %v, want %v", i, resp.Result, step.want)
		}
	}

	w := do(t, h, "GET", base+"/board", nil)
	var board engine.BoardStatus
	decode(t, w, &board)
	pc := board.Players[0].Pieces[0]
	if pc.Position != 3 || pc.AbsolutePosition == nil || *pc.AbsolutePosition != 3 {
		t.Errorf("piece 0 = %+v", pc)
	}
	if board.Players[0].Pieces[1].AbsolutePosition != nil {
		t.Error("home piece has an absolute position")
	}
	if !strings.Contains(do(t, h, "GET", base+"/board", nil).Body.String(), `"winnerId":null`) {
		t.Error("board JSON lacks winnerId null")
	}

	var cur CurrentPlayerResponse
	decode(t, do(t, h, "POST", base+"/next", nil), &cur)
	if cur.CurrentPlayer != 1 {
		t.Errorf("after next = %d, want 1", cur.CurrentPlayer)
	}
	decode(t, do(t, h, "GET", base+"/current", nil), &cur)
	if cur.CurrentPlayer != 1 {
		t.Errorf("current = %d, want 1", cur.CurrentPlayer)
	}

	wantError(t, do(t, h, "POST", base+"/move", "{"), http.StatusBadRequest, CodeInvalidJSON)
}

func TestRoll(t *testing.T) {
	h := newTestServer(t, 4).Handler()
	id := createGame(t, h, 3)

	var resp RollResponse
	decode(t, do(t, h, "POST", "/api/games/"+id+"/roll", nil), &resp)
	if resp.Roll != 4 || resp.Player != 0 {
		t.Errorf("roll = %+v", resp)
	}
}

func TestCanMoveAndValidMoves(t *testing.T) {
	h := newTestServer(t).Handler()
	id := createGame(t, h, 2)
	base := "/api/games/" + id

	var can CanMoveResponse
	decode(t, do(t, h, "GET", base+"/players/1/can-move?roll=6", nil), &can)
	if !can.CanMove {
		t.Error("six from home should be movable")
	}
	decode(t, do(t, h, "GET", base+"/players/1/can-move?roll=2", nil), &can)
	if can.CanMove {
		t.Error("two from home should not be movable")
	}

	wantError(t, do(t, h, "GET", base+"/players/1/can-move?roll=7", nil), http.StatusBadRequest, CodeInvalidRoll)
	wantError(t, do(t, h, "GET", base+"/players/1/can-move", nil), http.StatusBadRequest, CodeInvalidRoll)
	wantError(t, do(t, h, "GET", base+"/players/2/can-move?roll=6", nil), http.StatusBadRequest, CodeInvalidPlayer)
	wantError(t, do(t, h, "GET", base+"/players/x/can-move?roll=6", nil), http.StatusBadRequest, CodeInvalidPlayer)

	var valid ValidMovesResponse
	decode(t, do(t, h, "GET", base+"/valid-moves?roll=6", nil), &valid)
	if len(valid.Pieces) != 4 || valid.Player != 0 {
		t.Errorf("valid moves = %+v", valid)
	}
	w := do(t, h, "GET", base+"/valid-moves?roll=3", nil)
	if !strings.Contains(w.Body.String(), `"pieces":[]`) {
		t.Errorf("no moves should encode as empty list: %s", w.Body.String())
	}
	wantError(t, do(t, h, "GET", base+"/valid-moves?roll=0", nil), http.StatusBadRequest, CodeInvalidRoll)
}

func TestRollResult(t *testing.T) {
	h := newTestServer(t).Handler()
	id := createGame(t, h, 2)
	base := "/api/games/" + id

	var resp RollResultResponse
	decode(t, do(t, h, "POST", base+"/roll-result", RollResultRequest{Roll: 6}), &resp)
	if resp.TurnAdvanced || resp.CurrentPlayer != 0 {
		t.Errorf("six = %+v", resp)
	}
	decode(t, do(t, h, "POST", base+"/roll-result", RollResultRequest{Roll: 4}), &resp)
	if !resp.TurnAdvanced || resp.CurrentPlayer != 1 {
		t.Errorf("unplayable four = %+v", resp)
	}

	wantError(t, do(t, h, "POST", base+"/roll-result", RollResultRequest{Roll: 9}), http.StatusBadRequest, CodeInvalidRoll)
	wantError(t, do(t, h, "POST", base+"/roll-result", "x"), http.StatusBadRequest, CodeInvalidJSON)
}

func TestStartingPlayer(t *testing.T) {
	h := newTestServer(t, 2, 5, 1).Handler()
	id := createGame(t, h, 3)

	var resp StartingPlayerResponse
	decode(t, do(t, h, "POST", "/api/games/"+id+"/starting-player", nil), &resp)
	if resp.StartingPlayer != 1 || resp.RollOff.Winner != 1 || len(resp.RollOff.Rounds) != 1 {
		t.Errorf("starting player = %+v", resp)
	}

	var cur CurrentPlayerResponse
	decode(t, do(t, h, "GET", "/api/games/"+id+"/current", nil), &cur)
	if cur.CurrentPlayer != 1 {
		t.Errorf("current = %d, want 1", cur.CurrentPlayer)
	}
}

func nearlyWon() engine.GameState {
	home := []engine.PieceState{{ID: 0, Position: -1}, {ID: 1, Position: -1}, {ID: 2, Position: -1}, {ID: 3, Position: -1}}
	return engine.GameState{
		CurrentPlayer: 0,
		Players: []engine.PlayerState{
			{ID: 0, Color: "red", Pieces: []engine.PieceState{{ID: 0, Position: 105}, {ID: 1, Position: 105}, {ID: 2, Position: 104}, {ID: 3, Position: 49}}},
			{ID: 1, Color: "green", Pieces: home},
		},
	}
}

func TestWinnerAndReset(t *testing.T) {
	h := newTestServer(t).Handler()
	id := createGame(t, h, 2)
	base := "/api/games/" + id

	var win WinnerResponse
	decode(t, do(t, h, "GET", base+"/winner", nil), &win)
	if win.Finished || win.WinnerID != nil {
		t.Errorf("fresh game winner = %+v", win)
	}

	if w := do(t, h, "POST", base+"/load", nearlyWon()); w.Code != http.StatusOK {
		t.Fatalf("load status = %d: %s", w.Code, w.Body.String())
	}
	var move MoveResponse
	decode(t, do(t, h, "POST", base+"/move", MoveRequest{PieceID: 3, Roll: 2}), &move)
	if move.Result != engine.Moved || move.WinnerID == nil || *move.WinnerID != 0 {
		t.Errorf("winning move = %+v", move)
	}

	decode(t, do(t, h, "GET", base+"/winner", nil), &win)
	if !win.Finished || win.WinnerID == nil || *win.WinnerID != 0 {
		t.Errorf("winner = %+v", win)
	}

	var board engine.BoardStatus
	decode(t, do(t, h, "POST", base+"/reset", nil), &board)
	if board.WinnerID != nil || board.CurrentPlayer != 0 || board.Players[0].Pieces[0].Position != -1 {
		t.Errorf("board after reset = %+v", board)
	}
}

func TestSaveLoadWithoutStore(t *testing.T) {
	h := newTestServer(t).Handler()
	id := createGame(t, h, 2)
	base := "/api/games/" + id

	do(t, h, "POST", base+"/move", MoveRequest{PieceID: 0, Roll: 6})

	var saved SaveResponse
	decode(t, do(t, h, "POST", base+"/save", nil), &saved)
	if saved.Persisted {
		t.Error("Persisted = true without a store")
	}
	if saved.Snapshot.Players[0].Pieces[0].Position != 0 {
		t.Errorf("snapshot = %+v", saved.Snapshot)
	}

	do(t, h, "POST", base+"/reset", nil)
	w := do(t, h, "POST", base+"/load", saved.Snapshot)
	if w.Code != http.StatusOK {
		t.Fatalf("load status = %d", w.Code)
	}
	var board engine.BoardStatus
	decode(t, w, &board)
	if board.Players[0].Pieces[0].Position != 0 {
		t.Errorf("piece not restored: %+v", board.Players[0].Pieces[0])
	}

	wantError(t, do(t, h, "POST", base+"/load", engine.GameState{}), http.StatusBadRequest, CodeInvalidSnapshot)
	wantError(t, do(t, h, "POST", base+"/load", `{"players":`), http.StatusBadRequest, CodeInvalidJSON)
	wantError(t, do(t, h, "POST", base+"/load?source=store", nil), http.StatusNotImplemented, CodeStoreDisabled)
	wantError(t, do(t, h, "GET", "/api/snapshots", nil), http.StatusNotImplemented, CodeStoreDisabled)
}

func TestSaveLoadWithStore(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "ludo.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	games := session.NewManager(session.Config{Store: st})
	h := NewServer(games, st, DefaultConfig(), "test", nil).Handler()
	id := createGame(t, h, 3)
	base := "/api/games/" + id

	do(t, h, "POST", base+"/move", MoveRequest{PieceID: 2, Roll: 6})
	do(t, h, "POST", base+"/next", nil)

	var saved SaveResponse
	decode(t, do(t, h, "POST", base+"/save", nil), &saved)
	if !saved.Persisted {
		t.Fatal("Persisted = false with a store")
	}

	do(t, h, "POST", base+"/reset", nil)
	w := do(t, h, "POST", base+"/load?source=store", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("restore status = %d: %s", w.Code, w.Body.String())
	}
	var board engine.BoardStatus
	decode(t, w, &board)
	if board.CurrentPlayer != 1 || board.Players[0].Pieces[2].Position != 0 {
		t.Errorf("restored board = %+v", board)
	}

	// A deleted game comes back from the store.
	do(t, h, "DELETE", base, nil)
	if w := do(t, h, "POST", base+"/load?source=store", nil); w.Code != http.StatusOK {
		t.Fatalf("recreate status = %d: %s", w.Code, w.Body.String())
	}
	if w := do(t, h, "GET", base+"/current", nil); w.Code != http.StatusOK {
		t.Errorf("recreated game not hosted: %d", w.Code)
	}

	wantError(t, do(t, h, "POST", "/api/games/unknown/load?source=store", nil), http.StatusNotFound, CodeGameNotFound)

	var list []store.Summary
	decode(t, do(t, h, "GET", "/api/snapshots", nil), &list)
	if len(list) != 1 || list[0].ID != id || list[0].Players != 3 {
		t.Errorf("snapshots = %+v", list)
	}
}

func TestHistoryAndDiceStats(t *testing.T) {
	h := newTestServer(t, 6).Handler()
	id := createGame(t, h, 2)
	base := "/api/games/" + id

	do(t, h, "POST", base+"/roll", nil)
	do(t, h, "POST", base+"/move", MoveRequest{PieceID: 0, Roll: 6})

	var hist HistoryResponse
	decode(t, do(t, h, "GET", base+"/history", nil), &hist)
	if hist.Record == nil || len(hist.Record.Actions) != 2 {
		t.Fatalf("history = %+v", hist.Record)
	}
	if len(hist.Stats) != 2 || hist.Stats[0].Moves != 1 || hist.Stats[0].ExtraTurns != 1 {
		t.Errorf("stats = %+v", hist.Stats)
	}

	w := do(t, h, "GET", base+"/history.txt", nil)
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), `; [Session "`+id+`"]`) || !strings.Contains(w.Body.String(), "home -> 0@0 +") {
		t.Errorf("transcript:\n%s", w.Body.String())
	}

	var stats struct {
		Total  int   `json:"total"`
		Counts []int `json:"counts"`
	}
	decode(t, do(t, h, "GET", base+"/dice-stats", nil), &stats)
	if stats.Total != 1 || stats.Counts[5] != 1 {
		t.Errorf("dice stats = %+v", stats)
	}
}

func TestDeleteGame(t *testing.T) {
	h := newTestServer(t).Handler()
	id := createGame(t, h, 2)

	if w := do(t, h, "DELETE", "/api/games/"+id, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", w.Code)
	}
	wantError(t, do(t, h, "GET", "/api/games/"+id+"/board", nil), http.StatusNotFound, CodeGameNotFound)
}

func TestDeleteGamePurge(t *testing.T) {
	wantError(t, do(t, newTestServer(t).Handler(), "DELETE", "/api/games/x?purge=1", nil),
		http.StatusNotImplemented, CodeStoreDisabled)

	st, err := store.Open(filepath.Join(t.TempDir(), "ludo.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	h := NewServer(session.NewManager(session.Config{Store: st}), st, DefaultConfig(), "test", nil).Handler()

	saved := createGame(t, h, 2)
	do(t, h, "POST", "/api/games/"+saved+"/save", nil)
	unsaved := createGame(t, h, 2)

	if w := do(t, h, "DELETE", "/api/games/"+saved+"?purge=1", nil); w.Code != http.StatusNoContent {
		t.Fatalf("purge status = %d: %s", w.Code, w.Body.String())
	}
	wantError(t, do(t, h, "POST", "/api/games/"+saved+"/load?source=store", nil), http.StatusNotFound, CodeGameNotFound)

	// Hosted only: nothing stored, still deleted.
	if w := do(t, h, "DELETE", "/api/games/"+unsaved+"?purge=1", nil); w.Code != http.StatusNoContent {
		t.Errorf("purge of unsaved game = %d: %s", w.Code, w.Body.String())
	}
	wantError(t, do(t, h, "GET", "/api/games/"+unsaved+"/board", nil), http.StatusNotFound, CodeGameNotFound)

	wantError(t, do(t, h, "DELETE", "/api/games/"+unsaved+"?purge=1", nil), http.StatusNotFound, CodeGameNotFound)
}

func TestWinnerDeclaresFinishedPlayer(t *testing.T) {
	h := newTestServer(t).Handler()
	id := createGame(t, h, 2)
	base := "/api/games/" + id

	var board engine.BoardStatus
	decode(t, do(t, h, "GET", base+"/board", nil), &board)
	state := engine.GameState{CurrentPlayer: 1}
	for _, p := range board.Players {
		ps := engine.PlayerState{ID: p.ID, Color: p.Color}
		for _, pc := range p.Pieces {
			pos := pc.Position
			if p.ID == 0 {
				pos = 105
			}
			ps.Pieces = append(ps.Pieces, engine.PieceState{ID: pc.ID, Position: pos})
		}
		state.Players = append(state.Players, ps)
	}
	if w := do(t, h, "POST", base+"/load", state); w.Code != http.StatusOK {
		t.Fatalf("load status = %d: %s", w.Code, w.Body.String())
	}

	var win WinnerResponse
	decode(t, do(t, h, "GET", base+"/winner", nil), &win)
	if !win.Finished || win.WinnerID == nil || *win.WinnerID != 0 {
		t.Errorf("winner = %+v, want player 0", win)
	}

	do(t, h, "POST", base+"/next", nil)
	decode(t, do(t, h, "GET", base+"/winner", nil), &win)
	if win.WinnerID == nil || *win.WinnerID != 0 {
		t.Errorf("winner after next = %+v, want player 0", win)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t).Handler()
	w := do(t, h, "OPTIONS", "/api/games", nil)
	if w.Code != http.StatusOK {
		t.Errorf("OPTIONS status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "DELETE") {
		t.Errorf("Allow-Methods = %q", got)
	}
}

// dialGame opens a WebSocket to the game and returns the connection.
func dialGame(t *testing.T, server *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/games/" + id + "/ws"
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("WebSocket dial failed: %v", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Errorf("Status = %d, want %d", resp.StatusCode, http.StatusSwitchingProtocols)
	}
	return ws
}

// readResponse reads messages until one with the given type and id arrives.
func readResponse(t *testing.T, ws *websocket.Conn, typ, id string) WSResponse {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var raw struct {
			Type    string          `json:"type"`
			ID      string          `json:"id"`
			Payload json.RawMessage `json:"payload"`
			Error   string          `json:"error"`
		}
		if err := ws.ReadJSON(&raw); err != nil {
			t.Fatalf("ReadJSON error waiting for %s %s: %v", typ, id, err)
		}
		if raw.Type == typ && raw.ID == id {
			return WSResponse{Type: raw.Type, ID: raw.ID, Payload: raw.Payload, Error: raw.Error}
		}
	}
}

func TestWebSocketCommands(t *testing.T) {
	srv := newTestServer(t, 6)
	server := httptest.NewServer(srv.Handler())
	defer server.Close()

	id := createGame(t, srv.Handler(), 2)
	ws := dialGame(t, server, id)
	defer ws.Close()

	ws.WriteJSON(WSMessage{Type: "ping", ID: "p1"})
	readResponse(t, ws, "pong", "p1")

	ws.WriteJSON(WSMessage{Type: "roll", ID: "r1"})
	resp := readResponse(t, ws, "result", "r1")
	var roll RollResponse
	json.Unmarshal(resp.Payload.(json.RawMessage), &roll)
	if roll.Roll != 6 {
		t.Errorf("roll = %+v", roll)
	}

	payload, _ := json.Marshal(MoveRequest{PieceID: 0, Roll: 6})
	ws.WriteJSON(WSMessage{Type: "move", ID: "m1", Payload: payload})
	resp = readResponse(t, ws, "result", "m1")
	var move MoveResponse
	json.Unmarshal(resp.Payload.(json.RawMessage), &move)
	if move.Result != engine.MovedAndExtraTurn {
		t.Errorf("move = %+v", move)
	}

	ws.WriteJSON(WSMessage{Type: "move", ID: "m2", Payload: json.RawMessage(`"x"`)})
	if resp := readResponse(t, ws, "error", "m2"); resp.Error != "invalid payload" {
		t.Errorf("error = %q", resp.Error)
	}

	ws.WriteJSON(WSMessage{Type: "dance", ID: "d1"})
	readResponse(t, ws, "error", "d1")
}

func TestWebSocketPushesEvents(t *testing.T) {
	srv := newTestServer(t, 3)
	server := httptest.NewServer(srv.Handler())
	defer server.Close()

	h := srv.Handler()
	id := createGame(t, h, 2)
	ws := dialGame(t, server, id)
	defer ws.Close()

	// Make sure the subscription is live before acting over HTTP.
	ws.WriteJSON(WSMessage{Type: "ping", ID: "ready"})
	readResponse(t, ws, "pong", "ready")

	do(t, h, "POST", "/api/games/"+id+"/roll", nil)
	resp := readResponse(t, ws, "event", "")
	var ev session.Event
	json.Unmarshal(resp.Payload.(json.RawMessage), &ev)
	if ev.Type != session.EventRoll || ev.Session != id {
		t.Errorf("event = %+v", ev)
	}

	do(t, h, "DELETE", "/api/games/"+id, nil)
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg WSResponse
		err := ws.ReadJSON(&msg)
		if err == nil {
			continue
		}
		if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
			t.Errorf("read error = %v, want going away close", err)
		}
		break
	}
}

func TestSSEEvents(t *testing.T) {
	srv := newTestServer(t, 5)
	server := httptest.NewServer(srv.Handler())
	defer server.Close()

	id := createGame(t, srv.Handler(), 2)
	resp, err := http.Get(server.URL + "/api/games/" + id + "/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	waitFor := func(want string) {
		t.Helper()
		timeout := time.After(5 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					t.Fatalf("stream ended before %q", want)
				}
				if line == want {
					return
				}
			case <-timeout:
				t.Fatalf("timed out waiting for %q", want)
			}
		}
	}

	waitFor("event: board")
	do(t, srv.Handler(), "POST", "/api/games/"+id+"/roll", nil)
	waitFor("event: roll")

	do(t, srv.Handler(), "DELETE", "/api/games/"+id, nil)
	waitFor("event: closed")
}
