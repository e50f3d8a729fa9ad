package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cipherhunt/api/internal/database"
	"github.com/cipherhunt/api/internal/game"
	"github.com/cipherhunt/api/internal/migrations"
)

// fakeClock is a settable clock for the handlers under test.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type testServer struct {
	router *chi.Mux
	store  *SQLiteStore
	clock  *fakeClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// In-memory SQLite is per-connection; a pool of one keeps every
	// query on the same database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	store := NewSQLiteStore(db)
	clock := &fakeClock{t: time.Date(2025, 11, 8, 9, 0, 0, 0, time.UTC)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := SeedAdmin(ctx, logger, db, "admin@test.dev", "secret123"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	r := chi.NewRouter()
	addRoutes(r, Deps{
		Logger: logger,
		Store:  store,
		Broker: NewBroker(),
		Cache:  nil,
		DB:     db,
		Redis:  nil,
		Now:    clock.Now,
	})

	return &testServer{router: r, store: store, clock: clock}
}

func (ts *testServer) seedTeam(t *testing.T, name, email, password, domain string, coins int) int64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	res, err := ts.store.db.Exec(`
		INSERT INTO teams (name, email, password_hash, coins, domain, user_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, name, email, string(hash), coins, domain, uuid.NewString())
	if err != nil {
		t.Fatalf("seed team %s: %v", name, err)
	}
	id, _ := res.LastInsertId()
	return id
}

func (ts *testServer) seedClue(t *testing.T, text, answer, domain string) int64 {
	t.Helper()
	res, err := ts.store.db.Exec(`
		INSERT INTO clues (text, answer, domain) VALUES (?, ?, ?)
	`, text, answer, domain)
	if err != nil {
		t.Fatalf("seed clue: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func (ts *testServer) seedProblemStatement(t *testing.T, title string, cost int, domain string) int64 {
	t.Helper()
	res, err := ts.store.db.Exec(`
		INSERT INTO problem_statements (title, description, cost, domain)
		VALUES (?, 'desc', ?, ?)
	`, title, cost, domain)
	if err != nil {
		t.Fatalf("seed problem statement: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

// do performs a request against the test router. A non-empty token is
// sent as a Bearer header.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/login", "", LoginRequest{Email: email, Password: password})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp LoginResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Token == "" {
		t.Fatal("login: expected a session token")
	}
	return resp.Token
}

func (ts *testServer) startEvent(t *testing.T) {
	t.Helper()
	if err := ts.store.StartEvent(context.Background(), ts.clock.Now()); err != nil {
		t.Fatalf("start event: %v", err)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	ts := newTestServer(t)
	ts.seedTeam(t, "Pulse", "pulse@test.dev", "hunt1234", "HealthCare", 0)

	w := ts.do(t, http.MethodPost, "/api/login", "", LoginRequest{
		Email:    "pulse@test.dev",
		Password: "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	w = ts.do(t, http.MethodPost, "/api/login", "", LoginRequest{
		Email:    "nobody@test.dev",
		Password: "hunt1234",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email: expected 401, got %d", w.Code)
	}
}

func TestAnswerRejectedWhileStopped(t *testing.T) {
	ts := newTestServer(t)
	ts.seedTeam(t, "Pulse", "pulse@test.dev", "hunt1234", "HealthCare", 0)
	clueID := ts.seedClue(t, "first", "ALPHA", "HealthCare")
	token := ts.login(t, "pulse@test.dev", "hunt1234")

	w := ts.do(t, http.MethodPost, "/api/game/answer", token, AnswerRequest{
		ClueID: clueID,
		Answer: "alpha",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 while stopped, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSolveFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.seedTeam(t, "Pulse", "pulse@test.dev", "hunt1234", "HealthCare", 0)
	clue1 := ts.seedClue(t, "first", "ALPHA", "HealthCare")
	clue2 := ts.seedClue(t, "second", "BRAVO", "HealthCare")
	ts.seedClue(t, "other domain", "ZULU", "Banking")

	token := ts.login(t, "pulse@test.dev", "hunt1234")
	ts.startEvent(t)

	// Initial state: clue 1 active with text, clue 2 locked without.
	w := ts.do(t, http.MethodGet, "/api/game/state", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("state: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var state GameStateResponse
	json.NewDecoder(w.Body).Decode(&state)

	if state.TotalClues != 2 {
		t.Fatalf("expected 2 clues for domain, got %d", state.TotalClues)
	}
	if state.ActiveClue == nil || state.ActiveClue.ID != clue1 {
		t.Fatalf("expected clue %d active, got %+v", clue1, state.ActiveClue)
	}
	if state.Clues[0].Text == "" {
		t.Error("active clue should carry its text")
	}
	if state.Clues[1].Status != "locked" || state.Clues[1].Text != "" {
		t.Errorf("locked clue should be bare, got %+v", state.Clues[1])
	}

	// Submitting against the locked clue is rejected.
	w = ts.do(t, http.MethodPost, "/api/game/answer", token, AnswerRequest{ClueID: clue2, Answer: "bravo"})
	if w.Code != http.StatusConflict {
		t.Fatalf("locked clue: expected 409, got %d", w.Code)
	}

	// Wrong answer does not advance.
	w = ts.do(t, http.MethodPost, "/api/game/answer", token, AnswerRequest{ClueID: clue1, Answer: "nope"})
	if w.Code != http.StatusOK {
		t.Fatalf("wrong answer: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var ans AnswerResponse
	json.NewDecoder(w.Body).Decode(&ans)
	if ans.IsCorrect {
		t.Error("wrong answer: expected isCorrect=false")
	}

	// Solve clue 1 at +250s: inside the fast window, 30 coins.
	// Matching is case-insensitive.
	ts.clock.Advance(250 * time.Second)
	w = ts.do(t, http.MethodPost, "/api/game/answer", token, AnswerRequest{ClueID: clue1, Answer: "alpha"})
	if w.Code != http.StatusOK {
		t.Fatalf("solve 1: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	json.NewDecoder(w.Body).Decode(&ans)
	if !ans.IsCorrect {
		t.Fatal("solve 1: expected isCorrect=true")
	}
	if ans.CoinsAwarded != 30 {
		t.Errorf("solve 1 at 250s: expected 30 coins, got %d", ans.CoinsAwarded)
	}
	if ans.NextClueID != clue2 {
		t.Errorf("solve 1: expected next clue %d, got %d", clue2, ans.NextClueID)
	}

	// Clue 2's timer starts at clue 1's solve, not at event start.
	w = ts.do(t, http.MethodGet, "/api/game/state", token, nil)
	json.NewDecoder(w.Body).Decode(&state)
	if state.ActiveClue == nil || state.ActiveClue.ID != clue2 {
		t.Fatalf("expected clue %d active, got %+v", clue2, state.ActiveClue)
	}
	if state.ActiveClue.ElapsedSeconds != 0 {
		t.Errorf("clue 2 timer should restart, got %ds elapsed", state.ActiveClue.ElapsedSeconds)
	}

	// Solve clue 2 at +620s: past both windows, 10 coins. Total 40.
	ts.clock.Advance(620 * time.Second)
	w = ts.do(t, http.MethodPost, "/api/game/answer", token, AnswerRequest{ClueID: clue2, Answer: "BRAVO"})
	if w.Code != http.StatusOK {
		t.Fatalf("solve 2: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	json.NewDecoder(w.Body).Decode(&ans)
	if ans.CoinsAwarded != 10 {
		t.Errorf("solve 2 at 620s: expected 10 coins, got %d", ans.CoinsAwarded)
	}
	if ans.Coins != 40 {
		t.Errorf("expected 40 coins total, got %d", ans.Coins)
	}
	if !ans.AllSolved {
		t.Error("expected allSolved after the last clue")
	}

	// Further submissions are rejected: nothing is active.
	w = ts.do(t, http.MethodPost, "/api/game/answer", token, AnswerRequest{ClueID: clue2, Answer: "BRAVO"})
	if w.Code != http.StatusConflict {
		t.Fatalf("after all solved: expected 409, got %d", w.Code)
	}
}

func TestRecordSolveIdempotent(t *testing.T) {
	ts := newTestServer(t)
	teamID := ts.seedTeam(t, "Pulse", "pulse@test.dev", "hunt1234", "HealthCare", 0)
	clueID := ts.seedClue(t, "first", "ALPHA", "HealthCare")
	ctx := context.Background()

	at := ts.clock.Now()
	if err := ts.store.RecordSolve(ctx, teamID, clueID, at, 30); err != nil {
		t.Fatalf("first solve: %v", err)
	}
	if err := ts.store.RecordSolve(ctx, teamID, clueID, at, 30); err != ErrAlreadySolved {
		t.Fatalf("second solve: expected ErrAlreadySolved, got %v", err)
	}

	// Exactly one credit.
	team, err := ts.store.TeamByID(ctx, teamID)
	if err != nil {
		t.Fatalf("team: %v", err)
	}
	if team.Coins != 30 {
		t.Errorf("expected 30 coins after duplicate solve, got %d", team.Coins)
	}
}

func TestSkipClampsAtZero(t *testing.T) {
	ts := newTestServer(t)
	ts.seedTeam(t, "Pulse", "pulse@test.dev", "hunt1234", "HealthCare", 5)
	clue1 := ts.seedClue(t, "first", "ALPHA", "HealthCare")
	clue2 := ts.seedClue(t, "second", "BRAVO", "HealthCare")

	token := ts.login(t, "pulse@test.dev", "hunt1234")
	ts.startEvent(t)

	w := ts.do(t, http.MethodPost, "/api/game/skip", token, SkipRequest{ClueID: clue1})
	if w.Code != http.StatusOK {
		t.Fatalf("skip: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp SkipResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Penalty != game.SkipPenalty {
		t.Errorf("expected penalty %d, got %d", game.SkipPenalty, resp.Penalty)
	}
	if resp.Coins != 0 {
		t.Errorf("5 coins minus penalty should clamp to 0, got %d", resp.Coins)
	}
	if resp.NextClueID != clue2 {
		t.Errorf("expected next clue %d, got %d", clue2, resp.NextClueID)
	}

	// A skipped clue reads as solved in the sequence.
	w = ts.do(t, http.MethodGet, "/api/game/state", token, nil)
	var state GameStateResponse
	json.NewDecoder(w.Body).Decode(&state)
	if state.Clues[0].Status != "solved" {
		t.Errorf("skipped clue should show as solved, got %q", state.Clues[0].Status)
	}
	if state.ActiveClue == nil || state.ActiveClue.ID != clue2 {
		t.Fatalf("expected clue %d active after skip, got %+v", clue2, state.ActiveClue)
	}
}

func TestChat(t *testing.T) {
	ts := newTestServer(t)
	ts.seedTeam(t, "Pulse", "pulse@test.dev", "hunt1234", "HealthCare", 0)
	token := ts.login(t, "pulse@test.dev", "hunt1234")

	w := ts.do(t, http.MethodPost, "/api/chat", token, ChatRequest{Text: "anyone near the atrium?"})
	if w.Code != http.StatusCreated {
		t.Fatalf("post: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var msg ChatMessage
	json.NewDecoder(w.Body).Decode(&msg)
	if msg.Sender != "Pulse" {
		t.Errorf("expected sender Pulse, got %q", msg.Sender)
	}

	w = ts.do(t, http.MethodGet, "/api/chat", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", w.Code)
	}
	var history []ChatMessage
	json.NewDecoder(w.Body).Decode(&history)
	if len(history) != 1 || history[0].Text != "anyone near the atrium?" {
		t.Errorf("unexpected history: %+v", history)
	}

	w = ts.do(t, http.MethodGet, "/api/chat", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated history: expected 401, got %d", w.Code)
	}
}
