package server

import (
	"context"
	"errors"
	"time"

	"github.com/cipherhunt/api/internal/game"
)

var ErrNotFound = errors.New("not found")

// Ledger rejections. The progress primary key and the purchase
// constraints turn races into these errors instead of double-writes.
// ErrPhaseConflict means a phase transition or phase-gated write ran
// against the wrong current phase.
var ErrPhaseConflict = errors.New("conflicting event phase")

var (
	ErrAlreadySolved = errors.New("clue already recorded for team")

	ErrSlotsExhausted    = errors.New("purchase slots exhausted")
	ErrAlreadyPurchased  = errors.New("team already purchased a problem statement")
	ErrInsufficientFunds = errors.New("insufficient coins")
)

type teamSession struct {
	TeamID int64
}

type adminSession struct {
	AdminID string
	Email   string
}

// Store is the domain store behind every handler. All multi-row writes
// (solve, skip, purchase, ordered deletes) happen inside a single
// transaction on the SQLite side.
type Store interface {
	// Team auth.
	TeamByEmail(ctx context.Context, email string) (game.Team, string, error)
	CreateTeamSession(ctx context.Context, teamID int64) (string, error)
	DeleteTeamSession(ctx context.Context, token string) error
	TeamFromSession(ctx context.Context, token string) (teamSession, error)

	// Admin auth.
	AdminByEmail(ctx context.Context, email string) (adminID, passwordHash string, err error)
	CreateAdminSession(ctx context.Context, adminID string) (string, error)
	DeleteAdminSession(ctx context.Context, sessionID string) error
	AdminFromSession(ctx context.Context, sessionID string) (adminSession, error)

	// Event phase controller.
	Event(ctx context.Context) (game.Event, error)
	StartEvent(ctx context.Context, startTime time.Time) error
	EndEvent(ctx context.Context) error
	OpenMarket(ctx context.Context) error
	StopEvent(ctx context.Context) error
	SetPurchaseLimit(ctx context.Context, limit int) error

	// Game reads.
	TeamByID(ctx context.Context, id int64) (game.Team, error)
	CluesByDomain(ctx context.Context, domain string) ([]game.Clue, error)
	ProgressByTeam(ctx context.Context, teamID int64) ([]game.Progress, error)

	// Progress ledger.
	RecordSolve(ctx context.Context, teamID, clueID int64, solvedAt time.Time, coins int) error
	RecordSkip(ctx context.Context, teamID, clueID int64, skippedAt time.Time, penalty int) error

	// Marketplace.
	ProblemStatementsByDomain(ctx context.Context, domain string) ([]game.ProblemStatement, error)
	PurchaseCounts(ctx context.Context) (map[int64]int, error)
	PurchaseByTeam(ctx context.Context, teamID int64) (game.Purchase, error)
	Purchase(ctx context.Context, teamID, problemStatementID int64, at time.Time) (game.Purchase, error)

	// Leaderboard.
	Teams(ctx context.Context) ([]game.Team, error)
	AllProgress(ctx context.Context) ([]game.Progress, error)
	AllPurchases(ctx context.Context) ([]game.Purchase, error)

	// Admin CRUD.
	ListTeams(ctx context.Context) ([]AdminTeamItem, error)
	CreateTeam(ctx context.Context, req AdminTeamRequest, passwordHash, userID string) (AdminTeamItem, error)
	UpdateTeam(ctx context.Context, id int64, req AdminTeamUpdateRequest) (AdminTeamItem, error)
	DeleteTeam(ctx context.Context, id int64) error

	ListClues(ctx context.Context) ([]game.Clue, error)
	CreateClue(ctx context.Context, c game.Clue) (game.Clue, error)
	UpdateClue(ctx context.Context, c game.Clue) (game.Clue, error)
	DeleteClue(ctx context.Context, id int64) error

	ListProblemStatements(ctx context.Context) ([]game.ProblemStatement, error)
	CreateProblemStatement(ctx context.Context, ps game.ProblemStatement) (game.ProblemStatement, error)
	UpdateProblemStatement(ctx context.Context, ps game.ProblemStatement) (game.ProblemStatement, error)
	DeleteProblemStatement(ctx context.Context, id int64) error

	// Chat.
	Messages(ctx context.Context, limit int) ([]ChatMessage, error)
	AddMessage(ctx context.Context, sender, text string) (ChatMessage, error)
}
