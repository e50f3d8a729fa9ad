package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cipherhunt/api/internal/game"
)

// timeLayout matches the strftime defaults in the migrations, so Go and
// SQLite-generated timestamps compare correctly.
const timeLayout = time.RFC3339Nano

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- Team auth ---

func (s *SQLiteStore) TeamByEmail(ctx context.Context, email string) (game.Team, string, error) {
	var t game.Team
	var hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, coins, domain, user_id, password_hash
		FROM teams WHERE email = ?
	`, email).Scan(&t.ID, &t.Name, &t.Email, &t.Coins, &t.Domain, &t.UserID, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return t, "", ErrNotFound
	}
	return t, hash, err
}

func (s *SQLiteStore) CreateTeamSession(ctx context.Context, teamID int64) (string, error) {
	token := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO team_sessions (id, team_id) VALUES (?, ?)
	`, token, teamID)
	return token, err
}

func (s *SQLiteStore) DeleteTeamSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM team_sessions WHERE id = ?`, token)
	return err
}

func (s *SQLiteStore) TeamFromSession(ctx context.Context, token string) (teamSession, error) {
	var sess teamSession
	err := s.db.QueryRowContext(ctx, `
		SELECT team_id FROM team_sessions WHERE id = ?
	`, token).Scan(&sess.TeamID)
	if errors.Is(err, sql.ErrNoRows) {
		return sess, errNoSession
	}
	return sess, err
}

// --- Admin auth ---

func (s *SQLiteStore) AdminByEmail(ctx context.Context, email string) (string, string, error) {
	var adminID, passwordHash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM admins WHERE email = ?
	`, email).Scan(&adminID, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrNotFound
	}
	return adminID, passwordHash, err
}

func (s *SQLiteStore) CreateAdminSession(ctx context.Context, adminID string) (string, error) {
	sessionID := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_sessions (id, admin_id) VALUES (?, ?)
	`, sessionID, adminID)
	return sessionID, err
}

func (s *SQLiteStore) DeleteAdminSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, sessionID)
	return err
}

func (s *SQLiteStore) AdminFromSession(ctx context.Context, sessionID string) (adminSession, error) {
	var sess adminSession
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.email
		FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.id = ?
	`, sessionID).Scan(&sess.AdminID, &sess.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return adminSession{}, errNoAdminSession
	}
	return sess, err
}

// --- Event phase controller ---

func (s *SQLiteStore) Event(ctx context.Context) (game.Event, error) {
	var ev game.Event
	var startTime sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT status, start_time, ps_purchase_limit FROM event WHERE id = 1
	`).Scan(&ev.Status, &startTime, &ev.PSPurchaseLimit)
	if err != nil {
		return ev, err
	}
	if startTime.Valid {
		t, err := parseTime(startTime.String)
		if err != nil {
			return ev, fmt.Errorf("parsing event start time: %w", err)
		}
		ev.StartTime = &t
	}
	return ev, nil
}

// StartEvent moves stopped -> running and anchors start_time. The WHERE
// clause makes the transition a compare-and-swap: a start against any
// other phase changes nothing.
func (s *SQLiteStore) StartEvent(ctx context.Context, startTime time.Time) error {
	return s.transition(ctx, `
		UPDATE event SET status = 'running', start_time = ?
		WHERE id = 1 AND status = 'stopped'
	`, formatTime(startTime))
}

func (s *SQLiteStore) EndEvent(ctx context.Context) error {
	return s.transition(ctx, `
		UPDATE event SET status = 'ended'
		WHERE id = 1 AND status = 'running'
	`)
}

func (s *SQLiteStore) OpenMarket(ctx context.Context) error {
	return s.transition(ctx, `
		UPDATE event SET status = 'market'
		WHERE id = 1 AND status = 'ended'
	`)
}

// StopEvent resets from any phase and clears the scoring anchor.
func (s *SQLiteStore) StopEvent(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE event SET status = 'stopped', start_time = NULL WHERE id = 1
	`)
	return err
}

func (s *SQLiteStore) transition(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPhaseConflict
	}
	return nil
}

func (s *SQLiteStore) SetPurchaseLimit(ctx context.Context, limit int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE event SET ps_purchase_limit = ? WHERE id = 1
	`, limit)
	return err
}

// --- Game reads ---

func (s *SQLiteStore) TeamByID(ctx context.Context, id int64) (game.Team, error) {
	var t game.Team
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, coins, domain, user_id FROM teams WHERE id = ?
	`, id).Scan(&t.ID, &t.Name, &t.Email, &t.Coins, &t.Domain, &t.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

func (s *SQLiteStore) CluesByDomain(ctx context.Context, domain string) ([]game.Clue, error) {
	return s.queryClues(ctx, `
		SELECT id, text, answer, domain,
			COALESCE(image_url, ''), COALESCE(link_url, ''), COALESCE(video_url, '')
		FROM clues WHERE domain = ? ORDER BY id
	`, domain)
}

func (s *SQLiteStore) queryClues(ctx context.Context, query string, args ...any) ([]game.Clue, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clues []game.Clue
	for rows.Next() {
		var c game.Clue
		if err := rows.Scan(&c.ID, &c.Text, &c.Answer, &c.Domain, &c.ImageURL, &c.LinkURL, &c.VideoURL); err != nil {
			return nil, err
		}
		clues = append(clues, c)
	}
	return clues, rows.Err()
}

func (s *SQLiteStore) ProgressByTeam(ctx context.Context, teamID int64) ([]game.Progress, error) {
	return s.queryProgress(ctx, `
		SELECT team_id, clue_id, solved_at FROM team_progress WHERE team_id = ?
	`, teamID)
}

func (s *SQLiteStore) AllProgress(ctx context.Context) ([]game.Progress, error) {
	return s.queryProgress(ctx, `
		SELECT team_id, clue_id, solved_at FROM team_progress
	`)
}

func (s *SQLiteStore) queryProgress(ctx context.Context, query string, args ...any) ([]game.Progress, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var progress []game.Progress
	for rows.Next() {
		var p game.Progress
		var solvedAt string
		if err := rows.Scan(&p.TeamID, &p.ClueID, &solvedAt); err != nil {
			return nil, err
		}
		if p.SolvedAt, err = parseTime(solvedAt); err != nil {
			return nil, fmt.Errorf("parsing solved_at: %w", err)
		}
		progress = append(progress, p)
	}
	return progress, rows.Err()
}

// --- Progress ledger ---

// RecordSolve inserts the progress row and credits the award in one
// transaction. The insert goes first so a duplicate submission trips
// the primary key before any coins move; the credit is an in-database
// increment, never a read-modify-write from the client side.
func (s *SQLiteStore) RecordSolve(ctx context.Context, teamID, clueID int64, solvedAt time.Time, coins int) error {
	return s.recordProgress(ctx, teamID, clueID, solvedAt, `
		UPDATE teams SET coins = coins + ? WHERE id = ?
	`, coins)
}

// RecordSkip debits the flat penalty, clamped so a team can never go
// below zero coins.
func (s *SQLiteStore) RecordSkip(ctx context.Context, teamID, clueID int64, skippedAt time.Time, penalty int) error {
	return s.recordProgress(ctx, teamID, clueID, skippedAt, `
		UPDATE teams SET coins = MAX(coins - ?, 0) WHERE id = ?
	`, penalty)
}

func (s *SQLiteStore) recordProgress(ctx context.Context, teamID, clueID int64, at time.Time, balanceQuery string, amount int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO team_progress (team_id, clue_id, solved_at) VALUES (?, ?, ?)
	`, teamID, clueID, formatTime(at))
	if isUniqueViolation(err) {
		return ErrAlreadySolved
	}
	if err != nil {
		return fmt.Errorf("inserting progress: %w", err)
	}

	if _, err := tx.ExecContext(ctx, balanceQuery, amount, teamID); err != nil {
		return fmt.Errorf("adjusting balance: %w", err)
	}

	return tx.Commit()
}

// --- Marketplace ---

func (s *SQLiteStore) ProblemStatementsByDomain(ctx context.Context, domain string) ([]game.ProblemStatement, error) {
	return s.queryProblemStatements(ctx, `
		SELECT id, title, description, cost, domain
		FROM problem_statements WHERE domain = ? ORDER BY id
	`, domain)
}

func (s *SQLiteStore) ListProblemStatements(ctx context.Context) ([]game.ProblemStatement, error) {
	return s.queryProblemStatements(ctx, `
		SELECT id, title, description, cost, domain FROM problem_statements ORDER BY id
	`)
}

func (s *SQLiteStore) queryProblemStatements(ctx context.Context, query string, args ...any) ([]game.ProblemStatement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stmts []game.ProblemStatement
	for rows.Next() {
		var ps game.ProblemStatement
		if err := rows.Scan(&ps.ID, &ps.Title, &ps.Description, &ps.Cost, &ps.Domain); err != nil {
			return nil, err
		}
		stmts = append(stmts, ps)
	}
	return stmts, rows.Err()
}

func (s *SQLiteStore) PurchaseCounts(ctx context.Context) (map[int64]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT problem_statement_id, COUNT(*)
		FROM problem_statement_purchases GROUP BY problem_statement_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) PurchaseByTeam(ctx context.Context, teamID int64) (game.Purchase, error) {
	var p game.Purchase
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT pu.team_id, pu.problem_statement_id, ps.cost, pu.created_at
		FROM problem_statement_purchases pu
		JOIN problem_statements ps ON ps.id = pu.problem_statement_id
		WHERE pu.team_id = ?
	`, teamID).Scan(&p.TeamID, &p.ProblemStatementID, &p.Cost, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	p.CreatedAt, err = parseTime(createdAt)
	return p, err
}

func (s *SQLiteStore) AllPurchases(ctx context.Context) ([]game.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pu.team_id, pu.problem_statement_id, ps.cost, pu.created_at
		FROM problem_statement_purchases pu
		JOIN problem_statements ps ON ps.id = pu.problem_statement_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []game.Purchase
	for rows.Next() {
		var p game.Purchase
		var createdAt string
		if err := rows.Scan(&p.TeamID, &p.ProblemStatementID, &p.Cost, &createdAt); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing purchase created_at: %w", err)
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

// Purchase re-validates every precondition inside the transaction, so a
// stale render can never buy a slot that no longer exists: the count
// check, the one-per-team rule, and the affordability check all run
// against current rows, and the UNIQUE constraint backstops the
// one-per-team rule even if two sessions race.
func (s *SQLiteStore) Purchase(ctx context.Context, teamID, problemStatementID int64, at time.Time) (game.Purchase, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return game.Purchase{}, err
	}
	defer tx.Rollback()

	var status string
	var limit int
	if err := tx.QueryRowContext(ctx, `
		SELECT status, ps_purchase_limit FROM event WHERE id = 1
	`).Scan(&status, &limit); err != nil {
		return game.Purchase{}, err
	}
	if status != game.StatusMarket {
		return game.Purchase{}, ErrPhaseConflict
	}

	var existing int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM problem_statement_purchases WHERE team_id = ?
	`, teamID).Scan(&existing); err != nil {
		return game.Purchase{}, err
	}
	if existing > 0 {
		return game.Purchase{}, ErrAlreadyPurchased
	}

	var cost int
	var psDomain string
	err = tx.QueryRowContext(ctx, `
		SELECT cost, domain FROM problem_statements WHERE id = ?
	`, problemStatementID).Scan(&cost, &psDomain)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Purchase{}, ErrNotFound
	}
	if err != nil {
		return game.Purchase{}, err
	}

	var coins int
	var teamDomain string
	if err := tx.QueryRowContext(ctx, `
		SELECT coins, domain FROM teams WHERE id = ?
	`, teamID).Scan(&coins, &teamDomain); err != nil {
		return game.Purchase{}, err
	}
	if teamDomain != psDomain {
		return game.Purchase{}, ErrNotFound
	}

	var taken int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM problem_statement_purchases WHERE problem_statement_id = ?
	`, problemStatementID).Scan(&taken); err != nil {
		return game.Purchase{}, err
	}
	if taken >= limit {
		return game.Purchase{}, ErrSlotsExhausted
	}

	if coins < cost {
		return game.Purchase{}, ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO problem_statement_purchases (team_id, problem_statement_id, created_at)
		VALUES (?, ?, ?)
	`, teamID, problemStatementID, formatTime(at))
	if isUniqueViolation(err) {
		return game.Purchase{}, ErrAlreadyPurchased
	}
	if err != nil {
		return game.Purchase{}, fmt.Errorf("inserting purchase: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE teams SET coins = coins - ? WHERE id = ?
	`, cost, teamID); err != nil {
		return game.Purchase{}, fmt.Errorf("debiting coins: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return game.Purchase{}, err
	}

	return game.Purchase{
		TeamID:             teamID,
		ProblemStatementID: problemStatementID,
		Cost:               cost,
		CreatedAt:          at,
	}, nil
}

// --- Leaderboard ---

func (s *SQLiteStore) Teams(ctx context.Context) ([]game.Team, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, coins, domain, user_id FROM teams ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []game.Team
	for rows.Next() {
		var t game.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Email, &t.Coins, &t.Domain, &t.UserID); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}
