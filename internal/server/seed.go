package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SeedAdmin ensures an admin account exists for the configured email.
// Idempotent: an existing account keeps its password.
func SeedAdmin(ctx context.Context, logger *slog.Logger, db *sql.DB, email, password string) error {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins WHERE email = ?`, email).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking admin: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO admins (email, password_hash) VALUES (?, ?)`,
		email, string(hash))
	if err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}

	logger.Info("admin account created", "email", email)
	return nil
}

// SeedDemo populates one team per domain plus a small clue set and
// marketplace, for local development. Idempotent: does nothing if any
// teams exist.
func SeedDemo(ctx context.Context, logger *slog.Logger, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams`).Scan(&count); err != nil {
		return fmt.Errorf("checking teams: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing demo password: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	teams := []struct {
		name, email, domain string
	}{
		{"Pulse", "pulse@demo.cipherhunt.dev", "HealthCare"},
		{"Vault", "vault@demo.cipherhunt.dev", "Banking"},
		{"Forked", "forked@demo.cipherhunt.dev", "Food"},
		{"Contrail", "contrail@demo.cipherhunt.dev", "Airlines"},
	}
	for _, t := range teams {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO teams (name, email, password_hash, domain, user_id) VALUES (?, ?, ?, ?, ?)`,
			t.name, t.email, string(hash), t.domain, uuid.NewString())
		if err != nil {
			return fmt.Errorf("seeding team %s: %w", t.name, err)
		}
	}

	clues := []struct {
		text, answer, domain string
	}{
		{"I keep the beat without a drum. Find me where the readings hum.", "MONITOR", "HealthCare"},
		{"Cold as ice but never melts, rows of organs on my shelves.", "FREEZER", "HealthCare"},
		{"I hold your worth but have no pockets.", "VAULT", "Banking"},
		{"Swipe me right and I dispense, paper promises and cents.", "ATM", "Banking"},
		{"I am hot, round, and always sliced in eight.", "PIZZA", "Food"},
		{"Whisked, not beaten; folded, not broken.", "SOUFFLE", "Food"},
		{"I point the way but never move, painted stripes my only groove.", "RUNWAY", "Airlines"},
		{"I fly without wings, stamped and scanned before you board.", "BOARDING PASS", "Airlines"},
	}
	for _, c := range clues {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO clues (text, answer, domain) VALUES (?, ?, ?)`,
			c.text, c.answer, c.domain)
		if err != nil {
			return fmt.Errorf("seeding clue: %w", err)
		}
	}

	stmts := []struct {
		title, desc, domain string
		cost                int
	}{
		{"Remote triage assistant", "Build a symptom intake flow for rural clinics.", "HealthCare", 40},
		{"Fraud flag pipeline", "Score card transactions for anomaly review.", "Banking", 50},
		{"Surplus redistribution", "Match restaurant surplus with food banks.", "Food", 30},
		{"Gate reassignment planner", "Minimize passenger walking on gate changes.", "Airlines", 40},
	}
	for _, ps := range stmts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO problem_statements (title, description, cost, domain) VALUES (?, ?, ?, ?)`,
			ps.title, ps.desc, ps.cost, ps.domain)
		if err != nil {
			return fmt.Errorf("seeding problem statement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	logger.Info("demo data seeded", "teams", len(teams), "clues", len(clues))
	return nil
}
