package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cipherhunt/api/internal/game"
)

// --- Teams ---

func (s *SQLiteStore) ListTeams(ctx context.Context) ([]AdminTeamItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.email, t.coins, t.domain, t.user_id,
			(SELECT COUNT(*) FROM team_progress p WHERE p.team_id = t.id),
			t.created_at
		FROM teams t
		ORDER BY t.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []AdminTeamItem
	for rows.Next() {
		var item AdminTeamItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Email, &item.Coins,
			&item.Domain, &item.UserID, &item.CluesSolved, &item.CreatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, item)
	}
	return teams, rows.Err()
}

func (s *SQLiteStore) CreateTeam(ctx context.Context, req AdminTeamRequest, passwordHash, userID string) (AdminTeamItem, error) {
	var item AdminTeamItem
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO teams (name, email, password_hash, coins, domain, user_id)
		VALUES (?, ?, ?, 0, ?, ?)
		RETURNING id, created_at
	`, req.Name, req.Email, passwordHash, req.Domain, userID).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return item, err
	}

	item.Name = req.Name
	item.Email = req.Email
	item.Domain = req.Domain
	item.UserID = userID
	return item, nil
}

func (s *SQLiteStore) UpdateTeam(ctx context.Context, id int64, req AdminTeamUpdateRequest) (AdminTeamItem, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE teams SET name = ?, email = ?, domain = ?, coins = ? WHERE id = ?
	`, req.Name, req.Email, req.Domain, req.Coins, id)
	if err != nil {
		return AdminTeamItem{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return AdminTeamItem{}, err
	} else if n == 0 {
		return AdminTeamItem{}, ErrNotFound
	}

	var item AdminTeamItem
	err = s.db.QueryRowContext(ctx, `
		SELECT t.id, t.name, t.email, t.coins, t.domain, t.user_id,
			(SELECT COUNT(*) FROM team_progress p WHERE p.team_id = t.id),
			t.created_at
		FROM teams t WHERE t.id = ?
	`, id).Scan(&item.ID, &item.Name, &item.Email, &item.Coins,
		&item.Domain, &item.UserID, &item.CluesSolved, &item.CreatedAt)
	return item, err
}

// DeleteTeam removes dependents first, inside one transaction, so a
// mid-sequence failure can never leave a team without its history.
func (s *SQLiteStore) DeleteTeam(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM team_sessions WHERE team_id = ?`,
		`DELETE FROM team_progress WHERE team_id = ?`,
		`DELETE FROM problem_statement_purchases WHERE team_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("deleting team dependents: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// --- Clues ---

func (s *SQLiteStore) ListClues(ctx context.Context) ([]game.Clue, error) {
	return s.queryClues(ctx, `
		SELECT id, text, answer, domain,
			COALESCE(image_url, ''), COALESCE(link_url, ''), COALESCE(video_url, '')
		FROM clues ORDER BY domain, id
	`)
}

func (s *SQLiteStore) CreateClue(ctx context.Context, c game.Clue) (game.Clue, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO clues (text, answer, domain, image_url, link_url, video_url)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`, c.Text, c.Answer, c.Domain, nullable(c.ImageURL), nullable(c.LinkURL), nullable(c.VideoURL)).Scan(&c.ID)
	return c, err
}

func (s *SQLiteStore) UpdateClue(ctx context.Context, c game.Clue) (game.Clue, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE clues SET text = ?, answer = ?, domain = ?, image_url = ?, link_url = ?, video_url = ?
		WHERE id = ?
	`, c.Text, c.Answer, c.Domain, nullable(c.ImageURL), nullable(c.LinkURL), nullable(c.VideoURL), c.ID)
	if err != nil {
		return c, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return c, err
	} else if n == 0 {
		return c, ErrNotFound
	}
	return c, nil
}

// DeleteClue drops progress rows for the clue first; one transaction,
// same discipline as DeleteTeam.
func (s *SQLiteStore) DeleteClue(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM team_progress WHERE clue_id = ?`, id); err != nil {
		return fmt.Errorf("deleting clue progress: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM clues WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// --- Problem statements ---

func (s *SQLiteStore) CreateProblemStatement(ctx context.Context, ps game.ProblemStatement) (game.ProblemStatement, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO problem_statements (title, description, cost, domain)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`, ps.Title, ps.Description, ps.Cost, ps.Domain).Scan(&ps.ID)
	return ps, err
}

func (s *SQLiteStore) UpdateProblemStatement(ctx context.Context, ps game.ProblemStatement) (game.ProblemStatement, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE problem_statements SET title = ?, description = ?, cost = ?, domain = ?
		WHERE id = ?
	`, ps.Title, ps.Description, ps.Cost, ps.Domain, ps.ID)
	if err != nil {
		return ps, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return ps, err
	} else if n == 0 {
		return ps, ErrNotFound
	}
	return ps, nil
}

func (s *SQLiteStore) DeleteProblemStatement(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM problem_statement_purchases WHERE problem_statement_id = ?
	`, id); err != nil {
		return fmt.Errorf("deleting purchases: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM problem_statements WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// --- Chat ---

func (s *SQLiteStore) Messages(ctx context.Context, limit int) ([]ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender, text, created_at FROM (
			SELECT id, sender, text, created_at FROM messages ORDER BY id DESC LIMIT ?
		) ORDER BY id
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.Sender, &m.Text, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *SQLiteStore) AddMessage(ctx context.Context, sender, text string) (ChatMessage, error) {
	m := ChatMessage{Sender: sender, Text: text}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO messages (sender, text) VALUES (?, ?)
		RETURNING id, created_at
	`, sender, text).Scan(&m.ID, &m.CreatedAt)
	return m, err
}

// nullable maps "" to NULL for optional columns.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
