package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kringle-dev/kringle/pkg/models"
)

const matchColumns = `id, santa_id, giftee_id, status, super_santa, invalid_player,
	followup, deactivated_at, contacted_at, created_at, updated_at`

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	m := &models.Match{}
	var deactivated, contacted sql.NullTime
	err := row.Scan(
		&m.ID, &m.SantaID, &m.GifteeID, &m.Status, &m.SuperSanta, &m.InvalidPlayer,
		&m.Followup, &deactivated, &contacted, &m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if deactivated.Valid {
		m.DeactivatedAt = &deactivated.Time
	}
	if contacted.Valid {
		m.ContactedAt = &contacted.Time
	}
	return m, nil
}

// GetMatch returns a match by ID, or nil if absent.
func (db *DB) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	q := `SELECT ` + matchColumns + ` FROM matches WHERE id = ?`
	return scanMatch(db.conn.QueryRowContext(ctx, q, id))
}

// InsertMatch inserts a single match row.
func (db *DB) InsertMatch(ctx context.Context, m *models.Match) error {
	_, err := db.conn.ExecContext(ctx, insertMatchSQL, insertMatchArgs(m)...)
	return err
}

const insertMatchSQL = `INSERT INTO matches (id, santa_id, giftee_id, status, super_santa,
	invalid_player, followup, deactivated_at, contacted_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func insertMatchArgs(m *models.Match) []interface{} {
	var deactivated, contacted interface{}
	if m.DeactivatedAt != nil {
		deactivated = *m.DeactivatedAt
	}
	if m.ContactedAt != nil {
		contacted = *m.ContactedAt
	}
	return []interface{}{
		m.ID, m.SantaID, m.GifteeID, m.Status, m.SuperSanta, m.InvalidPlayer,
		m.Followup, deactivated, contacted, m.CreatedAt, m.UpdatedAt,
	}
}

// InsertMatches inserts a batch of matches in a single transaction. Either
// every row is written or none are; a failed matching run must not leave
// partial drafts behind.
func (db *DB) InsertMatches(ctx context.Context, matches []*models.Match) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}
	defer tx.Rollback()

	for _, m := range matches {
		if _, err := tx.ExecContext(ctx, insertMatchSQL, insertMatchArgs(m)...); err != nil {
			return fmt.Errorf("insert match %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

// MatchFilter narrows ListMatches. Zero values mean no filtering on that field.
type MatchFilter struct {
	Status     models.MatchStatus
	ActiveOnly bool
	ValidOnly  bool
}

// ListMatches returns matches with santa and giftee handles joined in,
// newest first.
func (db *DB) ListMatches(ctx context.Context, filter MatchFilter) ([]models.MatchWithPlayers, error) {
	q := `SELECT m.id, m.santa_id, m.giftee_id, m.status, m.super_santa, m.invalid_player,
	             m.followup, m.deactivated_at, m.contacted_at, m.created_at, m.updated_at,
	             s.handle, g.handle
	      FROM matches m
	      JOIN players s ON s.id = m.santa_id
	      JOIN players g ON g.id = m.giftee_id
	      WHERE 1=1`
	var args []interface{}

	if filter.Status != "" {
		q += ` AND m.status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.ActiveOnly {
		q += ` AND m.deactivated_at IS NULL`
	}
	if filter.ValidOnly {
		q += ` AND m.invalid_player = 0`
	}
	q += ` ORDER BY m.created_at DESC`

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []models.MatchWithPlayers
	for rows.Next() {
		var m models.MatchWithPlayers
		var deactivated, contacted sql.NullTime
		if err := rows.Scan(
			&m.ID, &m.SantaID, &m.GifteeID, &m.Status, &m.SuperSanta, &m.InvalidPlayer,
			&m.Followup, &deactivated, &contacted, &m.CreatedAt, &m.UpdatedAt,
			&m.SantaHandle, &m.GifteeHandle,
		); err != nil {
			return nil, err
		}
		if deactivated.Valid {
			m.DeactivatedAt = &deactivated.Time
		}
		if contacted.Valid {
			m.ContactedAt = &contacted.Time
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// ForbiddenPairs returns every (santa, giftee) combination that appears in
// a retired match. These pairs seed the exclusion set for automated matching.
func (db *DB) ForbiddenPairs(ctx context.Context) (map[models.Pair]bool, error) {
	const q = `SELECT DISTINCT santa_id, giftee_id FROM matches WHERE deactivated_at IS NOT NULL`
	rows, err := db.conn.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pairs := make(map[models.Pair]bool)
	for rows.Next() {
		var p models.Pair
		if err := rows.Scan(&p.SantaID, &p.GifteeID); err != nil {
			return nil, err
		}
		pairs[p] = true
	}
	return pairs, rows.Err()
}

// CountActiveBySanta returns the number of active matches where the given
// player is santa.
func (db *DB) CountActiveBySanta(ctx context.Context, santaID string) (int, error) {
	const q = `SELECT COUNT(*) FROM matches WHERE santa_id = ? AND deactivated_at IS NULL`
	var n int
	err := db.conn.QueryRowContext(ctx, q, santaID).Scan(&n)
	return n, err
}

// PublishCohort advances every active, valid match in from-status to
// to-status and returns the IDs of the rows it touched. Zero rows is not
// an error.
func (db *DB) PublishCohort(ctx context.Context, from, to models.MatchStatus) ([]string, error) {
	const q = `UPDATE matches SET status = ?, updated_at = ?
	           WHERE status = ? AND deactivated_at IS NULL AND invalid_player = 0
	           RETURNING id`
	rows, err := db.conn.QueryContext(ctx, q, string(to), time.Now(), string(from))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeactivateMatch stamps a match as retired. Re-stamping an already retired
// match simply updates the timestamp.
func (db *DB) DeactivateMatch(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE matches SET deactivated_at = ?, updated_at = ? WHERE id = ?`
	_, err := db.conn.ExecContext(ctx, q, at, at, id)
	return err
}

// SetFollowup records a followup action on a match.
func (db *DB) SetFollowup(ctx context.Context, id string, action models.FollowupAction) error {
	const q = `UPDATE matches SET followup = ?, updated_at = ? WHERE id = ?`
	_, err := db.conn.ExecContext(ctx, q, string(action), time.Now(), id)
	return err
}

// SetContactedAt stamps the time the santa was contacted about a match.
func (db *DB) SetContactedAt(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE matches SET contacted_at = ?, updated_at = ? WHERE id = ?`
	_, err := db.conn.ExecContext(ctx, q, at, at, id)
	return err
}

// ReassignMatch retires (or flags) the old match and inserts its replacement
// in one transaction. When superSanta is set the old match keeps running and
// is marked super-assigned instead of being deactivated.
func (db *DB) ReassignMatch(ctx context.Context, oldID string, superSanta bool, replacement *models.Match) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reassign: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	if superSanta {
		const q = `UPDATE matches SET followup = ?, updated_at = ? WHERE id = ?`
		if _, err := tx.ExecContext(ctx, q, string(models.FollowupSuperAssigned), now, oldID); err != nil {
			return fmt.Errorf("flag old match: %w", err)
		}
	} else {
		const q = `UPDATE matches SET deactivated_at = ?, updated_at = ? WHERE id = ?`
		if _, err := tx.ExecContext(ctx, q, now, now, oldID); err != nil {
			return fmt.Errorf("retire old match: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, insertMatchSQL, insertMatchArgs(replacement)...); err != nil {
		return fmt.Errorf("insert replacement match: %w", err)
	}
	return tx.Commit()
}

// DeleteDraftMatches removes every draft match. This is the only path that
// physically deletes match rows; it exists for maintenance resets between
// matching runs.
func (db *DB) DeleteDraftMatches(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM matches WHERE status = ?`, string(models.MatchStatusDraft))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
