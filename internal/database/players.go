package database

import (
	"context"
	"database/sql"

	"github.com/kringle-dev/kringle/pkg/models"
)

const playerColumns = `id, handle, display_name, signup_complete, game_mode, max_giftees,
	giftee_count, giftee_for_count, capacity_status, recent_post_count, created_at, updated_at`

func scanPlayer(row interface{ Scan(...interface{}) error }) (*models.Player, error) {
	p := &models.Player{}
	err := row.Scan(
		&p.ID, &p.Handle, &p.DisplayName, &p.SignupComplete, &p.GameMode, &p.MaxGiftees,
		&p.GifteeCount, &p.GifteeForCount, &p.CapacityStatus, &p.RecentPostCount,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// CreatePlayer inserts a new player row.
func (db *DB) CreatePlayer(ctx context.Context, p *models.Player) error {
	const q = `INSERT INTO players (id, handle, display_name, signup_complete, game_mode, max_giftees,
	           giftee_count, giftee_for_count, capacity_status, recent_post_count, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.conn.ExecContext(ctx, q,
		p.ID, p.Handle, p.DisplayName, p.SignupComplete, p.GameMode, p.MaxGiftees,
		p.GifteeCount, p.GifteeForCount, p.CapacityStatus, p.RecentPostCount,
		p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetPlayerByID returns a player by ID, or nil if absent.
func (db *DB) GetPlayerByID(ctx context.Context, id string) (*models.Player, error) {
	q := `SELECT ` + playerColumns + ` FROM players WHERE id = ?`
	return scanPlayer(db.conn.QueryRowContext(ctx, q, id))
}

// GetPlayerByHandle returns a player by handle, or nil if absent.
func (db *DB) GetPlayerByHandle(ctx context.Context, handle string) (*models.Player, error) {
	q := `SELECT ` + playerColumns + ` FROM players WHERE handle = ?`
	return scanPlayer(db.conn.QueryRowContext(ctx, q, handle))
}

// ListNeedingSanta returns signed-up players without a santa who are not
// santa-only, filtered by a minimum recent post count. Pass 0 to skip the
// activity filter.
func (db *DB) ListNeedingSanta(ctx context.Context, minRecentPosts int) ([]models.Player, error) {
	q := `SELECT ` + playerColumns + ` FROM players
	      WHERE signup_complete = 1 AND giftee_for_count = 0 AND game_mode != ?
	        AND recent_post_count >= ?`
	return db.queryPlayers(ctx, q, string(models.ModeSantaOnly), minRecentPosts)
}

// ListCapableSantas returns signed-up players whose capacity status still
// allows another giftee. Ordering is left to the caller; the fairness sort
// is deliberately randomized and lives in the matching engine.
func (db *DB) ListCapableSantas(ctx context.Context) ([]models.Player, error) {
	q := `SELECT ` + playerColumns + ` FROM players
	      WHERE signup_complete = 1 AND capacity_status = ?`
	return db.queryPlayers(ctx, q, string(models.CapacityCanHaveMore))
}

// ListPlayersByCapacity returns players with the given capacity status.
func (db *DB) ListPlayersByCapacity(ctx context.Context, status models.CapacityStatus) ([]models.Player, error) {
	q := `SELECT ` + playerColumns + ` FROM players WHERE capacity_status = ?`
	return db.queryPlayers(ctx, q, string(status))
}

func (db *DB) queryPlayers(ctx context.Context, query string, args ...interface{}) ([]models.Player, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(
			&p.ID, &p.Handle, &p.DisplayName, &p.SignupComplete, &p.GameMode, &p.MaxGiftees,
			&p.GifteeCount, &p.GifteeForCount, &p.CapacityStatus, &p.RecentPostCount,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}
