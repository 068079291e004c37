package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// BattleRecord is the stored outcome of one encounter.
type BattleRecord struct {
	ID         string
	PlayerID   string
	Outcome    string
	Turns      int
	Enemies    int
	Experience int
	FinishedAt time.Time
}

// BattleRepository records finished battles.
type BattleRepository struct {
	db *pgxpool.Pool
}

// NewBattleRepository создаёт новый BattleRepository.
func NewBattleRepository(db *pgxpool.Pool) *BattleRepository {
	return &BattleRepository{db: db}
}

// Record stores a finished battle. The player must exist.
func (r *BattleRepository) Record(ctx context.Context, b BattleRecord) error {
	finished := b.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO battles (id, player_id, outcome, turns, enemies, experience, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID, b.PlayerID, b.Outcome, b.Turns, b.Enemies, b.Experience, finished,
	)
	if err != nil {
		return fmt.Errorf("recording battle %s: %w", b.ID, err)
	}
	return nil
}

// ListByPlayer returns the player's most recent battles, newest first.
func (r *BattleRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]BattleRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id::text, player_id, outcome, turns, enemies, experience, finished_at
		 FROM battles
		 WHERE player_id = $1
		 ORDER BY finished_at DESC
		 LIMIT $2`,
		playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying battles for %s: %w", playerID, err)
	}
	defer rows.Close()

	out := make([]BattleRecord, 0, limit)
	for rows.Next() {
		var b BattleRecord
		if err := rows.Scan(&b.ID, &b.PlayerID, &b.Outcome, &b.Turns, &b.Enemies, &b.Experience, &b.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning battle row: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating battle rows: %w", err)
	}
	return out, nil
}

// Outcomes counts battles per outcome for a player.
func (r *BattleRepository) Outcomes(ctx context.Context, playerID string) (map[string]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT outcome, count(*) FROM battles WHERE player_id = $1 GROUP BY outcome`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("counting battles for %s: %w", playerID, err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scanning outcome row: %w", err)
		}
		out[outcome] = n
	}
	return out, rows.Err()
}
