package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/wasteland/internal/model"
)

// ErrPlayerNotFound is returned by Load for an unknown player id.
var ErrPlayerNotFound = errors.New("player not found")

// PlayerRepository хранит состояние игрока между боями.
// Состояние пишется целиком в JSONB, level/experience дублируются для запросов.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository создаёт новый PlayerRepository.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Save inserts or replaces the player state.
func (r *PlayerRepository) Save(ctx context.Context, id string, st model.PlayerState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding player %s: %w", id, err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO players (id, name, level, experience, state, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name,
		     level = EXCLUDED.level,
		     experience = EXCLUDED.experience,
		     state = EXCLUDED.state,
		     updated_at = now()`,
		id, st.Name, st.Level, st.Experience, raw,
	)
	if err != nil {
		return fmt.Errorf("saving player %s: %w", id, err)
	}
	return nil
}

// Load returns the stored state or ErrPlayerNotFound.
func (r *PlayerRepository) Load(ctx context.Context, id string) (model.PlayerState, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT state FROM players WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PlayerState{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
		}
		return model.PlayerState{}, fmt.Errorf("querying player %s: %w", id, err)
	}

	var st model.PlayerState
	if err := json.Unmarshal(raw, &st); err != nil {
		return model.PlayerState{}, fmt.Errorf("decoding player %s: %w", id, err)
	}
	return st, nil
}

// Delete removes a player and its battle history. Returns false if nothing was deleted.
func (r *PlayerRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting player %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
