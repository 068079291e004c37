package combatsim

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/udisondev/wasteland/internal/db"
	"github.com/udisondev/wasteland/internal/model"
)

// Store persists the simulated player and finished battles.
type Store interface {
	// LoadPlayer returns false when no state is stored for id.
	LoadPlayer(ctx context.Context, id string) (model.PlayerState, bool, error)
	SavePlayer(ctx context.Context, id string, st model.PlayerState) error
	RecordBattle(ctx context.Context, rec db.BattleRecord) error
}

// PostgresStore is a Store backed by the db repositories.
type PostgresStore struct {
	players *db.PlayerRepository
	battles *db.BattleRepository
}

// NewPostgresStore wraps the repositories.
func NewPostgresStore(players *db.PlayerRepository, battles *db.BattleRepository) *PostgresStore {
	return &PostgresStore{players: players, battles: battles}
}

func (s *PostgresStore) LoadPlayer(ctx context.Context, id string) (model.PlayerState, bool, error) {
	st, err := s.players.Load(ctx, id)
	if errors.Is(err, db.ErrPlayerNotFound) {
		return model.PlayerState{}, false, nil
	}
	if err != nil {
		return model.PlayerState{}, false, err
	}
	return st, true, nil
}

func (s *PostgresStore) SavePlayer(ctx context.Context, id string, st model.PlayerState) error {
	return s.players.Save(ctx, id, st)
}

func (s *PostgresStore) RecordBattle(ctx context.Context, rec db.BattleRecord) error {
	return s.battles.Record(ctx, rec)
}

// MemoryStore keeps everything in process. Used when the database is disabled.
type MemoryStore struct {
	mu      sync.Mutex
	players map[string]model.PlayerState
	battles []db.BattleRecord
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{players: make(map[string]model.PlayerState)}
}

func (s *MemoryStore) LoadPlayer(_ context.Context, id string) (model.PlayerState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.players[id]
	return cloneState(st), ok, nil
}

func (s *MemoryStore) SavePlayer(_ context.Context, id string, st model.PlayerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[id] = cloneState(st)
	return nil
}

func (s *MemoryStore) RecordBattle(_ context.Context, rec db.BattleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[rec.PlayerID]; !ok {
		return fmt.Errorf("recording battle %s: %w", rec.ID, db.ErrPlayerNotFound)
	}
	s.battles = append(s.battles, rec)
	return nil
}

// Battles returns recorded battles in insertion order.
func (s *MemoryStore) Battles() []db.BattleRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.battles)
}

func cloneState(st model.PlayerState) model.PlayerState {
	st.Skills = maps.Clone(st.Skills)
	st.Ammo = maps.Clone(st.Ammo)
	st.Medical = maps.Clone(st.Medical)
	return st
}
