package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/ludoengine/pkg/engine"
)

// Store persists game snapshots by session id.
type Store interface {
	Save(ctx context.Context, id string, state engine.GameState) error
	Load(ctx context.Context, id string) (engine.GameState, error)
	Delete(ctx context.Context, id string) error
}

// Config configures a Manager.
type Config struct {
	Logger  *zap.Logger        // nil disables logging
	Store   Store              // nil disables persistence
	NewDice func() engine.Dice // nil uses randomly seeded dice
}

// Manager owns the hosted sessions.
type Manager struct {
	logger  *zap.Logger
	store   Store
	newDice func() engine.Dice

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty manager.
func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.NewDice == nil {
		cfg.NewDice = func() engine.Dice { return engine.NewRandomDice(0) }
	}
	return &Manager{
		logger:   cfg.Logger,
		store:    cfg.Store,
		newDice:  cfg.NewDice,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new game for players players.
func (m *Manager) Create(players int) (*Session, error) {
	g, err := engine.NewGame(players, m.newDice())
	if err != nil {
		return nil, err
	}
	s := newSession(uuid.NewString(), g, m.logger)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logger.Info("game created", zap.String("game_id", s.id), zap.Int("players", players))
	return s, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Delete removes a session and closes its subscriptions.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.close()
	m.logger.Info("game deleted", zap.String("game_id", id))
	return nil
}

// IDs returns the ids of all hosted sessions, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of hosted sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Persistent reports whether a store is configured.
func (m *Manager) Persistent() bool {
	return m.store != nil
}

// Persist writes the session's snapshot to the store.
func (m *Manager) Persist(ctx context.Context, id string) (engine.GameState, error) {
	if m.store == nil {
		return engine.GameState{}, ErrStoreDisabled
	}
	s, err := m.Get(id)
	if err != nil {
		return engine.GameState{}, err
	}
	state := s.Save()
	if err := m.store.Save(ctx, id, state); err != nil {
		m.logger.Error("persist failed", zap.String("game_id", id), zap.Error(err))
		return engine.GameState{}, fmt.Errorf("persist %s: %w", id, err)
	}
	m.logger.Info("game persisted", zap.String("game_id", id))
	return state, nil
}

// Restore loads the stored snapshot for id. A hosted session is updated in
// place; otherwise a new session is created under the same id.
func (m *Manager) Restore(ctx context.Context, id string) (*Session, error) {
	if m.store == nil {
		return nil, ErrStoreDisabled
	}
	state, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", id, err)
	}

	if s, err := m.Get(id); err == nil {
		if err := s.Load(state); err != nil {
			return nil, err
		}
		return s, nil
	}

	g, err := engine.NewGame(len(state.Players), m.newDice())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrInvalidSnapshot, err)
	}
	s := newSession(id, g, m.logger)
	if err := s.Load(state); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if existing, ok := m.sessions[id]; ok {
		// Lost a race with another restore; keep the hosted one.
		m.mu.Unlock()
		return existing, existing.Load(state)
	}
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Info("game restored", zap.String("game_id", id))
	return s, nil
}

// Purge removes the stored snapshot for id. Hosted sessions are not touched.
func (m *Manager) Purge(ctx context.Context, id string) error {
	if m.store == nil {
		return ErrStoreDisabled
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("purge %s: %w", id, err)
	}
	m.logger.Info("snapshot purged", zap.String("game_id", id))
	return nil
}

// Close ends every session's subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}
