// Package store persists game snapshots in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/yourusername/ludoengine/pkg/engine"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned when no snapshot exists for an id.
var ErrNotFound = errors.New("snapshot not found")

// Store is a SQLite backed snapshot store. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Summary describes a stored snapshot without its pieces.
type Summary struct {
	ID            string    `json:"id"`
	Players       int       `json:"players"`
	CurrentPlayer int       `json:"currentPlayer"`
	WinnerID      *int      `json:"winnerId"`
	SavedAt       time.Time `json:"savedAt"`
}

// Open opens (or creates) the database at path and applies migrations.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("snapshot store opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// migrateUp applies all embedded up migrations.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return err
	}
	// m.Close would close db through the driver; only the source is released.
	defer src.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes the snapshot for id, replacing any previous one.
func (s *Store) Save(ctx context.Context, id string, state engine.GameState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	var winner sql.NullInt64
	if state.WinnerID != nil {
		winner = sql.NullInt64{Int64: int64(*state.WinnerID), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, players, current_player, winner_id, state, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			players = excluded.players,
			current_player = excluded.current_player,
			winner_id = excluded.winner_id,
			state = excluded.state,
			saved_at = excluded.saved_at`,
		id, len(state.Players), state.CurrentPlayer, winner, string(data),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", id, err)
	}
	s.logger.Debug("snapshot saved", zap.String("game_id", id), zap.Int("bytes", len(data)))
	return nil
}

// Load reads the snapshot for id.
func (s *Store) Load(ctx context.Context, id string) (engine.GameState, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM snapshots WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.GameState{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return engine.GameState{}, fmt.Errorf("load snapshot %s: %w", id, err)
	}

	var state engine.GameState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return engine.GameState{}, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return state, nil
}

// List returns summaries of all snapshots, most recent first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, players, current_player, winner_id, saved_at
		FROM snapshots
		ORDER BY saved_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			winner  sql.NullInt64
			savedAt string
		)
		if err := rows.Scan(&sum.ID, &sum.Players, &sum.CurrentPlayer, &winner, &savedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if winner.Valid {
			w := int(winner.Int64)
			sum.WinnerID = &w
		}
		sum.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes the snapshot for id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
