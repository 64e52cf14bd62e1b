package snapshot

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/croplands/parcel-recon/internal/entity"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteGateway persists the snapshot in a single-row SQLite table.
type SQLiteGateway struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite creates or opens the snapshot database at path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout
//
// Safe to call against an existing database; schema creation is idempotent.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteGateway, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect snapshot db: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY on the save-after-every-mutation write pattern.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("snapshot.sqlite.open", "path", path)
	return &SQLiteGateway{db: db, logger: logger}, nil
}

func (g *SQLiteGateway) Save(ctx context.Context, snap entity.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = g.db.ExecContext(ctx,
		`INSERT INTO snapshot (id, payload, saved_at) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func (g *SQLiteGateway) Load(ctx context.Context) (entity.Snapshot, bool, error) {
	var payload string
	err := g.db.QueryRowContext(ctx, `SELECT payload FROM snapshot WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Snapshot{}, false, nil
	}
	if err != nil {
		return entity.Snapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}
	var snap entity.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return entity.Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

func (g *SQLiteGateway) Clear(ctx context.Context) error {
	if _, err := g.db.ExecContext(ctx, `DELETE FROM snapshot`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

func (g *SQLiteGateway) Close() error {
	if g.db == nil {
		return nil
	}
	return g.db.Close()
}
