package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/croplands/parcel-recon/internal/common"
	"github.com/croplands/parcel-recon/internal/entity"
)

const pgSchema = `CREATE TABLE IF NOT EXISTS snapshot (
    id       INTEGER PRIMARY KEY CHECK (id = 1),
    payload  TEXT NOT NULL,
    saved_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresGateway persists the snapshot in Postgres, for deployments where
// several collectors share one database server.
type PostgresGateway struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres creates a pgx pool and ensures the snapshot table exists.
func OpenPostgres(ctx context.Context, cfg common.SnapshotConfig, logger *slog.Logger) (*PostgresGateway, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("snapshot.postgres.connecting", "dsn", cfg.DSN)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "parcel-recon"

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	logger.Info("snapshot.postgres.open")
	return &PostgresGateway{pool: pool, logger: logger}, nil
}

// HealthCheck pings the pool to catch DSN issues early.
func (g *PostgresGateway) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return g.pool.Ping(ctx)
}

func (g *PostgresGateway) Save(ctx context.Context, snap entity.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = g.pool.Exec(ctx,
		`INSERT INTO snapshot (id, payload, saved_at) VALUES (1, $1, now())
		 ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, saved_at = EXCLUDED.saved_at`,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func (g *PostgresGateway) Load(ctx context.Context) (entity.Snapshot, bool, error) {
	var payload string
	err := g.pool.QueryRow(ctx, `SELECT payload FROM snapshot WHERE id = 1`).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
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

func (g *PostgresGateway) Clear(ctx context.Context) error {
	if _, err := g.pool.Exec(ctx, `DELETE FROM snapshot`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

func (g *PostgresGateway) Close() error {
	if g.pool != nil {
		g.pool.Close()
	}
	return nil
}
