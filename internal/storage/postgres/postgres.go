// Package postgres persists encounter snapshots in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/skirmish/internal/config"
)

// ApplicationName identifies skirmish connections in pg_stat_activity.
const ApplicationName = "skirmish"

// Pool owns the pgx pool shared by the repositories.
type Pool struct {
	pool *pgxpool.Pool
}

// PoolConfig translates cfg into a pgxpool configuration without connecting.
//
// Postcondition: pool sizing and lifetime come from cfg and every connection
// reports ApplicationName.
func PoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	pc.MaxConns, pc.MinConns = cfg.MaxConns, cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	return pc, nil
}

// NewPool connects to the database described by cfg.
//
// Postcondition: a returned Pool has answered one ping; on error nothing is
// left open.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	pc, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	p := &Pool{pool: pool}
	if err := pool.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("pinging %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
	}
	return p, nil
}

// Health pings the database, giving up after timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close releases every connection. The Pool is unusable afterwards.
func (p *Pool) Close() { p.pool.Close() }

// DB exposes the pgx pool to repositories and tests.
func (p *Pool) DB() *pgxpool.Pool { return p.pool }

// Snapshots returns a SnapshotRepository over this pool.
func (p *Pool) Snapshots() *SnapshotRepository {
	return NewSnapshotRepository(p.pool)
}
