// Package connect owns the connection surface the engine consumes: a
// Manager hands out borrowed connections by id, each carrying its
// backend family and either a live database handle or a file store.
// Pooling, credentials and lifetime limits belong to whoever built the
// handle, not to this engine.
package connect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/crossquery/crossquery/internal/dialect"
	"github.com/crossquery/crossquery/internal/qerror"
	"github.com/crossquery/crossquery/internal/storage"
)

type Connection struct {
	ID      string
	Dialect dialect.Family

	// DB is set for SQL families, Files for file families.
	DB    *sql.DB
	Files storage.ObjectStore
}

func (c Connection) validate() error {
	if c.ID == "" {
		return fmt.Errorf("connection id is required")
	}
	if !c.Dialect.Valid() {
		return fmt.Errorf("connection %s has unknown dialect %q", c.ID, c.Dialect)
	}
	if c.Dialect.IsFile() {
		if c.Files == nil {
			return fmt.Errorf("file connection %s has no object store", c.ID)
		}
		return nil
	}
	if c.DB == nil {
		return fmt.Errorf("connection %s has no database handle", c.ID)
	}
	return nil
}

// Manager resolves connection ids to live connections.
type Manager interface {
	Get(ctx context.Context, id string) (Connection, error)
}

// StaticManager serves a fixed set of connections. The CLI and tests
// use it; an embedding application can provide its own pooled Manager.
type StaticManager struct {
	connections map[string]Connection
}

func NewStaticManager(connections ...Connection) (*StaticManager, error) {
	m := &StaticManager{connections: make(map[string]Connection, len(connections))}
	for _, conn := range connections {
		if err := conn.validate(); err != nil {
			return nil, err
		}
		if _, exists := m.connections[conn.ID]; exists {
			return nil, fmt.Errorf("duplicate connection id %q", conn.ID)
		}
		m.connections[conn.ID] = conn
	}
	return m, nil
}

func (m *StaticManager) Get(_ context.Context, id string) (Connection, error) {
	conn, ok := m.connections[id]
	if !ok {
		return Connection{}, qerror.New(qerror.KindSourceUnavailable, "unknown connection %q", id)
	}
	return conn, nil
}

type SQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// OpenSQL opens and pings a database handle for a SQL family.
func OpenSQL(ctx context.Context, family dialect.Family, cfg SQLConfig) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	driver, err := family.DriverName()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", family, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s connection: %w", family, err)
	}
	return db, nil
}
