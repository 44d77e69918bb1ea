package crossqueryctl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/crossquery/crossquery/internal/config"
	"github.com/crossquery/crossquery/internal/connect"
	"github.com/crossquery/crossquery/internal/dialect"
	"github.com/crossquery/crossquery/internal/qerror"
	"github.com/crossquery/crossquery/internal/storage"
	"github.com/crossquery/crossquery/internal/storage/s3"
)

// connectionsFile is the on-disk registry of sources the CLI can
// reach. SQL sources carry a DSN; file sources carry either a local
// directory or an S3 section.
type connectionsFile struct {
	Connections []connectionSpec `json:"connections"`
}

type connectionSpec struct {
	ID      string         `json:"id"`
	Dialect dialect.Family `json:"dialect"`
	DSN     string         `json:"dsn,omitempty"`
	Dir     string         `json:"dir,omitempty"`
	S3      *s3Spec        `json:"s3,omitempty"`
}

type s3Spec struct {
	Endpoint        string `json:"endpoint"`
	Region          string `json:"region,omitempty"`
	Bucket          string `json:"bucket"`
	AccessKeyID     string `json:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty"`
	UseSSL          bool   `json:"use_ssl,omitempty"`
	Prefix          string `json:"prefix,omitempty"`
}

func loadConnectionsFile(path string) (connectionsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return connectionsFile{}, fmt.Errorf("read connections file: %w", err)
	}
	var file connectionsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return connectionsFile{}, fmt.Errorf("parse connections file %q: %w", path, err)
	}
	if len(file.Connections) == 0 {
		return connectionsFile{}, fmt.Errorf("connections file %q lists no connections", path)
	}
	return file, nil
}

// openManager opens every listed connection for execution.
func openManager(ctx context.Context, file connectionsFile, cfg config.Config) (*connect.StaticManager, func(), error) {
	opened := make([]connect.Connection, 0, len(file.Connections))
	var closers []func()
	closeAll := func() {
		for _, close := range closers {
			close()
		}
	}

	for _, spec := range file.Connections {
		conn, closer, err := openConnection(ctx, spec, cfg)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("connection %q: %w", spec.ID, err)
		}
		if closer != nil {
			closers = append(closers, closer)
		}
		opened = append(opened, conn)
	}

	manager, err := connect.NewStaticManager(opened...)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return manager, closeAll, nil
}

func openConnection(ctx context.Context, spec connectionSpec, cfg config.Config) (connect.Connection, func(), error) {
	if !spec.Dialect.Valid() {
		return connect.Connection{}, nil, fmt.Errorf("unknown dialect %q", spec.Dialect)
	}
	if !spec.Dialect.IsFile() {
		db, err := connect.OpenSQL(ctx, spec.Dialect, connect.SQLConfig{
			DSN:             spec.DSN,
			MaxOpenConns:    cfg.Engine.Pool.MaxOpenConns,
			MaxIdleConns:    cfg.Engine.Pool.MaxIdleConns,
			ConnMaxIdleTime: cfg.Engine.Pool.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.Engine.Pool.ConnMaxLifetime,
		})
		if err != nil {
			return connect.Connection{}, nil, err
		}
		return connect.Connection{ID: spec.ID, Dialect: spec.Dialect, DB: db},
			func() { _ = db.Close() }, nil
	}

	store, err := openFileStore(spec, cfg)
	if err != nil {
		return connect.Connection{}, nil, err
	}
	return connect.Connection{ID: spec.ID, Dialect: spec.Dialect, Files: store}, nil, nil
}

func openFileStore(spec connectionSpec, cfg config.Config) (storage.ObjectStore, error) {
	if spec.Dir != "" {
		return storage.NewDirStore(spec.Dir)
	}
	if spec.S3 != nil {
		return s3.New(s3.Config{
			Endpoint:        spec.S3.Endpoint,
			Region:          spec.S3.Region,
			Bucket:          spec.S3.Bucket,
			AccessKeyID:     spec.S3.AccessKeyID,
			SecretAccessKey: spec.S3.SecretAccessKey,
			UseSSL:          spec.S3.UseSSL,
			Prefix:          spec.S3.Prefix,
		})
	}
	// Fall back to the environment-configured object store.
	if cfg.ObjectStore.Endpoint != "" {
		return s3.New(s3.Config{
			Endpoint:        cfg.ObjectStore.Endpoint,
			Region:          cfg.ObjectStore.Region,
			Bucket:          cfg.ObjectStore.Bucket,
			AccessKeyID:     cfg.ObjectStore.AccessKeyID,
			SecretAccessKey: cfg.ObjectStore.SecretAccessKey,
			UseSSL:          cfg.ObjectStore.UseSSL,
			Prefix:          cfg.ObjectStore.Prefix,
		})
	}
	return nil, fmt.Errorf("file connection needs a dir or s3 section")
}

// dialectManager resolves connections by dialect only, without opening
// anything. SQL preview needs the family of each source, never a live
// handle.
type dialectManager struct {
	dialects map[string]dialect.Family
}

func newDialectManager(file connectionsFile) *dialectManager {
	m := &dialectManager{dialects: make(map[string]dialect.Family, len(file.Connections))}
	for _, spec := range file.Connections {
		m.dialects[spec.ID] = spec.Dialect
	}
	return m
}

func (m *dialectManager) Get(_ context.Context, id string) (connect.Connection, error) {
	family, ok := m.dialects[id]
	if !ok {
		return connect.Connection{}, qerror.New(qerror.KindSourceUnavailable, "unknown connection %q", id)
	}
	return connect.Connection{ID: id, Dialect: family}, nil
}
