// Package engine is the execution facade: it validates a definition,
// plans it into per-source sub-queries, fans those out concurrently,
// merges cross-source results in memory and materializes the display
// columns. Callers never see SQL unless they ask for a preview.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/crossquery/crossquery/internal/connect"
	"github.com/crossquery/crossquery/internal/dialect"
	"github.com/crossquery/crossquery/internal/observability"
	"github.com/crossquery/crossquery/internal/plan"
	"github.com/crossquery/crossquery/internal/qerror"
	"github.com/crossquery/crossquery/internal/querydef"
)

type Config struct {
	// MaxConcurrency bounds in-flight sub-queries per execution.
	MaxConcurrency int
	// DefaultTimeout applies per sub-query when Options.Timeout is
	// unset.
	DefaultTimeout time.Duration
	// SoftRowCap flags (and caps) results larger than this many rows.
	// Zero disables the cap.
	SoftRowCap int
}

type Service struct {
	Connections connect.Manager
	Config      Config
	Logger      *slog.Logger
	Clock       func() time.Time
}

// Options are per-execution knobs.
type Options struct {
	// RowLimit caps the result. On a single-source query it is pushed
	// into the source; on a multi-source query it applies after the
	// join, because limiting one side would drop matches.
	RowLimit int
	// Timeout applies to each sub-query. Zero means Config.DefaultTimeout.
	Timeout time.Duration
}

// Validate checks a definition without touching any source.
func (s *Service) Validate(def querydef.QueryDefinition) error {
	return querydef.Validate(def)
}

// BuildSQLPreview renders the statement each connection would receive,
// keyed by connection id. File-based sources get a scan description
// instead of SQL. Nothing is executed.
func (s *Service) BuildSQLPreview(ctx context.Context, def querydef.QueryDefinition) (map[string]string, error) {
	if err := querydef.Validate(def); err != nil {
		return nil, err
	}
	conns, fileConns, err := s.resolveConnections(ctx, def)
	if err != nil {
		return nil, err
	}
	p, err := plan.Build(def, 0, fileConns)
	if err != nil {
		return nil, err
	}

	preview := make(map[string]string, len(conns))
	for _, sub := range p.SubQueries {
		conn := conns[sub.ConnectionID]
		stmt, err := renderSubQuery(conn.Dialect, sub)
		if err != nil {
			return nil, err
		}
		if existing, ok := preview[sub.ConnectionID]; ok {
			preview[sub.ConnectionID] = existing + "\n\n" + stmt.SQL
		} else {
			preview[sub.ConnectionID] = stmt.SQL
		}
	}
	return preview, nil
}

func (s *Service) resolveConnections(ctx context.Context, def querydef.QueryDefinition) (map[string]connect.Connection, map[string]bool, error) {
	conns := make(map[string]connect.Connection)
	fileConns := make(map[string]bool)
	for _, id := range def.ConnectionIDs() {
		conn, err := s.Connections.Get(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		conns[id] = conn
		if conn.Dialect.IsFile() {
			fileConns[id] = true
		}
	}
	return conns, fileConns, nil
}

func renderSubQuery(family dialect.Family, sub plan.SubQuery) (dialect.Statement, error) {
	in := dialect.SelectInput{
		From:       sub.From,
		Joins:      sub.Joins,
		Fields:     sub.Fields,
		Predicates: sub.Predicates,
		RowLimit:   sub.RowLimit,
	}
	if family.IsFile() {
		return dialect.Statement{SQL: dialect.DescribeFileScan(family, in)}, nil
	}
	return dialect.BuildSelect(family, in)
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *Service) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// logWith attaches the caller's trace id, when the context carries
// one, so engine log lines correlate with the embedding application.
func (s *Service) logWith(ctx context.Context) *slog.Logger {
	logger := s.log()
	if traceID := observability.TraceIDFromContext(ctx); traceID != "" {
		logger = logger.With(slog.String("trace_id", traceID))
	}
	return logger
}

// mapContextError rewrites context failures into the engine's error
// taxonomy so callers can tell a slow source from a caller abort.
func mapContextError(err error, connectionID string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return qerror.Wrap(qerror.KindTimeout, err, "sub-query against %q timed out", connectionID)
	case errors.Is(err, context.Canceled):
		return qerror.Wrap(qerror.KindCancelled, err, "sub-query against %q cancelled", connectionID)
	default:
		return err
	}
}
