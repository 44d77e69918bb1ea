package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/crossquery/crossquery/internal/connect"
	"github.com/crossquery/crossquery/internal/dialect"
	"github.com/crossquery/crossquery/internal/filescan"
	"github.com/crossquery/crossquery/internal/join"
	"github.com/crossquery/crossquery/internal/observability"
	"github.com/crossquery/crossquery/internal/plan"
	"github.com/crossquery/crossquery/internal/qerror"
	"github.com/crossquery/crossquery/internal/querydef"
	"github.com/crossquery/crossquery/internal/table"
)

// Report describes what an execution actually did: the statement sent
// to each connection, per-source row counts, any join key coercions
// and whether the result was capped.
type Report struct {
	SQL        map[string]string `json:"sql"`
	SourceRows map[string]int    `json:"source_rows"`
	Coercions  []join.Coercion   `json:"coercions,omitempty"`
	// TotalRows is the final row count before any soft cap was applied.
	TotalRows int           `json:"total_rows"`
	Truncated bool          `json:"truncated"`
	Duration  time.Duration `json:"duration"`
}

type Result struct {
	Table  table.Table
	Report Report
}

// Execute runs a definition end to end. Sub-queries fan out
// concurrently, bounded by Config.MaxConcurrency; the first failure
// cancels the rest. Results merge in declared join order, then the
// display columns are projected.
func (s *Service) Execute(ctx context.Context, def querydef.QueryDefinition, opts Options) (Result, error) {
	start := s.now()
	result, err := s.execute(ctx, def, opts)
	elapsed := time.Since(start)
	if err != nil {
		observability.ObserveExecution(string(qerror.KindOf(err)), elapsed)
		s.logWith(ctx).ErrorContext(ctx, "query execution failed",
			slog.String("query", def.Name),
			slog.Any("error", err),
		)
		return Result{}, err
	}
	result.Report.Duration = elapsed
	observability.ObserveExecution("ok", elapsed)
	s.logWith(ctx).InfoContext(ctx, "query executed",
		slog.String("query", def.Name),
		slog.Int("rows", result.Table.RowCount()),
		slog.Bool("truncated", result.Report.Truncated),
		slog.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (s *Service) execute(ctx context.Context, def querydef.QueryDefinition, opts Options) (Result, error) {
	if err := querydef.Validate(def); err != nil {
		return Result{}, err
	}
	conns, fileConns, err := s.resolveConnections(ctx, def)
	if err != nil {
		return Result{}, err
	}
	p, err := plan.Build(def, opts.RowLimit, fileConns)
	if err != nil {
		return Result{}, err
	}

	statements := make([]dialect.Statement, len(p.SubQueries))
	for i, sub := range p.SubQueries {
		stmt, err := renderSubQuery(conns[sub.ConnectionID].Dialect, sub)
		if err != nil {
			return Result{}, err
		}
		statements[i] = stmt
	}

	tables, err := s.fetchAll(ctx, p, conns, statements, opts)
	if err != nil {
		return Result{}, err
	}

	report := Report{
		SQL:        make(map[string]string, len(conns)),
		SourceRows: make(map[string]int, len(conns)),
	}
	for i, sub := range p.SubQueries {
		if existing, ok := report.SQL[sub.ConnectionID]; ok {
			report.SQL[sub.ConnectionID] = existing + "\n\n" + statements[i].SQL
		} else {
			report.SQL[sub.ConnectionID] = statements[i].SQL
		}
		report.SourceRows[sub.ConnectionID] += tables[i].RowCount()
	}

	merged := tables[0]
	for _, cross := range p.CrossJoins {
		next, coercions, err := join.Merge(merged, tables[cross.Right], cross.Type, cross.Keys)
		if err != nil {
			return Result{}, err
		}
		merged = next
		report.Coercions = append(report.Coercions, coercions...)
	}
	observability.AddJoinCoercions(len(report.Coercions))

	names := make([]string, len(def.Display))
	for i, field := range def.Display {
		names[i] = field.QualifiedName()
	}
	out, err := merged.Project(names)
	if err != nil {
		return Result{}, qerror.Wrap(qerror.KindExecution, err, "project display fields")
	}

	// The row limit was already pushed into the source for a
	// single-source plan; a multi-source plan limits after the join.
	if p.MultiSource() && opts.RowLimit > 0 {
		out = out.Truncate(opts.RowLimit)
	}

	report.TotalRows = out.RowCount()
	if s.Config.SoftRowCap > 0 && out.RowCount() > s.Config.SoftRowCap {
		out = out.Truncate(s.Config.SoftRowCap)
		report.Truncated = true
		observability.IncrementResultTruncated()
		s.logWith(ctx).WarnContext(ctx, "result exceeded soft row cap",
			slog.String("query", def.Name),
			slog.Int("total_rows", report.TotalRows),
			slog.Int("cap", s.Config.SoftRowCap),
		)
	}

	return Result{Table: out, Report: report}, nil
}

// fetchAll runs every sub-query, bounded by MaxConcurrency, and
// cancels the remainder as soon as one fails. Short-circuited
// sub-queries materialize an empty table without touching their
// connection.
func (s *Service) fetchAll(ctx context.Context, p plan.Plan, conns map[string]connect.Connection, statements []dialect.Statement, opts Options) ([]table.Table, error) {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := s.Config.MaxConcurrency
	if workers < 1 {
		workers = len(p.SubQueries)
	}

	tables := make([]table.Table, len(p.SubQueries))
	errs := make([]error, len(p.SubQueries))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := range p.SubQueries {
		sub := p.SubQueries[i]
		if sub.ShortCircuit {
			tables[i] = emptyTable(sub.Fields)
			continue
		}

		wg.Add(1)
		go func(i int, sub plan.SubQuery) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			tbl, err := s.fetchOne(fetchCtx, conns[sub.ConnectionID], sub, statements[i], opts)
			if err != nil {
				errs[i] = err
				cancel()
				return
			}
			tables[i] = tbl
		}(i, sub)
	}
	wg.Wait()

	// Prefer the root cause over cancellations it triggered.
	var firstErr error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
		if !qerror.IsKind(err, qerror.KindCancelled) {
			firstErr = err
			break
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, mapContextError(err, "")
	}
	return tables, nil
}

func (s *Service) fetchOne(ctx context.Context, conn connect.Connection, sub plan.SubQuery, stmt dialect.Statement, opts Options) (table.Table, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.Config.DefaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()
	var (
		tbl table.Table
		err error
	)
	if conn.Dialect.IsFile() {
		var scanner *filescan.Scanner
		scanner, err = filescan.NewScanner(conn.Files, conn.Dialect)
		if err == nil {
			tbl, err = scanner.Run(ctx, sub)
		}
	} else {
		tbl, err = connect.RunSQL(ctx, conn.DB, stmt, sub.Fields)
	}
	if err != nil {
		// Drivers surface their own cancellation errors; the live
		// context says whether this was a timeout or an abort.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return table.Table{}, mapContextError(ctxErr, conn.ID)
		}
		return table.Table{}, mapContextError(err, conn.ID)
	}
	observability.ObserveSubQuery(string(conn.Dialect), tbl.RowCount(), time.Since(started))
	s.logWith(ctx).DebugContext(ctx, "sub-query finished",
		slog.String("connection", conn.ID),
		slog.String("dialect", string(conn.Dialect)),
		slog.Int("rows", tbl.RowCount()),
	)
	return tbl, nil
}

func emptyTable(fields []querydef.FieldRef) table.Table {
	columns := make([]table.Column, len(fields))
	for i, field := range fields {
		columns[i] = table.Column{Name: field.QualifiedName(), Kind: string(field.Kind)}
	}
	return table.New(columns)
}
