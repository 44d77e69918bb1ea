// Package filescan executes sub-queries against file-based sources
// (CSV, Parquet). There is no SQL engine behind these sources: filters
// run as a local row scan, projection keeps only the requested fields
// and the row limit is a post-read slice.
package filescan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crossquery/crossquery/internal/dialect"
	"github.com/crossquery/crossquery/internal/plan"
	"github.com/crossquery/crossquery/internal/qerror"
	"github.com/crossquery/crossquery/internal/querydef"
	"github.com/crossquery/crossquery/internal/storage"
	"github.com/crossquery/crossquery/internal/table"
)

// record is one raw file row keyed by bare column name.
type record map[string]any

type Scanner struct {
	Store  storage.ObjectStore
	Format dialect.Family
}

func NewScanner(store storage.ObjectStore, format dialect.Family) (*Scanner, error) {
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if !format.IsFile() {
		return nil, fmt.Errorf("family %q is not file-based", format)
	}
	return &Scanner{Store: store, Format: format}, nil
}

func (s *Scanner) Run(ctx context.Context, sub plan.SubQuery) (table.Table, error) {
	if len(sub.Joins) > 0 {
		return table.Table{}, qerror.New(qerror.KindExecution,
			"file source %s cannot evaluate joins", sub.From.Table)
	}

	extension := "csv"
	if s.Format == dialect.FamilyParquet {
		extension = "parquet"
	}
	key, err := storage.TableObjectKey(sub.From.Schema, sub.From.Table, extension)
	if err != nil {
		return table.Table{}, qerror.Wrap(qerror.KindValidation, err, "resolve file for table %s", sub.From.Table)
	}
	// Cheap existence check before pulling the whole object.
	if _, err := s.Store.Stat(ctx, key); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return table.Table{}, qerror.New(qerror.KindSourceUnavailable, "file %q not found", key)
		}
		return table.Table{}, qerror.Wrap(qerror.KindSourceUnavailable, err, "stat file %q", key)
	}

	var records []record
	switch s.Format {
	case dialect.FamilyCSV:
		records, err = s.readCSV(ctx, key)
	case dialect.FamilyParquet:
		records, err = s.readParquet(ctx, key)
	default:
		return table.Table{}, fmt.Errorf("unsupported file format %q", s.Format)
	}
	if err != nil {
		return table.Table{}, err
	}

	columns := make([]table.Column, 0, len(sub.Fields))
	for _, field := range sub.Fields {
		columns = append(columns, table.Column{Name: field.QualifiedName(), Kind: string(field.Kind)})
	}
	out := table.New(columns)

	for _, rec := range records {
		keep, err := matchesAll(rec, sub.Criteria)
		if err != nil {
			return table.Table{}, err
		}
		if !keep {
			continue
		}
		row := make([]any, len(sub.Fields))
		for i, field := range sub.Fields {
			value, ok := rec[field.Name]
			if !ok {
				return table.Table{}, qerror.New(qerror.KindExecution,
					"column %q not present in file backing table %s", field.Name, sub.From.Table)
			}
			row[i] = coerceKind(value, field.Kind)
		}
		out.Rows = append(out.Rows, row)
		if sub.RowLimit > 0 && len(out.Rows) >= sub.RowLimit {
			break
		}
	}
	return out, nil
}

// coerceKind normalizes a raw file value to the declared data kind.
// Unparseable values become NULL rather than failing the whole scan.
func coerceKind(value any, kind querydef.DataKind) any {
	if value == nil {
		return nil
	}
	switch kind {
	case querydef.KindNumeric:
		return toNumber(value)
	case querydef.KindDate:
		return toDate(value)
	default:
		return toText(value)
	}
}

func toText(value any) any {
	switch typed := value.(type) {
	case string:
		return typed
	case []byte:
		return string(typed)
	default:
		return fmt.Sprintf("%v", typed)
	}
}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

func toDate(value any) any {
	switch typed := value.(type) {
	case time.Time:
		return typed
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return nil
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				return parsed
			}
		}
		return nil
	default:
		return nil
	}
}
