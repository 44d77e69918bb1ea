package filescan

import (
	"context"
	"encoding/csv"
	"errors"
	"io"

	"github.com/crossquery/crossquery/internal/qerror"
	"github.com/crossquery/crossquery/internal/storage"
)

func (s *Scanner) readCSV(ctx context.Context, key string) ([]record, error) {
	reader, err := s.Store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, qerror.New(qerror.KindSourceUnavailable, "file %q not found", key)
		}
		return nil, qerror.Wrap(qerror.KindSourceUnavailable, err, "open file %q", key)
	}
	defer func() { _ = reader.Close() }()

	parser := csv.NewReader(reader)
	parser.ReuseRecord = false

	header, err := parser.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, qerror.New(qerror.KindExecution, "file %q is empty", key)
		}
		return nil, qerror.Wrap(qerror.KindExecution, err, "read header of %q", key)
	}

	records := make([]record, 0)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := parser.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, qerror.Wrap(qerror.KindExecution, err, "read row %d of %q", len(records)+2, key)
		}
		if len(row) != len(header) {
			return nil, qerror.New(qerror.KindExecution,
				"row %d of %q has %d values, expected %d", len(records)+2, key, len(row), len(header))
		}
		rec := make(record, len(header))
		for i, name := range header {
			rec[name] = row[i]
		}
		records = append(records, rec)
	}
	return records, nil
}
