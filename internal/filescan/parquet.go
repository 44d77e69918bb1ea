package filescan

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/crossquery/crossquery/internal/qerror"
	"github.com/crossquery/crossquery/internal/storage"
)

func (s *Scanner) readParquet(ctx context.Context, key string) ([]record, error) {
	reader, err := s.Store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, qerror.New(qerror.KindSourceUnavailable, "file %q not found", key)
		}
		return nil, qerror.Wrap(qerror.KindSourceUnavailable, err, "open file %q", key)
	}
	data, err := io.ReadAll(reader)
	closeErr := reader.Close()
	if err != nil {
		return nil, qerror.Wrap(qerror.KindExecution, err, "read file %q", key)
	}
	if closeErr != nil {
		return nil, qerror.Wrap(qerror.KindExecution, closeErr, "close file %q", key)
	}

	file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, qerror.Wrap(qerror.KindExecution, err, "parse parquet file %q", key)
	}

	// Flat schemas only: leaf column index i maps to top-level field i.
	fields := file.Schema().Fields()
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = field.Name()
	}

	records := make([]record, 0)
	for _, rowGroup := range file.RowGroups() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		groupRecords, err := readRowGroup(rowGroup, names, key)
		if err != nil {
			return nil, err
		}
		records = append(records, groupRecords...)
	}
	return records, nil
}

func readRowGroup(rowGroup parquet.RowGroup, names []string, key string) ([]record, error) {
	rows := rowGroup.Rows()
	defer func() { _ = rows.Close() }()

	records := make([]record, 0, rowGroup.NumRows())
	buffer := make([]parquet.Row, 256)
	for {
		n, err := rows.ReadRows(buffer)
		for _, row := range buffer[:n] {
			rec := make(record, len(names))
			for _, value := range row {
				column := value.Column()
				if column < 0 || column >= len(names) {
					continue
				}
				rec[names[column]] = parquetValue(value)
			}
			records = append(records, rec)
		}
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, qerror.Wrap(qerror.KindExecution, err, "read parquet rows of %q", key)
		}
	}
}

func parquetValue(value parquet.Value) any {
	if value.IsNull() {
		return nil
	}
	switch value.Kind() {
	case parquet.Boolean:
		return value.Boolean()
	case parquet.Int32:
		return int64(value.Int32())
	case parquet.Int64:
		return value.Int64()
	case parquet.Float:
		return float64(value.Float())
	case parquet.Double:
		return value.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(value.ByteArray())
	default:
		return value.String()
	}
}
