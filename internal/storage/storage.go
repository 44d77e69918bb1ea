// Package storage abstracts where file-based sources (CSV, Parquet)
// keep their data: a local directory or an S3-compatible object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (ObjectInfo, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
}

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._ -]{0,127}$`)

// TableObjectKey maps a table reference to the object key of its
// backing file: "<schema>/<table>.<ext>", schema omitted when empty.
func TableObjectKey(schema, tableName, extension string) (string, error) {
	if !tableNamePattern.MatchString(tableName) {
		return "", fmt.Errorf("invalid table name: %q", tableName)
	}
	if schema != "" && !tableNamePattern.MatchString(schema) {
		return "", fmt.Errorf("invalid schema name: %q", schema)
	}
	fileName := tableName
	if !strings.HasSuffix(strings.ToLower(fileName), "."+extension) {
		fileName += "." + extension
	}
	if schema == "" {
		return fileName, nil
	}
	return path.Join(schema, fileName), nil
}
