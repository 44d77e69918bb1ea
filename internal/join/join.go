// Package join merges already-fetched result tables with relational
// equi-join semantics. The accumulated table absorbs one table per
// join spec, strictly in declared order, with explicit NULL and
// coercion rules. Joins are never reordered.
package join

import (
	"strings"

	"github.com/crossquery/crossquery/internal/qerror"
	"github.com/crossquery/crossquery/internal/querydef"
	"github.com/crossquery/crossquery/internal/table"
)

// Coercion records that a key pair compared with mismatched declared
// kinds and both sides were coerced to strings.
type Coercion struct {
	LeftField  string `json:"left_field"`
	RightField string `json:"right_field"`
	LeftKind   string `json:"left_kind"`
	RightKind  string `json:"right_kind"`
}

type keyColumn struct {
	leftIndex  int
	rightIndex int
	leftKind   querydef.DataKind
	rightKind  querydef.DataKind
	coerced    bool
}

// Merge joins next into the accumulated table. Output columns are the
// accumulated columns followed by next's columns. NULL key values
// never match any row, including another NULL, in any join type.
func Merge(acc, next table.Table, joinType querydef.JoinType, keys []querydef.JoinKey) (table.Table, []Coercion, error) {
	if len(keys) == 0 {
		return table.Table{}, nil, qerror.New(qerror.KindValidation, "join has no key pairs")
	}

	keyColumns := make([]keyColumn, 0, len(keys))
	var coercions []Coercion
	for _, key := range keys {
		leftIndex, err := acc.ColumnIndex(key.Left.QualifiedName())
		if err != nil {
			return table.Table{}, nil, qerror.Wrap(qerror.KindExecution, err, "resolve left join key")
		}
		rightIndex, err := next.ColumnIndex(key.Right.QualifiedName())
		if err != nil {
			return table.Table{}, nil, qerror.Wrap(qerror.KindExecution, err, "resolve right join key")
		}
		kc := keyColumn{
			leftIndex:  leftIndex,
			rightIndex: rightIndex,
			leftKind:   key.Left.Kind,
			rightKind:  key.Right.Kind,
			coerced:    key.Left.Kind != key.Right.Kind,
		}
		if kc.coerced {
			coercions = append(coercions, Coercion{
				LeftField:  key.Left.QualifiedName(),
				RightField: key.Right.QualifiedName(),
				LeftKind:   string(key.Left.Kind),
				RightKind:  string(key.Right.Kind),
			})
		}
		keyColumns = append(keyColumns, kc)
	}

	// Hash the incoming table by composite key.
	rightRows := make(map[string][]int, len(next.Rows))
	for i, row := range next.Rows {
		key, hasNull, err := compositeKey(row, keyColumns, rightSide)
		if err != nil {
			return table.Table{}, nil, err
		}
		if hasNull {
			continue
		}
		rightRows[key] = append(rightRows[key], i)
	}

	out := table.Table{
		Columns: append(append([]table.Column{}, acc.Columns...), next.Columns...),
		Rows:    make([][]any, 0, len(acc.Rows)),
	}
	keepUnmatchedLeft := joinType == querydef.JoinLeftOuter || joinType == querydef.JoinFullOuter
	keepUnmatchedRight := joinType == querydef.JoinRightOuter || joinType == querydef.JoinFullOuter

	matchedRight := make(map[int]bool)
	for _, row := range acc.Rows {
		key, hasNull, err := compositeKey(row, keyColumns, leftSide)
		if err != nil {
			return table.Table{}, nil, err
		}
		var matches []int
		if !hasNull {
			matches = rightRows[key]
		}
		if len(matches) == 0 {
			if keepUnmatchedLeft {
				out.Rows = append(out.Rows, paddedRow(row, nil, len(next.Columns)))
			}
			continue
		}
		for _, rightIndex := range matches {
			matchedRight[rightIndex] = true
			out.Rows = append(out.Rows, concatRows(row, next.Rows[rightIndex]))
		}
	}

	if keepUnmatchedRight {
		for i, row := range next.Rows {
			if matchedRight[i] {
				continue
			}
			out.Rows = append(out.Rows, paddedRow(nil, row, len(acc.Columns)))
		}
	}

	return out, coercions, nil
}

type side int

const (
	leftSide side = iota
	rightSide
)

// compositeKey canonicalizes the key columns of one row into a single
// comparable string. hasNull short-circuits matching entirely.
func compositeKey(row []any, keyColumns []keyColumn, s side) (string, bool, error) {
	var sb strings.Builder
	for _, kc := range keyColumns {
		index, kind := kc.leftIndex, kc.leftKind
		if s == rightSide {
			index, kind = kc.rightIndex, kc.rightKind
		}
		value := row[index]
		if value == nil {
			return "", true, nil
		}
		canonical, ok := canonicalKey(value, kind, kc.coerced)
		if !ok {
			return "", false, qerror.New(qerror.KindJoinTypeMismatch,
				"join key value %v (%T) has no unambiguous string form", value, value)
		}
		sb.WriteString(canonical)
		sb.WriteByte(0x1f)
	}
	return sb.String(), false, nil
}

func concatRows(left, right []any) []any {
	row := make([]any, 0, len(left)+len(right))
	row = append(row, left...)
	return append(row, right...)
}

func paddedRow(left, right []any, nullCount int) []any {
	nulls := make([]any, nullCount)
	if left == nil {
		return append(nulls, right...)
	}
	return append(append([]any{}, left...), nulls...)
}
