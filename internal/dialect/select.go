package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/crossquery/crossquery/internal/predicate"
	"github.com/crossquery/crossquery/internal/querydef"
)

// SelectInput is a sub-query already confined to one connection: its
// FROM/JOINs, the fields to fetch and the predicates pushed down to it.
type SelectInput struct {
	From       querydef.TableRef
	Joins      []querydef.JoinSpec
	Fields     []querydef.FieldRef
	Predicates []predicate.Predicate
	RowLimit   int
}

// Statement is a rendered statement with its bound arguments.
type Statement struct {
	SQL  string
	Args []any
}

var joinKeywords = map[querydef.JoinType]string{
	querydef.JoinInner:      "INNER JOIN",
	querydef.JoinLeftOuter:  "LEFT OUTER JOIN",
	querydef.JoinRightOuter: "RIGHT OUTER JOIN",
	querydef.JoinFullOuter:  "FULL OUTER JOIN",
}

// BuildSelect renders the SELECT for one sub-query in the given
// family's syntax. Predicates are AND-ed in insertion order.
func BuildSelect(family Family, in SelectInput) (Statement, error) {
	style, err := family.limitStyle()
	if err != nil {
		return Statement{}, err
	}
	if len(in.Fields) == 0 {
		return Statement{}, fmt.Errorf("sub-query on %s has no fields to select", in.From.Table)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if style == limitTop && in.RowLimit > 0 {
		sb.WriteString("TOP ")
		sb.WriteString(strconv.Itoa(in.RowLimit))
		sb.WriteString(" ")
	}

	for i, field := range in.Fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(field.QualifiedName())
	}

	sb.WriteString(" FROM ")
	sb.WriteString(tableReference(in.From))

	for _, join := range in.Joins {
		keyword, ok := joinKeywords[join.Type]
		if !ok {
			return Statement{}, fmt.Errorf("unknown join type %q", join.Type)
		}
		sb.WriteString(" ")
		sb.WriteString(keyword)
		sb.WriteString(" ")
		sb.WriteString(tableReference(join.Right))
		sb.WriteString(" ON ")
		for i, key := range join.Keys {
			if i > 0 {
				sb.WriteString(" AND ")
			}
			sb.WriteString(key.Left.QualifiedName())
			sb.WriteString(" = ")
			sb.WriteString(key.Right.QualifiedName())
		}
	}

	args := make([]any, 0)
	clauses := make([]string, 0, len(in.Predicates))
	for _, pred := range in.Predicates {
		switch {
		case pred.Omitted:
			continue
		case pred.AlwaysFalse:
			clauses = append(clauses, "FALSE")
		default:
			clauses = append(clauses, strings.ReplaceAll(pred.Expr, "{field}", pred.Field.QualifiedName()))
			args = append(args, pred.Args...)
		}
	}
	if len(clauses) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(clauses, " AND "))
	}

	if style == limitTrailing && in.RowLimit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(in.RowLimit))
	}

	sqlText := sb.String()
	if family.placeholderNumbered() {
		sqlText = numberPlaceholders(sqlText)
	}
	return Statement{SQL: sqlText, Args: args}, nil
}

// DescribeFileScan is the preview text for file-based sources, which
// never receive SQL.
func DescribeFileScan(family Family, in SelectInput) string {
	return fmt.Sprintf("-- %s file scan of %s (%d fields, %d filters applied locally)",
		family, in.From.Table, len(in.Fields), countBoundPredicates(in.Predicates))
}

func countBoundPredicates(predicates []predicate.Predicate) int {
	n := 0
	for _, pred := range predicates {
		if !pred.Omitted {
			n++
		}
	}
	return n
}

func tableReference(ref querydef.TableRef) string {
	if ref.Schema != "" {
		return ref.Schema + "." + ref.Table
	}
	return ref.Table
}

// numberPlaceholders rewrites positional ? markers to $1..$n. The
// generated SQL never contains a literal question mark elsewhere
// because values are always parameter-bound.
func numberPlaceholders(sqlText string) string {
	var sb strings.Builder
	n := 0
	for _, r := range sqlText {
		if r == '?' {
			n++
			sb.WriteString("$")
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
