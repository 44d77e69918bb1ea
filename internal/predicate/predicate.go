// Package predicate translates filter criteria into dialect-neutral
// predicate templates with parameter-bound values. Values never get
// concatenated into SQL text.
package predicate

import (
	"fmt"
	"strings"

	"github.com/crossquery/crossquery/internal/qerror"
	"github.com/crossquery/crossquery/internal/querydef"
)

// Predicate is one WHERE-clause fragment. Expr uses "{field}" for the
// dialect-rendered column reference and "?" for each bound argument;
// the dialect generator rewrites both when assembling a statement.
type Predicate struct {
	Field querydef.FieldRef
	Expr  string
	Args  []any

	// AlwaysFalse marks a predicate that can never match; the planner
	// short-circuits the owning sub-query without touching the
	// connection. Omitted marks a no-restriction predicate that is
	// dropped from the statement.
	AlwaysFalse bool
	Omitted     bool
}

// Translate maps one criterion variant to its predicate template.
func Translate(criterion querydef.Criterion) (Predicate, error) {
	switch c := criterion.(type) {
	case querydef.StringCriterion:
		return translateString(c)
	case querydef.NumericCriterion:
		return translateNumeric(c)
	case querydef.DateCriterion:
		return translateDate(c)
	case querydef.SetCriterion:
		return translateSet(c)
	default:
		return Predicate{}, qerror.New(qerror.KindValidation, "unsupported criterion type %T", criterion)
	}
}

func translateString(c querydef.StringCriterion) (Predicate, error) {
	switch c.Match {
	case querydef.MatchExact:
		return Predicate{Field: c.Field, Expr: "{field} = ?", Args: []any{c.Value}}, nil
	case querydef.MatchStartsWith:
		return Predicate{Field: c.Field, Expr: "{field} LIKE ?", Args: []any{c.Value + "%"}}, nil
	case querydef.MatchEndsWith:
		return Predicate{Field: c.Field, Expr: "{field} LIKE ?", Args: []any{"%" + c.Value}}, nil
	case querydef.MatchContains:
		return Predicate{Field: c.Field, Expr: "{field} LIKE ?", Args: []any{"%" + c.Value + "%"}}, nil
	default:
		return Predicate{}, qerror.New(qerror.KindValidation, "unknown string match type %q on %s", c.Match, c.Field.QualifiedName())
	}
}

func translateNumeric(c querydef.NumericCriterion) (Predicate, error) {
	switch c.Mode {
	case querydef.ModeExact:
		return Predicate{Field: c.Field, Expr: "{field} = ?", Args: []any{c.Value}}, nil
	case querydef.ModeRange:
		// BETWEEN is inclusive on both ends.
		return Predicate{Field: c.Field, Expr: "{field} BETWEEN ? AND ?", Args: []any{c.Low, c.High}}, nil
	default:
		return Predicate{}, qerror.New(qerror.KindValidation, "unknown numeric mode %q on %s", c.Mode, c.Field.QualifiedName())
	}
}

func translateDate(c querydef.DateCriterion) (Predicate, error) {
	switch c.Mode {
	case querydef.ModeExact:
		return Predicate{Field: c.Field, Expr: "{field} = ?", Args: []any{c.Value}}, nil
	case querydef.ModeRange:
		return Predicate{Field: c.Field, Expr: "{field} BETWEEN ? AND ?", Args: []any{c.Start, c.End}}, nil
	default:
		return Predicate{}, qerror.New(qerror.KindValidation, "unknown date mode %q on %s", c.Mode, c.Field.QualifiedName())
	}
}

func translateSet(c querydef.SetCriterion) (Predicate, error) {
	switch c.Special {
	case querydef.SpecialAll:
		return Predicate{Field: c.Field, Omitted: true}, nil
	case querydef.SpecialNone:
		return Predicate{Field: c.Field, AlwaysFalse: true}, nil
	case querydef.SpecialNormal, "":
		if len(c.Selected) == 0 {
			// Nothing selected restricts to nothing.
			return Predicate{Field: c.Field, AlwaysFalse: true}, nil
		}
		markers := strings.TrimSuffix(strings.Repeat("?, ", len(c.Selected)), ", ")
		args := make([]any, 0, len(c.Selected))
		for _, value := range c.Selected {
			args = append(args, value)
		}
		return Predicate{Field: c.Field, Expr: fmt.Sprintf("{field} IN (%s)", markers), Args: args}, nil
	default:
		return Predicate{}, qerror.New(qerror.KindValidation, "unknown set special %q on %s", c.Special, c.Field.QualifiedName())
	}
}

// TranslateAll translates every criterion, preserving insertion order.
func TranslateAll(criteria []querydef.Criterion) ([]Predicate, error) {
	predicates := make([]Predicate, 0, len(criteria))
	for _, criterion := range criteria {
		p, err := Translate(criterion)
		if err != nil {
			return nil, err
		}
		predicates = append(predicates, p)
	}
	return predicates, nil
}
