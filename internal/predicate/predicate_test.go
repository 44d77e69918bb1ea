package predicate

import (
	"reflect"
	"testing"

	"github.com/crossquery/crossquery/internal/querydef"
)

func field(name string, kind querydef.DataKind) querydef.FieldRef {
	return querydef.FieldRef{
		Table: querydef.TableRef{ConnectionID: "erp", Table: "Orders"},
		Name:  name,
		Kind:  kind,
	}
}

func TestTranslateStringMatches(t *testing.T) {
	cases := []struct {
		match    querydef.MatchType
		wantExpr string
		wantArg  string
	}{
		{querydef.MatchExact, "{field} = ?", "north"},
		{querydef.MatchStartsWith, "{field} LIKE ?", "north%"},
		{querydef.MatchEndsWith, "{field} LIKE ?", "%north"},
		{querydef.MatchContains, "{field} LIKE ?", "%north%"},
	}
	for _, tc := range cases {
		p, err := Translate(querydef.StringCriterion{
			Field: field("Region", querydef.KindString),
			Match: tc.match,
			Value: "north",
		})
		if err != nil {
			t.Fatalf("Translate(%s) error = %v", tc.match, err)
		}
		if p.Expr != tc.wantExpr {
			t.Fatalf("Translate(%s) Expr = %q, want %q", tc.match, p.Expr, tc.wantExpr)
		}
		// Wildcards ride in the bound argument, never in the SQL text.
		if !reflect.DeepEqual(p.Args, []any{tc.wantArg}) {
			t.Fatalf("Translate(%s) Args = %v, want [%q]", tc.match, p.Args, tc.wantArg)
		}
	}
}

func TestTranslateNumericRange(t *testing.T) {
	p, err := Translate(querydef.NumericCriterion{
		Field: field("Amount", querydef.KindNumeric),
		Mode:  querydef.ModeRange,
		Low:   10,
		High:  500,
	})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if p.Expr != "{field} BETWEEN ? AND ?" {
		t.Fatalf("Expr = %q", p.Expr)
	}
	if !reflect.DeepEqual(p.Args, []any{10.0, 500.0}) {
		t.Fatalf("Args = %v", p.Args)
	}
}

func TestTranslateDateExact(t *testing.T) {
	p, err := Translate(querydef.DateCriterion{
		Field: field("Placed", querydef.KindDate),
		Mode:  querydef.ModeExact,
		Value: "2024-03-01",
	})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if p.Expr != "{field} = ?" {
		t.Fatalf("Expr = %q", p.Expr)
	}
	if !reflect.DeepEqual(p.Args, []any{"2024-03-01"}) {
		t.Fatalf("Args = %v", p.Args)
	}
}

func TestTranslateSetVariants(t *testing.T) {
	statusField := field("Status", querydef.KindSet)

	p, err := Translate(querydef.SetCriterion{
		Field:    statusField,
		Selected: []string{"open", "paid", "void"},
	})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if p.Expr != "{field} IN (?, ?, ?)" {
		t.Fatalf("Expr = %q", p.Expr)
	}
	if len(p.Args) != 3 {
		t.Fatalf("Args = %v", p.Args)
	}

	all, err := Translate(querydef.SetCriterion{Field: statusField, Special: querydef.SpecialAll})
	if err != nil {
		t.Fatalf("Translate(all) error = %v", err)
	}
	if !all.Omitted {
		t.Fatal("special=all should be omitted from the statement")
	}

	none, err := Translate(querydef.SetCriterion{Field: statusField, Special: querydef.SpecialNone})
	if err != nil {
		t.Fatalf("Translate(none) error = %v", err)
	}
	if !none.AlwaysFalse {
		t.Fatal("special=none should never match")
	}

	empty, err := Translate(querydef.SetCriterion{Field: statusField})
	if err != nil {
		t.Fatalf("Translate(empty) error = %v", err)
	}
	if !empty.AlwaysFalse {
		t.Fatal("empty selection should never match")
	}
}

func TestTranslateAllPreservesOrder(t *testing.T) {
	criteria := []querydef.Criterion{
		querydef.StringCriterion{Field: field("Region", querydef.KindString), Match: querydef.MatchExact, Value: "west"},
		querydef.NumericCriterion{Field: field("Amount", querydef.KindNumeric), Mode: querydef.ModeExact, Value: 7},
	}
	predicates, err := TranslateAll(criteria)
	if err != nil {
		t.Fatalf("TranslateAll() error = %v", err)
	}
	if len(predicates) != 2 {
		t.Fatalf("len = %d", len(predicates))
	}
	if predicates[0].Field.Name != "Region" || predicates[1].Field.Name != "Amount" {
		t.Fatalf("order = %s, %s", predicates[0].Field.Name, predicates[1].Field.Name)
	}
}
