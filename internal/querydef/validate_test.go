package querydef

import (
	"strings"
	"testing"

	"github.com/crossquery/crossquery/internal/qerror"
)

func validDefinition() QueryDefinition {
	lines := TableRef{ConnectionID: "erp", Schema: "sales", Table: "Lines"}
	return QueryDefinition{
		From: ordersTable(),
		Joins: []JoinSpec{{
			Type:  JoinInner,
			Right: lines,
			Keys: []JoinKey{{
				Left:  ordersField("Id", KindNumeric),
				Right: FieldRef{Table: lines, Name: "OrderId", Kind: KindNumeric},
			}},
		}},
		Display: []FieldRef{
			ordersField("Id", KindNumeric),
			{Table: lines, Name: "Sku", Kind: KindString},
		},
		Criteria: []Criterion{
			NumericCriterion{Field: ordersField("Amount", KindNumeric), Mode: ModeExact, Value: 42},
		},
	}
}

func TestValidateAcceptsWellFormedDefinition(t *testing.T) {
	if err := Validate(validDefinition()); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	stray := TableRef{ConnectionID: "erp", Table: "Stray"}

	cases := []struct {
		name    string
		mutate  func(*QueryDefinition)
		message string
	}{
		{
			name:    "missing from",
			mutate:  func(d *QueryDefinition) { d.From = TableRef{} },
			message: "no FROM table",
		},
		{
			name:    "no display fields",
			mutate:  func(d *QueryDefinition) { d.Display = nil },
			message: "no display fields",
		},
		{
			name: "duplicate join",
			mutate: func(d *QueryDefinition) {
				d.Joins = append(d.Joins, d.Joins[0])
			},
			message: "joined more than once",
		},
		{
			name: "join without keys",
			mutate: func(d *QueryDefinition) {
				d.Joins[0].Keys = nil
			},
			message: "no key pairs",
		},
		{
			name: "left key table not reachable",
			mutate: func(d *QueryDefinition) {
				d.Joins[0].Keys[0].Left.Table = stray
			},
			message: "before that table is part of the query",
		},
		{
			name: "right key outside joined table",
			mutate: func(d *QueryDefinition) {
				d.Joins[0].Keys[0].Right.Table = d.From
			},
			message: "does not belong to joined table",
		},
		{
			name: "display field on unknown table",
			mutate: func(d *QueryDefinition) {
				d.Display[0].Table = stray
			},
			message: "display field",
		},
		{
			name: "criterion on unknown table",
			mutate: func(d *QueryDefinition) {
				d.Criteria[0] = NumericCriterion{
					Field: FieldRef{Table: stray, Name: "X", Kind: KindNumeric},
					Mode:  ModeExact,
				}
			},
			message: "criterion on",
		},
		{
			name: "criterion variant does not match field kind",
			mutate: func(d *QueryDefinition) {
				d.Criteria[0] = StringCriterion{
					Field: ordersField("Amount", KindNumeric),
					Match: MatchExact,
					Value: "42",
				}
			},
			message: "string filter but the field is declared numeric",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			def := validDefinition()
			tc.mutate(&def)
			err := Validate(def)
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !qerror.IsKind(err, qerror.KindValidation) {
				t.Fatalf("error kind = %q, want validation", qerror.KindOf(err))
			}
			if !strings.Contains(err.Error(), tc.message) {
				t.Fatalf("error = %q, want substring %q", err.Error(), tc.message)
			}
		})
	}
}
