package dialect

import (
	"reflect"
	"strings"
	"testing"

	"github.com/crossquery/crossquery/internal/predicate"
	"github.com/crossquery/crossquery/internal/querydef"
)

func customers() querydef.TableRef {
	return querydef.TableRef{ConnectionID: "crm", Table: "Customers"}
}

func customersField(name string, kind querydef.DataKind) querydef.FieldRef {
	return querydef.FieldRef{Table: customers(), Name: name, Kind: kind}
}

func stateEquals(value string) predicate.Predicate {
	return predicate.Predicate{
		Field: customersField("State", querydef.KindString),
		Expr:  "{field} = ?",
		Args:  []any{value},
	}
}

func TestBuildSelectTopFamilies(t *testing.T) {
	in := SelectInput{
		From: customers(),
		Fields: []querydef.FieldRef{
			customersField("Name", querydef.KindString),
			customersField("Email", querydef.KindString),
		},
		Predicates: []predicate.Predicate{stateEquals("CA")},
		RowLimit:   100,
	}

	for _, family := range []Family{FamilySQLServer, FamilyAccess} {
		stmt, err := BuildSelect(family, in)
		if err != nil {
			t.Fatalf("BuildSelect(%s) error = %v", family, err)
		}
		want := "SELECT TOP 100 Customers.Name, Customers.Email FROM Customers WHERE Customers.State = ?"
		if stmt.SQL != want {
			t.Fatalf("BuildSelect(%s) = %q, want %q", family, stmt.SQL, want)
		}
		if !reflect.DeepEqual(stmt.Args, []any{"CA"}) {
			t.Fatalf("Args = %v", stmt.Args)
		}
	}
}

func TestBuildSelectTrailingLimitFamilies(t *testing.T) {
	in := SelectInput{
		From:     customers(),
		Fields:   []querydef.FieldRef{customersField("Name", querydef.KindString)},
		RowLimit: 50,
	}

	for _, family := range []Family{FamilyDB2, FamilyMySQL, FamilySQLite, FamilyDuckDB} {
		stmt, err := BuildSelect(family, in)
		if err != nil {
			t.Fatalf("BuildSelect(%s) error = %v", family, err)
		}
		if !strings.HasSuffix(stmt.SQL, " LIMIT 50") {
			t.Fatalf("BuildSelect(%s) = %q, want trailing LIMIT", family, stmt.SQL)
		}
		if strings.Contains(stmt.SQL, "FETCH") {
			t.Fatalf("BuildSelect(%s) = %q, FETCH FIRST must never be emitted", family, stmt.SQL)
		}
		if strings.Contains(stmt.SQL, "TOP") {
			t.Fatalf("BuildSelect(%s) = %q, TOP belongs to other families", family, stmt.SQL)
		}
	}
}

func TestBuildSelectPostgresNumbersPlaceholders(t *testing.T) {
	in := SelectInput{
		From:   customers(),
		Fields: []querydef.FieldRef{customersField("Name", querydef.KindString)},
		Predicates: []predicate.Predicate{
			stateEquals("CA"),
			{
				Field: customersField("Score", querydef.KindNumeric),
				Expr:  "{field} BETWEEN ? AND ?",
				Args:  []any{1.0, 9.0},
			},
		},
		RowLimit: 10,
	}

	stmt, err := BuildSelect(FamilyPostgres, in)
	if err != nil {
		t.Fatalf("BuildSelect() error = %v", err)
	}
	want := "SELECT Customers.Name FROM Customers WHERE Customers.State = $1 AND Customers.Score BETWEEN $2 AND $3 LIMIT 10"
	if stmt.SQL != want {
		t.Fatalf("SQL = %q, want %q", stmt.SQL, want)
	}
	if len(stmt.Args) != 3 {
		t.Fatalf("Args = %v", stmt.Args)
	}
}

func TestBuildSelectRendersLocalJoins(t *testing.T) {
	lines := querydef.TableRef{ConnectionID: "crm", Schema: "sales", Table: "Lines"}
	in := SelectInput{
		From: customers(),
		Joins: []querydef.JoinSpec{{
			Type:  querydef.JoinLeftOuter,
			Right: lines,
			Keys: []querydef.JoinKey{
				{
					Left:  customersField("Id", querydef.KindNumeric),
					Right: querydef.FieldRef{Table: lines, Name: "CustomerId", Kind: querydef.KindNumeric},
				},
				{
					Left:  customersField("Region", querydef.KindString),
					Right: querydef.FieldRef{Table: lines, Name: "Region", Kind: querydef.KindString},
				},
			},
		}},
		Fields: []querydef.FieldRef{
			customersField("Name", querydef.KindString),
			{Table: lines, Name: "Sku", Kind: querydef.KindString},
		},
	}

	stmt, err := BuildSelect(FamilyMySQL, in)
	if err != nil {
		t.Fatalf("BuildSelect() error = %v", err)
	}
	want := "SELECT Customers.Name, Lines.Sku FROM Customers" +
		" LEFT OUTER JOIN sales.Lines ON Customers.Id = Lines.CustomerId AND Customers.Region = Lines.Region"
	if stmt.SQL != want {
		t.Fatalf("SQL = %q, want %q", stmt.SQL, want)
	}
}

func TestBuildSelectAlwaysFalseAndOmitted(t *testing.T) {
	in := SelectInput{
		From:   customers(),
		Fields: []querydef.FieldRef{customersField("Name", querydef.KindString)},
		Predicates: []predicate.Predicate{
			{Field: customersField("Status", querydef.KindSet), Omitted: true},
			{Field: customersField("Segment", querydef.KindSet), AlwaysFalse: true},
		},
	}

	stmt, err := BuildSelect(FamilySQLite, in)
	if err != nil {
		t.Fatalf("BuildSelect() error = %v", err)
	}
	want := "SELECT Customers.Name FROM Customers WHERE FALSE"
	if stmt.SQL != want {
		t.Fatalf("SQL = %q, want %q", stmt.SQL, want)
	}
	if len(stmt.Args) != 0 {
		t.Fatalf("Args = %v", stmt.Args)
	}
}

func TestBuildSelectRejectsFileFamilies(t *testing.T) {
	in := SelectInput{
		From:   customers(),
		Fields: []querydef.FieldRef{customersField("Name", querydef.KindString)},
	}
	for _, family := range []Family{FamilyCSV, FamilyParquet} {
		if _, err := BuildSelect(family, in); err == nil {
			t.Fatalf("BuildSelect(%s) should fail", family)
		}
	}
}

func TestFieldAndPredicateCounts(t *testing.T) {
	fields := []querydef.FieldRef{
		customersField("Name", querydef.KindString),
		customersField("Email", querydef.KindString),
		customersField("State", querydef.KindString),
	}
	in := SelectInput{
		From:       customers(),
		Fields:     fields,
		Predicates: []predicate.Predicate{stateEquals("CA"), stateEquals("OR")},
	}
	stmt, err := BuildSelect(FamilyDuckDB, in)
	if err != nil {
		t.Fatalf("BuildSelect() error = %v", err)
	}
	if got := strings.Count(stmt.SQL, "Customers."); got != len(fields)+2 {
		t.Fatalf("qualified references = %d, want %d", got, len(fields)+2)
	}
	if got := strings.Count(stmt.SQL, "?"); got != 2 {
		t.Fatalf("placeholders = %d, want 2", got)
	}
	if len(stmt.Args) != 2 {
		t.Fatalf("Args = %v", stmt.Args)
	}
}

func TestDescribeFileScan(t *testing.T) {
	in := SelectInput{
		From:       querydef.TableRef{ConnectionID: "files", Table: "inventory"},
		Fields:     []querydef.FieldRef{{Table: querydef.TableRef{ConnectionID: "files", Table: "inventory"}, Name: "sku", Kind: querydef.KindString}},
		Predicates: []predicate.Predicate{stateEquals("CA")},
	}
	got := DescribeFileScan(FamilyCSV, in)
	want := "-- csv file scan of inventory (1 fields, 1 filters applied locally)"
	if got != want {
		t.Fatalf("DescribeFileScan() = %q, want %q", got, want)
	}
}
