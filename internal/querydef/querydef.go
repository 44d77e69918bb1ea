// Package querydef holds the declarative query model built by callers:
// which tables to read, how they join, which fields to display and
// which filters apply. Definitions are plain values; the engine never
// mutates them.
package querydef

type DataKind string

const (
	KindString  DataKind = "string"
	KindNumeric DataKind = "numeric"
	KindDate    DataKind = "date"
	KindSet     DataKind = "set"
)

type MatchType string

const (
	MatchExact      MatchType = "exact"
	MatchStartsWith MatchType = "starts_with"
	MatchEndsWith   MatchType = "ends_with"
	MatchContains   MatchType = "contains"
)

type RangeMode string

const (
	ModeExact RangeMode = "exact"
	ModeRange RangeMode = "range"
)

type SetSpecial string

const (
	SpecialNormal SetSpecial = "normal"
	SpecialNone   SetSpecial = "none"
	SpecialAll    SetSpecial = "all"
)

type JoinType string

const (
	JoinInner      JoinType = "INNER"
	JoinLeftOuter  JoinType = "LEFT_OUTER"
	JoinRightOuter JoinType = "RIGHT_OUTER"
	JoinFullOuter  JoinType = "FULL_OUTER"
)

// TableRef names one table on one connection.
type TableRef struct {
	ConnectionID string `json:"connection_id"`
	Schema       string `json:"schema,omitempty"`
	Table        string `json:"table"`
}

// Key identifies the table instance across the whole definition.
func (t TableRef) Key() string {
	return t.ConnectionID + "|" + t.Schema + "|" + t.Table
}

type FieldRef struct {
	Table TableRef `json:"table"`
	Name  string   `json:"name"`
	Kind  DataKind `json:"kind"`
}

// QualifiedName is the table-qualified column name used in generated
// SQL and in result tables.
func (f FieldRef) QualifiedName() string {
	return f.Table.Table + "." + f.Name
}

// Criterion is a closed tagged union with one variant per data kind.
// Invalid match-type / data-kind combinations cannot be constructed.
type Criterion interface {
	CriterionField() FieldRef
	criterionKind() DataKind
}

type StringCriterion struct {
	Field FieldRef  `json:"field"`
	Match MatchType `json:"match"`
	Value string    `json:"value"`
}

func (c StringCriterion) CriterionField() FieldRef { return c.Field }
func (c StringCriterion) criterionKind() DataKind  { return KindString }

type NumericCriterion struct {
	Field FieldRef  `json:"field"`
	Mode  RangeMode `json:"mode"`
	Value float64   `json:"value,omitempty"`
	Low   float64   `json:"low,omitempty"`
	High  float64   `json:"high,omitempty"`
}

func (c NumericCriterion) CriterionField() FieldRef { return c.Field }
func (c NumericCriterion) criterionKind() DataKind  { return KindNumeric }

// DateCriterion carries dates as ISO strings (2006-01-02); the
// connectors parse them when a typed comparison is needed.
type DateCriterion struct {
	Field FieldRef  `json:"field"`
	Mode  RangeMode `json:"mode"`
	Value string    `json:"value,omitempty"`
	Start string    `json:"start,omitempty"`
	End   string    `json:"end,omitempty"`
}

func (c DateCriterion) CriterionField() FieldRef { return c.Field }
func (c DateCriterion) criterionKind() DataKind  { return KindDate }

type SetCriterion struct {
	Field    FieldRef   `json:"field"`
	Selected []string   `json:"selected"`
	Special  SetSpecial `json:"special"`
}

func (c SetCriterion) CriterionField() FieldRef { return c.Field }
func (c SetCriterion) criterionKind() DataKind  { return KindSet }

// JoinKey is one equality pair of a join condition.
type JoinKey struct {
	Left  FieldRef `json:"left"`
	Right FieldRef `json:"right"`
}

type JoinSpec struct {
	Type  JoinType  `json:"type"`
	Right TableRef  `json:"right"`
	Keys  []JoinKey `json:"keys"`
}

// QueryDefinition is the full declarative query. Joins are evaluated
// strictly in declared order.
type QueryDefinition struct {
	Name     string      `json:"name,omitempty"`
	From     TableRef    `json:"from"`
	Joins    []JoinSpec  `json:"joins,omitempty"`
	Display  []FieldRef  `json:"display"`
	Criteria []Criterion `json:"criteria,omitempty"`
}

// Tables returns every table referenced by FROM and the joins, in
// declared order.
func (d QueryDefinition) Tables() []TableRef {
	tables := []TableRef{d.From}
	for _, join := range d.Joins {
		tables = append(tables, join.Right)
	}
	return tables
}

// ConnectionIDs returns the distinct connection ids referenced by the
// definition, in first-appearance order.
func (d QueryDefinition) ConnectionIDs() []string {
	seen := map[string]bool{}
	ids := make([]string, 0, 1)
	for _, tbl := range d.Tables() {
		if !seen[tbl.ConnectionID] {
			seen[tbl.ConnectionID] = true
			ids = append(ids, tbl.ConnectionID)
		}
	}
	return ids
}
