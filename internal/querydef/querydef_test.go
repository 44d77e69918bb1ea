package querydef

import (
	"encoding/json"
	"reflect"
	"testing"
)

func ordersTable() TableRef {
	return TableRef{ConnectionID: "erp", Schema: "sales", Table: "Orders"}
}

func ordersField(name string, kind DataKind) FieldRef {
	return FieldRef{Table: ordersTable(), Name: name, Kind: kind}
}

func TestQualifiedName(t *testing.T) {
	field := ordersField("Amount", KindNumeric)
	if got := field.QualifiedName(); got != "Orders.Amount" {
		t.Fatalf("QualifiedName() = %q", got)
	}
}

func TestConnectionIDsDistinctInOrder(t *testing.T) {
	warehouse := TableRef{ConnectionID: "wh", Table: "Inventory"}
	def := QueryDefinition{
		From: ordersTable(),
		Joins: []JoinSpec{
			{Type: JoinInner, Right: TableRef{ConnectionID: "erp", Table: "Lines"}},
			{Type: JoinInner, Right: warehouse},
		},
	}
	got := def.ConnectionIDs()
	want := []string{"erp", "wh"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ConnectionIDs() = %v, want %v", got, want)
	}
}

func TestDefinitionJSONRoundTrip(t *testing.T) {
	inventory := TableRef{ConnectionID: "wh", Table: "Inventory"}
	def := QueryDefinition{
		Name: "orders with stock",
		From: ordersTable(),
		Joins: []JoinSpec{{
			Type:  JoinLeftOuter,
			Right: inventory,
			Keys: []JoinKey{{
				Left:  ordersField("Sku", KindString),
				Right: FieldRef{Table: inventory, Name: "Sku", Kind: KindString},
			}},
		}},
		Display: []FieldRef{
			ordersField("Id", KindNumeric),
			{Table: inventory, Name: "OnHand", Kind: KindNumeric},
		},
		Criteria: []Criterion{
			StringCriterion{Field: ordersField("Region", KindString), Match: MatchContains, Value: "north"},
			NumericCriterion{Field: ordersField("Amount", KindNumeric), Mode: ModeRange, Low: 10, High: 500},
			DateCriterion{Field: ordersField("Placed", KindDate), Mode: ModeExact, Value: "2024-03-01"},
			SetCriterion{Field: ordersField("Status", KindSet), Selected: []string{"open", "paid"}, Special: SpecialNormal},
		},
	}

	data, err := json.Marshal(def)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded QueryDefinition
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(def, decoded) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", decoded, def)
	}
}

func TestUnmarshalRejectsUnknownCriterionKind(t *testing.T) {
	raw := `{
		"from": {"connection_id": "erp", "table": "Orders"},
		"display": [{"table": {"connection_id": "erp", "table": "Orders"}, "name": "Id", "kind": "numeric"}],
		"criteria": [{"kind": "fuzzy", "criterion": {}}]
	}`
	var def QueryDefinition
	if err := json.Unmarshal([]byte(raw), &def); err == nil {
		t.Fatal("Unmarshal() should reject unknown criterion kind")
	}
}
