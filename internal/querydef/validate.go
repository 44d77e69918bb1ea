package querydef

import (
	"github.com/crossquery/crossquery/internal/qerror"
)

// Validate runs the structural, referential and type checks a
// definition must pass before planning or SQL preview. Checks run in a
// fixed order and the first failure is returned, naming the offending
// element.
func Validate(def QueryDefinition) error {
	if def.From.Table == "" || def.From.ConnectionID == "" {
		return qerror.New(qerror.KindValidation, "query has no FROM table")
	}
	if len(def.Display) == 0 {
		return qerror.New(qerror.KindValidation, "query has no display fields")
	}

	// Duplicate joins to the same table instance are rejected before
	// the connectivity walk so the graph stays a simple one.
	referenced := map[string]bool{def.From.Key(): true}
	for _, join := range def.Joins {
		if referenced[join.Right.Key()] {
			return qerror.New(qerror.KindValidation, "table %s is joined more than once", join.Right.Table)
		}
		referenced[join.Right.Key()] = true
	}

	// Connectivity: walking joins in declared order, each join's left
	// key fields must land on a table already in the graph and each
	// right key field on the table being joined.
	reachable := map[string]bool{def.From.Key(): true}
	for _, join := range def.Joins {
		if len(join.Keys) == 0 {
			return qerror.New(qerror.KindValidation, "join to %s has no key pairs", join.Right.Table)
		}
		for _, key := range join.Keys {
			if !reachable[key.Left.Table.Key()] {
				return qerror.New(qerror.KindValidation,
					"join to %s references %s.%s before that table is part of the query",
					join.Right.Table, key.Left.Table.Table, key.Left.Name)
			}
			if key.Right.Table.Key() != join.Right.Key() {
				return qerror.New(qerror.KindValidation,
					"join key %s.%s does not belong to joined table %s",
					key.Right.Table.Table, key.Right.Name, join.Right.Table)
			}
		}
		reachable[join.Right.Key()] = true
	}

	for _, field := range def.Display {
		if !referenced[field.Table.Key()] {
			return qerror.New(qerror.KindValidation,
				"display field %s references a table that is not part of the query", field.QualifiedName())
		}
	}

	for _, criterion := range def.Criteria {
		field := criterion.CriterionField()
		if !referenced[field.Table.Key()] {
			return qerror.New(qerror.KindValidation,
				"criterion on %s references a table that is not part of the query", field.QualifiedName())
		}
		if field.Kind != criterion.criterionKind() {
			return qerror.New(qerror.KindValidation,
				"criterion on %s is a %s filter but the field is declared %s",
				field.QualifiedName(), criterion.criterionKind(), field.Kind)
		}
	}

	return nil
}
