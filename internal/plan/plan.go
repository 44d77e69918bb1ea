// Package plan partitions a validated QueryDefinition into one
// sub-query per locally-connected table group. Joins whose two sides
// share a connection are pushed into that connection's SQL; joins that
// cross connections are kept for the in-memory join engine, in
// declared order. Every criterion is scoped to a single table, so all
// filtering is always pushed down to its owning source.
package plan

import (
	"github.com/crossquery/crossquery/internal/predicate"
	"github.com/crossquery/crossquery/internal/qerror"
	"github.com/crossquery/crossquery/internal/querydef"
)

// SubQuery is the work for one source: fetch these fields from these
// tables with these filters. Fields contains the local display fields
// plus any join-key fields the cross-connection merge needs, even if
// not displayed.
type SubQuery struct {
	ConnectionID string
	From         querydef.TableRef
	Joins        []querydef.JoinSpec
	Fields       []querydef.FieldRef
	Predicates   []predicate.Predicate
	// Criteria are the untranslated filters behind Predicates; file
	// sources evaluate them locally instead of rendering SQL.
	Criteria []querydef.Criterion
	RowLimit int

	// ShortCircuit marks a sub-query whose predicates can never match
	// (set special=none). The orchestrator materializes an empty table
	// without touching the connection.
	ShortCircuit bool
}

// CrossJoin merges the sub-query at Right into the accumulated table.
type CrossJoin struct {
	Type  querydef.JoinType
	Keys  []querydef.JoinKey
	Right int
}

type Plan struct {
	SubQueries []SubQuery
	CrossJoins []CrossJoin
}

func (p Plan) MultiSource() bool {
	return len(p.SubQueries) > 1
}

// Build assumes def already passed querydef.Validate. rowLimit is
// pushed into the source statement only for a single-source plan; a
// multi-source plan limits the joined result instead, because limiting
// one side of a join would silently drop matches. fileConnections
// marks connection ids with no SQL engine behind them: their joins
// always go through the in-memory join engine.
func Build(def querydef.QueryDefinition, rowLimit int, fileConnections map[string]bool) (Plan, error) {
	components := newComponents(def.From)

	localJoins := make(map[int][]querydef.JoinSpec)
	var crossJoins []querydef.JoinSpec
	for _, join := range def.Joins {
		if isLocalJoin(join, fileConnections) {
			for _, key := range join.Keys {
				components.union(key.Left.Table, join.Right)
			}
			root := components.find(join.Right)
			localJoins[root] = append(localJoins[root], join)
		} else {
			components.add(join.Right)
			crossJoins = append(crossJoins, join)
		}
	}

	predicates, err := predicate.TranslateAll(def.Criteria)
	if err != nil {
		return Plan{}, err
	}

	// The FROM table's component is the accumulated base and comes
	// first; the remaining components follow in cross-join order.
	order := []int{components.find(def.From)}
	position := map[int]int{order[0]: 0}
	for _, join := range crossJoins {
		root := components.find(join.Right)
		if _, merged := position[root]; merged {
			return Plan{}, qerror.New(qerror.KindValidation,
				"join to %s targets a source that is already part of the merged result", join.Right.Table)
		}
		position[root] = len(order)
		order = append(order, root)
	}

	subQueries := make([]SubQuery, 0, len(order))
	for _, root := range order {
		sub, err := buildSubQuery(def, components, root, localJoins[root], predicates, fileConnections)
		if err != nil {
			return Plan{}, err
		}
		subQueries = append(subQueries, sub)
	}

	plan := Plan{SubQueries: subQueries}
	for _, join := range crossJoins {
		plan.CrossJoins = append(plan.CrossJoins, CrossJoin{
			Type:  join.Type,
			Keys:  join.Keys,
			Right: position[components.find(join.Right)],
		})
	}

	if !plan.MultiSource() {
		plan.SubQueries[0].RowLimit = rowLimit
	}
	return plan, nil
}

func buildSubQuery(def querydef.QueryDefinition, comps *components, root int, joins []querydef.JoinSpec, predicates []predicate.Predicate, fileConnections map[string]bool) (SubQuery, error) {
	var from querydef.TableRef
	found := false
	for _, tbl := range def.Tables() {
		if comps.find(tbl) == root {
			from = tbl
			found = true
			break
		}
	}
	if !found {
		return SubQuery{}, qerror.New(qerror.KindValidation, "internal: empty table group in plan")
	}

	// Validation guarantees a join's left tables precede its right
	// table, so the group's first declared table is a valid FROM for
	// the local join chain.
	sub := SubQuery{
		ConnectionID: from.ConnectionID,
		From:         from,
		Joins:        joins,
	}

	seen := map[string]bool{}
	for _, field := range def.Display {
		if comps.find(field.Table) != root || seen[field.QualifiedName()] {
			continue
		}
		seen[field.QualifiedName()] = true
		sub.Fields = append(sub.Fields, field)
	}
	// Join-key fields needed for the cross-connection merge ride along
	// even when not displayed.
	for _, join := range def.Joins {
		if isLocalJoin(join, fileConnections) {
			continue
		}
		for _, key := range join.Keys {
			for _, field := range []querydef.FieldRef{key.Left, key.Right} {
				if comps.find(field.Table) != root || seen[field.QualifiedName()] {
					continue
				}
				seen[field.QualifiedName()] = true
				sub.Fields = append(sub.Fields, field)
			}
		}
	}

	for i, pred := range predicates {
		if comps.find(pred.Field.Table) != root {
			continue
		}
		sub.Predicates = append(sub.Predicates, pred)
		sub.Criteria = append(sub.Criteria, def.Criteria[i])
		if pred.AlwaysFalse {
			sub.ShortCircuit = true
		}
	}

	return sub, nil
}

// isLocalJoin reports whether every side of the join lives on the
// joined table's connection and that connection can run SQL joins.
func isLocalJoin(join querydef.JoinSpec, fileConnections map[string]bool) bool {
	if fileConnections[join.Right.ConnectionID] {
		return false
	}
	for _, key := range join.Keys {
		if key.Left.Table.ConnectionID != join.Right.ConnectionID {
			return false
		}
	}
	return true
}

// components is a union-find over table identities.
type components struct {
	parent map[string]int
	roots  []int
}

func newComponents(from querydef.TableRef) *components {
	c := &components{parent: map[string]int{}}
	c.add(from)
	return c
}

func (c *components) add(tbl querydef.TableRef) {
	if _, ok := c.parent[tbl.Key()]; ok {
		return
	}
	id := len(c.roots)
	c.parent[tbl.Key()] = id
	c.roots = append(c.roots, id)
}

func (c *components) find(tbl querydef.TableRef) int {
	id, ok := c.parent[tbl.Key()]
	if !ok {
		c.add(tbl)
		id = c.parent[tbl.Key()]
	}
	root := id
	for c.roots[root] != root {
		root = c.roots[root]
	}
	c.roots[id] = root
	return root
}

func (c *components) union(a, b querydef.TableRef) {
	c.add(a)
	c.add(b)
	rootA := c.find(a)
	rootB := c.find(b)
	if rootA != rootB {
		c.roots[rootB] = rootA
	}
}
