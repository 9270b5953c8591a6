/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package depgraph

import (
	"fmt"
	"strings"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"

	"github.com/voedger/fieldflow/pkg/fielddef"
)

const (
	tblA fielddef.TableID = "tblA"
	tblB fielddef.TableID = "tblB"
)

func valueField(id fielddef.FieldID, table fielddef.TableID, order int) *fielddef.Field {
	return &fielddef.Field{ID: id, Table: table, Kind: fielddef.FieldKind_Value, CellType: fielddef.CellType_Number, Order: order, Options: &fielddef.ValueOptions{}}
}

func linkField(id fielddef.FieldID, table, foreign fielddef.TableID, title fielddef.FieldID, order int) *fielddef.Field {
	return &fielddef.Field{ID: id, Table: table, Kind: fielddef.FieldKind_Link, CellType: fielddef.CellType_Link, IsMultiple: true, Order: order,
		Options: &fielddef.LinkOptions{Relationship: fielddef.Relationship_ManyMany, ForeignTable: foreign, LookupField: title}}
}

func rollupField(id fielddef.FieldID, table, foreign fielddef.TableID, link, lookup fielddef.FieldID, order int) *fielddef.Field {
	return &fielddef.Field{ID: id, Table: table, Kind: fielddef.FieldKind_Rollup, CellType: fielddef.CellType_Number, Order: order,
		Options: &fielddef.RollupOptions{
			LookupOptions: fielddef.LookupOptions{ForeignTable: foreign, LinkField: link, LookupField: lookup},
			Expression:    "sum({values})",
		}}
}

func formulaField(id fielddef.FieldID, table fielddef.TableID, expr string, order int) *fielddef.Field {
	return &fielddef.Field{ID: id, Table: table, Kind: fielddef.FieldKind_Formula, CellType: fielddef.CellType_Number, Order: order,
		Options: &fielddef.FormulaOptions{Expression: expr}}
}

func TestDependencies(t *testing.T) {
	require := require.New(t)

	deps, err := Dependencies(formulaField("fldF", tblA, "{fldX} + {fldY} * {fldX}", 1))
	require.NoError(err)
	require.Equal([]fielddef.FieldID{"fldX", "fldY"}, deps)

	cr := &fielddef.Field{ID: "fldCR", Table: tblA, Kind: fielddef.FieldKind_ConditionalRollup,
		Options: &fielddef.ConditionalRollupOptions{
			LookupOptions: fielddef.LookupOptions{
				ForeignTable: tblB,
				LookupField:  "fldBTitle",
				Filter: fielddef.And(
					fielddef.Item("fldBStatus", fielddef.Operator_Is, fielddef.HostRef("fldAStatus", tblA)),
				),
				Sort: &fielddef.SortSpec{FieldID: "fldBScore"},
			},
			Expression: "array_compact({values})",
		}}
	deps, err = Dependencies(cr)
	require.NoError(err)
	require.Equal([]fielddef.FieldID{"fldBTitle", "fldBStatus", "fldBScore", "fldAStatus"}, deps)

	_, err = Dependencies(formulaField("fldBad", tblA, "{fldX} +", 1))
	require.ErrorIs(err, fielddef.ErrInvalidError)
}

func TestGraph(t *testing.T) {
	require := require.New(t)
	g := New()

	require.NoError(g.AddField(valueField("fldATitle", tblA, 1)))
	require.NoError(g.AddField(valueField("fldBTitle", tblB, 2)))
	require.NoError(g.AddField(valueField("fldBAmount", tblB, 3)))
	require.NoError(g.AddField(linkField("fldALink", tblA, tblB, "fldBTitle", 4)))
	require.NoError(g.AddField(rollupField("fldASum", tblA, tblB, "fldALink", "fldBAmount", 5)))
	require.NoError(g.AddField(formulaField("fldADouble", tblA, "{fldASum} * 2", 6)))
	require.NoError(g.AddField(formulaField("fldALabel", tblA, "{fldATitle} & {fldADouble}", 7)))

	require.Equal([]fielddef.FieldID{"fldBAmount", "fldALink"}, g.DependenciesOf("fldASum"))
	require.Equal([]fielddef.FieldID{"fldASum"}, g.DependentsOf("fldALink"))
	require.Equal([]fielddef.FieldID{"fldALink"}, g.DependentsOf("fldBTitle"))

	t.Run("closure", func(t *testing.T) {
		require.Equal([]fielddef.FieldID{"fldASum", "fldADouble", "fldALabel"}, g.Closure("fldBAmount"))
		require.Equal([]fielddef.FieldID{"fldALink", "fldASum", "fldADouble", "fldALabel"}, g.Closure("fldBTitle"))
		require.Empty(g.Closure("fldALabel"))
	})

	t.Run("topological order", func(t *testing.T) {
		order, err := g.TopoOrder([]fielddef.FieldID{"fldALabel", "fldADouble", "fldASum", "fldATitle"})
		require.NoError(err)
		require.Equal([]fielddef.FieldID{"fldATitle", "fldASum", "fldADouble", "fldALabel"}, order)
	})

	t.Run("conversion replaces edges", func(t *testing.T) {
		require.NoError(g.AddField(formulaField("fldADouble", tblA, "{fldATitle}", 6)))
		require.Equal([]fielddef.FieldID{"fldATitle"}, g.DependenciesOf("fldADouble"))
		require.Empty(g.DependentsOf("fldASum"))
		require.Equal([]fielddef.FieldID{"fldADouble", "fldALabel"}, g.DependentsOf("fldATitle"))
	})

	t.Run("self reference", func(t *testing.T) {
		err := g.AddField(formulaField("fldASelf", tblA, "{fldASelf} + 1", 8))
		require.ErrorIs(err, fielddef.ErrCycleDetectedError)
		require.False(g.Has("fldASelf"))
	})
}

func TestCycleRejectionLeavesFieldUnchanged(t *testing.T) {
	require := require.New(t)
	g := New()

	require.NoError(g.AddField(valueField("fldBValue", tblB, 1)))
	require.NoError(g.AddField(linkField("fldALink", tblA, tblB, "fldBValue", 2)))
	require.NoError(g.AddField(linkField("fldBLink", tblB, tblA, "", 3)))
	r1 := rollupField("fldR1", tblA, tblB, "fldALink", "fldBValue", 4)
	require.NoError(g.AddField(r1))
	require.NoError(g.AddField(rollupField("fldR2", tblB, tblA, "fldBLink", "fldR1", 5)))

	converted := rollupField("fldR1", tblA, tblB, "fldALink", "fldR2", 4)
	require.ErrorIs(g.CheckField(converted), fielddef.ErrCycleDetectedError)
	err := g.AddField(converted)
	require.ErrorIs(err, fielddef.ErrCycleDetectedError)

	require.Equal([]fielddef.FieldID{"fldBValue", "fldALink"}, g.DependenciesOf("fldR1"))
	require.Equal([]fielddef.FieldID{"fldR2"}, g.DependentsOf("fldR1"))
	require.Empty(g.DependentsOf("fldR2"))
}

func TestSelfJoinIsNotCycle(t *testing.T) {
	require := require.New(t)
	g := New()

	require.NoError(g.AddField(valueField("fldTitle", tblA, 1)))
	require.NoError(g.AddField(valueField("fldStatus", tblA, 2)))
	// many-to-many link of table to itself
	require.NoError(g.AddField(linkField("fldRelated", tblA, tblA, "fldTitle", 3)))
	require.NoError(g.AddField(rollupField("fldRelatedCount", tblA, tblA, "fldRelated", "fldTitle", 4)))

	// same field compared on candidate and host sides
	cr := &fielddef.Field{ID: "fldSameStatus", Table: tblA, Kind: fielddef.FieldKind_ConditionalRollup, Order: 5,
		Options: &fielddef.ConditionalRollupOptions{
			LookupOptions: fielddef.LookupOptions{
				ForeignTable: tblA,
				LookupField:  "fldTitle",
				Filter:       fielddef.And(fielddef.Item("fldStatus", fielddef.Operator_Is, fielddef.HostRef("fldStatus", tblA))),
			},
			Expression: "countall({values})",
		}}
	require.NoError(g.AddField(cr))
	require.Equal([]fielddef.FieldID{"fldTitle", "fldStatus"}, g.DependenciesOf("fldSameStatus"))
}

func TestRemovedFieldKeepsDependents(t *testing.T) {
	require := require.New(t)
	g := New()

	require.NoError(g.AddField(valueField("fldX", tblA, 1)))
	require.NoError(g.AddField(formulaField("fldY", tblA, "{fldX} + 1", 2)))
	require.NoError(g.AddField(formulaField("fldZ", tblA, "{fldY} + 1", 3)))

	g.RemoveField("fldY")
	require.False(g.Has("fldY"))
	require.Empty(g.DependentsOf("fldX"))
	require.Equal([]fielddef.FieldID{"fldZ"}, g.DependentsOf("fldY"))
	require.Equal([]fielddef.FieldID{"fldZ"}, g.Closure("fldY"))

	// restored field re-attaches dependents
	require.NoError(g.AddField(formulaField("fldY", tblA, "{fldX} * 2", 2)))
	require.Equal([]fielddef.FieldID{"fldY", "fldZ"}, g.Closure("fldX"))

	// cycle through re-attached dependent is detected
	require.ErrorIs(g.AddField(formulaField("fldY", tblA, "{fldZ}", 2)), fielddef.ErrCycleDetectedError)
}

func TestOrderAssignment(t *testing.T) {
	require := require.New(t)
	g := New()

	require.NoError(g.AddField(valueField("fldB", tblA, 0)))
	require.NoError(g.AddField(valueField("fldA", tblA, 0)))
	require.NoError(g.AddField(formulaField("fldC", tblA, "{fldA} + {fldB}", 0)))
	require.Equal([]fielddef.FieldID{"fldB", "fldA", "fldC"}, g.Fields())

	order, err := g.TopoOrder([]fielddef.FieldID{"fldC", "fldA", "fldB"})
	require.NoError(err)
	require.Equal([]fielddef.FieldID{"fldB", "fldA", "fldC"}, order)
}

// Accepted definitions keep graph acyclic, rejected definitions do not change graph
func TestAcyclicityProperty(t *testing.T) {
	require := require.New(t)

	type step struct {
		Field uint8
		Refs  []uint8
	}
	const fieldsCount = 8
	fid := func(n uint8) fielddef.FieldID { return fielddef.FieldID(fmt.Sprintf("fld%d", n%fieldsCount)) }

	for seed := int64(1); seed <= 50; seed++ {
		var steps []step
		fuzz.NewWithSeed(seed).NilChance(0).NumElements(1, 40).Fuzz(&steps)

		g := New()
		for i, s := range steps {
			refs := make([]string, 0, len(s.Refs))
			for _, r := range s.Refs {
				refs = append(refs, "{"+string(fid(r))+"}")
			}
			expr := "1"
			if len(refs) > 0 {
				expr = strings.Join(refs, " + ")
			}
			f := formulaField(fid(s.Field), tblA, expr, int(s.Field%fieldsCount)+1)

			before := snapshot(g)
			if err := g.AddField(f); err != nil {
				require.ErrorIs(err, fielddef.ErrCycleDetectedError, "seed %d step %d", seed, i)
				require.Equal(before, snapshot(g), "seed %d step %d: graph changed after rejection", seed, i)
			}

			all := g.Fields()
			order, err := g.TopoOrder(all)
			require.NoError(err, "seed %d step %d", seed, i)
			require.Len(order, len(all))
			pos := make(map[fielddef.FieldID]int, len(order))
			for p, id := range order {
				pos[id] = p
			}
			for _, id := range order {
				for _, d := range g.DependenciesOf(id) {
					if p, ok := pos[d]; ok {
						require.Less(p, pos[id], "seed %d: %s must precede %s", seed, d, id)
					}
				}
			}
		}
	}
}

func snapshot(g IGraph) map[fielddef.FieldID][]fielddef.FieldID {
	res := make(map[fielddef.FieldID][]fielddef.FieldID)
	for _, id := range g.Fields() {
		res[id] = g.DependenciesOf(id)
	}
	return res
}
