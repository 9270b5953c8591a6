/*
 * Copyright (c) 2025-present unTill Software Development Group B.V.
 */

package depgraph

import (
	"cmp"
	"slices"
	"sync"

	"github.com/voedger/fieldflow/pkg/fielddef"
	"github.com/voedger/fieldflow/pkg/formula"
)

type node struct {
	id    fielddef.FieldID
	order int
	deps  []fielddef.FieldID
}

type graph struct {
	mu    sync.RWMutex
	nodes map[fielddef.FieldID]*node
	// from → set of dependents. Kept for removed fields
	dependents map[fielddef.FieldID]map[fielddef.FieldID]bool
	lastOrder  int
}

func newGraph() *graph {
	return &graph{
		nodes:      make(map[fielddef.FieldID]*node),
		dependents: make(map[fielddef.FieldID]map[fielddef.FieldID]bool),
	}
}

func dependencies(f *fielddef.Field) ([]fielddef.FieldID, error) {
	deps := f.References()
	if expr := f.Formula(); expr != "" {
		e, err := formula.Parse(expr)
		if err != nil {
			return nil, err
		}
		deps = append(deps, e.Refs()...)
	}
	res := make([]fielddef.FieldID, 0, len(deps))
	for _, d := range deps {
		if d != fielddef.NullFieldID && !slices.Contains(res, d) {
			res = append(res, d)
		}
	}
	return res, nil
}

func (g *graph) AddField(f *fielddef.Field) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	deps, err := g.check(f)
	if err != nil {
		return err
	}

	n, exists := g.nodes[f.ID]
	if exists {
		for _, d := range n.deps {
			g.unlink(d, f.ID)
		}
	} else {
		n = &node{id: f.ID, order: f.Order}
		if n.order == 0 {
			n.order = g.lastOrder + 1
		}
		g.nodes[f.ID] = n
	}
	g.lastOrder = max(g.lastOrder, n.order)

	n.deps = deps
	for _, d := range deps {
		if g.dependents[d] == nil {
			g.dependents[d] = make(map[fielddef.FieldID]bool)
		}
		g.dependents[d][f.ID] = true
	}
	return nil
}

func (g *graph) CheckField(f *fielddef.Field) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, err := g.check(f)
	return err
}

// Returns field dependencies or error if field can not be added
func (g *graph) check(f *fielddef.Field) ([]fielddef.FieldID, error) {
	deps, err := dependencies(f)
	if err != nil {
		return nil, err
	}
	if slices.Contains(deps, f.ID) {
		return nil, fielddef.ErrCycleDetected("%v depends on itself", f)
	}

	// depth first search from field along dependents, reaching any dependency is a back edge
	visited := make(map[fielddef.FieldID]bool)
	var dfs func(id fielddef.FieldID, path []fielddef.FieldID) error
	dfs = func(id fielddef.FieldID, path []fielddef.FieldID) error {
		if visited[id] {
			return nil
		}
		visited[id] = true
		path = append(path, id)
		for dep := range g.dependents[id] {
			if slices.Contains(deps, dep) {
				return fielddef.ErrCycleDetected("%v: %v", f, append(path, dep, f.ID))
			}
			if err := dfs(dep, path); err != nil {
				return err
			}
		}
		return nil
	}
	if err := dfs(f.ID, nil); err != nil {
		return nil, err
	}
	return deps, nil
}

func (g *graph) unlink(from, to fielddef.FieldID) {
	if dd, ok := g.dependents[from]; ok {
		delete(dd, to)
		if len(dd) == 0 {
			delete(g.dependents, from)
		}
	}
}

func (g *graph) RemoveField(id fielddef.FieldID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return
	}
	for _, d := range n.deps {
		g.unlink(d, id)
	}
	delete(g.nodes, id)
}

func (g *graph) Has(id fielddef.FieldID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.nodes[id]
	return ok
}

func (g *graph) DependenciesOf(id fielddef.FieldID) []fielddef.FieldID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if n, ok := g.nodes[id]; ok {
		return slices.Clone(n.deps)
	}
	return nil
}

func (g *graph) DependentsOf(id fielddef.FieldID) []fielddef.FieldID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	res := make([]fielddef.FieldID, 0, len(g.dependents[id]))
	for d := range g.dependents[id] {
		if _, ok := g.nodes[d]; ok {
			res = append(res, d)
		}
	}
	g.sort(res)
	return res
}

func (g *graph) Closure(ids ...fielddef.FieldID) []fielddef.FieldID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[fielddef.FieldID]bool)
	queue := slices.Clone(ids)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for d := range g.dependents[id] {
			if _, ok := g.nodes[d]; ok && !seen[d] {
				seen[d] = true
				queue = append(queue, d)
			}
		}
	}

	res := make([]fielddef.FieldID, 0, len(seen))
	for id := range seen {
		res = append(res, id)
	}
	g.sort(res)
	return res
}

// Kahn's algorithm restricted to specified fields
func (g *graph) TopoOrder(ids []fielddef.FieldID) ([]fielddef.FieldID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	set := make(map[fielddef.FieldID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}

	inDegree := make(map[fielddef.FieldID]int, len(set))
	for id := range set {
		inDegree[id] = 0
		if n, ok := g.nodes[id]; ok {
			for _, d := range n.deps {
				if set[d] {
					inDegree[id]++
				}
			}
		}
	}

	ready := make([]fielddef.FieldID, 0, len(set))
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	g.sort(ready)

	res := make([]fielddef.FieldID, 0, len(set))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		res = append(res, id)
		for d := range g.dependents[id] {
			if !set[d] {
				continue
			}
			inDegree[d]--
			if inDegree[d] == 0 {
				i, _ := slices.BinarySearchFunc(ready, d, g.compare)
				ready = slices.Insert(ready, i, d)
			}
		}
	}

	if len(res) < len(set) {
		rest := make([]fielddef.FieldID, 0, len(set)-len(res))
		for id, deg := range inDegree {
			if deg > 0 {
				rest = append(rest, id)
			}
		}
		g.sort(rest)
		return nil, fielddef.ErrCycleDetected("fields %v", rest)
	}
	return res, nil
}

func (g *graph) Fields() []fielddef.FieldID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	res := make([]fielddef.FieldID, 0, len(g.nodes))
	for id := range g.nodes {
		res = append(res, id)
	}
	g.sort(res)
	return res
}

func (g *graph) sort(ids []fielddef.FieldID) {
	slices.SortFunc(ids, g.compare)
}

// Compares fields by creation order, unregistered fields are last, then by id
func (g *graph) compare(a, b fielddef.FieldID) int {
	oa, ob := g.order(a), g.order(b)
	if c := cmp.Compare(oa, ob); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

func (g *graph) order(id fielddef.FieldID) int {
	if n, ok := g.nodes[id]; ok {
		return n.order
	}
	return int(^uint(0) >> 1)
}
