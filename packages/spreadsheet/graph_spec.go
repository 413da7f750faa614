package main

import (
	"container/heap"
	"sort"
)

// SpecGraph is the immutable dependency graph RecalculateAll builds from a
// workbook snapshot: an adjacency map from each formula cell to the cells
// and ranges it reads. It exists to answer "what order must I recalculate
// this sheet in" once, exactly, for a whole batch — the question
// fromSheet / detectCycles / topologicalSort are about.
type SpecGraph struct {
	nodes map[ARef]*TExpr // formula cells, by reference
	edges map[ARef][]ARef // ref -> its direct precedents (cells it reads)
}

// fromSheet builds a SpecGraph from every formula cell in formulas,
// expanding range reads against rangeCells (the concrete cell list a range
// covers on sheet) so range-level precedents become cell-level edges.
func fromSheet(formulas map[ARef]*TExpr, rangeCells func(ARange) []ARef) *SpecGraph {
	g := &SpecGraph{
		nodes: make(map[ARef]*TExpr, len(formulas)),
		edges: make(map[ARef][]ARef, len(formulas)),
	}
	for ref, expr := range formulas {
		g.nodes[ref] = expr
		refs, ranges := collectRanges(expr)
		precedents := append([]ARef{}, refs...)
		for _, rng := range ranges {
			precedents = append(precedents, rangeCells(rng)...)
		}
		g.edges[ref] = precedents
	}
	Logger.Debug().Str("build_id", newBuildID()).Int("cells", len(g.nodes)).Msg("dependency graph built")
	return g
}

// precedents returns the cells ref's formula directly reads.
func (g *SpecGraph) precedents(ref ARef) []ARef {
	return g.edges[ref]
}

// dependents returns every cell whose formula directly reads ref.
func (g *SpecGraph) dependents(ref ARef) []ARef {
	var out []ARef
	for cell, precs := range g.edges {
		for _, p := range precs {
			if p == ref {
				out = append(out, cell)
				break
			}
		}
	}
	sortRefs(out)
	return out
}

// detectCycles runs an iterative Tarjan's strongly-connected-components
// algorithm over the graph and returns every cycle found (an SCC of size
// >1, or a size-1 SCC that is its own precedent via a self-loop). Each
// cycle is the SCC's member set sorted ascending by (sheet, row, col), so
// its lexicographically smallest ARef comes first and the result is
// deterministic regardless of map iteration order. A cycle is not returned
// as a closed walk: members are listed once, in sorted order rather than
// edge order, and the first member is not repeated at the end.
func (g *SpecGraph) detectCycles() [][]ARef {
	indices := make(map[ARef]int)
	lowlink := make(map[ARef]int)
	onStack := make(map[ARef]bool)
	var stack []ARef
	var sccs [][]ARef
	index := 0

	type frame struct {
		ref      ARef
		children []ARef
		pos      int
	}

	refsSorted := make([]ARef, 0, len(g.nodes))
	for ref := range g.nodes {
		refsSorted = append(refsSorted, ref)
	}
	sortRefs(refsSorted)

	var strongconnect func(start ARef)
	strongconnect = func(start ARef) {
		var call []*frame
		call = append(call, &frame{ref: start, children: g.edges[start]})
		indices[start] = index
		lowlink[start] = index
		index++
		stack = append(stack, start)
		onStack[start] = true

		for len(call) > 0 {
			top := call[len(call)-1]
			if top.pos < len(top.children) {
				w := top.children[top.pos]
				top.pos++
				if _, ok := g.nodes[w]; !ok {
					continue // precedent outside the formula set, not part of any cycle
				}
				if _, visited := indices[w]; !visited {
					indices[w] = index
					lowlink[w] = index
					index++
					stack = append(stack, w)
					onStack[w] = true
					call = append(call, &frame{ref: w, children: g.edges[w]})
				} else if onStack[w] {
					if indices[w] < lowlink[top.ref] {
						lowlink[top.ref] = indices[w]
					}
				}
			} else {
				call = call[:len(call)-1]
				if len(call) > 0 {
					parent := call[len(call)-1]
					if lowlink[top.ref] < lowlink[parent.ref] {
						lowlink[parent.ref] = lowlink[top.ref]
					}
				}
				if lowlink[top.ref] == indices[top.ref] {
					var scc []ARef
					for {
						n := len(stack) - 1
						w := stack[n]
						stack = stack[:n]
						onStack[w] = false
						scc = append(scc, w)
						if w == top.ref {
							break
						}
					}
					sortRefs(scc)
					if len(scc) > 1 || selfLoop(g, scc[0]) {
						sccs = append(sccs, scc)
					}
				}
			}
		}
	}

	for _, ref := range refsSorted {
		if _, visited := indices[ref]; !visited {
			strongconnect(ref)
		}
	}

	sort.Slice(sccs, func(i, j int) bool { return lessARef(sccs[i][0], sccs[j][0]) })
	if len(sccs) > 0 {
		Logger.Warn().Int("cycle_count", len(sccs)).Msg("circular reference detected")
	}
	return sccs
}

func selfLoop(g *SpecGraph, ref ARef) bool {
	for _, p := range g.edges[ref] {
		if p == ref {
			return true
		}
	}
	return false
}

// refHeap is a min-heap of ARefs ordered by (sheet, row, col),
// the deterministic tie-break topologicalSort uses when several cells
// become ready to evaluate at the same time.
type refHeap []ARef

func (h refHeap) Len() int            { return len(h) }
func (h refHeap) Less(i, j int) bool  { return lessARef(h[i], h[j]) }
func (h refHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *refHeap) Push(x any)         { *h = append(*h, x.(ARef)) }
func (h *refHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func lessARef(a, b ARef) bool {
	if a.Sheet != b.Sheet {
		return a.Sheet < b.Sheet
	}
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Col < b.Col
}

func sortRefs(refs []ARef) {
	sort.Slice(refs, func(i, j int) bool { return lessARef(refs[i], refs[j]) })
}

// topologicalSort returns a calculation order for every formula cell in g
// such that each cell is ordered after all of its precedents, using Kahn's
// algorithm. Ties (multiple cells ready at once) are broken by ascending
// (sheet, row, column) via a min-heap, so the result is fully deterministic.
// Returns an error if g contains a cycle; callers should run detectCycles
// first to get cycle detail.
func (g *SpecGraph) topologicalSort() ([]ARef, error) {
	indegree := make(map[ARef]int, len(g.nodes))
	dependents := make(map[ARef][]ARef, len(g.nodes))
	for ref := range g.nodes {
		indegree[ref] = 0
	}
	for ref, precs := range g.edges {
		for _, p := range precs {
			if _, isFormula := g.nodes[p]; !isFormula {
				continue // non-formula precedent, not part of the ordering
			}
			indegree[ref]++
			dependents[p] = append(dependents[p], ref)
		}
	}

	h := &refHeap{}
	heap.Init(h)
	for ref, deg := range indegree {
		if deg == 0 {
			heap.Push(h, ref)
		}
	}

	order := make([]ARef, 0, len(g.nodes))
	for h.Len() > 0 {
		ref := heap.Pop(h).(ARef)
		order = append(order, ref)
		next := append([]ARef{}, dependents[ref]...)
		sortRefs(next)
		for _, d := range next {
			indegree[d]--
			if indegree[d] == 0 {
				heap.Push(h, d)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, wrapEval("topologicalSort", ARef{}, errCyclicGraph)
	}
	return order, nil
}
