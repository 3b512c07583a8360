package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/htn/internal/ir"
)

// RecursionWarning reports a group of composite tasks that can expand into
// each other. Recursion is legal; it is reported because termination then
// depends on the facts and on the planner's depth budget.
type RecursionWarning struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
	Level   string   `json:"level"`
}

// AnalyzeRecursion finds strongly connected components of the composite
// task call graph with Tarjan's algorithm. Self-recursive tasks and cycles
// through several tasks each yield one warning. Results follow declaration
// order.
func AnalyzeRecursion(d *ir.Domain) []RecursionWarning {
	warnings := []RecursionWarning{}
	if len(d.Tasks) == 0 {
		return warnings
	}

	graph := buildCallGraph(d)
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, sccToWarning(d, scc, graph))
		}
	}
	return warnings
}

// callGraph maps a composite task index to the composite task indices its
// cases call, each edge listed once in first-call order.
type callGraph [][]int

func buildCallGraph(d *ir.Domain) callGraph {
	index := make(map[string]int, len(d.Tasks))
	for i, t := range d.Tasks {
		index[t.Name] = i
	}
	graph := make(callGraph, len(d.Tasks))
	for i, t := range d.Tasks {
		seen := make(map[int]bool)
		for _, c := range t.Cases {
			for _, call := range c.TaskList {
				if j, ok := index[call.Task]; ok && !seen[j] {
					seen[j] = true
					graph[i] = append(graph[i], j)
				}
			}
		}
	}
	return graph
}

func hasSelfLoop(node int, graph callGraph) bool {
	for _, w := range graph[node] {
		if w == node {
			return true
		}
	}
	return false
}

// tarjanSCC returns the strongly connected components of graph, each sorted
// ascending, ordered by their smallest member.
func tarjanSCC(graph callGraph) [][]int {
	var (
		next    = 0
		stack   []int
		indices = make([]int, len(graph))
		lowlink = make([]int, len(graph))
		onStack = make([]bool, len(graph))
		sccs    [][]int
	)
	for i := range indices {
		indices[i] = -1
	}

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = next
		lowlink[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if indices[w] < 0 {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for v := range graph {
		if indices[v] < 0 {
			strongConnect(v)
		}
	}

	for _, scc := range sccs {
		slices.Sort(scc)
	}
	slices.SortFunc(sccs, func(a, b []int) int { return a[0] - b[0] })
	return sccs
}

func sccToWarning(d *ir.Domain, scc []int, graph callGraph) RecursionWarning {
	if len(scc) == 1 {
		name := d.Tasks[scc[0]].Name
		return RecursionWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("task %s expands into itself", name),
			Level:   "info",
		}
	}

	path := cyclePath(scc, graph)
	names := make([]string, len(path))
	for i, v := range path {
		names[i] = d.Tasks[v].Name
	}
	return RecursionWarning{
		Path:    names,
		Message: fmt.Sprintf("mutually recursive tasks: %s", strings.Join(names, " → ")),
		Level:   "info",
	}
}

// cyclePath walks edges inside the component from its smallest member until
// it returns to the start or runs out of unvisited members.
func cyclePath(scc []int, graph callGraph) []int {
	member := make(map[int]bool, len(scc))
	for _, v := range scc {
		member[v] = true
	}

	start := scc[0]
	path := []int{start}
	visited := map[int]bool{start: true}
	for current := start; ; {
		next := -1
		for _, w := range graph[current] {
			if member[w] && (!visited[w] || w == start) {
				next = w
				break
			}
		}
		if next < 0 {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		visited[next] = true
		current = next
	}
	return path
}
