package testutil

import "github.com/roach88/htn/internal/ir"

// TravelCUE is the travel domain in the CUE domain format.
const TravelCUE = `
domain: travel: {
	facts: {
		start: {loc: "id32"}
		finish: {loc: "id32"}
		short_distance: {from: "id32", to: "id32"}
		long_distance: {from: "id32", to: "id32"}
		airport: {loc: "id32", port: "id32"}
	}
	primitives: {
		"taxi!": {from: "id32", to: "id32"}
		"plane!": {from: "id32", to: "id32"}
	}
	tasks: {
		root: cases: [{
			pre: [[{start: ["s"]}, {finish: ["f"]}]]
			do: [{travel: ["s", "f"]}]
		}]
		travel: {
			params: {x: "id32", y: "id32"}
			cases: [{
				pre: [[{short_distance: ["x", "y"]}]]
				do: [{"taxi!": ["x", "y"]}]
			}, {
				pre: [[{long_distance: ["x", "y"]}]]
				do: [{travel_by_plane: ["x", "y"]}]
			}]
		}
		travel_by_plane: {
			params: {x: "id32", y: "id32"}
			cases: [{
				pre: [[{airport: ["x", "ax"]}, {airport: ["y", "ay"]}]]
				do: [{travel: ["x", "ax"]}, {"plane!": ["ax", "ay"]}, {travel: ["ay", "y"]}]
			}]
		}
	}
}
`

func id32(names ...string) []ir.Param {
	params := make([]ir.Param, len(names))
	for i, n := range names {
		params[i] = ir.Param{Name: n, Type: ir.TypeID32}
	}
	return params
}

func vars(names ...string) []ir.Term {
	terms := make([]ir.Term, len(names))
	for i, n := range names {
		terms[i] = ir.Var(n)
	}
	return terms
}

// Lit builds a positive literal over variables.
func Lit(fact string, args ...string) ir.Literal {
	return ir.Literal{Fact: fact, Args: vars(args...)}
}

// NotLit builds a negated literal over variables.
func NotLit(fact string, args ...string) ir.Literal {
	return ir.Literal{Fact: fact, Negated: true, Args: vars(args...)}
}

// Do builds a task-list call over variables.
func Do(task string, args ...string) ir.Call {
	return ir.Call{Task: task, Args: vars(args...)}
}

// Pre builds a single-conjunct precondition.
func Pre(lits ...ir.Literal) ir.Precondition {
	return ir.Precondition{Disjuncts: []ir.Conjunct{{Literals: lits}}}
}

// TravelDomain returns the travel domain as an AST, equal to TravelCUE.
//
// Task order: taxi!, plane!, root, travel, travel_by_plane.
func TravelDomain() *ir.Domain {
	return &ir.Domain{
		Name: "travel",
		Facts: []ir.FactDecl{
			{Name: "start", Params: id32("loc")},
			{Name: "finish", Params: id32("loc")},
			{Name: "short_distance", Params: id32("from", "to")},
			{Name: "long_distance", Params: id32("from", "to")},
			{Name: "airport", Params: id32("loc", "port")},
		},
		Primitives: []ir.TaskDecl{
			{Name: "taxi!", Params: id32("from", "to")},
			{Name: "plane!", Params: id32("from", "to")},
		},
		Tasks: []ir.CompositeDecl{
			{
				Name:   "root",
				Params: []ir.Param{},
				Cases: []ir.CaseDecl{{
					Precondition: Pre(Lit("start", "s"), Lit("finish", "f")),
					TaskList:     []ir.Call{Do("travel", "s", "f")},
				}},
			},
			{
				Name:   "travel",
				Params: id32("x", "y"),
				Cases: []ir.CaseDecl{
					{
						Precondition: Pre(Lit("short_distance", "x", "y")),
						TaskList:     []ir.Call{Do("taxi!", "x", "y")},
					},
					{
						Precondition: Pre(Lit("long_distance", "x", "y")),
						TaskList:     []ir.Call{Do("travel_by_plane", "x", "y")},
					},
				},
			},
			{
				Name:   "travel_by_plane",
				Params: id32("x", "y"),
				Cases: []ir.CaseDecl{{
					Precondition: Pre(Lit("airport", "x", "ax"), Lit("airport", "y", "ay")),
					TaskList: []ir.Call{
						Do("travel", "x", "ax"),
						Do("plane!", "ax", "ay"),
						Do("travel", "ay", "y"),
					},
				}},
			},
		},
	}
}
