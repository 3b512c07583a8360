package compiler

import (
	"fmt"
	"strings"
	"unicode"

	"cuelang.org/go/cue"

	"github.com/roach88/htn/internal/ir"
)

// notKey marks a negated literal in the CUE domain format.
const notKey = "not"

// CompileDomain parses a CUE value into a Domain.
// Uses the CUE SDK's Go API directly.
//
// The value is one domain struct, for example:
//
//	domain: travel: {
//		facts: {
//			short_distance: {from: "id32", to: "id32"}
//		}
//		primitives: {
//			"taxi!": {from: "id32", to: "id32"}
//		}
//		tasks: {
//			travel: {
//				params: {x: "id32", y: "id32"}
//				cases: [{
//					pre: [[{short_distance: ["x", "y"]}]]
//					do: [{"taxi!": ["x", "y"]}]
//				}]
//			}
//		}
//	}
//
// Struct field order is declaration order. In argument lists numbers are
// constants, identifier strings are variables and any other string is an
// arithmetic expression such as "x*2 + 1". A negated literal is written
// {not: {fact: [args]}}. A case with each: true expands its task list for
// every precondition binding.
func CompileDomain(v cue.Value) (*ir.Domain, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	dom := &ir.Domain{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		dom.Name = labels[len(labels)-1].String()
	}

	var err error
	if dom.Facts, err = parseFacts(v.LookupPath(cue.ParsePath("facts"))); err != nil {
		return nil, err
	}
	if dom.Primitives, err = parsePrimitives(v.LookupPath(cue.ParsePath("primitives"))); err != nil {
		return nil, err
	}
	if dom.Tasks, err = parseTasks(v.LookupPath(cue.ParsePath("tasks"))); err != nil {
		return nil, err
	}

	if len(dom.Tasks) == 0 {
		return nil, &CompileError{
			Field:   "tasks",
			Message: "at least one composite task is required",
			Pos:     v.Pos(),
		}
	}

	return dom, nil
}

func parseFacts(v cue.Value) ([]ir.FactDecl, error) {
	var facts []ir.FactDecl
	if !v.Exists() {
		return facts, nil
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		params, err := parseParams("facts."+iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		facts = append(facts, ir.FactDecl{Name: iter.Label(), Params: params})
	}
	return facts, nil
}

func parsePrimitives(v cue.Value) ([]ir.TaskDecl, error) {
	var prims []ir.TaskDecl
	if !v.Exists() {
		return prims, nil
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		params, err := parseParams("primitives."+iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		prims = append(prims, ir.TaskDecl{Name: iter.Label(), Params: params})
	}
	return prims, nil
}

func parseTasks(v cue.Value) ([]ir.CompositeDecl, error) {
	var tasks []ir.CompositeDecl
	if !v.Exists() {
		return tasks, nil
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		tv := iter.Value()
		task := ir.CompositeDecl{Name: name, Params: []ir.Param{}}

		if pv := tv.LookupPath(cue.ParsePath("params")); pv.Exists() {
			if task.Params, err = parseParams("tasks."+name+".params", pv); err != nil {
				return nil, err
			}
		}

		cv := tv.LookupPath(cue.ParsePath("cases"))
		if !cv.Exists() {
			return nil, &CompileError{
				Field:   "tasks." + name + ".cases",
				Message: "cases is required",
				Pos:     tv.Pos(),
			}
		}
		caseIter, err := cv.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for i := 0; caseIter.Next(); i++ {
			c, err := parseCase(fmt.Sprintf("tasks.%s.cases[%d]", name, i), caseIter.Value())
			if err != nil {
				return nil, err
			}
			task.Cases = append(task.Cases, c)
		}

		tasks = append(tasks, task)
	}
	return tasks, nil
}

// parseParams reads an ordered {name: "type"} struct.
func parseParams(field string, v cue.Value) ([]ir.Param, error) {
	params := []ir.Param{}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		typeName, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   field + "." + iter.Label(),
				Message: "field type must be a string",
				Pos:     iter.Value().Pos(),
			}
		}
		ft, ok := ir.ParseFieldType(typeName)
		if !ok {
			return nil, &CompileError{
				Field:   field + "." + iter.Label(),
				Message: fmt.Sprintf("unknown field type %q", typeName),
				Pos:     iter.Value().Pos(),
			}
		}
		params = append(params, ir.Param{Name: iter.Label(), Type: ft})
	}
	return params, nil
}

func parseCase(field string, v cue.Value) (ir.CaseDecl, error) {
	var c ir.CaseDecl

	if pv := v.LookupPath(cue.ParsePath("pre")); pv.Exists() {
		pre, err := parsePrecondition(field+".pre", pv)
		if err != nil {
			return c, err
		}
		c.Precondition = pre
	}

	if gv := v.LookupPath(cue.ParsePath("guard")); gv.Exists() {
		guard, err := gv.String()
		if err != nil {
			return c, formatCUEError(err)
		}
		c.Guard = guard
	}

	if ev := v.LookupPath(cue.ParsePath("each")); ev.Exists() {
		each, err := ev.Bool()
		if err != nil {
			return c, &CompileError{Field: field + ".each", Message: "each must be a bool", Pos: ev.Pos()}
		}
		c.Each = each
	}

	c.TaskList = []ir.Call{}
	if dv := v.LookupPath(cue.ParsePath("do")); dv.Exists() {
		iter, err := dv.List()
		if err != nil {
			return c, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			name, args, err := parseApplication(fmt.Sprintf("%s.do[%d]", field, i), iter.Value())
			if err != nil {
				return c, err
			}
			c.TaskList = append(c.TaskList, ir.Call{Task: name, Args: args})
		}
	}

	return c, nil
}

// parsePrecondition reads a list of conjunctions, each a list of literals.
func parsePrecondition(field string, v cue.Value) (ir.Precondition, error) {
	var pre ir.Precondition

	iter, err := v.List()
	if err != nil {
		return pre, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		litIter, err := iter.Value().List()
		if err != nil {
			return pre, &CompileError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: "conjunction must be a list of literals",
				Pos:     iter.Value().Pos(),
			}
		}
		conj := ir.Conjunct{Literals: []ir.Literal{}}
		for j := 0; litIter.Next(); j++ {
			lit, err := parseLiteral(fmt.Sprintf("%s[%d][%d]", field, i, j), litIter.Value())
			if err != nil {
				return pre, err
			}
			conj.Literals = append(conj.Literals, lit)
		}
		pre.Disjuncts = append(pre.Disjuncts, conj)
	}
	return pre, nil
}

func parseLiteral(field string, v cue.Value) (ir.Literal, error) {
	if nv := v.LookupPath(cue.ParsePath(notKey)); nv.Exists() {
		name, args, err := parseApplication(field+"."+notKey, nv)
		if err != nil {
			return ir.Literal{}, err
		}
		return ir.Literal{Fact: name, Negated: true, Args: args}, nil
	}

	name, args, err := parseApplication(field, v)
	if err != nil {
		return ir.Literal{}, err
	}
	return ir.Literal{Fact: name, Args: args}, nil
}

// parseApplication reads a single-field struct {name: [args]}.
func parseApplication(field string, v cue.Value) (string, []ir.Term, error) {
	iter, err := v.Fields()
	if err != nil {
		return "", nil, formatCUEError(err)
	}
	if !iter.Next() {
		return "", nil, &CompileError{Field: field, Message: "expected {name: [args]}", Pos: v.Pos()}
	}
	name := iter.Label()
	argsVal := iter.Value()
	if iter.Next() {
		return "", nil, &CompileError{Field: field, Message: "expected exactly one name per item", Pos: v.Pos()}
	}

	args := []ir.Term{}
	argIter, err := argsVal.List()
	if err != nil {
		return "", nil, &CompileError{Field: field + "." + name, Message: "arguments must be a list", Pos: argsVal.Pos()}
	}
	for i := 0; argIter.Next(); i++ {
		term, err := parseTerm(fmt.Sprintf("%s.%s[%d]", field, name, i), argIter.Value())
		if err != nil {
			return "", nil, err
		}
		args = append(args, term)
	}
	return name, args, nil
}

func parseTerm(field string, v cue.Value) (ir.Term, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return ir.Term{}, formatCUEError(err)
		}
		if strings.TrimSpace(s) == "" {
			return ir.Term{}, &CompileError{Field: field, Message: "empty argument", Pos: v.Pos()}
		}
		if isIdent(s) {
			return ir.Var(s), nil
		}
		return ir.Expression(s), nil
	case cue.IntKind:
		if n, err := v.Int64(); err == nil {
			return ir.IntConst(n), nil
		}
		u, err := v.Uint64()
		if err != nil {
			return ir.Term{}, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return ir.UintConst(u), nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return ir.Term{}, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return ir.FloatConst(f), nil
	default:
		return ir.Term{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("argument must be a variable name or a number, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

func isIdent(s string) bool {
	for i, r := range s {
		if r != '_' && !unicode.IsLetter(r) && (i == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}
	return s != ""
}
