package compiler

import (
	"fmt"

	"github.com/roach88/htn/internal/ir"
)

// declIndex resolves declaration names while compiling. Task indices follow
// the global order: primitives first, then composites.
type declIndex struct {
	facts      map[string]int
	factParams [][]ir.Param
	tasks      map[string]int
	taskParams [][]ir.Param
}

func newDeclIndex(d *ir.Domain) *declIndex {
	idx := &declIndex{
		facts: make(map[string]int, len(d.Facts)),
		tasks: make(map[string]int, len(d.Primitives)+len(d.Tasks)),
	}
	for i, f := range d.Facts {
		if _, dup := idx.facts[f.Name]; !dup {
			idx.facts[f.Name] = i
		}
		idx.factParams = append(idx.factParams, f.Params)
	}
	for _, p := range d.Primitives {
		if _, dup := idx.tasks[p.Name]; !dup {
			idx.tasks[p.Name] = len(idx.taskParams)
		}
		idx.taskParams = append(idx.taskParams, p.Params)
	}
	for _, t := range d.Tasks {
		if _, dup := idx.tasks[t.Name]; !dup {
			idx.tasks[t.Name] = len(idx.taskParams)
		}
		idx.taskParams = append(idx.taskParams, t.Params)
	}
	return idx
}

// caseScope is the variable analysis of one case.
type caseScope struct {
	params  []ir.Param
	outputs []ir.Param // precondition outputs in first-use order
	// inputs are the indices of params referenced by the precondition or
	// guard, in declaration order.
	inputs []int
}

func (s *caseScope) param(name string) (int, bool) {
	for i, p := range s.params {
		if p.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (s *caseScope) output(name string) (int, bool) {
	for i, p := range s.outputs {
		if p.Name == name {
			return i, true
		}
	}
	return 0, false
}

// analyzeCase computes the variable scope of a case and reports every
// problem found in its precondition, guard and task list.
func analyzeCase(idx *declIndex, params []ir.Param, c *ir.CaseDecl, field string) (*caseScope, []ValidationError) {
	var errs []ValidationError
	scope := &caseScope{params: params}
	referenced := make([]bool, len(params))

	// boundAll holds the outputs bound in every disjunct seen so far.
	var boundAll map[string]bool

	for d, conj := range c.Precondition.Disjuncts {
		bound := make(map[string]bool)
		for l, lit := range conj.Literals {
			lf := fmt.Sprintf("%s.pre[%d][%d]", field, d, l)
			fi, ok := idx.facts[lit.Fact]
			if !ok {
				errs = append(errs, ValidationError{
					Field:   lf,
					Message: fmt.Sprintf("undeclared fact %q", lit.Fact),
					Code:    ErrUndeclaredFact,
				})
				continue
			}
			fields := idx.factParams[fi]
			if len(lit.Args) != len(fields) {
				errs = append(errs, ValidationError{
					Field:   lf,
					Message: fmt.Sprintf("fact %q takes %d arguments, got %d", lit.Fact, len(fields), len(lit.Args)),
					Code:    ErrArityMismatch,
				})
				continue
			}
			for a, arg := range lit.Args {
				af := fmt.Sprintf("%s.args[%d]", lf, a)
				ft := fields[a].Type
				switch {
				case arg.IsExpr():
				case !arg.IsVar():
					if _, err := arg.Const.ValueAs(ft); err != nil {
						errs = append(errs, ValidationError{Field: af, Message: err.Error(), Code: ErrConstantRange})
					}
				case arg.Var == Wildcard:
				default:
					if pi, ok := scope.param(arg.Var); ok {
						referenced[pi] = true
						errs = append(errs, checkType(af, arg.Var, params[pi].Type, ft)...)
						continue
					}
					if oi, ok := scope.output(arg.Var); ok {
						errs = append(errs, checkType(af, arg.Var, scope.outputs[oi].Type, ft)...)
					} else {
						scope.outputs = append(scope.outputs, ir.Param{Name: arg.Var, Type: ft})
					}
					bound[arg.Var] = true
				}
			}
			// Expressions see the variables bound by earlier literals and by
			// the plain variable fields of this one.
			for a, arg := range lit.Args {
				if arg.IsExpr() {
					af := fmt.Sprintf("%s.args[%d]", lf, a)
					errs = append(errs, checkExpr(af, arg.Expr, fields[a].Type, scope, bound, referenced)...)
				}
			}
		}
		if boundAll == nil {
			boundAll = bound
			continue
		}
		for name := range boundAll {
			if !bound[name] {
				delete(boundAll, name)
			}
		}
	}

	if c.Guard != "" {
		idents, err := exprIdents(c.Guard)
		if err == nil {
			for _, name := range idents {
				if pi, ok := scope.param(name); ok {
					referenced[pi] = true
				}
			}
			_, err = compileGuard(c.Guard, scope.params, scope.outputs)
		}
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   field + ".guard",
				Message: err.Error(),
				Code:    ErrInvalidGuard,
			})
		}
	}

	for i, call := range c.TaskList {
		cf := fmt.Sprintf("%s.do[%d]", field, i)
		ti, ok := idx.tasks[call.Task]
		if !ok {
			errs = append(errs, ValidationError{
				Field:   cf,
				Message: fmt.Sprintf("undeclared task %q", call.Task),
				Code:    ErrUndeclaredTask,
			})
			continue
		}
		callee := idx.taskParams[ti]
		if len(call.Args) != len(callee) {
			errs = append(errs, ValidationError{
				Field:   cf,
				Message: fmt.Sprintf("task %q takes %d arguments, got %d", call.Task, len(callee), len(call.Args)),
				Code:    ErrArityMismatch,
			})
			continue
		}
		for a, arg := range call.Args {
			af := fmt.Sprintf("%s.args[%d]", cf, a)
			ft := callee[a].Type
			switch {
			case arg.IsExpr():
				errs = append(errs, checkExpr(af, arg.Expr, ft, scope, boundAll, referenced)...)
			case !arg.IsVar():
				if _, err := arg.Const.ValueAs(ft); err != nil {
					errs = append(errs, ValidationError{Field: af, Message: err.Error(), Code: ErrConstantRange})
				}
			case arg.Var == Wildcard:
				errs = append(errs, ValidationError{
					Field:   af,
					Message: fmt.Sprintf("%q cannot be passed to a task", Wildcard),
					Code:    ErrWildcardArgument,
				})
			default:
				if pi, ok := scope.param(arg.Var); ok {
					errs = append(errs, checkType(af, arg.Var, params[pi].Type, ft)...)
					continue
				}
				oi, ok := scope.output(arg.Var)
				if !ok || !boundAll[arg.Var] {
					errs = append(errs, ValidationError{
						Field:   af,
						Message: fmt.Sprintf("variable %q is not a parameter or bound by every disjunct of the precondition", arg.Var),
						Code:    ErrUnboundVariable,
					})
					continue
				}
				errs = append(errs, checkType(af, arg.Var, scope.outputs[oi].Type, ft)...)
			}
		}
	}

	for i, ref := range referenced {
		if ref {
			scope.inputs = append(scope.inputs, i)
		}
	}
	return scope, errs
}

// checkExpr reports the problems of an argument expression evaluated where a
// value of type ft is expected. Every variable it reads must be a parameter
// or in bound.
func checkExpr(field, src string, ft ir.FieldType, scope *caseScope, bound map[string]bool, referenced []bool) []ValidationError {
	idents, err := exprIdents(src)
	if err != nil {
		return []ValidationError{{Field: field, Message: err.Error(), Code: ErrInvalidExpr}}
	}
	var errs []ValidationError
	for _, name := range idents {
		if pi, ok := scope.param(name); ok {
			referenced[pi] = true
			continue
		}
		if !bound[name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("variable %q in %q is not a parameter or bound where the expression is evaluated", name, src),
				Code:    ErrUnboundVariable,
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	if _, err := compileExpr(src, ft, scope.params, scope.outputs); err != nil {
		return []ValidationError{{Field: field, Message: err.Error(), Code: ErrInvalidExpr}}
	}
	return nil
}

func checkType(field, name string, have, want ir.FieldType) []ValidationError {
	if have == want {
		return nil
	}
	return []ValidationError{{
		Field:   field,
		Message: fmt.Sprintf("variable %q has type %s, used where %s is expected", name, have, want),
		Code:    ErrTypeMismatch,
	}}
}
