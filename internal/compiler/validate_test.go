package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/htn/internal/ir"
	"github.com/roach88/htn/internal/testutil"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateTravel(t *testing.T) {
	assert.Empty(t, Validate(testutil.TravelDomain()))
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *ir.Domain)
		codes  []string
	}{
		{
			name: "duplicate fact",
			mutate: func(d *ir.Domain) {
				d.Facts = append(d.Facts, d.Facts[0])
			},
			codes: []string{ErrDuplicateName},
		},
		{
			name: "primitive and composite share a name",
			mutate: func(d *ir.Domain) {
				d.Primitives[0].Name = "travel"
				d.Tasks[1].Cases[0].TaskList = []ir.Call{testutil.Do("plane!", "x", "y")}
			},
			codes: []string{ErrDuplicateName},
		},
		{
			name: "reserved fact name",
			mutate: func(d *ir.Domain) {
				d.Facts = append(d.Facts, ir.FactDecl{Name: "not", Params: []ir.Param{}})
			},
			codes: []string{ErrReservedName},
		},
		{
			name: "invalid param type",
			mutate: func(d *ir.Domain) {
				d.Facts[0].Params[0].Type = ir.TypeInvalid
			},
			codes: []string{ErrInvalidFieldType, ErrTypeMismatch},
		},
		{
			name: "undeclared fact",
			mutate: func(d *ir.Domain) {
				d.Tasks[1].Cases[0].Precondition = testutil.Pre(testutil.Lit("near", "x", "y"))
			},
			codes: []string{ErrUndeclaredFact},
		},
		{
			name: "undeclared task",
			mutate: func(d *ir.Domain) {
				d.Tasks[1].Cases[0].TaskList = []ir.Call{testutil.Do("walk!", "x", "y")}
			},
			codes: []string{ErrUndeclaredTask},
		},
		{
			name: "literal arity",
			mutate: func(d *ir.Domain) {
				d.Tasks[1].Cases[0].Precondition = testutil.Pre(testutil.Lit("short_distance", "x"))
			},
			codes: []string{ErrArityMismatch},
		},
		{
			name: "call arity",
			mutate: func(d *ir.Domain) {
				d.Tasks[1].Cases[0].TaskList = []ir.Call{testutil.Do("taxi!", "x")}
			},
			codes: []string{ErrArityMismatch},
		},
		{
			name: "type mismatch",
			mutate: func(d *ir.Domain) {
				d.Primitives[0].Params[0].Type = ir.TypeInt64
			},
			codes: []string{ErrTypeMismatch},
		},
		{
			name: "constant out of range",
			mutate: func(d *ir.Domain) {
				d.Tasks[1].Cases[0].Precondition.Disjuncts[0].Literals[0].Args[1] = ir.IntConst(-1)
			},
			codes: []string{ErrConstantRange},
		},
		{
			name: "output bound in one disjunct only",
			mutate: func(d *ir.Domain) {
				d.Tasks[0].Cases[0].Precondition.Disjuncts = append(
					d.Tasks[0].Cases[0].Precondition.Disjuncts,
					ir.Conjunct{Literals: []ir.Literal{testutil.Lit("start", "s")}},
				)
			},
			codes: []string{ErrUnboundVariable},
		},
		{
			name: "unknown variable in call",
			mutate: func(d *ir.Domain) {
				d.Tasks[1].Cases[0].TaskList = []ir.Call{testutil.Do("taxi!", "x", "z")}
			},
			codes: []string{ErrUnboundVariable},
		},
		{
			name: "no cases",
			mutate: func(d *ir.Domain) {
				d.Tasks[2].Cases = nil
			},
			codes: []string{ErrNoCases},
		},
		{
			name: "bad guard",
			mutate: func(d *ir.Domain) {
				d.Tasks[1].Cases[0].Guard = "x >"
			},
			codes: []string{ErrInvalidGuard},
		},
		{
			name: "guard references unknown variable",
			mutate: func(d *ir.Domain) {
				d.Tasks[1].Cases[0].Guard = "z == 1"
			},
			codes: []string{ErrInvalidGuard},
		},
		{
			name: "wildcard passed to task",
			mutate: func(d *ir.Domain) {
				d.Tasks[1].Cases[0].TaskList = []ir.Call{testutil.Do("taxi!", "x", "_")}
			},
			codes: []string{ErrWildcardArgument},
		},
		{
			name: "expression reads an unbound variable",
			mutate: func(d *ir.Domain) {
				d.Tasks[1].Cases[0].TaskList = []ir.Call{{Task: "taxi!", Args: []ir.Term{ir.Var("x"), ir.Expression("q + 1")}}}
			},
			codes: []string{ErrUnboundVariable},
		},
		{
			name: "expression reads a variable bound later",
			mutate: func(d *ir.Domain) {
				d.Tasks[2].Cases[0].Precondition = testutil.Pre(
					ir.Literal{Fact: "airport", Args: []ir.Term{ir.Var("x"), ir.Expression("ay + 1")}},
					testutil.Lit("airport", "y", "ay"),
				)
				d.Tasks[2].Cases[0].TaskList = []ir.Call{testutil.Do("plane!", "x", "ay")}
			},
			codes: []string{ErrUnboundVariable},
		},
		{
			name: "expression reads a field of its own literal",
			mutate: func(d *ir.Domain) {
				d.Tasks[1].Cases[0].Precondition = testutil.Pre(
					ir.Literal{Fact: "airport", Args: []ir.Term{ir.Expression("p - 1"), ir.Var("p")}},
				)
			},
			codes: []string{},
		},
		{
			name: "expression does not parse",
			mutate: func(d *ir.Domain) {
				d.Tasks[1].Cases[0].TaskList = []ir.Call{{Task: "taxi!", Args: []ir.Term{ir.Var("x"), ir.Expression("x +")}}}
			},
			codes: []string{ErrInvalidExpr},
		},
		{
			name: "expression is not a number",
			mutate: func(d *ir.Domain) {
				d.Tasks[1].Cases[0].TaskList = []ir.Call{{Task: "taxi!", Args: []ir.Term{ir.Var("x"), ir.Expression("x > y")}}}
			},
			codes: []string{ErrInvalidExpr},
		},
		{
			name: "no composite tasks",
			mutate: func(d *ir.Domain) {
				d.Tasks = nil
			},
			codes: []string{ErrEmptyDomain},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testutil.TravelDomain()
			tt.mutate(d)
			assert.Equal(t, tt.codes, codes(Validate(d)))
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	d := testutil.TravelDomain()
	d.Tasks[1].Cases[0].TaskList = []ir.Call{testutil.Do("walk!", "x", "y")}
	d.Tasks[1].Cases[1].Precondition = testutil.Pre(testutil.Lit("near", "x", "y"))

	errs := Validate(d)
	require.Len(t, errs, 2)
	assert.Equal(t, "tasks[1].cases[0].do[0]", errs[0].Field)
	assert.Equal(t, "tasks[1].cases[1].pre[0][0]", errs[1].Field)
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "facts[0]", Message: "bad", Code: ErrDuplicateName}
	assert.Equal(t, "[E201] facts[0]: bad", err.Error())

	multi := ValidationErrors{err, err}
	assert.Contains(t, multi.Error(), "2 validation errors")
}
