package ir

import (
	"math"
	"strconv"
	"strings"
)

// Domain is the parsed description of a planning domain: fact schemas,
// primitive tasks and composite tasks with their decomposition cases.
// Declaration order is significant everywhere.
type Domain struct {
	Name       string          `json:"name"`
	Facts      []FactDecl      `json:"facts"`
	Primitives []TaskDecl      `json:"primitives"`
	Tasks      []CompositeDecl `json:"tasks"`
}

// Param is a named, typed field of a fact or task.
type Param struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// FactDecl declares a fact schema.
type FactDecl struct {
	Name   string  `json:"name"`
	Params []Param `json:"params"`
}

// TaskDecl declares a primitive task.
type TaskDecl struct {
	Name   string  `json:"name"`
	Params []Param `json:"params"`
}

// CompositeDecl declares a composite task and its ordered cases.
type CompositeDecl struct {
	Name   string     `json:"name"`
	Params []Param    `json:"params"`
	Cases  []CaseDecl `json:"cases"`
}

// CaseDecl is one decomposition alternative of a composite task.
// Guard is an optional boolean expression over parameters and precondition
// variables, checked after the literals of a conjunct have matched.
//
// A case with Each set expands its task list once for every precondition
// binding instead of only the first one that works out, and succeeds when
// at least one binding expanded.
type CaseDecl struct {
	Precondition Precondition `json:"precondition"`
	Guard        string       `json:"guard,omitempty"`
	Each         bool         `json:"each,omitempty"`
	TaskList     []Call       `json:"task_list"`
}

// Precondition is a disjunction of conjunctions. A precondition with no
// disjuncts is trivially satisfied once.
type Precondition struct {
	Disjuncts []Conjunct `json:"disjuncts"`
}

// Trivial reports whether the precondition has no literals at all.
func (p Precondition) Trivial() bool {
	for _, c := range p.Disjuncts {
		if len(c.Literals) > 0 {
			return false
		}
	}
	return true
}

// Conjunct is a conjunction of literals.
type Conjunct struct {
	Literals []Literal `json:"literals"`
}

// Literal is a possibly negated fact pattern. Arguments are positional.
type Literal struct {
	Fact    string `json:"fact"`
	Negated bool   `json:"negated,omitempty"`
	Args    []Term `json:"args"`
}

// Call is a task-list item: a task invocation with positional arguments.
type Call struct {
	Task string `json:"task"`
	Args []Term `json:"args"`
}

// Term is a literal or call argument: a variable reference, a numeric
// constant or an arithmetic expression over variables.
type Term struct {
	Var   string `json:"var,omitempty"`
	Const *Const `json:"const,omitempty"`
	Expr  string `json:"expr,omitempty"`
}

// Const is a numeric constant as written in the domain. Its field type is
// fixed by the position it appears in. Unsigned marks an integer above
// math.MaxInt64 whose bits are held in Int.
type Const struct {
	IsFloat  bool    `json:"is_float,omitempty"`
	Unsigned bool    `json:"unsigned,omitempty"`
	Int      int64   `json:"int,omitempty"`
	Float    float64 `json:"float,omitempty"`
}

// Var returns a variable term.
func Var(name string) Term {
	return Term{Var: name}
}

// Expression returns an expression term.
func Expression(src string) Term {
	return Term{Expr: src}
}

// IntConst returns an integer constant term.
func IntConst(n int64) Term {
	return Term{Const: &Const{Int: n}}
}

// UintConst returns an integer constant term for an unsigned value.
func UintConst(n uint64) Term {
	if n <= math.MaxInt64 {
		return IntConst(int64(n))
	}
	return Term{Const: &Const{Unsigned: true, Int: int64(n)}}
}

// FloatConst returns a float constant term.
func FloatConst(f float64) Term {
	return Term{Const: &Const{IsFloat: true, Float: f}}
}

// IsVar reports whether the term references a variable.
func (t Term) IsVar() bool {
	return t.Const == nil && t.Expr == ""
}

// IsExpr reports whether the term is an expression.
func (t Term) IsExpr() bool {
	return t.Expr != ""
}

// ValueAs converts the constant to a value of field type ft.
func (c Const) ValueAs(ft FieldType) (Value, error) {
	switch {
	case c.IsFloat:
		return FromFloat(ft, c.Float)
	case c.Unsigned:
		return ValueOf(ft, uint64(c.Int))
	default:
		return FromInt(ft, c.Int)
	}
}

func (t Term) String() string {
	switch {
	case t.IsExpr():
		return t.Expr
	case t.IsVar():
		return t.Var
	case t.Const.IsFloat:
		return strconv.FormatFloat(t.Const.Float, 'g', -1, 64)
	case t.Const.Unsigned:
		return strconv.FormatUint(uint64(t.Const.Int), 10)
	default:
		return strconv.FormatInt(t.Const.Int, 10)
	}
}

func (l Literal) String() string {
	var b strings.Builder
	if l.Negated {
		b.WriteString("not ")
	}
	b.WriteString(l.Fact)
	writeTerms(&b, l.Args)
	return b.String()
}

func (c Call) String() string {
	var b strings.Builder
	b.WriteString(c.Task)
	writeTerms(&b, c.Args)
	return b.String()
}

func writeTerms(b *strings.Builder, args []Term) {
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
}
