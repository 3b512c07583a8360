package compiler

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"

	"github.com/roach88/htn/internal/ir"
)

// Guard is a compiled case guard: a boolean expression over the task
// parameters and precondition outputs of the case.
type Guard struct {
	Source  string
	program *vm.Program
}

// Eval runs the guard against env, which maps variable names to the values
// returned by ir.Value.Interface.
func (g *Guard) Eval(env map[string]any) (bool, error) {
	out, err := expr.Run(g.program, env)
	if err != nil {
		return false, err
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("guard %q returned %T, want bool", g.Source, out)
	}
	return ok, nil
}

func compileGuard(src string, params, outputs []ir.Param) (*Guard, error) {
	program, err := expr.Compile(src, expr.Env(typeEnv(params, outputs)), expr.AsBool())
	if err != nil {
		return nil, err
	}
	return &Guard{Source: src, program: program}, nil
}

// Expr is a compiled argument expression: arithmetic over the task
// parameters and precondition outputs of a case, producing a value of Type.
type Expr struct {
	Source  string
	Type    ir.FieldType
	program *vm.Program
}

// Eval runs the expression against env and converts the result to e.Type.
// A result that does not fit the type is an error.
func (e *Expr) Eval(env map[string]any) (ir.Value, error) {
	out, err := expr.Run(e.program, env)
	if err != nil {
		return ir.Value{}, err
	}
	v, err := ir.ValueOf(e.Type, out)
	if err != nil {
		return ir.Value{}, fmt.Errorf("expression %q: %w", e.Source, err)
	}
	return v, nil
}

// MarshalJSON writes the expression as its source text.
func (e *Expr) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Source)
}

func compileExpr(src string, ft ir.FieldType, params, outputs []ir.Param) (*Expr, error) {
	program, err := expr.Compile(src, expr.Env(typeEnv(params, outputs)))
	if err != nil {
		return nil, err
	}
	if rt := program.Node().Type(); rt != nil && !numericKind(rt.Kind()) {
		return nil, fmt.Errorf("expression %q has type %s, want a number", src, rt)
	}
	return &Expr{Source: src, Type: ft, program: program}, nil
}

func numericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Interface:
		return true
	}
	return false
}

// typeEnv maps every variable in scope to a zero value of its Go type, for
// type checking at compile time.
func typeEnv(params, outputs []ir.Param) map[string]any {
	env := make(map[string]any, len(params)+len(outputs))
	for _, p := range outputs {
		env[p.Name] = ir.Uint(p.Type, 0).Interface()
	}
	for _, p := range params {
		env[p.Name] = ir.Uint(p.Type, 0).Interface()
	}
	return env
}

// identCollector gathers identifier names from an expression tree.
type identCollector struct {
	names []string
	seen  map[string]bool
}

func (c *identCollector) Visit(node *ast.Node) {
	if id, ok := (*node).(*ast.IdentifierNode); ok && !c.seen[id.Value] {
		c.seen[id.Value] = true
		c.names = append(c.names, id.Value)
	}
}

// exprIdents returns the identifiers referenced by a guard or argument
// expression in first-use order.
func exprIdents(src string) ([]string, error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	c := &identCollector{seen: make(map[string]bool)}
	ast.Walk(&tree.Node, c)
	return c.names, nil
}
