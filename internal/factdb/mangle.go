package factdb

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/google/mangle/ast"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"github.com/roach88/htn/internal/compiler"
	"github.com/roach88/htn/internal/ir"
)

// LoadMangle reads a Datalog source of ground facts, e.g.
//
//	start(1).
//	short_distance(1, 2).
//
// Facts are added in source order. Rules and declarations are rejected:
// the planner consumes facts only.
func LoadMangle(r io.Reader, dom *compiler.Domain) (*Memory, error) {
	unit, err := parse.Unit(r)
	if err != nil {
		return nil, fmt.Errorf("parse datalog: %w", err)
	}

	m := NewMemory(dom)
	for _, clause := range unit.Clauses {
		if len(clause.Premises) > 0 {
			return nil, fmt.Errorf("%s: rules are not supported in fact files", clause.Head.Predicate.Symbol)
		}
		if err := m.addAtom(clause.Head); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// FromMangleStore snapshots the facts of every declared fact type held by a
// Mangle fact store. A store has no stable iteration order, so instances
// are sorted by their Datalog text.
func FromMangleStore(store factstore.ReadOnlyFactStore, dom *compiler.Domain) (*Memory, error) {
	m := NewMemory(dom)
	for _, f := range dom.Facts {
		pred := ast.PredicateSym{Symbol: f.Name, Arity: len(f.Params)}
		var atoms []ast.Atom
		err := store.GetFacts(ast.NewQuery(pred), func(a ast.Atom) error {
			atoms = append(atoms, a)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", f.Name, err)
		}
		sort.Slice(atoms, func(i, j int) bool {
			return atoms[i].String() < atoms[j].String()
		})
		for _, a := range atoms {
			if err := m.addAtom(a); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// ToMangleStore copies every instance into a new in-memory Mangle store.
// Datalog numbers are 64-bit signed, so unsigned values above
// math.MaxInt64 are stored as their decimal string.
func (m *Memory) ToMangleStore() factstore.FactStore {
	store := factstore.NewSimpleInMemoryStore()
	for ft, f := range m.dom.Facts {
		for _, row := range m.Rows(ft) {
			args := make([]ast.BaseTerm, len(row))
			for i, v := range row {
				args[i] = mangleConstant(v)
			}
			store.Add(ast.NewAtom(f.Name, args...))
		}
	}
	return store
}

func mangleConstant(v ir.Value) ast.Constant {
	switch {
	case v.Type.Float():
		return ast.Float64(v.Float64())
	case v.Type.Signed():
		return ast.Number(v.Int64())
	case v.Uint64() > math.MaxInt64:
		return ast.String(v.String())
	default:
		return ast.Number(int64(v.Uint64()))
	}
}

func (m *Memory) addAtom(a ast.Atom) error {
	name := a.Predicate.Symbol
	ft, ok := m.dom.FactIndex(name)
	if !ok {
		return fmt.Errorf("unknown fact %q", name)
	}
	params := m.dom.Facts[ft].Params
	if len(a.Args) != len(params) {
		return fmt.Errorf("fact %s takes %d values, got %d", name, len(params), len(a.Args))
	}
	row := make([]ir.Value, len(a.Args))
	for i, arg := range a.Args {
		c, ok := arg.(ast.Constant)
		if !ok {
			return fmt.Errorf("fact %s field %s: %v is not a constant", name, params[i].Name, arg)
		}
		v, err := constantValue(params[i].Type, c)
		if err != nil {
			return fmt.Errorf("fact %s field %s: %w", name, params[i].Name, err)
		}
		row[i] = v
	}
	return m.AddRow(ft, row...)
}

func constantValue(t ir.FieldType, c ast.Constant) (ir.Value, error) {
	switch c.Type {
	case ast.NumberType:
		return ir.FromInt(t, c.NumValue)
	case ast.Float64Type:
		return ir.FromFloat(t, math.Float64frombits(uint64(c.NumValue)))
	case ast.StringType:
		v, err := ir.ParseValue(t, c.Symbol)
		if err != nil {
			return ir.Value{}, fmt.Errorf("unsupported constant %s, facts hold numbers only", c.String())
		}
		return v, nil
	default:
		return ir.Value{}, fmt.Errorf("unsupported constant %s, facts hold numbers only", c.String())
	}
}
