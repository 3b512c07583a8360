package compiler

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/htn/internal/ir"
)

// Domain is a compiled planning domain. It is immutable once built and may
// be shared by any number of planners.
type Domain struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Fingerprint string `json:"fingerprint"`

	Facts []Fact `json:"facts"`
	// Tasks holds primitives at indices [0, NumPrimitives) followed by
	// composites.
	Tasks         []Task `json:"tasks"`
	NumPrimitives int    `json:"num_primitives"`
	// Cases holds the cases of every composite task. The cases of one task
	// are contiguous and in declaration order.
	Cases []Case `json:"cases"`

	FactNames ir.NameTable `json:"fact_names"`
	TaskNames ir.NameTable `json:"task_names"`
}

// Fact is a compiled fact schema.
type Fact struct {
	Name      string       `json:"name"`
	Params    []ir.Param   `json:"params"`
	Signature ir.Signature `json:"signature"`
}

// Task is a dispatch table entry.
type Task struct {
	Name      string       `json:"name"`
	Params    []ir.Param   `json:"params"`
	Signature ir.Signature `json:"signature"`
	Primitive bool         `json:"primitive"`
	FirstCase int          `json:"first_case"`
	NumCases  int          `json:"num_cases"`
}

// Case is the executable form of one decomposition case: a precondition
// program and a task-list program.
type Case struct {
	Task  int `json:"task"`
	Index int `json:"index"`

	// Inputs holds the parameters the precondition reads; InputParams[i] is
	// the task parameter copied into input slot i.
	Inputs      ir.Signature `json:"inputs"`
	InputParams []int        `json:"input_params"`

	Outputs     ir.Signature `json:"outputs"`
	OutputNames []string     `json:"output_names"`

	Conjuncts []ConjunctProgram `json:"conjuncts"`
	Guard     *Guard            `json:"guard,omitempty"`
	// Each expands Calls for every binding; the case succeeds when at
	// least one binding expanded.
	Each  bool          `json:"each,omitempty"`
	Calls []CallProgram `json:"calls"`
}

// ConjunctProgram is one disjunct: literals joined left to right.
type ConjunctProgram struct {
	Literals []LiteralProgram `json:"literals"`
}

// LiteralProgram matches instances of one fact type. Fields[i] says what to
// do with field i of each instance. The OpBind fields of an instance are
// stored before any comparison, so a variable repeated within one literal
// compares against the instance's own earlier field.
type LiteralProgram struct {
	Fact    int       `json:"fact"`
	Negated bool      `json:"negated,omitempty"`
	Fields  []FieldOp `json:"fields"`
}

// FieldOpKind selects how a literal field is treated.
type FieldOpKind uint8

const (
	// OpAny accepts any value.
	OpAny FieldOpKind = iota
	// OpInput compares with input slot Slot.
	OpInput
	// OpOutput compares with output slot Slot, bound earlier in the conjunct.
	OpOutput
	// OpConst compares with Const.
	OpConst
	// OpBind stores the field into output slot Slot.
	OpBind
	// OpExpr compares with the value of Expr.
	OpExpr
)

var fieldOpNames = [...]string{"any", "input", "output", "const", "bind", "expr"}

func (k FieldOpKind) String() string {
	if int(k) < len(fieldOpNames) {
		return fieldOpNames[k]
	}
	return fmt.Sprintf("FieldOpKind(%d)", uint8(k))
}

// Bound reports whether the op filters instances.
func (k FieldOpKind) Bound() bool {
	return k == OpInput || k == OpOutput || k == OpConst || k == OpExpr
}

// FieldOp is one field instruction of a literal.
type FieldOp struct {
	Kind  FieldOpKind
	Slot  int
	Const ir.Value
	Expr  *Expr
}

// ArgKind selects where a call argument comes from.
type ArgKind uint8

const (
	// ArgParam reads parameter Slot of the expanding task.
	ArgParam ArgKind = iota
	// ArgOutput reads precondition output Slot.
	ArgOutput
	// ArgConst uses Const.
	ArgConst
	// ArgExpr evaluates Expr.
	ArgExpr
)

var argKindNames = [...]string{"param", "output", "const", "expr"}

func (k ArgKind) String() string {
	if int(k) < len(argKindNames) {
		return argKindNames[k]
	}
	return fmt.Sprintf("ArgKind(%d)", uint8(k))
}

// ArgOp computes one call argument.
type ArgOp struct {
	Kind  ArgKind
	Slot  int
	Const ir.Value
	Expr  *Expr
}

// CallProgram emits one task-list item.
type CallProgram struct {
	Task int     `json:"task"`
	Args []ArgOp `json:"args"`
}

type opJSON struct {
	Kind  string `json:"kind"`
	Slot  *int   `json:"slot,omitempty"`
	Const string `json:"const,omitempty"`
	Expr  string `json:"expr,omitempty"`
}

// MarshalJSON writes the slot for slot ops, the value for constants and the
// source for expressions.
func (op FieldOp) MarshalJSON() ([]byte, error) {
	w := opJSON{Kind: op.Kind.String()}
	switch op.Kind {
	case OpConst:
		w.Const = op.Const.String()
	case OpExpr:
		w.Expr = op.Expr.Source
	case OpInput, OpOutput, OpBind:
		w.Slot = &op.Slot
	}
	return json.Marshal(w)
}

// MarshalJSON writes the slot for slot args, the value for constants and
// the source for expressions.
func (op ArgOp) MarshalJSON() ([]byte, error) {
	w := opJSON{Kind: op.Kind.String()}
	switch op.Kind {
	case ArgConst:
		w.Const = op.Const.String()
	case ArgExpr:
		w.Expr = op.Expr.Source
	default:
		w.Slot = &op.Slot
	}
	return json.Marshal(w)
}

// MarshalJSON writes the guard as its source text.
func (g *Guard) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Source)
}

// TaskIndex resolves a task name through the task name table.
func (d *Domain) TaskIndex(name string) (int, bool) {
	return d.TaskNames.Lookup(name)
}

// FactIndex resolves a fact name through the fact name table.
func (d *Domain) FactIndex(name string) (int, bool) {
	return d.FactNames.Lookup(name)
}

// CasesOf returns the cases of composite task ti in fallback order.
func (d *Domain) CasesOf(ti int) []Case {
	t := d.Tasks[ti]
	return d.Cases[t.FirstCase : t.FirstCase+t.NumCases]
}

// Compile validates d and produces its executable form.
func Compile(d *ir.Domain) (*Domain, error) {
	if errs := Validate(d); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	scopes, err := caseScopes(d)
	if err != nil {
		return nil, err
	}
	sigs, err := buildSignatures(d, scopes)
	if err != nil {
		return nil, err
	}

	factNames := make([]string, len(d.Facts))
	for i, f := range d.Facts {
		factNames[i] = f.Name
	}
	taskNames := make([]string, 0, len(d.Primitives)+len(d.Tasks))
	for _, p := range d.Primitives {
		taskNames = append(taskNames, p.Name)
	}
	for _, t := range d.Tasks {
		taskNames = append(taskNames, t.Name)
	}

	out := &Domain{
		Name:          d.Name,
		Version:       ir.ArtifactVersion,
		NumPrimitives: len(d.Primitives),
	}
	if out.FactNames, err = BuildNameTable("fact", factNames); err != nil {
		return nil, err
	}
	if out.TaskNames, err = BuildNameTable("task", taskNames); err != nil {
		return nil, err
	}
	if out.Fingerprint, err = ir.Fingerprint(ir.DomainFingerprint, domainDoc(d)); err != nil {
		return nil, err
	}

	for i, f := range d.Facts {
		out.Facts = append(out.Facts, Fact{Name: f.Name, Params: f.Params, Signature: sigs.Facts[i]})
	}
	for i, p := range d.Primitives {
		out.Tasks = append(out.Tasks, Task{
			Name:      p.Name,
			Params:    p.Params,
			Signature: sigs.Tasks[i],
			Primitive: true,
		})
	}

	idx := newDeclIndex(d)
	ci := 0
	for i, t := range d.Tasks {
		ti := len(d.Primitives) + i
		out.Tasks = append(out.Tasks, Task{
			Name:      t.Name,
			Params:    t.Params,
			Signature: sigs.Tasks[ti],
			FirstCase: ci,
			NumCases:  len(t.Cases),
		})
		for j := range t.Cases {
			c, err := compileCase(idx, scopes[ci], &t.Cases[j])
			if err != nil {
				return nil, fmt.Errorf("task %q case %d: %w", t.Name, j, err)
			}
			c.Task = ti
			c.Index = j
			c.Inputs = sigs.CaseInputs[ci]
			c.Outputs = sigs.CaseOutputs[ci]
			out.Cases = append(out.Cases, c)
			ci++
		}
	}

	return out, nil
}

func compileCase(idx *declIndex, scope *caseScope, c *ir.CaseDecl) (Case, error) {
	out := Case{
		Each:        c.Each,
		InputParams: append([]int{}, scope.inputs...),
		OutputNames: make([]string, len(scope.outputs)),
		Conjuncts:   []ConjunctProgram{},
		Calls:       []CallProgram{},
	}
	for i, p := range scope.outputs {
		out.OutputNames[i] = p.Name
	}
	inputSlot := make(map[int]int, len(scope.inputs))
	for slot, pi := range scope.inputs {
		inputSlot[pi] = slot
	}

	disjuncts := c.Precondition.Disjuncts
	if len(disjuncts) == 0 {
		disjuncts = []ir.Conjunct{{}}
	}
	for _, conj := range disjuncts {
		prog := ConjunctProgram{Literals: []LiteralProgram{}}
		bound := make(map[string]bool)
		for _, lit := range conj.Literals {
			fi := idx.facts[lit.Fact]
			fields := idx.factParams[fi]
			lp := LiteralProgram{Fact: fi, Negated: lit.Negated, Fields: make([]FieldOp, len(lit.Args))}
			for a, arg := range lit.Args {
				switch {
				case arg.IsExpr():
					e, err := compileExpr(arg.Expr, fields[a].Type, scope.params, scope.outputs)
					if err != nil {
						return out, err
					}
					lp.Fields[a] = FieldOp{Kind: OpExpr, Expr: e}
				case !arg.IsVar():
					v, err := arg.Const.ValueAs(fields[a].Type)
					if err != nil {
						return out, err
					}
					lp.Fields[a] = FieldOp{Kind: OpConst, Const: v}
				case arg.Var == Wildcard:
					lp.Fields[a] = FieldOp{Kind: OpAny}
				default:
					if pi, ok := scope.param(arg.Var); ok {
						lp.Fields[a] = FieldOp{Kind: OpInput, Slot: inputSlot[pi]}
						continue
					}
					oi, _ := scope.output(arg.Var)
					if bound[arg.Var] {
						lp.Fields[a] = FieldOp{Kind: OpOutput, Slot: oi}
						continue
					}
					lp.Fields[a] = FieldOp{Kind: OpBind, Slot: oi}
					bound[arg.Var] = true
				}
			}
			prog.Literals = append(prog.Literals, lp)
		}
		out.Conjuncts = append(out.Conjuncts, prog)
	}

	if c.Guard != "" {
		g, err := compileGuard(c.Guard, scope.params, scope.outputs)
		if err != nil {
			return out, err
		}
		out.Guard = g
	}

	for _, call := range c.TaskList {
		ti := idx.tasks[call.Task]
		callee := idx.taskParams[ti]
		cp := CallProgram{Task: ti, Args: make([]ArgOp, len(call.Args))}
		for a, arg := range call.Args {
			if arg.IsExpr() {
				e, err := compileExpr(arg.Expr, callee[a].Type, scope.params, scope.outputs)
				if err != nil {
					return out, err
				}
				cp.Args[a] = ArgOp{Kind: ArgExpr, Expr: e}
				continue
			}
			if !arg.IsVar() {
				v, err := arg.Const.ValueAs(callee[a].Type)
				if err != nil {
					return out, err
				}
				cp.Args[a] = ArgOp{Kind: ArgConst, Const: v}
				continue
			}
			if pi, ok := scope.param(arg.Var); ok {
				cp.Args[a] = ArgOp{Kind: ArgParam, Slot: pi}
				continue
			}
			oi, _ := scope.output(arg.Var)
			cp.Args[a] = ArgOp{Kind: ArgOutput, Slot: oi}
		}
		out.Calls = append(out.Calls, cp)
	}

	return out, nil
}

// domainDoc is the canonical description hashed into the domain fingerprint.
func domainDoc(d *ir.Domain) map[string]any {
	params := func(ps []ir.Param) []any {
		out := make([]any, len(ps))
		for i, p := range ps {
			out[i] = []any{p.Name, p.Type.String()}
		}
		return out
	}
	terms := func(ts []ir.Term) []string {
		out := make([]string, len(ts))
		for i, t := range ts {
			switch {
			case t.IsExpr():
				out[i] = "=" + t.Expr
			case t.IsVar():
				out[i] = "?" + t.Var
			default:
				out[i] = t.String()
			}
		}
		return out
	}

	facts := make([]any, len(d.Facts))
	for i, f := range d.Facts {
		facts[i] = map[string]any{"name": f.Name, "params": params(f.Params)}
	}
	prims := make([]any, len(d.Primitives))
	for i, p := range d.Primitives {
		prims[i] = map[string]any{"name": p.Name, "params": params(p.Params)}
	}
	tasks := make([]any, len(d.Tasks))
	for i, t := range d.Tasks {
		cases := make([]any, len(t.Cases))
		for j, c := range t.Cases {
			pre := make([]any, len(c.Precondition.Disjuncts))
			for k, conj := range c.Precondition.Disjuncts {
				lits := make([]any, len(conj.Literals))
				for l, lit := range conj.Literals {
					lits[l] = map[string]any{"fact": lit.Fact, "negated": lit.Negated, "args": terms(lit.Args)}
				}
				pre[k] = lits
			}
			calls := make([]any, len(c.TaskList))
			for k, call := range c.TaskList {
				calls[k] = map[string]any{"task": call.Task, "args": terms(call.Args)}
			}
			cases[j] = map[string]any{"pre": pre, "guard": c.Guard, "each": c.Each, "do": calls}
		}
		tasks[i] = map[string]any{"name": t.Name, "params": params(t.Params), "cases": cases}
	}

	return map[string]any{
		"name":       d.Name,
		"facts":      facts,
		"primitives": prims,
		"tasks":      tasks,
	}
}
