package engine

import (
	"log/slog"

	"github.com/roach88/htn/internal/compiler"
	"github.com/roach88/htn/internal/ir"
)

// nextBinding resumes the precondition search of f and reports whether it
// produced another binding. On true the frame's output record holds the
// binding. On false the search is exhausted and stays exhausted.
//
// Disjuncts are searched in order and their results concatenated. Within a
// disjunct, literals form a nested-loop join: the handle at each depth
// walks its fact type, and when it runs off the end the handle one level
// up advances.
func (p *Planner) nextBinding(f *frame) bool {
	c := &p.dom.Cases[f.cas]
	s := &f.pre

	for {
		switch s.label {
		case preExhausted:
			return false

		case preEnter:
			if s.disjunct >= len(c.Conjuncts) {
				s.label = preExhausted
				return false
			}
			lits := c.Conjuncts[s.disjunct].Literals
			if len(lits) == 0 {
				s.label = preNextDisjunct
				if p.guardPasses(f, c) {
					return true
				}
				continue
			}
			s.depth = 0
			s.handles[0] = p.db.First(lits[0].Fact)
			s.label = preScan

		case preNextDisjunct:
			s.disjunct++
			s.label = preEnter

		case preAdvance:
			s.handles[s.depth] = p.db.Next(s.handles[s.depth])
			s.label = preScan

		case preScan:
			lits := c.Conjuncts[s.disjunct].Literals
			h := s.handles[s.depth]
			if !p.db.Valid(h) {
				if s.depth == 0 {
					s.label = preNextDisjunct
					continue
				}
				s.depth--
				s.handles[s.depth] = p.db.Next(s.handles[s.depth])
				continue
			}

			lit := &lits[s.depth]
			p.capture(f, c, lit, h)
			if !p.accept(f, c, lit, h) {
				s.handles[s.depth] = p.db.Next(h)
				continue
			}

			if s.depth+1 < len(lits) {
				s.depth++
				s.handles[s.depth] = p.db.First(lits[s.depth].Fact)
				continue
			}
			s.label = preAdvance
			if p.guardPasses(f, c) {
				return true
			}
		}
	}
}

// accept reports whether instance h passes literal lit. capture must have
// run for h first.
//
// A positive literal passes when every bound field equals its value. A
// negated literal skips the instance as soon as any bound field is equal;
// with no bound fields nothing is skipped.
func (p *Planner) accept(f *frame, c *compiler.Case, lit *compiler.LiteralProgram, h ir.FactHandle) bool {
	var env map[string]any
	for i, op := range lit.Fields {
		if !op.Kind.Bound() {
			continue
		}
		var equal bool
		if op.Kind == compiler.OpExpr {
			if env == nil {
				env = p.exprEnv(f, c)
			}
			equal = p.exprEqual(f, c, op.Expr, env, p.db.Field(h, i))
		} else {
			equal = p.db.Field(h, i).Equal(p.operand(f, c, op))
		}
		if equal == lit.Negated {
			return false
		}
	}
	return true
}

// operand returns the value a bound field op compares against.
func (p *Planner) operand(f *frame, c *compiler.Case, op compiler.FieldOp) ir.Value {
	switch op.Kind {
	case compiler.OpInput:
		return c.Inputs.Get(p.bytes(f.inOff, c.Inputs.Size), op.Slot)
	case compiler.OpOutput:
		return c.Outputs.Get(p.bytes(f.outOff, c.Outputs.Size), op.Slot)
	default:
		return op.Const
	}
}

// exprEqual reports whether field equals the value of e. An expression that
// fails or does not fit the field type equals nothing.
func (p *Planner) exprEqual(f *frame, c *compiler.Case, e *compiler.Expr, env map[string]any, field ir.Value) bool {
	v, err := e.Eval(env)
	if err != nil {
		p.logger.Debug("field expression failed",
			slog.String("task", p.dom.Tasks[f.task].Name),
			slog.Int("case", c.Index),
			slog.String("expr", e.Source),
			slog.String("error", err.Error()))
		return false
	}
	return field.Equal(v)
}

// capture stores the unbound fields of h into the output record. It runs
// before accept so later fields of the literal can compare against them.
func (p *Planner) capture(f *frame, c *compiler.Case, lit *compiler.LiteralProgram, h ir.FactHandle) {
	out := p.bytes(f.outOff, c.Outputs.Size)
	for i, op := range lit.Fields {
		if op.Kind == compiler.OpBind {
			c.Outputs.Set(out, op.Slot, p.db.Field(h, i))
		}
	}
}

// guardPasses evaluates the case guard, if any, against the current
// binding. A guard that fails at run time counts as false.
func (p *Planner) guardPasses(f *frame, c *compiler.Case) bool {
	if c.Guard == nil {
		return true
	}
	t := &p.dom.Tasks[f.task]
	ok, err := c.Guard.Eval(p.exprEnv(f, c))
	if err != nil {
		p.logger.Warn("guard evaluation failed",
			slog.String("task", t.Name),
			slog.Int("case", c.Index),
			slog.String("guard", c.Guard.Source),
			slog.String("error", err.Error()))
		return false
	}
	return ok
}

// exprEnv maps the task parameters and case outputs of f to the scalars
// guards and expressions compute with.
func (p *Planner) exprEnv(f *frame, c *compiler.Case) map[string]any {
	t := &p.dom.Tasks[f.task]
	env := make(map[string]any, t.Signature.Len()+c.Outputs.Len())
	args := p.bytes(f.argsOff, t.Signature.Size)
	for i, prm := range t.Params {
		env[prm.Name] = t.Signature.Get(args, i).Interface()
	}
	out := p.bytes(f.outOff, c.Outputs.Size)
	for i, name := range c.OutputNames {
		env[name] = c.Outputs.Get(out, i).Interface()
	}
	return env
}
