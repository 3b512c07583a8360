package engine

import (
	"log/slog"

	"github.com/roach88/htn/internal/compiler"
	"github.com/roach88/htn/internal/ir"
)

// bind pulls the next precondition binding of f. When the current case
// runs dry the next case is activated; when the last case runs dry the
// task occurrence fails. An each case that expanded at least one binding
// is done when it runs dry.
func (p *Planner) bind(f *frame) {
	t := &p.dom.Tasks[f.task]
	if p.nextBinding(f) {
		f.bindMark = len(p.plan)
		f.state = expandEmit
		f.item = 0
		if p.trace != nil {
			c := &p.dom.Cases[f.cas]
			out := p.bytes(f.outOff, c.Outputs.Size)
			b := make(map[string]ir.Value, len(c.OutputNames))
			for i, name := range c.OutputNames {
				b[name] = c.Outputs.Get(out, i)
			}
			p.emitTrace(TraceEvent{
				Kind: TraceBinding, Depth: len(p.frames) - 1, Task: t.Name,
				Case: c.Index, Args: p.frameArgs(f), Bindings: b,
			})
		}
		return
	}

	if f.expanded {
		p.done(f)
		return
	}

	next := f.cas + 1
	if next < t.FirstCase+t.NumCases {
		p.stats.Fallbacks++
		fallbacksTotal.Inc()
		p.logger.Debug("case exhausted",
			slog.String("task", t.Name),
			slog.Int("case", f.cas-t.FirstCase),
			slog.Int("next", next-t.FirstCase))
		p.emitTrace(TraceEvent{
			Kind: TraceFallback, Depth: len(p.frames) - 1, Task: t.Name,
			Case: next - t.FirstCase, Args: p.frameArgs(f),
		})
		p.activate(f, next)
		return
	}

	p.fail(f)
}

// emit produces task-list item f.item of the current binding. An each case
// goes back for its next binding once the task list is through.
func (p *Planner) emit(f *frame) error {
	c := &p.dom.Cases[f.cas]
	if f.item == len(c.Calls) {
		if c.Each {
			f.expanded = true
			f.state = expandBinding
			return nil
		}
		p.done(f)
		return nil
	}

	call := &c.Calls[f.item]
	f.item++
	args, err := p.callArgs(f, call.Args)
	if err != nil {
		return err
	}
	if p.dom.Tasks[call.Task].Primitive {
		p.appendStep(call.Task, args, len(p.frames))
		return nil
	}

	f.state = expandWait
	return p.pushFrame(call.Task, args)
}

// done pops a fully expanded frame and lets its parent continue with its
// next task-list item.
func (p *Planner) done(f *frame) {
	t := &p.dom.Tasks[f.task]
	p.emitTrace(TraceEvent{
		Kind: TraceDone, Depth: len(p.frames) - 1, Task: t.Name,
		Case: f.cas - t.FirstCase, Args: p.frameArgs(f),
	})
	p.popFrame()
	if len(p.frames) == 0 {
		p.status = StatusSucceeded
		return
	}
	p.top().state = expandEmit
}

// fail pops a frame whose cases are all exhausted. The plan is cut back to
// the parent's binding mark and the parent resumes its precondition search.
func (p *Planner) fail(f *frame) {
	t := &p.dom.Tasks[f.task]
	p.emitTrace(TraceEvent{
		Kind: TraceFail, Depth: len(p.frames) - 1, Task: t.Name,
		Case: -1, Args: p.frameArgs(f),
	})
	p.plan = p.plan[:f.planMark]
	p.popFrame()
	if len(p.frames) == 0 {
		p.status = StatusFailed
		return
	}

	p.stats.Backtracks++
	backtracksTotal.Inc()
	parent := p.top()
	p.plan = p.plan[:parent.bindMark]
	parent.state = expandBinding
	p.logger.Debug("backtracking",
		slog.String("task", p.dom.Tasks[parent.task].Name),
		slog.String("failed", t.Name))
}

// callArgs evaluates the argument ops of a call against f. The returned
// slice is only valid until the next call. An argument expression that
// fails or does not fit its parameter type is an *ExprError.
func (p *Planner) callArgs(f *frame, ops []compiler.ArgOp) ([]ir.Value, error) {
	t := &p.dom.Tasks[f.task]
	c := &p.dom.Cases[f.cas]
	args := p.bytes(f.argsOff, t.Signature.Size)
	out := p.bytes(f.outOff, c.Outputs.Size)

	var env map[string]any
	p.argBuf = p.argBuf[:0]
	for _, op := range ops {
		switch op.Kind {
		case compiler.ArgParam:
			p.argBuf = append(p.argBuf, t.Signature.Get(args, op.Slot))
		case compiler.ArgOutput:
			p.argBuf = append(p.argBuf, c.Outputs.Get(out, op.Slot))
		case compiler.ArgExpr:
			if env == nil {
				env = p.exprEnv(f, c)
			}
			v, err := op.Expr.Eval(env)
			if err != nil {
				return nil, &ExprError{Task: t.Name, Case: c.Index, Expr: op.Expr.Source, Err: err}
			}
			p.argBuf = append(p.argBuf, v)
		default:
			p.argBuf = append(p.argBuf, op.Const)
		}
	}
	return p.argBuf, nil
}

func (p *Planner) appendStep(ti int, args []ir.Value, depth int) {
	name := p.dom.Tasks[ti].Name
	p.plan = append(p.plan, PlanStep{Task: ti, Name: name, Args: append([]ir.Value(nil), args...)})
	p.emitTrace(TraceEvent{Kind: TraceEmit, Depth: depth, Task: name, Case: -1, Args: args})
}

func (p *Planner) frameArgs(f *frame) []ir.Value {
	t := &p.dom.Tasks[f.task]
	return t.Signature.Values(p.bytes(f.argsOff, t.Signature.Size))
}
