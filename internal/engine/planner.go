package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/htn/internal/compiler"
	"github.com/roach88/htn/internal/ir"
)

// Status is the state of a planning attempt after a step.
type Status uint8

const (
	// StatusRunning means more steps are needed.
	StatusRunning Status = iota
	// StatusSucceeded means the root task was fully expanded.
	StatusSucceeded
	// StatusFailed means the root task has no plan.
	StatusFailed
)

var statusNames = [...]string{"running", "succeeded", "failed"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Option configures a Planner.
type Option func(*Planner)

// WithMaxSteps sets the step budget of one planning attempt.
// A value of 0 or less disables the budget.
func WithMaxSteps(n int) Option {
	return func(p *Planner) {
		p.quota = NewQuotaEnforcer(n)
	}
}

// WithMaxDepth sets the maximum expansion stack depth.
// A value of 0 or less disables the limit.
func WithMaxDepth(n int) Option {
	return func(p *Planner) {
		p.maxDepth = n
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTrace registers fn to receive every planner transition.
func WithTrace(fn func(TraceEvent)) Option {
	return func(p *Planner) {
		p.trace = fn
	}
}

// Planner finds a plan for a root task against a fact database.
//
// A Planner is not safe for concurrent use. Create one per goroutine; the
// compiled domain may be shared.
type Planner struct {
	dom *compiler.Domain
	db  ir.FactDatabase

	quota    *QuotaEnforcer
	maxDepth int
	logger   *slog.Logger
	trace    func(TraceEvent)

	root     string
	rootArgs []ir.Value
	status   Status
	started  bool

	frames []frame
	arena  []byte
	plan   []PlanStep
	stats  Stats

	argBuf []ir.Value
}

// New creates a planner over dom and db.
func New(dom *compiler.Domain, db ir.FactDatabase, opts ...Option) *Planner {
	p := &Planner{
		dom:      dom,
		db:       db,
		quota:    NewQuotaEnforcer(DefaultMaxSteps),
		maxDepth: DefaultMaxDepth,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Begin resets the planner and starts a new attempt for task with args.
// Any previous plan is discarded.
func (p *Planner) Begin(task string, args ...ir.Value) error {
	ti, ok := p.dom.TaskIndex(task)
	if !ok {
		return &PlanError{Task: task, Message: "unknown task"}
	}
	t := &p.dom.Tasks[ti]
	if len(args) != len(t.Params) {
		return &PlanError{
			Task:    task,
			Message: fmt.Sprintf("expected %d arguments, got %d", len(t.Params), len(args)),
		}
	}
	for i, a := range args {
		if a.Type != t.Params[i].Type {
			return &PlanError{
				Task:    task,
				Message: fmt.Sprintf("argument %s: got %s, want %s", t.Params[i].Name, a.Type, t.Params[i].Type),
			}
		}
	}

	p.frames = p.frames[:0]
	p.arena = p.arena[:0]
	p.plan = nil
	p.stats = Stats{}
	p.quota.Reset()
	p.root = task
	p.rootArgs = append([]ir.Value(nil), args...)
	p.status = StatusRunning
	p.started = true

	if t.Primitive {
		p.appendStep(ti, args, 0)
		p.status = StatusSucceeded
		return nil
	}
	return p.pushFrame(ti, args)
}

// Step advances the attempt by one transition of the deepest frame.
// It returns a budget error when the step or depth budget is exhausted;
// the attempt is then over.
func (p *Planner) Step() (Status, error) {
	if !p.started {
		return StatusFailed, errors.New("engine: Step called before Begin")
	}
	if p.status != StatusRunning {
		return p.status, nil
	}
	if err := p.quota.Check(p.root); err != nil {
		p.status = StatusFailed
		return p.status, err
	}
	p.stats.Steps = p.quota.Current()

	f := p.top()
	switch f.state {
	case expandBinding:
		p.bind(f)
	case expandEmit:
		if err := p.emit(f); err != nil {
			p.status = StatusFailed
			return p.status, err
		}
	}
	return p.status, nil
}

// Run steps the current attempt to completion. It returns ErrNoPlan when
// the root task cannot be decomposed.
func (p *Planner) Run(ctx context.Context) (*Plan, error) {
	p.logger.Debug("planning started",
		slog.String("task", p.root),
		slog.Int("max_steps", p.quota.MaxSteps()),
		slog.Int("max_depth", p.maxDepth))

	status := p.status
	for status == StatusRunning {
		if err := ctx.Err(); err != nil {
			p.finish(resultError)
			return nil, err
		}
		var err error
		if status, err = p.Step(); err != nil {
			p.finish(resultError)
			p.logger.Warn("planning aborted", slog.String("task", p.root), slog.String("error", err.Error()))
			return nil, err
		}
	}

	if status == StatusFailed {
		p.finish(resultNoPlan)
		p.logger.Info("no plan found",
			slog.String("task", p.root),
			slog.Int("steps", p.stats.Steps),
			slog.Int("backtracks", p.stats.Backtracks))
		return nil, fmt.Errorf("%s: %w", p.root, ErrNoPlan)
	}

	p.finish(resultFound)
	p.logger.Info("plan found",
		slog.String("task", p.root),
		slog.Int("length", len(p.plan)),
		slog.Int("steps", p.stats.Steps),
		slog.Int("backtracks", p.stats.Backtracks))
	return p.Plan(), nil
}

// Plan returns a copy of the plan built so far. While the attempt is
// running it is a partial plan.
func (p *Planner) Plan() *Plan {
	steps := make([]PlanStep, len(p.plan))
	copy(steps, p.plan)
	return &Plan{
		Root:  p.root,
		Args:  append([]ir.Value(nil), p.rootArgs...),
		Steps: steps,
		Stats: p.stats,
	}
}

// Depth returns the current expansion stack depth.
func (p *Planner) Depth() int {
	return len(p.frames)
}

// Stats returns the counters of the current attempt.
func (p *Planner) Stats() Stats {
	return p.stats
}

func (p *Planner) finish(result string) {
	plansTotal.WithLabelValues(result).Inc()
	planSteps.Observe(float64(p.stats.Steps))
}

// Solve runs one planning attempt for task with a fresh planner.
func Solve(ctx context.Context, dom *compiler.Domain, db ir.FactDatabase, task string, args []ir.Value, opts ...Option) (*Plan, error) {
	p := New(dom, db, opts...)
	if err := p.Begin(task, args...); err != nil {
		return nil, err
	}
	return p.Run(ctx)
}

func (p *Planner) emitTrace(ev TraceEvent) {
	if p.trace != nil {
		ev.Args = append([]ir.Value(nil), ev.Args...)
		p.trace(ev)
	}
}
