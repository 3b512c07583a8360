package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/htn/internal/compiler"
	"github.com/roach88/htn/internal/engine"
	"github.com/roach88/htn/internal/factdb"
	"github.com/roach88/htn/internal/store"
	"github.com/roach88/htn/internal/testutil"
)

// Harness is the scenario execution environment.
// It runs scenarios against a private store with deterministic run IDs.
type Harness struct {
	store  *store.Store
	ids    store.IDGenerator
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Load and compile the scenario's domain
// 2. Write the scenario facts to the store and load them back
// 3. Plan the root task, recording every planner event
// 4. Record the attempt in the store
// 5. Evaluate assertions
//
// Assertion failures are reported in the result. Errors are returned for
// scenarios that cannot run at all, including exhausted planner budgets.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	dom, err := LoadDomain(scenario.Domain, scenario.DomainName)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		ids:    testutil.NewSequenceIDGenerator("run"),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return h.run(ctx, dom, scenario)
}

func (h *Harness) run(ctx context.Context, dom *compiler.Domain, scenario *Scenario) (*Result, error) {
	world := factdb.NewMemory(dom)
	if err := world.AddYAML(&scenario.Facts); err != nil {
		return nil, fmt.Errorf("scenario facts: %w", err)
	}
	if _, err := h.store.ImportFacts(ctx, world); err != nil {
		return nil, err
	}
	db, err := h.store.LoadFacts(ctx, dom)
	if err != nil {
		return nil, err
	}

	args, err := engine.ParseArgs(dom, scenario.Task, scenario.Args)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	opts := []engine.Option{
		engine.WithLogger(h.logger),
		engine.WithTrace(result.AddTrace),
	}
	if scenario.MaxSteps > 0 {
		opts = append(opts, engine.WithMaxSteps(scenario.MaxSteps))
	}
	if scenario.MaxDepth > 0 {
		opts = append(opts, engine.WithMaxDepth(scenario.MaxDepth))
	}

	p := engine.New(dom, db, opts...)
	if err := p.Begin(scenario.Task, args...); err != nil {
		return nil, err
	}
	plan, err := p.Run(ctx)
	if err != nil && !engine.IsNoPlan(err) {
		return nil, fmt.Errorf("planning %s: %w", scenario.Task, err)
	}

	factsFP, err := db.Fingerprint()
	if err != nil {
		return nil, err
	}
	rec, err := store.NewPlanRecord(h.ids.Generate(), dom, factsFP, scenario.Task, args, plan, p.Stats())
	if err != nil {
		return nil, err
	}
	if _, err := h.store.WritePlan(ctx, rec); err != nil {
		return nil, err
	}

	result.RunID = rec.ID
	result.Found = plan != nil
	result.Plan = rec.StepStrings()
	result.PlanHash = rec.PlanHash
	result.Stats = p.Stats()

	for _, a := range scenario.Assertions {
		if err := evaluateAssertion(result, a); err != nil {
			result.AddError(err.Error())
		}
	}
	return result, nil
}

// LoadDomain loads and compiles the domain called name from a CUE file or
// package directory. An empty name selects the only domain.
func LoadDomain(path, name string) (*compiler.Domain, error) {
	res, errs := compiler.Load(path, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, fmt.Errorf("load domain: %w", errs[0])
	}
	ast, err := res.Domain(name)
	if err != nil {
		return nil, fmt.Errorf("load domain: %w", err)
	}
	dom, err := compiler.Compile(ast)
	if err != nil {
		return nil, fmt.Errorf("compile domain %s: %w", ast.Name, err)
	}
	return dom, nil
}
