package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/htn/internal/ir"
)

// PlanSnapshot captures the outcome and trace of a scenario execution.
type PlanSnapshot struct {
	Scenario string
	Result   *Result
}

// toCanonicalMap converts the snapshot for canonical JSON serialization.
func (s *PlanSnapshot) toCanonicalMap() map[string]any {
	plan := make([]any, len(s.Result.Plan))
	for i, step := range s.Result.Plan {
		plan[i] = step
	}
	trace := make([]any, len(s.Result.Trace))
	for i, ev := range s.Result.Trace {
		trace[i] = ev.String()
	}
	status := "no_plan"
	if s.Result.Found {
		status = "found"
	}
	st := s.Result.Stats
	return map[string]any{
		"scenario": s.Scenario,
		"status":   status,
		"plan":     plan,
		"stats": map[string]any{
			"backtracks": st.Backtracks,
			"expansions": st.Expansions,
			"fallbacks":  st.Fallbacks,
			"max_depth":  st.MaxDepth,
			"steps":      st.Steps,
		},
		"trace": trace,
	}
}

// SnapshotBytes renders the canonical JSON snapshot of a result, the
// content of its golden file.
func SnapshotBytes(name string, result *Result) ([]byte, error) {
	snapshot := PlanSnapshot{Scenario: name, Result: result}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its plan and trace against
// a golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := SnapshotBytes(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)

	return nil
}
