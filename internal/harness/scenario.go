package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/htn/internal/engine"
)

// Scenario defines one planning test.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Domain is the path to a CUE file or package directory.
	// Relative paths are resolved against the scenario file location.
	Domain string `yaml:"domain"`

	// DomainName selects a domain when the path defines several.
	DomainName string `yaml:"domain_name,omitempty"`

	// Facts maps fact names to rows, in the factdb YAML format.
	Facts yaml.Node `yaml:"facts,omitempty"`

	// Task is the root task; Args are its arguments in text form.
	Task string   `yaml:"task"`
	Args []string `yaml:"args,omitempty"`

	// MaxSteps and MaxDepth override the planner budgets when non-zero.
	MaxSteps int `yaml:"max_steps,omitempty"`
	MaxDepth int `yaml:"max_depth,omitempty"`

	// Assertions validate the plan and trace.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the plan or the trace.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Step is a formatted plan step, as in "taxi!(1, 2)" (plan_contains).
	Step string `yaml:"step,omitempty"`

	// Steps are formatted plan steps (plan_equals, plan_order).
	Steps []string `yaml:"steps,omitempty"`

	// Count is the expected number of steps or events
	// (plan_length, trace_count).
	Count int `yaml:"count,omitempty"`

	// Kind is the trace event kind, as in "fallback" (trace_count).
	Kind string `yaml:"kind,omitempty"`

	// Task restricts trace_count to events of one task.
	Task string `yaml:"task,omitempty"`
}

// Assertion type constants.
const (
	AssertPlanEquals   = "plan_equals"
	AssertPlanContains = "plan_contains"
	AssertPlanOrder    = "plan_order"
	AssertPlanLength   = "plan_length"
	AssertNoPlan       = "no_plan"
	AssertTraceCount   = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the domain path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Domain != "" && !filepath.IsAbs(scenario.Domain) && basePath != "" {
		scenario.Domain = filepath.Join(basePath, scenario.Domain)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Domain == "" {
		return fmt.Errorf("domain is required")
	}
	if _, err := os.Stat(s.Domain); os.IsNotExist(err) {
		return fmt.Errorf("domain not found: %s", s.Domain)
	}
	if s.Task == "" {
		return fmt.Errorf("task is required")
	}
	if s.MaxSteps < 0 || s.MaxDepth < 0 {
		return fmt.Errorf("max_steps and max_depth must be non-negative")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

var traceKinds = map[string]bool{}

func init() {
	for k := engine.TraceExpand; k <= engine.TraceFail; k++ {
		traceKinds[k.String()] = true
	}
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertPlanEquals:
		if a.Steps == nil {
			return fmt.Errorf("assertions[%d]: steps is required for plan_equals (use [] for an empty plan)", index)
		}
	case AssertPlanContains:
		if a.Step == "" {
			return fmt.Errorf("assertions[%d]: step is required for plan_contains", index)
		}
	case AssertPlanOrder:
		if len(a.Steps) == 0 {
			return fmt.Errorf("assertions[%d]: steps list is required for plan_order", index)
		}
	case AssertPlanLength:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for plan_length", index)
		}
	case AssertNoPlan:
	case AssertTraceCount:
		if !traceKinds[a.Kind] {
			return fmt.Errorf("assertions[%d]: unknown trace kind %q", index, a.Kind)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
