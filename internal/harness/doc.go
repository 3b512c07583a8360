// Package harness runs planning scenarios as executable tests.
//
// A scenario names a CUE domain, a fact database written inline in YAML, a
// root task with its arguments, and assertions over the resulting plan and
// planner trace.
//
// # Scenario Format
//
//	name: travel_long
//	description: "Long trips fly between airports"
//	domain: ../domains/travel.cue
//	task: root
//	args: []
//	facts:
//	  start: [[1]]
//	  finish: [[4]]
//	  long_distance: [[1, 4]]
//	assertions:
//	  - type: plan_equals
//	    steps: ["taxi!(1, 2)", "plane!(2, 3)", "taxi!(3, 4)"]
//	  - type: trace_count
//	    kind: fallback
//	    task: travel
//	    count: 1
//
// Domain paths are relative to the scenario file.
//
// # Assertion Types
//
//   - plan_equals: the plan is exactly the listed steps
//   - plan_contains: the plan contains the step
//   - plan_order: the listed steps appear in the plan in order, not
//     necessarily adjacent
//   - plan_length: the plan has count steps
//   - no_plan: the root task has no plan
//   - trace_count: the planner recorded count events of kind, optionally
//     only those for task
//
// # Deterministic Testing
//
// Each run uses a fresh in-memory SQLite store: the scenario facts are
// written to it and loaded back before planning, and the attempt is
// recorded under a sequential run ID. Plans and traces are deterministic,
// so RunWithGolden can compare them against golden files.
package harness
