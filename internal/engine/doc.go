// Package engine implements the HTN planner: the precondition evaluator,
// the expansion engine and the planning stack that drives them.
//
// ARCHITECTURE:
//
// Explicit state machines:
// Each task occurrence being decomposed is one frame on the planner's
// stack. A frame records where its precondition search stopped (the
// disjunct, the literal depth and one fact handle per literal) and which
// task-list item comes next. Resuming a frame continues exactly where it
// yielded; nothing is kept on the Go call stack between steps.
//
// Step loop:
// Planner.Step always resumes the deepest frame. A frame either pulls its
// next precondition binding, emits one task-list item (a primitive is
// appended to the plan, a composite pushes a child frame), or finishes.
// A frame that runs out of bindings falls back to the next case of its
// task; when the last case is exhausted the frame fails, the plan is cut
// back to where the frame started and the parent moves on to its next
// binding. A frame whose task list is fully emitted is popped and its
// parent continues. The search stops at the first plan for the root.
//
// Each cases:
// A case marked each goes back for its next binding after its task list is
// through, so the task list is expanded for every binding. A binding whose
// expansion fails is cut back and skipped. When the bindings run out the
// frame finishes if at least one binding expanded and falls back to the
// next case otherwise.
//
// Value storage:
// Task arguments, precondition inputs and precondition outputs live in one
// byte arena, addressed by offsets computed when a frame is pushed and
// released in stack order. Layouts come from the compiled signatures.
//
// Determinism:
// Given the same compiled domain, the same fact database contents and the
// same root task, the planner produces the same plan. Cases are tried in
// declaration order, disjuncts in declaration order and fact instances in
// database order. No randomness, no concurrency.
//
// Negated literals:
// A negated literal walks every instance of its fact type and skips the
// instances where any bound field equals its bound value. It is not
// negation as failure: a non-matching instance lets the search continue
// even when a matching instance exists elsewhere.
package engine
