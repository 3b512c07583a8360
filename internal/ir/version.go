package ir

// Version constants for the compiled artifact and planner.
const (
	// ArtifactVersion is the schema version of the compiled domain artifact.
	ArtifactVersion = "1"

	// PlannerVersion is the planner version recorded with stored plans.
	PlannerVersion = "0.1.0"
)
