package ir

// FactHandle is an opaque cursor over the instances of one fact type. Its
// meaning is private to the FactDatabase that produced it.
type FactHandle struct {
	Type int
	Pos  int
}

// FactDatabase is the read-only query contract the planner relies on.
// Fact types are identified by their declaration index in the domain.
//
// During a planning attempt the database must not change, and iteration
// order for a fact type must be stable. Passing a handle that is not Valid
// to Next or Field is a contract violation and may panic.
type FactDatabase interface {
	// First returns a handle to the first instance of factType, or an
	// invalid handle if there are none.
	First(factType int) FactHandle
	// Next advances h to the following instance of the same type.
	Next(h FactHandle) FactHandle
	// Valid reports whether h refers to an instance.
	Valid(h FactHandle) bool
	// Field reads field i of the instance h refers to.
	Field(h FactHandle, i int) Value
}
