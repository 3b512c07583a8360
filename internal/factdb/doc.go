// Package factdb provides fact databases for the planner.
//
// Memory is the reference implementation of ir.FactDatabase: one packed row
// table per fact type, laid out with the fact's compiled signature.
// Iteration order is insertion order. Loaders fill a Memory from YAML world
// files and from Datalog sources via github.com/google/mangle; the SQLite
// store in internal/store loads into a Memory as well.
//
// A Memory must not be modified while a planner is using it. Hosts apply
// plan effects between planning attempts.
package factdb
