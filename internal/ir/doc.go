// Package ir provides the shared representation types for the HTN compiler
// and planner.
//
// This package contains type definitions and small pure helpers only. All
// other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Field values are fixed-width typed cells (see FieldType); buffers holding
//     them are plain byte slices laid out by a Signature, little-endian
//   - Name lookup at runtime goes through NameTable, never a Go map
//   - Canonical JSON (MarshalCanonical) is the only encoding used for
//     fingerprints, and it forbids floats
//   - All JSON tags use snake_case
package ir
