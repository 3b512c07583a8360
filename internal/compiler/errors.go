package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/htn/internal/ir"
)

// CompileError is a front-end error with an optional source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

// ValidationErrors is returned by Compile when the domain fails validation.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("%d validation errors:\n  %s", len(e), strings.Join(msgs, "\n  "))
}

// LayoutError is returned when a signature is requested for a field of
// unknown type.
type LayoutError struct {
	Field int
	Type  ir.FieldType
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("signature layout: field %d has unknown type %s", e.Field, e.Type)
}

// HashSeedError is returned when no seed below the limit yields distinct
// hashes for a name set.
type HashSeedError struct {
	Kind  string // "fact" or "task"
	Names int
	Limit uint32
}

func (e *HashSeedError) Error() string {
	return fmt.Sprintf("no collision-free %s name hash seed below %d for %d names", e.Kind, e.Limit, e.Names)
}
