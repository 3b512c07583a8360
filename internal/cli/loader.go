package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/htn/internal/compiler"
	"github.com/roach88/htn/internal/ir"
)

// Error code constants - unified across all CLI commands. Domain
// validation codes (E200-E299) come from the compiler unchanged.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load or build failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeNoDomain    = "E006" // Requested domain not in the package
	ErrCodeWriteFailed = "E007" // File write error

	// Domain format errors
	ErrCodeFactFormat      = "E101" // malformed facts block
	ErrCodePrimitiveFormat = "E102" // malformed primitives block
	ErrCodeTaskFormat      = "E103" // malformed tasks block

	// Compilation errors
	ErrCodeHashSeed = "E301" // no collision-free name hash seed
	ErrCodeLayout   = "E302" // signature layout failed

	// Planning and storage errors
	ErrCodeBadArgs  = "E401" // root task or arguments rejected
	ErrCodeFacts    = "E402" // fact file or store rejected
	ErrCodeBudget   = "E403" // step or depth budget exhausted
	ErrCodeNoPlan   = "E404" // root task has no plan
	ErrCodeStore    = "E405" // database error
	ErrCodeScenario = "E406" // scenario could not be loaded
)

// LoadError is a domain loading error with a CLI error code.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDomains parses every domain of a CUE file or package directory.
// Errors are converted to LoadErrors; the result is nil when nothing could
// be read at all.
func LoadDomains(path string, mode compiler.LoadMode) (*compiler.LoadResult, []error) {
	res, errs := compiler.Load(path, mode)
	out := make([]error, len(errs))
	for i, err := range errs {
		out[i] = toLoadError(err)
	}
	return res, out
}

// LoadDomain loads, selects and compiles one domain. An empty name selects
// the only domain. Validation failures are returned as
// compiler.ValidationErrors so callers can report every entry.
func LoadDomain(path, name string) (*compiler.Domain, error) {
	res, errs := LoadDomains(path, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	d, err := res.Domain(name)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNoDomain, Message: err.Error()}
	}
	return compileDomain(d)
}

func compileDomain(d *ir.Domain) (*compiler.Domain, error) {
	dom, err := compiler.Compile(d)
	if err != nil {
		var verrs compiler.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, verrs
		}
		return nil, toLoadError(fmt.Errorf("domain %s: %w", d.Name, err))
	}
	return dom, nil
}

// toLoadError assigns a CLI error code to a loader or compiler error.
func toLoadError(err error) *LoadError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr
	}

	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: err.Error(),
			Pos:     compileErr.Pos,
		}
	}

	var seedErr *compiler.HashSeedError
	var layoutErr *compiler.LayoutError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &LoadError{Code: ErrCodeNotFound, Message: err.Error()}
	case strings.Contains(err.Error(), "no CUE files"):
		return &LoadError{Code: ErrCodeNoFiles, Message: err.Error()}
	case errors.As(err, &seedErr):
		return &LoadError{Code: ErrCodeHashSeed, Message: err.Error()}
	case errors.As(err, &layoutErr):
		return &LoadError{Code: ErrCodeLayout, Message: err.Error()}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// MapFieldToErrorCode maps a compiler error field path to an error code.
func MapFieldToErrorCode(field string) string {
	head, _, _ := strings.Cut(field, ".")
	head, _, _ = strings.Cut(head, "[")
	switch head {
	case "cue":
		return ErrCodeLoadFailed
	case "domain":
		return ErrCodeNoDomain
	case "facts":
		return ErrCodeFactFormat
	case "primitives":
		return ErrCodePrimitiveFormat
	case "tasks":
		return ErrCodeTaskFormat
	default:
		return ErrCodeGeneric
	}
}
