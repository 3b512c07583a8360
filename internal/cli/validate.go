package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/htn/internal/compiler"
)

// DomainWarning is a recursion warning tagged with its domain.
type DomainWarning struct {
	Domain string `json:"domain"`
	compiler.RecursionWarning
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool            `json:"valid"`
	Domains  []string        `json:"domains"`
	Errors   []CLIError      `json:"errors,omitempty"`
	Warnings []DomainWarning `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <domain-path>",
		Short: "Validate domains without compiling them",
		Long: `Validate the HTN domains of a CUE file or package directory.

Reports every format and validation error of every domain, then warns
about recursive tasks. Recursion is legal but makes termination depend on
the facts and on the planner's depth budget. Faster than compile for
development feedback.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loaded, loadErrs := LoadDomains(path, compiler.LoadModeCollectAll)
	if loaded == nil {
		le := toLoadError(loadErrs[0])
		return formatter.Fail(ExitCommandError, le.Code, le.Message, nil)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, path)

	result := ValidationResult{Domains: []string{}}
	result.Errors = errorEntries(loadErrs)
	for _, d := range loaded.Domains {
		formatter.VerboseLog("Validating domain: %s", d.Name)
		result.Domains = append(result.Domains, d.Name)

		verrs := compiler.Validate(d)
		if len(verrs) > 0 {
			result.Errors = append(result.Errors, errorEntries([]error{compiler.ValidationErrors(verrs)})...)
			continue
		}
		for _, w := range compiler.AnalyzeRecursion(d) {
			result.Warnings = append(result.Warnings, DomainWarning{Domain: d.Name, RecursionWarning: w})
		}
	}
	result.Valid = len(result.Errors) == 0

	if formatter.JSON() {
		if err := formatter.encode(CLIResponse{Status: status(result.Valid), Data: result}); err != nil {
			return err
		}
	} else {
		outputValidateText(formatter, result)
	}

	if !result.Valid {
		return NewExitError(ExitCommandError, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}

func outputValidateText(formatter *OutputFormatter, result ValidationResult) {
	w := formatter.Writer
	if result.Valid {
		fmt.Fprintf(w, "✓ All domains valid (%s)\n", strings.Join(result.Domains, ", "))
	} else {
		fmt.Fprintln(w, "✗ Validation failed")
		fmt.Fprintln(w)
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s: %s\n", e.Code, e.Message)
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range result.Warnings {
			fmt.Fprintf(w, "  %s: %s (%s)\n", warn.Domain, warn.Message, strings.Join(warn.Path, " -> "))
		}
	}
}

func status(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
