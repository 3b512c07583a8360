package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/htn/internal/compiler"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Domain  string // domain name; empty compiles every domain
	Output  string // artifact file
	Listing bool   // write the listing instead of the JSON artifact
}

// CompiledDomain summarizes one compiled domain.
type CompiledDomain struct {
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint"`
	Facts       int    `json:"facts"`
	Primitives  int    `json:"primitives"`
	Composites  int    `json:"composites"`
	Cases       int    `json:"cases"`
}

// CompileResult is the output of the compile command.
type CompileResult struct {
	Domains []CompiledDomain `json:"domains"`
	Output  string           `json:"output,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <domain-path>",
		Short: "Compile CUE domains into planner artifacts",
		Long: `Compile the HTN domains of a CUE file or package directory.

Every domain is validated and compiled. With --output the JSON artifact
of one domain is written to a file; --listing writes the human-readable
program listing instead. Without --output a listing goes to stdout.

Examples:
  htnc compile ./domains
  htnc compile ./domains --domain travel -o travel.json
  htnc compile travel.cue --listing`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Domain, "domain", "", "compile only the named domain")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compiled artifact to a file")
	cmd.Flags().BoolVar(&opts.Listing, "listing", false, "write the program listing instead of JSON")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, errs := LoadDomains(path, compiler.LoadModeCollectAll)
	if loaded == nil {
		return outputCompileErrors(formatter, errs)
	}
	formatter.VerboseLog("Loaded %d domain(s) from %d CUE file(s)", len(loaded.Domains), loaded.FileCount)

	asts := loaded.Domains
	if opts.Domain != "" {
		d, err := loaded.Domain(opts.Domain)
		if err != nil {
			if len(errs) > 0 {
				return outputCompileErrors(formatter, errs)
			}
			return formatter.Fail(ExitCommandError, ErrCodeNoDomain, err.Error(), nil)
		}
		asts = asts[:0:0]
		asts = append(asts, d)
		errs = nil
	}

	var compiled []*compiler.Domain
	for _, d := range asts {
		formatter.VerboseLog("Compiling domain: %s", d.Name)
		dom, err := compileDomain(d)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		compiled = append(compiled, dom)
	}
	if len(errs) > 0 {
		return outputCompileErrors(formatter, errs)
	}

	result := CompileResult{Domains: make([]CompiledDomain, len(compiled))}
	for i, dom := range compiled {
		result.Domains[i] = summarize(dom)
	}

	if opts.Output != "" || opts.Listing {
		if len(compiled) != 1 {
			return formatter.Fail(ExitCommandError, ErrCodeNoDomain,
				fmt.Sprintf("%d domains compiled, choose one with --domain", len(compiled)), nil)
		}
		if opts.Output != "" {
			if err := writeArtifact(compiled[0], opts.Output, opts.Listing); err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
			}
			result.Output = opts.Output
		} else if !formatter.JSON() {
			return compiler.WriteListing(formatter.Writer, compiled[0])
		}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	return outputCompileText(formatter.Writer, result)
}

func summarize(dom *compiler.Domain) CompiledDomain {
	return CompiledDomain{
		Name:        dom.Name,
		Fingerprint: dom.Fingerprint,
		Facts:       len(dom.Facts),
		Primitives:  dom.NumPrimitives,
		Composites:  len(dom.Tasks) - dom.NumPrimitives,
		Cases:       len(dom.Cases),
	}
}

func outputCompileText(w io.Writer, result CompileResult) error {
	fmt.Fprintf(w, "✓ Compiled %d domain(s)\n\n", len(result.Domains))
	for _, d := range result.Domains {
		fmt.Fprintf(w, "  %s: %d fact(s), %d primitive(s), %d composite(s), %d case(s)\n",
			d.Name, d.Facts, d.Primitives, d.Composites, d.Cases)
		fmt.Fprintf(w, "    fingerprint %s\n", d.Fingerprint)
	}
	if result.Output != "" {
		fmt.Fprintf(w, "\nWrote compiled domain to %s\n", result.Output)
	}
	return nil
}

// writeArtifact writes the JSON artifact, or the listing, to filename.
func writeArtifact(dom *compiler.Domain, filename string, listing bool) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	if listing {
		err = compiler.WriteListing(f, dom)
	} else {
		err = compiler.WriteJSON(f, dom)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}
	return nil
}

// errorEntries flattens loader and validation errors into coded entries.
func errorEntries(errs []error) []CLIError {
	var out []CLIError
	for _, err := range errs {
		var verrs compiler.ValidationErrors
		if errors.As(err, &verrs) {
			for _, ve := range verrs {
				out = append(out, CLIError{Code: ve.Code, Message: ve.Field + ": " + ve.Message})
			}
			continue
		}
		le := toLoadError(err)
		out = append(out, CLIError{Code: le.Code, Message: le.Error()})
	}
	return out
}

// outputCompileErrors reports every error. Compilation errors are
// command-level errors (exit code 2).
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	entries := errorEntries(errs)
	if len(entries) == 0 {
		entries = []CLIError{{Code: ErrCodeGeneric, Message: "compilation failed"}}
	}

	if formatter.JSON() {
		if err := formatter.encode(CLIResponse{Status: "error", Error: &entries[0], Data: entries}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
		fmt.Fprintln(formatter.Writer)
		for _, e := range entries {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", e.Code, e.Message)
		}
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(entries)))
}
