package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/htn/internal/store"
)

// FactsOptions holds flags shared by the facts subcommands.
type FactsOptions struct {
	*RootOptions
	Database string
	Domain   string
	Replace  bool
}

// FactsImportResult is the output of facts import.
type FactsImportResult struct {
	Domain   string `json:"domain"`
	Imported int    `json:"imported"`
	Removed  int64  `json:"removed"`
	Total    int    `json:"total"`
}

// FactEntry is one stored fact instance.
type FactEntry struct {
	Fact string   `json:"fact"`
	Args []string `json:"args"`
}

func (e FactEntry) String() string {
	return e.Fact + "(" + strings.Join(e.Args, ", ") + ")"
}

// NewFactsCommand creates the facts command group.
func NewFactsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FactsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Manage the facts held in a store",
		Long: `Import, list and clear the facts of a domain in a SQLite store.

Stored facts are what "htnc plan --db" plans against, and what
"htnc replay" re-plans with.`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	importCmd := &cobra.Command{
		Use:   "import <domain-path> <fact-file>",
		Short: "Import a YAML or Datalog fact file",
		Long: `Check a fact file against a compiled domain and append its facts to the
store. With --replace the stored facts of the domain are removed first.

Examples:
  htnc facts import ./domains world.yaml --db htn.db
  htnc facts import travel.cue world.mangle --db htn.db --replace`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFactsImport(opts, args[0], args[1], cmd)
		},
	}
	importCmd.Flags().StringVar(&opts.Domain, "domain", "", "domain name when the package holds several")
	importCmd.Flags().BoolVar(&opts.Replace, "replace", false, "remove stored facts of the domain first")

	listCmd := &cobra.Command{
		Use:           "list <domain-name>",
		Short:         "List the stored facts of a domain",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFactsList(opts, args[0], cmd)
		},
	}

	clearCmd := &cobra.Command{
		Use:           "clear <domain-name>",
		Short:         "Remove the stored facts of a domain",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFactsClear(opts, args[0], cmd)
		},
	}

	cmd.AddCommand(importCmd, listCmd, clearCmd)
	return cmd
}

func runFactsImport(opts *FactsOptions, path, factFile string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	dom, err := LoadDomain(path, opts.Domain)
	if err != nil {
		return outputCompileErrors(formatter, []error{err})
	}
	m, err := loadFactsFile(factFile, dom)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeFacts, err.Error(), nil)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	result := FactsImportResult{Domain: dom.Name}
	if opts.Replace {
		if result.Removed, err = st.ClearFacts(ctx, dom.Name); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
	}
	if result.Imported, err = st.ImportFacts(ctx, m); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	if result.Total, err = st.CountFacts(ctx, dom.Name); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	formatter.VerboseLog("Imported %s into %s", factFile, opts.Database)

	if formatter.JSON() {
		return formatter.Success(result)
	}
	w := formatter.Writer
	fmt.Fprintf(w, "✓ Imported %d fact(s) into domain %s\n", result.Imported, result.Domain)
	if opts.Replace {
		fmt.Fprintf(w, "  removed %d previously stored fact(s)\n", result.Removed)
	}
	fmt.Fprintf(w, "  %d fact(s) stored\n", result.Total)
	return nil
}

func runFactsList(opts *FactsOptions, domain string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	rows, err := st.ReadFacts(cmd.Context(), domain)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	entries := make([]FactEntry, len(rows))
	for i, r := range rows {
		entries[i] = FactEntry{Fact: r.Fact, Args: r.Args}
	}

	if formatter.JSON() {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintf(formatter.Writer, "No facts stored for domain %s.\n", domain)
		return nil
	}
	for _, e := range entries {
		fmt.Fprintln(formatter.Writer, e)
	}
	return nil
}

func runFactsClear(opts *FactsOptions, domain string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	n, err := st.ClearFacts(cmd.Context(), domain)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	if formatter.JSON() {
		return formatter.Success(map[string]any{"domain": domain, "removed": n})
	}
	fmt.Fprintf(formatter.Writer, "✓ Removed %d fact(s) from domain %s\n", n, domain)
	return nil
}
