package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/htn/internal/engine"
	"github.com/roach88/htn/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	MaxSteps int
	MaxDepth int
	List     bool
}

// ReplayOutput is the output of the replay command.
type ReplayOutput struct {
	ID            string   `json:"id"`
	Seq           int64    `json:"seq"`
	Domain        string   `json:"domain"`
	Root          string   `json:"root"`
	Args          []string `json:"args"`
	Recorded      string   `json:"recorded"`
	Replayed      string   `json:"replayed"`
	RecordedHash  string   `json:"recorded_hash,omitempty"`
	ReplayedHash  string   `json:"replayed_hash,omitempty"`
	DomainChanged bool     `json:"domain_changed"`
	FactsChanged  bool     `json:"facts_changed"`
	Match         bool     `json:"match"`
	Diff          string   `json:"diff,omitempty"`
}

// RecordSummary is one line of replay --list.
type RecordSummary struct {
	ID     string   `json:"id"`
	Seq    int64    `json:"seq"`
	Domain string   `json:"domain"`
	Root   string   `json:"root"`
	Args   []string `json:"args"`
	Status string   `json:"status"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <domain-path> [record-id]",
		Short: "Re-plan a recorded attempt and compare the result",
		Long: `Re-run a planning attempt recorded with "htnc plan --record" against the
facts currently in the store, and compare the new plan with the recorded
one. Without a record ID the latest attempt is replayed.

Domain and fact fingerprint changes since recording are reported; either
one explains a mismatch.

Exit codes:
  0 - Replayed plan matches the recording
  1 - Replayed plan differs
  2 - Command error (database or record not found, etc.)

Examples:
  htnc replay ./domains --db htn.db
  htnc replay ./domains 0192d3c4-... --db htn.db
  htnc replay ./domains --db htn.db --list`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 2 {
				id = args[1]
			}
			return runReplay(opts, args[0], id, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", engine.DefaultMaxSteps, "planner step budget (0 = unlimited)")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", engine.DefaultMaxDepth, "expansion depth budget (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list recorded attempts instead of replaying")

	return cmd
}

func runReplay(opts *ReplayOptions, path, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	if opts.List {
		return listRecords(formatter, st, cmd)
	}

	var rec store.PlanRecord
	if id == "" {
		rec, err = st.LatestPlan(ctx)
	} else {
		rec, err = st.ReadPlan(ctx, id)
	}
	if errors.Is(err, store.ErrNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "no recorded plan found", nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	formatter.VerboseLog("Replaying %s (seq %d) of domain %s", rec.ID, rec.Seq, rec.Domain)

	dom, err := LoadDomain(path, rec.Domain)
	if err != nil {
		return outputCompileErrors(formatter, []error{err})
	}

	res, err := st.Replay(ctx, rec.ID, dom,
		engine.WithMaxSteps(opts.MaxSteps),
		engine.WithMaxDepth(opts.MaxDepth),
		engine.WithLogger(newLogger(formatter)))
	if err != nil {
		code := ErrCodeGeneric
		if engine.IsBudgetError(err) {
			code = ErrCodeBudget
		}
		return formatter.Fail(ExitCommandError, code, err.Error(), nil)
	}

	out := ReplayOutput{
		ID:            rec.ID,
		Seq:           rec.Seq,
		Domain:        rec.Domain,
		Root:          rec.Root,
		Args:          rec.Args,
		Recorded:      res.Recorded.Status,
		Replayed:      res.Replayed.Status,
		RecordedHash:  res.Recorded.PlanHash,
		ReplayedHash:  res.Replayed.PlanHash,
		DomainChanged: res.DomainChanged,
		FactsChanged:  res.FactsChanged,
		Match:         res.Match,
		Diff:          res.Diff,
	}

	if formatter.JSON() {
		if err := formatter.encode(CLIResponse{Status: status(out.Match), Data: out}); err != nil {
			return err
		}
	} else {
		outputReplayText(formatter, out)
	}

	if !out.Match {
		return NewExitError(ExitFailure, fmt.Sprintf("replay of %s differs from the recording", rec.ID))
	}
	return nil
}

func listRecords(formatter *OutputFormatter, st *store.Store, cmd *cobra.Command) error {
	recs, err := st.ListPlans(cmd.Context(), "")
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	out := make([]RecordSummary, len(recs))
	for i, r := range recs {
		out[i] = RecordSummary{ID: r.ID, Seq: r.Seq, Domain: r.Domain, Root: r.Root, Args: r.Args, Status: r.Status}
	}

	if formatter.JSON() {
		return formatter.Success(out)
	}
	if len(out) == 0 {
		fmt.Fprintln(formatter.Writer, "No plans recorded.")
		return nil
	}
	for _, r := range out {
		fmt.Fprintf(formatter.Writer, "%4d  %s  %s  %s(%s)  %s\n",
			r.Seq, r.ID, r.Domain, r.Root, strings.Join(r.Args, ", "), r.Status)
	}
	return nil
}

func outputReplayText(formatter *OutputFormatter, out ReplayOutput) {
	w := formatter.Writer
	if out.Match {
		fmt.Fprintf(w, "✓ Replay of %s matches (%s)\n", out.ID, out.Replayed)
	} else {
		fmt.Fprintf(w, "✗ Replay of %s differs: recorded %s, replayed %s\n", out.ID, out.Recorded, out.Replayed)
	}
	if out.DomainChanged {
		fmt.Fprintln(w, "  domain changed since recording")
	}
	if out.FactsChanged {
		fmt.Fprintln(w, "  facts changed since recording")
	}
	if out.Diff != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Steps (-recorded +replayed):")
		fmt.Fprint(w, out.Diff)
	}
}
