package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/htn/internal/compiler"
	"github.com/roach88/htn/internal/engine"
	"github.com/roach88/htn/internal/factdb"
	"github.com/roach88/htn/internal/ir"
	"github.com/roach88/htn/internal/store"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Domain   string
	Facts    string // YAML world or Datalog fact file
	Database string // SQLite store with facts and recorded plans
	MaxSteps int
	MaxDepth int
	Record   bool
	Trace    bool
}

// PlanOutput is the output of the plan command.
type PlanOutput struct {
	Domain   string       `json:"domain"`
	Task     string       `json:"task"`
	Args     []string     `json:"args"`
	Found    bool         `json:"found"`
	Steps    []string     `json:"steps"`
	PlanHash string       `json:"plan_hash,omitempty"`
	Stats    engine.Stats `json:"stats"`
	RecordID string       `json:"record_id,omitempty"`
	Seq      int64        `json:"seq,omitempty"`
	Trace    []string     `json:"trace,omitempty"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <domain-path> <task> [args...]",
		Short: "Find a plan for a root task",
		Long: `Compile a domain and search for a plan of the root task.

Facts are read from --facts (a YAML world file, or a Datalog file with
the .mangle or .dl extension) or else from the store given by --db.
Without either the fact database is empty. --record stores the attempt
in the --db store so it can be replayed.

Exit codes:
  0 - Plan found
  1 - No plan exists for the root task
  2 - Command error (bad domain, facts or arguments, exhausted budget)

Examples:
  htnc plan ./domains root --facts world.yaml
  htnc plan travel.cue travel 1 5 --facts world.mangle --trace
  htnc plan ./domains root --db htn.db --record`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], args[1], args[2:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Domain, "domain", "", "domain name when the package holds several")
	cmd.Flags().StringVar(&opts.Facts, "facts", "", "fact file (.yaml, .yml, .mangle, .dl)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite store path")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", engine.DefaultMaxSteps, "planner step budget (0 = unlimited)")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", engine.DefaultMaxDepth, "expansion depth budget (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "record the attempt in the --db store")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "include the planner trace")

	return cmd
}

func runPlan(opts *PlanOptions, path, task string, rawArgs []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Record && opts.Database == "" {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "--record requires --db", nil)
	}

	dom, err := LoadDomain(path, opts.Domain)
	if err != nil {
		return outputCompileErrors(formatter, []error{err})
	}
	formatter.VerboseLog("Compiled domain %s (%s)", dom.Name, dom.Fingerprint)

	args, err := engine.ParseArgs(dom, task, rawArgs)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBadArgs, err.Error(), nil)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		defer st.Close()
	}

	db, err := planFacts(ctx, opts, st, dom)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeFacts, err.Error(), nil)
	}
	formatter.VerboseLog("Loaded %d fact type(s)", len(dom.Facts))

	out := PlanOutput{Domain: dom.Name, Task: task, Args: rawArgs, Steps: []string{}}
	if out.Args == nil {
		out.Args = []string{}
	}
	planOpts := []engine.Option{
		engine.WithMaxSteps(opts.MaxSteps),
		engine.WithMaxDepth(opts.MaxDepth),
		engine.WithLogger(newLogger(formatter)),
	}
	if opts.Trace {
		planOpts = append(planOpts, engine.WithTrace(func(ev engine.TraceEvent) {
			out.Trace = append(out.Trace, ev.String())
		}))
	}

	p := engine.New(dom, db, planOpts...)
	if err := p.Begin(task, args...); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBadArgs, err.Error(), nil)
	}
	plan, err := p.Run(ctx)
	switch {
	case err == nil:
		out.Found = true
		out.Steps = plan.Strings()
		out.PlanHash, err = plan.Fingerprint()
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
	case engine.IsNoPlan(err):
	case engine.IsBudgetError(err):
		return formatter.Fail(ExitCommandError, ErrCodeBudget, err.Error(), nil)
	case errors.Is(err, context.Canceled):
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "planning interrupted", nil)
	default:
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	out.Stats = p.Stats()

	if opts.Record {
		if err := recordPlan(ctx, st, dom, db, task, args, &out, plan); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
	}

	if formatter.JSON() {
		if err := formatter.encode(CLIResponse{Status: status(out.Found), Data: out}); err != nil {
			return err
		}
	} else {
		outputPlanText(formatter.Writer, out)
	}

	if !out.Found {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", ErrCodeNoPlan, engine.ErrNoPlan))
	}
	return nil
}

// planFacts picks the fact database: the --facts file, else the store,
// else an empty database.
func planFacts(ctx context.Context, opts *PlanOptions, st *store.Store, dom *compiler.Domain) (*factdb.Memory, error) {
	switch {
	case opts.Facts != "":
		return loadFactsFile(opts.Facts, dom)
	case st != nil:
		return st.LoadFacts(ctx, dom)
	default:
		return factdb.NewMemory(dom), nil
	}
}

// loadFactsFile reads a fact file, choosing the format by extension.
func loadFactsFile(path string, dom *compiler.Domain) (*factdb.Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		m, err := factdb.LoadYAML(f, dom)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return m, nil
	case ".mangle", ".dl":
		m, err := factdb.LoadMangle(f, dom)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%s: unknown fact file extension", path)
	}
}

func recordPlan(ctx context.Context, st *store.Store, dom *compiler.Domain, db *factdb.Memory, task string, args []ir.Value, out *PlanOutput, plan *engine.Plan) error {
	factsFP, err := db.Fingerprint()
	if err != nil {
		return err
	}
	rec, err := store.NewPlanRecord(store.UUIDv7Generator{}.Generate(), dom, factsFP, task, args, plan, out.Stats)
	if err != nil {
		return err
	}
	seq, err := st.WritePlan(ctx, rec)
	if err != nil {
		return err
	}
	out.RecordID = rec.ID
	out.Seq = seq
	return nil
}

// newLogger logs planner diagnostics to stderr: warnings by default,
// everything in verbose mode.
func newLogger(formatter *OutputFormatter) *slog.Logger {
	level := slog.LevelWarn
	if formatter.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(formatter.GetErrWriter(), &slog.HandlerOptions{Level: level}))
}

func outputPlanText(w io.Writer, out PlanOutput) {
	call := out.Task
	if len(out.Args) > 0 {
		call += "(" + strings.Join(out.Args, ", ") + ")"
	}

	if len(out.Trace) > 0 {
		fmt.Fprintln(w, "Trace:")
		for _, line := range out.Trace {
			fmt.Fprintf(w, "  %s\n", line)
		}
		fmt.Fprintln(w)
	}

	if !out.Found {
		fmt.Fprintf(w, "✗ No plan for %s\n", call)
	} else {
		fmt.Fprintf(w, "✓ Plan for %s (%d step(s))\n\n", call, len(out.Steps))
		for i, s := range out.Steps {
			fmt.Fprintf(w, "  %3d  %s\n", i+1, s)
		}
		fmt.Fprintf(w, "\nplan hash %s\n", out.PlanHash)
	}

	st := out.Stats
	fmt.Fprintf(w, "steps=%d expansions=%d backtracks=%d fallbacks=%d max_depth=%d\n",
		st.Steps, st.Expansions, st.Backtracks, st.Fallbacks, st.MaxDepth)
	if out.RecordID != "" {
		fmt.Fprintf(w, "recorded %s (seq %d)\n", out.RecordID, out.Seq)
	}
}
