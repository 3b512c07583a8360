package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/htn/internal/compiler"
	"github.com/roach88/htn/internal/engine"
	"github.com/roach88/htn/internal/ir"
)

// Plan record statuses.
const (
	StatusFound  = "found"
	StatusNoPlan = "no_plan"
)

// StepRecord is one stored plan step.
type StepRecord struct {
	Task string   `json:"task"`
	Args []string `json:"args"`
}

func (s StepRecord) String() string {
	return s.Task + "(" + strings.Join(s.Args, ", ") + ")"
}

// PlanRecord is one recorded planning attempt.
type PlanRecord struct {
	ID                string       `json:"id"`
	Seq               int64        `json:"seq"`
	Domain            string       `json:"domain"`
	DomainFingerprint string       `json:"domain_fingerprint"`
	FactsFingerprint  string       `json:"facts_fingerprint"`
	Root              string       `json:"root"`
	Args              []string     `json:"args"`
	Status            string       `json:"status"`
	PlanHash          string       `json:"plan_hash,omitempty"`
	Steps             []StepRecord `json:"steps"`
	Stats             engine.Stats `json:"stats"`
	PlannerVersion    string       `json:"planner_version"`
}

// StepStrings formats each step as name(arg, ...).
func (r PlanRecord) StepStrings() []string {
	out := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		out[i] = s.String()
	}
	return out
}

// NewPlanRecord builds the record of an attempt for root with args.
// plan is nil when no plan was found. stats are the planner counters of the
// attempt, recorded for both outcomes. factsFingerprint identifies the
// database the attempt ran against.
func NewPlanRecord(id string, dom *compiler.Domain, factsFingerprint, root string, args []ir.Value, plan *engine.Plan, stats engine.Stats) (PlanRecord, error) {
	rec := PlanRecord{
		ID:                id,
		Domain:            dom.Name,
		DomainFingerprint: dom.Fingerprint,
		FactsFingerprint:  factsFingerprint,
		Root:              root,
		Args:              valueStrings(args),
		Status:            StatusNoPlan,
		Steps:             []StepRecord{},
		Stats:             stats,
		PlannerVersion:    ir.PlannerVersion,
	}
	if plan == nil {
		return rec, nil
	}

	hash, err := plan.Fingerprint()
	if err != nil {
		return rec, fmt.Errorf("new plan record: %w", err)
	}
	rec.Status = StatusFound
	rec.PlanHash = hash
	for _, step := range plan.Steps {
		rec.Steps = append(rec.Steps, StepRecord{Task: step.Name, Args: valueStrings(step.Args)})
	}
	return rec, nil
}

// WritePlan inserts a plan record and its steps in one transaction.
// The record's Seq is assigned by the store and returned.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - a duplicate ID keeps
// the first record and returns its seq.
func (s *Store) WritePlan(ctx context.Context, rec PlanRecord) (int64, error) {
	args, err := marshalStrings(rec.Args)
	if err != nil {
		return 0, fmt.Errorf("write plan: %w", err)
	}
	stats, err := marshalStats(rec.Stats)
	if err != nil {
		return 0, fmt.Errorf("write plan: %w", err)
	}

	var seq int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT seq FROM plans WHERE id = ?`, rec.ID).Scan(&seq)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("write plan: %w", err)
		}

		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM plans`).Scan(&seq); err != nil {
			return fmt.Errorf("write plan: next seq: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO plans
			(id, seq, domain, domain_fingerprint, facts_fingerprint, root, args, status, plan_hash, stats, planner_version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`,
			rec.ID, seq, rec.Domain, rec.DomainFingerprint, rec.FactsFingerprint,
			rec.Root, args, rec.Status, rec.PlanHash, stats, rec.PlannerVersion,
		)
		if err != nil {
			return fmt.Errorf("write plan: %w", err)
		}

		for pos, step := range rec.Steps {
			stepArgs, err := marshalStrings(step.Args)
			if err != nil {
				return fmt.Errorf("write plan step %d: %w", pos, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO plan_steps (plan_id, pos, task, args) VALUES (?, ?, ?, ?)
			`, rec.ID, pos, step.Task, stepArgs)
			if err != nil {
				return fmt.Errorf("write plan step %d: %w", pos, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}

const planColumns = `id, seq, domain, domain_fingerprint, facts_fingerprint, root, args, status, plan_hash, stats, planner_version`

// ReadPlan returns the plan record with the given ID, including its steps.
// Returns ErrNotFound if there is none.
func (s *Store) ReadPlan(ctx context.Context, id string) (PlanRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE id = ?`, id)
	rec, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return PlanRecord{}, fmt.Errorf("plan %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return PlanRecord{}, err
	}
	if rec.Steps, err = s.readSteps(ctx, id); err != nil {
		return PlanRecord{}, err
	}
	return rec, nil
}

// ListPlans returns the plan records of domain without their steps, oldest
// first. An empty domain lists every record.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListPlans(ctx context.Context, domain string) ([]PlanRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+planColumns+` FROM plans
		WHERE ? = '' OR domain = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, domain, domain)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	out := []PlanRecord{}
	for rows.Next() {
		rec, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return out, nil
}

// LatestPlan returns the most recently written plan record, with steps.
func (s *Store) LatestPlan(ctx context.Context) (PlanRecord, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM plans ORDER BY seq DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return PlanRecord{}, fmt.Errorf("latest plan: %w", ErrNotFound)
	}
	if err != nil {
		return PlanRecord{}, fmt.Errorf("latest plan: %w", err)
	}
	return s.ReadPlan(ctx, id)
}

func (s *Store) readSteps(ctx context.Context, id string) ([]StepRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task, args FROM plan_steps
		WHERE plan_id = ?
		ORDER BY pos ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query plan steps: %w", err)
	}
	defer rows.Close()

	out := []StepRecord{}
	for rows.Next() {
		var step StepRecord
		var args string
		if err := rows.Scan(&step.Task, &args); err != nil {
			return nil, fmt.Errorf("scan plan step: %w", err)
		}
		if step.Args, err = unmarshalStrings(args); err != nil {
			return nil, err
		}
		out = append(out, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan steps: %w", err)
	}
	return out, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (PlanRecord, error) {
	var rec PlanRecord
	var args, stats string
	err := row.Scan(&rec.ID, &rec.Seq, &rec.Domain, &rec.DomainFingerprint, &rec.FactsFingerprint,
		&rec.Root, &args, &rec.Status, &rec.PlanHash, &stats, &rec.PlannerVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan plan: %w", err)
	}
	if rec.Args, err = unmarshalStrings(args); err != nil {
		return rec, err
	}
	if err := json.Unmarshal([]byte(stats), &rec.Stats); err != nil {
		return rec, fmt.Errorf("unmarshal stats: %w", err)
	}
	rec.Steps = []StepRecord{}
	return rec, nil
}

func marshalStats(st engine.Stats) (string, error) {
	data, err := ir.MarshalCanonical(map[string]any{
		"backtracks": st.Backtracks,
		"expansions": st.Expansions,
		"fallbacks":  st.Fallbacks,
		"max_depth":  st.MaxDepth,
		"steps":      st.Steps,
	})
	if err != nil {
		return "", fmt.Errorf("marshal stats: %w", err)
	}
	return string(data), nil
}

func valueStrings(values []ir.Value) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}
