package store

import (
	"context"
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/htn/internal/compiler"
	"github.com/roach88/htn/internal/engine"
)

// ReplayResult compares a recorded planning attempt with a fresh attempt
// for the same root task against the facts currently in the store.
type ReplayResult struct {
	Recorded PlanRecord
	Replayed PlanRecord

	// DomainChanged and FactsChanged report fingerprint drift since the
	// attempt was recorded. Either one explains a mismatch.
	DomainChanged bool
	FactsChanged  bool

	Match bool
	// Diff is a go-cmp diff of the step lists (-recorded +replayed), empty
	// when they are equal.
	Diff string
}

// Replay re-runs the recorded attempt id with dom and the stored facts of
// dom's domain. Budget errors from the planner are returned as errors; a
// fresh "no plan" outcome is a valid replay result.
func (s *Store) Replay(ctx context.Context, id string, dom *compiler.Domain, opts ...engine.Option) (ReplayResult, error) {
	rec, err := s.ReadPlan(ctx, id)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}
	if rec.Domain != dom.Name {
		return ReplayResult{}, fmt.Errorf("replay %s: recorded for domain %q, got %q", id, rec.Domain, dom.Name)
	}

	db, err := s.LoadFacts(ctx, dom)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", id, err)
	}
	factsFP, err := db.Fingerprint()
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", id, err)
	}
	args, err := engine.ParseArgs(dom, rec.Root, rec.Args)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", id, err)
	}

	p := engine.New(dom, db, opts...)
	if err := p.Begin(rec.Root, args...); err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", id, err)
	}
	plan, err := p.Run(ctx)
	if err != nil && !engine.IsNoPlan(err) {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", id, err)
	}

	replayed, err := NewPlanRecord(rec.ID, dom, factsFP, rec.Root, args, plan, p.Stats())
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", id, err)
	}
	replayed.Seq = rec.Seq

	res := ReplayResult{
		Recorded:      rec,
		Replayed:      replayed,
		DomainChanged: rec.DomainFingerprint != dom.Fingerprint,
		FactsChanged:  rec.FactsFingerprint != factsFP,
		Match:         rec.Status == replayed.Status && rec.PlanHash == replayed.PlanHash,
		Diff:          cmp.Diff(rec.StepStrings(), replayed.StepStrings()),
	}
	return res, nil
}
