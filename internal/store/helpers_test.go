package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/htn/internal/compiler"
	"github.com/roach88/htn/internal/engine"
	"github.com/roach88/htn/internal/factdb"
	"github.com/roach88/htn/internal/ir"
	"github.com/roach88/htn/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func travelDomain(t *testing.T) *compiler.Domain {
	t.Helper()
	dom, err := compiler.Compile(testutil.TravelDomain())
	require.NoError(t, err)
	return dom
}

// longTrip returns facts for a flight from 1 to 4 via airports 2 and 3.
func longTrip(t *testing.T, dom *compiler.Domain) *factdb.Memory {
	t.Helper()
	m := factdb.NewMemory(dom)
	require.NoError(t, m.Add("start", 1))
	require.NoError(t, m.Add("finish", 4))
	require.NoError(t, m.Add("short_distance", 1, 2))
	require.NoError(t, m.Add("short_distance", 3, 4))
	require.NoError(t, m.Add("long_distance", 1, 4))
	require.NoError(t, m.Add("airport", 1, 2))
	require.NoError(t, m.Add("airport", 4, 3))
	return m
}

func quiet() engine.Option {
	return engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// recordRoot plans "root" against the stored facts and records the attempt.
func recordRoot(t *testing.T, s *Store, dom *compiler.Domain, id string) PlanRecord {
	t.Helper()
	ctx := context.Background()
	db, err := s.LoadFacts(ctx, dom)
	require.NoError(t, err)
	fp, err := db.Fingerprint()
	require.NoError(t, err)

	p := engine.New(dom, db, quiet())
	require.NoError(t, p.Begin("root"))
	plan, err := p.Run(ctx)
	if err != nil {
		require.ErrorIs(t, err, engine.ErrNoPlan)
	}
	rec, err := NewPlanRecord(id, dom, fp, "root", []ir.Value{}, plan, p.Stats())
	require.NoError(t, err)
	rec.Seq, err = s.WritePlan(ctx, rec)
	require.NoError(t, err)
	return rec
}
