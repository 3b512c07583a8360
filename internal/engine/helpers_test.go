package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/require"

	"github.com/roach88/htn/internal/compiler"
	"github.com/roach88/htn/internal/factdb"
	"github.com/roach88/htn/internal/ir"
	"github.com/roach88/htn/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// compileDomain compiles the CUE domain at domain.<name> in src.
func compileDomain(t *testing.T, src, name string) *compiler.Domain {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	ast, err := compiler.CompileDomain(v.LookupPath(cue.ParsePath("domain." + name)))
	require.NoError(t, err)
	dom, err := compiler.Compile(ast)
	require.NoError(t, err)
	return dom
}

func travelDomain(t *testing.T) *compiler.Domain {
	t.Helper()
	dom, err := compiler.Compile(testutil.TravelDomain())
	require.NoError(t, err)
	return dom
}

// facts builds a database from fact name to rows.
func facts(t *testing.T, dom *compiler.Domain, rows map[string][][]any) *factdb.Memory {
	t.Helper()
	db := factdb.NewMemory(dom)
	// Insert in declaration order so iteration order does not depend on map order.
	for _, f := range dom.Facts {
		for _, row := range rows[f.Name] {
			require.NoError(t, db.Add(f.Name, row...))
		}
	}
	return db
}

func solve(t *testing.T, dom *compiler.Domain, db ir.FactDatabase, task string, args []ir.Value, opts ...Option) (*Plan, error) {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return Solve(context.Background(), dom, db, task, args, opts...)
}

func id32(ns ...uint64) []ir.Value {
	out := make([]ir.Value, len(ns))
	for i, n := range ns {
		out[i] = ir.ID(ir.TypeID32, n)
	}
	return out
}
