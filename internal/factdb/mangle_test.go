package factdb

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/mangle/ast"
	"github.com/google/mangle/factstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/htn/internal/compiler"
	"github.com/roach88/htn/internal/ir"
	"github.com/roach88/htn/internal/testutil"
)

func TestLoadMangle(t *testing.T) {
	src := `
start(1).
finish(2).
short_distance(1, 2).
short_distance(2, 1).
`
	m, err := LoadMangle(strings.NewReader(src), travelDomain(t))
	require.NoError(t, err)

	sd, _ := m.Domain().FactIndex("short_distance")
	if diff := cmp.Diff([][]string{{"1", "2"}, {"2", "1"}}, rowStrings(m.Rows(sd))); diff != "" {
		t.Errorf("short_distance rows (-want +got):\n%s", diff)
	}
}

func TestLoadMangleRejectsRules(t *testing.T) {
	src := `start(1).
finish(X) :- start(X).
`
	_, err := LoadMangle(strings.NewReader(src), travelDomain(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rules are not supported")
}

func TestLoadMangleRejectsNonNumbers(t *testing.T) {
	_, err := LoadMangle(strings.NewReader(`start("paris").`), travelDomain(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "numbers only")

	_, err = LoadMangle(strings.NewReader(`teleport(1).`), travelDomain(t))
	assert.ErrorContains(t, err, "unknown fact")
}

func TestFromMangleStore(t *testing.T) {
	store := factstore.NewSimpleInMemoryStore()
	store.Add(ast.NewAtom("airport", ast.Number(3), ast.Number(30)))
	store.Add(ast.NewAtom("airport", ast.Number(1), ast.Number(10)))
	store.Add(ast.NewAtom("start", ast.Number(1)))

	m, err := FromMangleStore(store, travelDomain(t))
	require.NoError(t, err)

	ap, _ := m.Domain().FactIndex("airport")
	if diff := cmp.Diff([][]string{{"1", "10"}, {"3", "30"}}, rowStrings(m.Rows(ap))); diff != "" {
		t.Errorf("airport rows (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, m.Len(0))
}

func TestMangleStoreRoundTrip(t *testing.T) {
	m := NewMemory(travelDomain(t))
	require.NoError(t, m.Add("long_distance", 1, 2))
	require.NoError(t, m.Add("finish", 2))

	back, err := FromMangleStore(m.ToMangleStore(), m.Domain())
	require.NoError(t, err)
	for ft := range m.Domain().Facts {
		assert.Equal(t, rowStrings(m.Rows(ft)), rowStrings(back.Rows(ft)))
	}
}

func TestMangleStoreRoundTripLargeUnsigned(t *testing.T) {
	d := testutil.TravelDomain()
	d.Facts = append(d.Facts, ir.FactDecl{Name: "serial", Params: []ir.Param{
		{Name: "id", Type: ir.TypeID64},
		{Name: "count", Type: ir.TypeUint64},
		{Name: "delta", Type: ir.TypeInt64},
	}})
	dom, err := compiler.Compile(d)
	require.NoError(t, err)

	m := NewMemory(dom)
	require.NoError(t, m.Add("serial", uint64(math.MaxUint64), uint64(math.MaxInt64)+1, -5))
	require.NoError(t, m.Add("serial", 7, 8, math.MinInt64))

	store := m.ToMangleStore()
	back, err := FromMangleStore(store, dom)
	require.NoError(t, err)

	ft, _ := dom.FactIndex("serial")
	want := [][]string{
		{"18446744073709551615", "9223372036854775808", "-5"},
		{"7", "8", "-9223372036854775808"},
	}
	assert.ElementsMatch(t, want, rowStrings(back.Rows(ft)))
}

func TestLoadMangleLargeUnsignedAsString(t *testing.T) {
	d := testutil.TravelDomain()
	d.Facts = append(d.Facts, ir.FactDecl{Name: "serial", Params: []ir.Param{{Name: "id", Type: ir.TypeID64}}})
	dom, err := compiler.Compile(d)
	require.NoError(t, err)

	m, err := LoadMangle(strings.NewReader(`serial("18446744073709551615").`), dom)
	require.NoError(t, err)
	ft, _ := dom.FactIndex("serial")
	assert.Equal(t, [][]string{{"18446744073709551615"}}, rowStrings(m.Rows(ft)))
}
