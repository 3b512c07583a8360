package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportAndLoadFacts(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	dom := travelDomain(t)
	src := longTrip(t, dom)

	n, err := s.ImportFacts(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	count, err := s.CountFacts(ctx, "travel")
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	loaded, err := s.LoadFacts(ctx, dom)
	require.NoError(t, err)
	for ft := range dom.Facts {
		assert.Equal(t, src.Rows(ft), loaded.Rows(ft), dom.Facts[ft].Name)
	}

	want, err := src.Fingerprint()
	require.NoError(t, err)
	got, err := loaded.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadFactsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.WriteFacts(ctx, "travel", []FactRow{
		{Fact: "airport", Args: []string{"4", "3"}},
		{Fact: "start", Args: []string{"1"}},
	}))
	require.NoError(t, s.WriteFacts(ctx, "travel", []FactRow{
		{Fact: "airport", Args: []string{"1", "2"}},
	}))
	require.NoError(t, s.WriteFacts(ctx, "other", []FactRow{
		{Fact: "airport", Args: []string{"9", "9"}},
	}))

	rows, err := s.ReadFacts(ctx, "travel")
	require.NoError(t, err)
	assert.Equal(t, []FactRow{
		{Fact: "airport", Args: []string{"4", "3"}},
		{Fact: "start", Args: []string{"1"}},
		{Fact: "airport", Args: []string{"1", "2"}},
	}, rows)

	loaded, err := s.LoadFacts(ctx, travelDomain(t))
	require.NoError(t, err)
	ft, _ := loaded.Domain().FactIndex("airport")
	assert.Equal(t, 2, loaded.Len(ft))
	assert.Equal(t, uint64(4), loaded.Rows(ft)[0][0].Uint64())
}

func TestReadFactsEmpty(t *testing.T) {
	rows, err := createTestStore(t).ReadFacts(context.Background(), "travel")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestLoadFactsErrors(t *testing.T) {
	ctx := context.Background()
	dom := travelDomain(t)

	tests := []struct {
		name string
		row  FactRow
		want string
	}{
		{"unknown fact", FactRow{Fact: "teleporter", Args: []string{"1"}}, `unknown fact "teleporter"`},
		{"arity", FactRow{Fact: "start", Args: []string{"1", "2"}}, "expected 1 values, got 2"},
		{"bad value", FactRow{Fact: "start", Args: []string{"-1"}}, "row 1: start: loc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := createTestStore(t)
			require.NoError(t, s.WriteFacts(ctx, "travel", []FactRow{tt.row}))
			_, err := s.LoadFacts(ctx, dom)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestClearFacts(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	dom := travelDomain(t)

	_, err := s.ImportFacts(ctx, longTrip(t, dom))
	require.NoError(t, err)

	n, err := s.ClearFacts(ctx, "travel")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	count, err := s.CountFacts(ctx, "travel")
	require.NoError(t, err)
	assert.Zero(t, count)
}
