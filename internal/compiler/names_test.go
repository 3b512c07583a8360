package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/htn/internal/ir"
)

func distinct(names []string, seed uint32) bool {
	seen := make(map[uint32]bool)
	for _, n := range names {
		h := ir.Murmur2(n, seed)
		if seen[h] {
			return false
		}
		seen[h] = true
	}
	return true
}

func TestBuildNameTable(t *testing.T) {
	names := []string{"taxi!", "plane!", "root", "travel", "travel_by_plane"}
	table, err := BuildNameTable("task", names)
	require.NoError(t, err)

	assert.Equal(t, names, table.Names)
	require.Len(t, table.Hashes, len(names))
	for i, n := range names {
		assert.Equal(t, ir.Murmur2(n, table.Seed), table.Hashes[i])
		idx, ok := table.Lookup(n)
		require.True(t, ok)
		assert.Equal(t, i, idx)
	}

	assert.True(t, distinct(names, table.Seed))
	for seed := uint32(0); seed < table.Seed; seed++ {
		assert.False(t, distinct(names, seed), "seed %d is smaller and collision-free", seed)
	}
}

func TestBuildNameTableEmpty(t *testing.T) {
	table, err := BuildNameTable("fact", nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), table.Seed)
	assert.Equal(t, 0, table.Len())
}

func TestBuildNameTableNoSeed(t *testing.T) {
	// identical names collide under every seed
	_, err := BuildNameTable("fact", []string{"same", "same"})
	require.Error(t, err)

	var hse *HashSeedError
	require.ErrorAs(t, err, &hse)
	assert.Equal(t, "fact", hse.Kind)
	assert.Equal(t, uint32(MaxHashSeed), hse.Limit)
}
