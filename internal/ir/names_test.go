package ir

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMurmur2(t *testing.T) {
	assert.Equal(t, uint32(0), Murmur2("", 0))
	assert.Equal(t, Murmur2("taxi!", 3), Murmur2("taxi!", 3))
	assert.NotEqual(t, Murmur2("taxi!", 0), Murmur2("taxi!", 1))
	assert.NotEqual(t, Murmur2("ab", 0), Murmur2("ba", 0))
}

func TestNameTableLookup(t *testing.T) {
	names := []string{"start", "finish", "short_distance", "long_distance", "airport"}
	table := NewNameTable(names, 0)

	require.Equal(t, len(names), table.Len())
	for i, n := range names {
		assert.Equal(t, Murmur2(n, 0), table.Hashes[i])
		idx, ok := table.Lookup(n)
		require.True(t, ok, n)
		assert.Equal(t, i, idx)
	}

	_, ok := table.Lookup("taxi")
	assert.False(t, ok)
}

func TestNameTableLarge(t *testing.T) {
	names := make([]string, 200)
	for i := range names {
		names[i] = fmt.Sprintf("fact_%03d", i)
	}
	table := NewNameTable(names, 7)
	for i, n := range names {
		idx, ok := table.Lookup(n)
		require.True(t, ok)
		assert.Equal(t, i, idx)
	}
}

func TestNameTableEmpty(t *testing.T) {
	var table NameTable
	_, ok := table.Lookup("anything")
	assert.False(t, ok)
}

func TestNameTableLookupWithoutSlots(t *testing.T) {
	src := NewNameTable([]string{"a", "b"}, 2)
	decoded := NameTable{Seed: src.Seed, Hashes: src.Hashes, Names: src.Names}
	idx, ok := decoded.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestNameTableDecodedConcurrentLookup(t *testing.T) {
	names := make([]string, 64)
	for i := range names {
		names[i] = fmt.Sprintf("task_%02d", i)
	}
	data, err := json.Marshal(NewNameTable(names, 5))
	require.NoError(t, err)

	var table NameTable
	require.NoError(t, json.Unmarshal(data, &table))
	require.NotEmpty(t, table.slots, "decoding builds the slot table")

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, n := range names {
				idx, ok := table.Lookup(n)
				assert.True(t, ok)
				assert.Equal(t, i, idx)
			}
		}()
	}
	wg.Wait()

	_, ok := table.Lookup("missing")
	assert.False(t, ok)
}
