package compiler

import "github.com/roach88/htn/internal/ir"

// MaxHashSeed bounds the seed search of BuildNameTable.
const MaxHashSeed = 1000

// BuildNameTable finds the smallest seed below MaxHashSeed for which the
// Murmur2 hashes of names are pairwise distinct, and returns the lookup
// table built with it. kind names the name set in the error.
func BuildNameTable(kind string, names []string) (ir.NameTable, error) {
	hashes := make(map[uint32]struct{}, len(names))
	for seed := uint32(0); seed < MaxHashSeed; seed++ {
		clear(hashes)
		distinct := true
		for _, n := range names {
			h := ir.Murmur2(n, seed)
			if _, dup := hashes[h]; dup {
				distinct = false
				break
			}
			hashes[h] = struct{}{}
		}
		if distinct {
			return ir.NewNameTable(names, seed), nil
		}
	}
	return ir.NameTable{}, &HashSeedError{Kind: kind, Names: len(names), Limit: MaxHashSeed}
}
