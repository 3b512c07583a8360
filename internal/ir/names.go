package ir

import "encoding/json"

// NameTable resolves names to declaration indices in O(1) expected time.
// Hashes[i] is Murmur2(Names[i], Seed); the compiler guarantees the hashes are
// pairwise distinct. Lookups probe an open-addressed slot table keyed by hash.
type NameTable struct {
	Seed   uint32   `json:"seed"`
	Hashes []uint32 `json:"hashes"`
	Names  []string `json:"names"`

	slots []int32 // index+1, 0 means empty
}

// NewNameTable builds the lookup table for names hashed with seed.
func NewNameTable(names []string, seed uint32) NameTable {
	t := NameTable{
		Seed:   seed,
		Hashes: make([]uint32, len(names)),
		Names:  append([]string(nil), names...),
	}
	for i, n := range names {
		t.Hashes[i] = Murmur2(n, seed)
	}
	t.rebuild()
	return t
}

func (t *NameTable) rebuild() {
	size := 1
	for size < 2*len(t.Names) {
		size <<= 1
	}
	t.slots = make([]int32, size)
	mask := uint32(size - 1)
	for i, h := range t.Hashes {
		for j := h & mask; ; j = (j + 1) & mask {
			if t.slots[j] == 0 {
				t.slots[j] = int32(i + 1)
				break
			}
		}
	}
}

// UnmarshalJSON decodes a table and builds its slots, so a decoded table is
// ready for concurrent lookups.
func (t *NameTable) UnmarshalJSON(b []byte) error {
	type plain NameTable
	var w plain
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*t = NameTable(w)
	t.rebuild()
	return nil
}

// Len returns the number of names.
func (t *NameTable) Len() int {
	return len(t.Names)
}

// Lookup returns the declaration index of name. Lookup never writes to t,
// so it is safe for concurrent use. A table built by hand without slots is
// searched linearly.
func (t *NameTable) Lookup(name string) (int, bool) {
	if len(t.slots) == 0 {
		for i, n := range t.Names {
			if n == name {
				return i, true
			}
		}
		return 0, false
	}
	h := Murmur2(name, t.Seed)
	mask := uint32(len(t.slots) - 1)
	for j := h & mask; ; j = (j + 1) & mask {
		idx := t.slots[j]
		if idx == 0 {
			return 0, false
		}
		if t.Hashes[idx-1] == h && t.Names[idx-1] == name {
			return int(idx - 1), true
		}
	}
}
