package factdb

import (
	"bytes"
	"fmt"

	"github.com/roach88/htn/internal/compiler"
	"github.com/roach88/htn/internal/ir"
)

// Memory is an in-memory fact database.
type Memory struct {
	dom    *compiler.Domain
	tables []table
}

type table struct {
	sig  ir.Signature
	rows []byte
	n    int
}

var _ ir.FactDatabase = (*Memory)(nil)

// NewMemory creates an empty database for the facts of dom.
func NewMemory(dom *compiler.Domain) *Memory {
	m := &Memory{dom: dom, tables: make([]table, len(dom.Facts))}
	for i, f := range dom.Facts {
		m.tables[i].sig = f.Signature
	}
	return m
}

// Domain returns the compiled domain the database was created for.
func (m *Memory) Domain() *compiler.Domain {
	return m.dom
}

// Add appends an instance of the named fact. Values are converted with
// ir.ValueOf, so plain Go numbers and numeric strings are accepted.
func (m *Memory) Add(fact string, values ...any) error {
	ft, ok := m.dom.FactIndex(fact)
	if !ok {
		return fmt.Errorf("unknown fact %q", fact)
	}
	params := m.dom.Facts[ft].Params
	if len(values) != len(params) {
		return fmt.Errorf("fact %s takes %d values, got %d", fact, len(params), len(values))
	}
	row := make([]ir.Value, len(values))
	for i, x := range values {
		v, err := ir.ValueOf(params[i].Type, x)
		if err != nil {
			return fmt.Errorf("fact %s field %s: %w", fact, params[i].Name, err)
		}
		row[i] = v
	}
	return m.AddRow(ft, row...)
}

// AddRow appends an instance of fact type ft.
func (m *Memory) AddRow(ft int, values ...ir.Value) error {
	if ft < 0 || ft >= len(m.tables) {
		return fmt.Errorf("fact type %d out of range", ft)
	}
	t := &m.tables[ft]
	if len(values) != t.sig.Len() {
		return fmt.Errorf("fact %s takes %d values, got %d", m.dom.Facts[ft].Name, t.sig.Len(), len(values))
	}
	for i, v := range values {
		if v.Type != t.sig.Types[i] {
			return fmt.Errorf("fact %s field %d: value type %s, want %s", m.dom.Facts[ft].Name, i, v.Type, t.sig.Types[i])
		}
	}

	off := len(t.rows)
	t.rows = append(t.rows, make([]byte, t.sig.Size)...)
	for i, v := range values {
		t.sig.Set(t.rows[off:], i, v)
	}
	t.n++
	return nil
}

// Remove deletes the first instance of ft equal to values and reports
// whether one was found. Later instances keep their relative order.
func (m *Memory) Remove(ft int, values ...ir.Value) bool {
	t := &m.tables[ft]
	if len(values) != t.sig.Len() {
		return false
	}
	for r := 0; r < t.n; r++ {
		if !rowEqual(t, r, values) {
			continue
		}
		start := r * t.sig.Size
		t.rows = append(t.rows[:start], t.rows[start+t.sig.Size:]...)
		t.n--
		return true
	}
	return false
}

func rowEqual(t *table, r int, values []ir.Value) bool {
	row := t.rows[r*t.sig.Size:]
	for i, v := range values {
		if !t.sig.Get(row, i).Equal(v) {
			return false
		}
	}
	return true
}

// Len returns the number of instances of ft.
func (m *Memory) Len(ft int) int {
	return m.tables[ft].n
}

// Rows decodes every instance of ft in iteration order.
func (m *Memory) Rows(ft int) [][]ir.Value {
	t := &m.tables[ft]
	out := make([][]ir.Value, t.n)
	for r := range out {
		out[r] = t.sig.Values(t.rows[r*t.sig.Size:])
	}
	return out
}

// Clear removes every instance of every fact type.
func (m *Memory) Clear() {
	for i := range m.tables {
		m.tables[i].rows = m.tables[i].rows[:0]
		m.tables[i].n = 0
	}
}

// Clone returns an independent copy.
func (m *Memory) Clone() *Memory {
	c := &Memory{dom: m.dom, tables: make([]table, len(m.tables))}
	for i, t := range m.tables {
		c.tables[i] = table{sig: t.sig, rows: bytes.Clone(t.rows), n: t.n}
	}
	return c
}

// First returns a handle to the first instance of ft.
func (m *Memory) First(ft int) ir.FactHandle {
	return ir.FactHandle{Type: ft, Pos: 0}
}

// Next returns the handle after h.
func (m *Memory) Next(h ir.FactHandle) ir.FactHandle {
	return ir.FactHandle{Type: h.Type, Pos: h.Pos + 1}
}

// Valid reports whether h refers to an instance.
func (m *Memory) Valid(h ir.FactHandle) bool {
	return h.Pos >= 0 && h.Pos < m.tables[h.Type].n
}

// Field reads field i of the instance at h. An invalid handle panics.
func (m *Memory) Field(h ir.FactHandle, i int) ir.Value {
	t := &m.tables[h.Type]
	if h.Pos < 0 || h.Pos >= t.n {
		panic(fmt.Sprintf("factdb: invalid handle %+v for %s", h, m.dom.Facts[h.Type].Name))
	}
	return t.sig.Get(t.rows[h.Pos*t.sig.Size:], i)
}

// Fingerprint hashes the database contents: every fact type by name with
// its instances in iteration order.
func (m *Memory) Fingerprint() (string, error) {
	doc := make(map[string]any, len(m.tables))
	for ft, f := range m.dom.Facts {
		rows := m.Rows(ft)
		out := make([]any, len(rows))
		for i, row := range rows {
			vals := make([]string, len(row))
			for j, v := range row {
				vals[j] = v.String()
			}
			out[i] = vals
		}
		doc[f.Name] = out
	}
	return ir.Fingerprint(ir.FactsFingerprint, doc)
}
