package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/htn/internal/ir"
	"github.com/roach88/htn/internal/testutil"
)

func TestLayout(t *testing.T) {
	tests := []struct {
		name    string
		types   []ir.FieldType
		offsets []int
		size    int
	}{
		{"empty", nil, []int{}, 0},
		{"single byte", []ir.FieldType{ir.TypeInt8}, []int{0}, 1},
		{"padding before int32", []ir.FieldType{ir.TypeInt8, ir.TypeInt32, ir.TypeInt8}, []int{0, 4, 8}, 12},
		{"padding before int64", []ir.FieldType{ir.TypeInt8, ir.TypeInt64}, []int{0, 8}, 16},
		{"tail rounding", []ir.FieldType{ir.TypeInt16, ir.TypeInt8}, []int{0, 2}, 4},
		{"packed ids", []ir.FieldType{ir.TypeID32, ir.TypeID32}, []int{0, 4}, 8},
		{"mixed", []ir.FieldType{ir.TypeUint8, ir.TypeUint16, ir.TypeFloat32, ir.TypeID64, ir.TypeInt8}, []int{0, 2, 4, 8, 16}, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := Layout(tt.types)
			require.NoError(t, err)
			assert.Equal(t, tt.offsets, sig.Offsets)
			assert.Equal(t, tt.size, sig.Size)
		})
	}
}

func TestLayoutDeterministic(t *testing.T) {
	types := []ir.FieldType{ir.TypeInt8, ir.TypeFloat64, ir.TypeInt16}
	a, err := Layout(types)
	require.NoError(t, err)
	b, err := Layout(types)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLayoutUnknownType(t *testing.T) {
	_, err := Layout([]ir.FieldType{ir.TypeInt8, ir.FieldType(99)})
	require.Error(t, err)
	var le *LayoutError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 1, le.Field)

	_, err = Layout([]ir.FieldType{ir.TypeInvalid})
	assert.Error(t, err)
}

func TestBuildSignaturesTravel(t *testing.T) {
	st, err := BuildSignatures(testutil.TravelDomain())
	require.NoError(t, err)

	require.Len(t, st.Facts, 5)
	assert.Equal(t, 4, st.Facts[0].Size)
	assert.Equal(t, 8, st.Facts[4].Size)

	// taxi!, plane!, root, travel, travel_by_plane
	require.Len(t, st.Tasks, 5)
	assert.Equal(t, 8, st.Tasks[0].Size)
	assert.Equal(t, 0, st.Tasks[2].Size)
	assert.Equal(t, []int{0, 4}, st.Tasks[3].Offsets)

	// root#0, travel#0, travel#1, travel_by_plane#0
	require.Len(t, st.CaseOutputs, 4)
	assert.Equal(t, []ir.FieldType{ir.TypeID32, ir.TypeID32}, st.CaseOutputs[0].Types)
	assert.Equal(t, 0, st.CaseOutputs[1].Len())
	assert.Equal(t, 8, st.CaseOutputs[3].Size)

	require.Len(t, st.CaseInputs, 4)
	assert.Equal(t, 0, st.CaseInputs[0].Len(), "root has no parameters")
	assert.Equal(t, 2, st.CaseInputs[1].Len())
	assert.Equal(t, 2, st.CaseInputs[3].Len())
}

func TestBuildSignaturesOutputOrder(t *testing.T) {
	d := &ir.Domain{
		Name: "order",
		Facts: []ir.FactDecl{
			{Name: "a", Params: []ir.Param{{Name: "v", Type: ir.TypeInt8}, {Name: "w", Type: ir.TypeInt64}}},
			{Name: "b", Params: []ir.Param{{Name: "v", Type: ir.TypeInt16}}},
		},
		Tasks: []ir.CompositeDecl{{
			Name:   "t",
			Params: []ir.Param{{Name: "p", Type: ir.TypeInt16}, {Name: "q", Type: ir.TypeInt8}},
			Cases: []ir.CaseDecl{{
				Precondition: ir.Precondition{Disjuncts: []ir.Conjunct{
					{Literals: []ir.Literal{testutil.Lit("a", "m", "n"), testutil.Lit("b", "p")}},
					{Literals: []ir.Literal{testutil.Lit("b", "o"), testutil.Lit("a", "m", "_")}},
				}},
				TaskList: []ir.Call{},
			}},
		}},
	}
	require.Empty(t, Validate(d))

	st, err := BuildSignatures(d)
	require.NoError(t, err)

	// m, n from the first disjunct, then o from the second; m is reused.
	assert.Equal(t, []ir.FieldType{ir.TypeInt8, ir.TypeInt64, ir.TypeInt16}, st.CaseOutputs[0].Types)
	assert.Equal(t, []int{0, 8, 16}, st.CaseOutputs[0].Offsets)
	assert.Equal(t, 24, st.CaseOutputs[0].Size)

	// only p is referenced by the precondition
	assert.Equal(t, []ir.FieldType{ir.TypeInt16}, st.CaseInputs[0].Types)
}
