package compiler

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/htn/internal/ir"
	"github.com/roach88/htn/internal/testutil"
)

func compileTravel(t *testing.T) *Domain {
	t.Helper()
	dom, err := Compile(testutil.TravelDomain())
	require.NoError(t, err)
	return dom
}

func TestCompileTravelDispatchTable(t *testing.T) {
	dom := compileTravel(t)

	assert.Equal(t, "travel", dom.Name)
	assert.Equal(t, ir.ArtifactVersion, dom.Version)
	assert.Equal(t, 2, dom.NumPrimitives)
	require.Len(t, dom.Tasks, 5)

	assert.True(t, dom.Tasks[0].Primitive)
	assert.True(t, dom.Tasks[1].Primitive)

	travel, ok := dom.TaskIndex("travel")
	require.True(t, ok)
	assert.Equal(t, 3, travel)
	assert.False(t, dom.Tasks[travel].Primitive)
	assert.Equal(t, 1, dom.Tasks[travel].FirstCase)
	assert.Equal(t, 2, dom.Tasks[travel].NumCases)

	cases := dom.CasesOf(travel)
	require.Len(t, cases, 2)
	assert.Equal(t, 0, cases[0].Index)
	assert.Equal(t, 1, cases[1].Index)
	assert.Equal(t, travel, cases[1].Task)

	airport, ok := dom.FactIndex("airport")
	require.True(t, ok)
	assert.Equal(t, 4, airport)

	_, ok = dom.TaskIndex("walk!")
	assert.False(t, ok)
}

func TestCompileTravelPrograms(t *testing.T) {
	dom := compileTravel(t)

	root := dom.Cases[0]
	assert.Empty(t, root.InputParams)
	assert.Equal(t, []string{"s", "f"}, root.OutputNames)
	require.Len(t, root.Conjuncts, 1)
	assert.Equal(t, []LiteralProgram{
		{Fact: 0, Fields: []FieldOp{{Kind: OpBind, Slot: 0}}},
		{Fact: 1, Fields: []FieldOp{{Kind: OpBind, Slot: 1}}},
	}, root.Conjuncts[0].Literals)
	assert.Equal(t, []CallProgram{
		{Task: 3, Args: []ArgOp{{Kind: ArgOutput, Slot: 0}, {Kind: ArgOutput, Slot: 1}}},
	}, root.Calls)

	byPlane := dom.Cases[3]
	assert.Equal(t, []int{0, 1}, byPlane.InputParams)
	assert.Equal(t, []string{"ax", "ay"}, byPlane.OutputNames)
	assert.Equal(t, []LiteralProgram{
		{Fact: 4, Fields: []FieldOp{{Kind: OpInput, Slot: 0}, {Kind: OpBind, Slot: 0}}},
		{Fact: 4, Fields: []FieldOp{{Kind: OpInput, Slot: 1}, {Kind: OpBind, Slot: 1}}},
	}, byPlane.Conjuncts[0].Literals)
	assert.Equal(t, []CallProgram{
		{Task: 3, Args: []ArgOp{{Kind: ArgParam, Slot: 0}, {Kind: ArgOutput, Slot: 0}}},
		{Task: 1, Args: []ArgOp{{Kind: ArgOutput, Slot: 0}, {Kind: ArgOutput, Slot: 1}}},
		{Task: 3, Args: []ArgOp{{Kind: ArgOutput, Slot: 1}, {Kind: ArgParam, Slot: 1}}},
	}, byPlane.Calls)
}

func TestCompileConstantsAndReuse(t *testing.T) {
	d := testutil.TravelDomain()
	d.Tasks[1].Cases[0] = ir.CaseDecl{
		Precondition: ir.Precondition{Disjuncts: []ir.Conjunct{{Literals: []ir.Literal{
			{Fact: "airport", Args: []ir.Term{ir.Var("p"), ir.IntConst(7)}},
			{Fact: "short_distance", Args: []ir.Term{ir.Var("p"), ir.Var("p")}},
			{Fact: "long_distance", Negated: true, Args: []ir.Term{ir.Var("x"), ir.Var("_")}},
		}}}},
		TaskList: []ir.Call{{Task: "taxi!", Args: []ir.Term{ir.Var("p"), ir.IntConst(9)}}},
	}
	dom, err := Compile(d)
	require.NoError(t, err)

	c := dom.Cases[1]
	lits := c.Conjuncts[0].Literals
	assert.Equal(t, OpBind, lits[0].Fields[0].Kind)
	assert.Equal(t, OpConst, lits[0].Fields[1].Kind)
	assert.Equal(t, "7", lits[0].Fields[1].Const.String())
	assert.Equal(t, ir.TypeID32, lits[0].Fields[1].Const.Type)
	assert.Equal(t, []FieldOp{{Kind: OpOutput, Slot: 0}, {Kind: OpOutput, Slot: 0}}, lits[1].Fields)
	assert.True(t, lits[2].Negated)
	assert.Equal(t, []FieldOp{{Kind: OpInput, Slot: 0}, {Kind: OpAny}}, lits[2].Fields)
	assert.Equal(t, []int{0}, c.InputParams, "only x is read by the precondition")
	assert.Equal(t, ArgConst, c.Calls[0].Args[1].Kind)
	assert.Equal(t, uint64(9), c.Calls[0].Args[1].Const.Uint64())
}

func TestCompileRepeatedVariable(t *testing.T) {
	d := testutil.TravelDomain()
	d.Tasks[1].Cases[0].Precondition = testutil.Pre(testutil.Lit("short_distance", "p", "p"))
	d.Tasks[1].Cases[0].TaskList = []ir.Call{testutil.Do("taxi!", "x", "p")}
	dom, err := Compile(d)
	require.NoError(t, err)

	lit := dom.Cases[1].Conjuncts[0].Literals[0]
	assert.Equal(t, []FieldOp{{Kind: OpBind, Slot: 0}, {Kind: OpOutput, Slot: 0}}, lit.Fields)
}

func TestCompileExpressionsAndEach(t *testing.T) {
	d := testutil.TravelDomain()
	d.Tasks[1].Cases[0] = ir.CaseDecl{
		Precondition: ir.Precondition{Disjuncts: []ir.Conjunct{{Literals: []ir.Literal{
			{Fact: "airport", Args: []ir.Term{ir.Var("p"), ir.Expression("p + x")}},
		}}}},
		Each:     true,
		TaskList: []ir.Call{{Task: "taxi!", Args: []ir.Term{ir.Var("x"), ir.Expression("p*2 + y")}}},
	}
	dom, err := Compile(d)
	require.NoError(t, err)

	c := dom.Cases[1]
	assert.True(t, c.Each)
	field := c.Conjuncts[0].Literals[0].Fields[1]
	require.Equal(t, OpExpr, field.Kind)
	assert.True(t, field.Kind.Bound())
	assert.Equal(t, "p + x", field.Expr.Source)
	assert.Equal(t, ir.TypeID32, field.Expr.Type)

	arg := c.Calls[0].Args[1]
	require.Equal(t, ArgExpr, arg.Kind)
	assert.Equal(t, "p*2 + y", arg.Expr.Source)

	v, err := arg.Expr.Eval(map[string]any{"p": uint64(3), "x": uint64(1), "y": uint64(4)})
	require.NoError(t, err)
	assert.Equal(t, ir.ID(ir.TypeID32, 10), v)

	data, err := json.Marshal(field)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind": "expr", "expr": "p + x"}`, string(data))
	data, err = json.Marshal(arg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind": "expr", "expr": "p*2 + y"}`, string(data))

	var buf bytes.Buffer
	require.NoError(t, WriteListing(&buf, dom))
	assert.Contains(t, buf.String(), "  pre[0]  airport(?p, =(p + x))\n")
	assert.Contains(t, buf.String(), "  each\n")
	assert.Contains(t, buf.String(), "  do      taxi!(x, (p*2 + y))\n")

	plain := compileTravel(t)
	assert.NotEqual(t, plain.Fingerprint, dom.Fingerprint)
}

func TestCompileTrivialPrecondition(t *testing.T) {
	d := testutil.TravelDomain()
	d.Tasks[1].Cases[0].Precondition = ir.Precondition{}
	dom, err := Compile(d)
	require.NoError(t, err)

	c := dom.Cases[1]
	require.Len(t, c.Conjuncts, 1)
	assert.Empty(t, c.Conjuncts[0].Literals)
}

func TestCompileGuardInputs(t *testing.T) {
	d := testutil.TravelDomain()
	d.Tasks[1].Cases[0].Precondition = ir.Precondition{}
	d.Tasks[1].Cases[0].Guard = "y != 0"
	dom, err := Compile(d)
	require.NoError(t, err)

	c := dom.Cases[1]
	require.NotNil(t, c.Guard)
	assert.Equal(t, []int{1}, c.InputParams)
}

func TestCompileValidationFailure(t *testing.T) {
	d := testutil.TravelDomain()
	d.Tasks[1].Cases[0].TaskList = []ir.Call{testutil.Do("walk!", "x", "y")}

	_, err := Compile(d)
	require.Error(t, err)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, ErrUndeclaredTask, verrs[0].Code)
}

func TestCompileFingerprint(t *testing.T) {
	a := compileTravel(t)
	b := compileTravel(t)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.Len(t, a.Fingerprint, 64)

	d := testutil.TravelDomain()
	d.Tasks[1].Cases[0], d.Tasks[1].Cases[1] = d.Tasks[1].Cases[1], d.Tasks[1].Cases[0]
	swapped, err := Compile(d)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint, swapped.Fingerprint, "case order is part of the domain")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, compileTravel(t)))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "travel", decoded["name"])
	assert.Len(t, decoded["cases"], 4)

	tasks := decoded["task_names"].(map[string]any)
	assert.Len(t, tasks["hashes"], 5)

	cases := decoded["cases"].([]any)
	root := cases[0].(map[string]any)
	lit := root["conjuncts"].([]any)[0].(map[string]any)["literals"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{"kind": "bind", "slot": float64(0)}, lit["fields"].([]any)[0])
}

func TestWriteListing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteListing(&buf, compileTravel(t)))
	out := buf.String()

	assert.Contains(t, out, "domain travel\n")
	assert.Contains(t, out, "case 3: travel_by_plane #0\n")
	assert.Contains(t, out, "  inputs  [x:id32@0 y:id32@4] size=8\n")
	assert.Contains(t, out, "  outputs [ax:id32@0 ay:id32@4] size=8\n")
	assert.Contains(t, out, "  pre[0]  airport(x, ?ax) & airport(y, ?ay)\n")
	assert.Contains(t, out, "  do      plane!(ax, ay)\n")
	assert.Contains(t, out, "  pre[0]  start(?s) & finish(?f)\n")
}
