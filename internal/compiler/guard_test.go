package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/htn/internal/ir"
)

func TestExprIdents(t *testing.T) {
	idents, err := exprIdents("a + b > a && c == 10")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, idents)

	_, err = exprIdents("a >")
	assert.Error(t, err)
}

func TestGuardEval(t *testing.T) {
	params := []ir.Param{{Name: "n", Type: ir.TypeInt32}}
	outputs := []ir.Param{{Name: "d", Type: ir.TypeFloat32}}

	g, err := compileGuard("n == 10 && d < 2.5", params, outputs)
	require.NoError(t, err)

	ok, err := g.Eval(map[string]any{"n": int64(10), "d": float64(1)})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Eval(map[string]any{"n": int64(10), "d": float64(3)})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompileGuardRejectsNonBool(t *testing.T) {
	_, err := compileGuard("n + 1", []ir.Param{{Name: "n", Type: ir.TypeInt8}}, nil)
	assert.Error(t, err)
}

func TestExprEval(t *testing.T) {
	params := []ir.Param{{Name: "x", Type: ir.TypeInt8}, {Name: "y", Type: ir.TypeInt32}}

	e, err := compileExpr("x*5 + y", ir.TypeInt8, params, nil)
	require.NoError(t, err)
	v, err := e.Eval(map[string]any{"x": int64(10), "y": int64(11)})
	require.NoError(t, err)
	assert.Equal(t, ir.Int(ir.TypeInt8, 61), v)

	_, err = e.Eval(map[string]any{"x": int64(100), "y": int64(0)})
	assert.Error(t, err, "500 does not fit in int8")
}

func TestExprEvalFloat(t *testing.T) {
	outputs := []ir.Param{{Name: "w", Type: ir.TypeFloat32}}
	e, err := compileExpr("w + 0.5", ir.TypeFloat64, nil, outputs)
	require.NoError(t, err)
	v, err := e.Eval(map[string]any{"w": float64(1)})
	require.NoError(t, err)
	assert.Equal(t, 1.5, v.Float64())

	e, err = compileExpr("w / 2", ir.TypeInt32, nil, outputs)
	require.NoError(t, err)
	_, err = e.Eval(map[string]any{"w": float64(3)})
	assert.Error(t, err, "1.5 is not an int32")
}

func TestCompileExprErrors(t *testing.T) {
	params := []ir.Param{{Name: "n", Type: ir.TypeInt8}}

	_, err := compileExpr("n > 1", ir.TypeInt8, params, nil)
	assert.ErrorContains(t, err, "want a number")

	_, err = compileExpr("m + 1", ir.TypeInt8, params, nil)
	assert.Error(t, err, "unknown variable")

	_, err = compileExpr("n +", ir.TypeInt8, params, nil)
	assert.Error(t, err)
}
