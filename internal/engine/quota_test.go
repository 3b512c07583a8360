package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaEnforcer_WithinLimit(t *testing.T) {
	q := NewQuotaEnforcer(10)

	for i := 0; i < 10; i++ {
		assert.NoError(t, q.Check("root"), "step %d should be allowed", i+1)
	}

	assert.Equal(t, 10, q.Current())
	assert.Equal(t, 10, q.MaxSteps())
}

func TestQuotaEnforcer_ExceedsLimit(t *testing.T) {
	q := NewQuotaEnforcer(5)

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Check("root"))
	}

	err := q.Check("root")
	require.Error(t, err)

	var stepsErr *StepsExceededError
	require.ErrorAs(t, err, &stepsErr)
	assert.Equal(t, "root", stepsErr.Task)
	assert.Equal(t, 6, stepsErr.Steps)
	assert.Equal(t, 5, stepsErr.Limit)
}

func TestQuotaEnforcer_Reset(t *testing.T) {
	q := NewQuotaEnforcer(5)
	for i := 0; i < 5; i++ {
		_ = q.Check("root")
	}
	assert.Equal(t, 5, q.Current())

	q.Reset()
	assert.Equal(t, 0, q.Current())
	for i := 0; i < 5; i++ {
		assert.NoError(t, q.Check("root"))
	}
}

func TestQuotaEnforcer_Unlimited(t *testing.T) {
	q := NewQuotaEnforcer(0)
	for i := 0; i < 10000; i++ {
		require.NoError(t, q.Check("root"))
	}
}

func TestStepsExceededError_Error(t *testing.T) {
	err := &StepsExceededError{Task: "travel", Steps: 1001, Limit: 1000}
	msg := err.Error()
	assert.Contains(t, msg, "travel")
	assert.Contains(t, msg, "1001")
	assert.Contains(t, msg, "1000")
}

func TestIsStepsExceededError(t *testing.T) {
	err := &StepsExceededError{Task: "root", Steps: 2, Limit: 1}
	assert.True(t, IsStepsExceededError(err))
	assert.True(t, IsStepsExceededError(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsStepsExceededError(fmt.Errorf("other")))
	assert.True(t, IsBudgetError(err))
	assert.True(t, IsBudgetError(&DepthExceededError{Task: "t", Depth: 3, Limit: 2}))
	assert.False(t, IsBudgetError(ErrNoPlan))
}
