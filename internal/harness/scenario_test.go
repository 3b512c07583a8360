package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	domain, err := filepath.Abs(filepath.Join("testdata", "domains", "travel.cue"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "travel.cue"), mustRead(t, domain), 0o644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "travel_long.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "travel_long", s.Name)
	assert.Equal(t, filepath.Join("testdata", "domains", "travel.cue"), s.Domain)
	assert.Equal(t, "travel", s.DomainName)
	assert.Equal(t, "root", s.Task)
	require.Len(t, s.Assertions, 4)
	assert.Equal(t, AssertPlanLength, s.Assertions[0].Type)
	assert.Equal(t, 3, s.Assertions[0].Count)
	assert.Equal(t, "plane!(2, 3)", s.Assertions[2].Step)
	assert.Equal(t, "fallback", s.Assertions[3].Kind)
}

func TestLoadScenarioArgs(t *testing.T) {
	path := writeScenario(t, `
name: direct
description: "numbers and strings both decode as text arguments"
domain: travel.cue
task: travel
args: [1, "2"]
assertions:
  - type: no_plan
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, s.Args)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "travel.cue"), s.Domain)
}

func TestLoadScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unknown field",
			body: "name: x\ndescription: d\ndomain: travel.cue\ntask: root\nassertion: []\n",
			want: "field assertion not found",
		},
		{
			name: "missing name",
			body: "description: d\ndomain: travel.cue\ntask: root\nassertions: [{type: no_plan}]\n",
			want: "name is required",
		},
		{
			name: "missing task",
			body: "name: x\ndescription: d\ndomain: travel.cue\nassertions: [{type: no_plan}]\n",
			want: "task is required",
		},
		{
			name: "missing domain file",
			body: "name: x\ndescription: d\ndomain: nowhere.cue\ntask: root\nassertions: [{type: no_plan}]\n",
			want: "domain not found",
		},
		{
			name: "no assertions",
			body: "name: x\ndescription: d\ndomain: travel.cue\ntask: root\n",
			want: "assertions list is required",
		},
		{
			name: "unknown assertion",
			body: "name: x\ndescription: d\ndomain: travel.cue\ntask: root\nassertions: [{type: plan_is_nice}]\n",
			want: `unknown assertion type "plan_is_nice"`,
		},
		{
			name: "unknown trace kind",
			body: "name: x\ndescription: d\ndomain: travel.cue\ntask: root\nassertions: [{type: trace_count, kind: retry}]\n",
			want: `unknown trace kind "retry"`,
		},
		{
			name: "plan_contains without step",
			body: "name: x\ndescription: d\ndomain: travel.cue\ntask: root\nassertions: [{type: plan_contains}]\n",
			want: "step is required",
		},
		{
			name: "plan_equals without steps",
			body: "name: x\ndescription: d\ndomain: travel.cue\ntask: root\nassertions: [{type: plan_equals}]\n",
			want: "steps is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join("testdata", "scenarios", "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
