package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestCommandPasses(t *testing.T) {
	out, err := execute(t, "test", scenariosDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ travel_short")
	assert.Contains(t, out, "✓ travel_none")
	assert.Contains(t, out, "2 passed, 0 failed, 2 total")
}

func TestTestCommandJSON(t *testing.T) {
	out, err := execute(t, "test", scenariosDir, "--filter", "travel_short", "--format", "json")
	require.NoError(t, err)

	env := decode[TestResult](t, out)
	assert.Equal(t, "ok", env.Status)
	assert.Equal(t, 1, env.Data.Total)
	require.Len(t, env.Data.Scenarios, 1)
	assert.Equal(t, []string{"taxi!(1, 2)"}, env.Data.Scenarios[0].Plan)
}

func TestTestCommandNoScenarios(t *testing.T) {
	out, err := execute(t, "test", scenariosDir, "--filter", "cooking_*")
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestTestCommandMissingDir(t *testing.T) {
	_, err := execute(t, "test", "testdata/nowhere")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// copyScenario copies a scenario into dir. Its domain path then resolves
// through --domains.
func copyScenario(t *testing.T, dir, name string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(scenariosDir, name+".yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), data, 0o644))
}

func TestTestCommandUpdateGolden(t *testing.T) {
	dir := t.TempDir()
	copyScenario(t, dir, "travel_short")
	domains, err := filepath.Abs(scenariosDir)
	require.NoError(t, err)

	_, err = execute(t, "test", dir, "--domains", domains, "--update")
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "golden", "travel_short.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join(scenariosDir, "golden", "travel_short.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	// The written file is now compared on every run.
	_, err = execute(t, "test", dir, "--domains", domains)
	require.NoError(t, err)
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	copyScenario(t, dir, "travel_short")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "travel_short.golden"), []byte("{}"), 0o644))
	domains, err := filepath.Abs(scenariosDir)
	require.NoError(t, err)

	out, err := execute(t, "test", dir, "--domains", domains)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ travel_short")
	assert.Contains(t, out, "plan does not match golden file")
}

func TestTestCommandFailingAssertion(t *testing.T) {
	dir := t.TempDir()
	domain, err := filepath.Abs(travelCUE)
	require.NoError(t, err)
	scenario := `name: wrong_plan
description: "Expects a plane where a taxi suffices"
domain: ` + domain + `
task: root
facts:
  start: [[1]]
  finish: [[2]]
  short_distance: [[1, 2]]
assertions:
  - type: plan_equals
    steps: ["plane!(1, 2)"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong_plan.yaml"), []byte(scenario), 0o644))

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_plan")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}
