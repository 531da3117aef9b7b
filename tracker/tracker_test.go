package tracker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/c360studio/oracletrack/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Repo.Path = t.TempDir()
	cfg.Snapshot.Path = filepath.Join(t.TempDir(), "oracle_state.json")
	return cfg
}

func writeData(t *testing.T, cfg *config.Config, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Repo.Path, name), []byte(content), 0644))
}

func TestRunner_FirstRunSeedsSnapshot(t *testing.T) {
	cfg := testConfig(t)
	writeData(t, cfg, "data.ts", `const p = { id: "1", name: "Aave", oracles: ["Chainlink"] };`)

	runner := NewRunner(cfg, nil)
	outcome, err := runner.Run(context.Background(), RunOptions{Revision: "rev-1"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeFirstRun, outcome.Kind)
	assert.NotEmpty(t, outcome.RunID)
	assert.Empty(t, outcome.Changes)

	doc, err := runner.Store().Load()
	require.NoError(t, err)
	assert.Equal(t, "rev-1", doc.Revision)
	assert.Contains(t, doc.Protocols, "1")
}

func TestRunner_FirstRunDryRunDoesNotSeed(t *testing.T) {
	cfg := testConfig(t)
	writeData(t, cfg, "data.ts", `const p = { id: "1", oracles: [] };`)

	runner := NewRunner(cfg, nil)
	outcome, err := runner.Run(context.Background(), RunOptions{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, OutcomeFirstRun, outcome.Kind)
	_, err = os.Stat(cfg.Snapshot.Path)
	assert.True(t, os.IsNotExist(err), "dry run must not write the snapshot")
}

func TestRunner_NoChanges(t *testing.T) {
	cfg := testConfig(t)
	writeData(t, cfg, "data.ts", `const p = { id: "1", name: "Aave", oracles: ["Chainlink"] };`)

	runner := NewRunner(cfg, nil)
	_, err := runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	outcome, err := runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoChanges, outcome.Kind)
	assert.Empty(t, outcome.Changes)
}

func TestRunner_DetectsOracleChange(t *testing.T) {
	cfg := testConfig(t)
	writeData(t, cfg, "data.ts", `const p = { id: "1", name: "Aave", oracles: ["Chainlink", "Band"] };`)

	runner := NewRunner(cfg, nil)
	_, err := runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	writeData(t, cfg, "data.ts", `const p = { id: "1", name: "Aave", oracles: ["Chainlink", "Pyth"] };`)

	outcome, err := runner.Run(context.Background(), RunOptions{Revision: "rev-2"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeChanges, outcome.Kind)
	require.Len(t, outcome.Changes, 1)
	assert.Equal(t, []string{"Pyth"}, outcome.Changes[0].Plus)
	assert.Equal(t, []string{"Band"}, outcome.Changes[0].Minus)
	assert.Equal(t, "rev-2", outcome.Changes[0].Revision)

	// The new state was committed: running again reports no changes.
	outcome, err = runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoChanges, outcome.Kind)
}

func TestRunner_DryRunDiffsButDoesNotCommit(t *testing.T) {
	cfg := testConfig(t)
	writeData(t, cfg, "data.ts", `const p = { id: "1", oracles: ["Chainlink"] };`)

	runner := NewRunner(cfg, nil)
	_, err := runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	writeData(t, cfg, "data.ts", `const p = { id: "1", oracles: ["Pyth"] };`)

	outcome, err := runner.Run(context.Background(), RunOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeChanges, outcome.Kind)

	// Snapshot untouched: the same diff appears again.
	outcome, err = runner.Run(context.Background(), RunOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeChanges, outcome.Kind)
}

func TestRunner_CorruptSnapshotAbortsRun(t *testing.T) {
	cfg := testConfig(t)
	writeData(t, cfg, "data.ts", `const p = { id: "1", oracles: [] };`)
	require.NoError(t, os.WriteFile(cfg.Snapshot.Path, []byte("not json"), 0644))

	runner := NewRunner(cfg, nil)
	_, err := runner.Run(context.Background(), RunOptions{})
	assert.Error(t, err)
}

func TestRunner_CollisionsReported(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scan.ReportCollisions = true
	writeData(t, cfg, "data.ts", `const p = { id: "1", name: "Aave", oracles: [] };`)
	writeData(t, cfg, "data2.ts", `const p = { id: "1", name: "Aave V3", oracles: [] };`)

	runner := NewRunner(cfg, nil)
	outcome, err := runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	require.Len(t, outcome.Collisions, 1)
	assert.Equal(t, "1", outcome.Collisions[0].ID)
	assert.Equal(t, "data.ts", outcome.Collisions[0].Shadowed)
	assert.Equal(t, "data2.ts", outcome.Collisions[0].Winner)
	assert.Equal(t, "Aave V3", outcome.Dataset["1"].Name)
}
