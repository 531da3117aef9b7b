package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_IsTarget(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scan.Targets = []string{"data.ts", "extra/*.ts"}

	w, err := NewWatcher(NewRunner(cfg, nil))
	require.NoError(t, err)
	defer w.watcher.Close()

	assert.True(t, w.isTarget("data.ts"))
	assert.True(t, w.isTarget("extra/more.ts"))
	assert.False(t, w.isTarget("data1.ts"))
	assert.False(t, w.isTarget("notes.md"))
	assert.False(t, w.isTarget("extra/nested/deep.ts"))
}
