//go:build unix

package vhook

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pboyd/vhook/config"
	"github.com/pboyd/vhook/internal/hosttest"
)

func TestRegistry_WithConfig(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	forgetCells(t)

	cfg, err := config.Parse([]byte("hooks:\n  add:\n    enabled: false\nshadow:\n  prefix: 1\n"))
	require.NoError(err)

	r := NewRegistry(WithConfig(cfg))
	assert.Equal(1, r.shadowPrefix)

	m := hosttest.Page(t)
	h, err := Install(r, newTable(t, m, 4, 2, codeOf(add)), addSlot, mul)
	require.NoError(err)
	assert.False(h.Enabled())

	h2, err := Install(r, newTable(t, m, 1, 0, codeOf(sub)), NewSlot[binaryFunc]("other", 0, GoCode), mul)
	require.NoError(err)
	assert.True(h2.Enabled())
}

func TestRegistry_ApplyConfig(t *testing.T) {
	assert := assert.New(t)
	forgetCells(t)

	m := hosttest.Page(t)
	r := NewRegistry()
	h, err := Install(r, newTable(t, m, 4, 2, codeOf(add)), addSlot, mul)
	require.NoError(t, err)

	disabled := false
	r.ApplyConfig(&config.Config{Hooks: map[string]config.HookConfig{
		"add":     {Enabled: &disabled},
		"missing": {Enabled: &disabled},
	}})
	assert.False(h.Enabled())

	r.ApplyConfig(&config.Config{Hooks: map[string]config.HookConfig{"add": {}}})
	assert.True(h.Enabled())

	// Hooks not named keep their flag.
	h.SetEnabled(false)
	r.ApplyConfig(config.Default())
	assert.False(h.Enabled())
}

func TestWatchConfig(t *testing.T) {
	require := require.New(t)
	forgetCells(t)

	m := hosttest.Page(t)
	r := NewRegistry(WithLogger(zap.NewNop()))
	h, err := Install(r, newTable(t, m, 4, 2, codeOf(add)), addSlot, mul)
	require.NoError(err)

	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := WatchConfig(ctx, r, dir)
	require.NoError(err)
	defer w.Stop()

	err = os.WriteFile(filepath.Join(dir, config.FileName), []byte("hooks:\n  add:\n    enabled: false\n"), 0o644)
	require.NoError(err)

	require.Eventually(func() bool {
		return !h.Enabled()
	}, 5*time.Second, 10*time.Millisecond)
}
