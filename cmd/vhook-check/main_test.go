package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pboyd/vhook/config"
)

func TestRun(t *testing.T) {
	assert := assert.New(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-v", "-log-level", "error"}, &stdout, &stderr)

	assert.Equal(0, code, stderr.String())
	assert.Contains(stdout.String(), "entity_table")
	assert.Contains(stdout.String(), "console_var")
}

func TestRun_BadConfig(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, config.FileName), []byte("log_level: loud\n"), 0o644)
	require.NoError(t, err)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config-dir", dir}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "failed to load config")
}

func TestRun_BadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"-nope"}, &stdout, &stderr))
}
