package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PEOPLEDESK_CONFIG_FILE", "")
	t.Setenv("PEOPLEDESK_LOG_LEVEL", "disabled")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrate_SQLite(t *testing.T) {
	t.Setenv("PEOPLEDESK_SQLITE_PATH", filepath.Join(t.TempDir(), "peopledesk.db"))

	out, err := runCommand(t, "--backend", "sqlite", "migrate", "up")
	require.NoError(t, err)
	assert.Equal(t, "version 1 dirty=false\n", out)

	out, err = runCommand(t, "--backend", "sqlite", "migrate", "version")
	require.NoError(t, err)
	assert.Equal(t, "version 1 dirty=false\n", out)

	out, err = runCommand(t, "--backend", "sqlite", "migrate", "down")
	require.NoError(t, err)
	assert.Equal(t, "version 0 dirty=false\n", out)
}

func TestMigrate_BackendWithoutSchema(t *testing.T) {
	_, err := runCommand(t, "--backend", "memory", "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `backend "memory" has no schema to migrate`)
}

func TestProbe(t *testing.T) {
	out, err := runCommand(t, "--backend", "memory", "probe")
	require.NoError(t, err)
	assert.Contains(t, out, `"reachable": true`)

	out, err = runCommand(t, "--backend", "offline", "probe")
	require.Error(t, err)
	assert.Contains(t, out, `"reachable": false`)
	assert.EqualError(t, err, "offline store unreachable")
}

func TestUnknownBackendFlag(t *testing.T) {
	_, err := runCommand(t, "--backend", "mongo", "probe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown backend "mongo"`)
}
