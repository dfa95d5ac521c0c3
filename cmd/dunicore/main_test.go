package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunRequiresAVerb(t *testing.T) {
	require.Equal(t, 1, run(nil))
}

func TestRunUnknownVerb(t *testing.T) {
	require.Equal(t, 1, run([]string{"bogus"}))
}

func TestRunModulesListsFlags(t *testing.T) {
	require.Equal(t, 0, run([]string{"modules", "--disabled"}))
}

func TestRunEnableDisableRequireOneArg(t *testing.T) {
	require.Equal(t, 1, run([]string{"enable"}))
	require.Equal(t, 0, run([]string{"enable", "network"}))
	require.Equal(t, 0, run([]string{"disable", "network"}))
}

func TestRunResetRequiresValidScope(t *testing.T) {
	require.Equal(t, 1, run([]string{"reset", "bogus"}))
}

func TestRunResetConf(t *testing.T) {
	dir := t.TempDir()
	profileDir := filepath.Join(dir, "default")
	require.NoError(t, os.MkdirAll(profileDir, 0o700))
	confPath := filepath.Join(profileDir, "conf.json")
	require.NoError(t, os.WriteFile(confPath, []byte(`{}`), 0o600))

	code := run([]string{"reset", "--profiles-path", dir, "conf"})
	require.Equal(t, 0, code)
	_, err := os.Stat(confPath)
	require.True(t, os.IsNotExist(err))
}

func TestRunKeysGenerateThenShow(t *testing.T) {
	dir := t.TempDir()

	require.Equal(t, 0, run([]string{"keys", "--profiles-path", dir, "generate"}))
	require.Equal(t, 1, run([]string{"keys", "--profiles-path", dir, "generate"})) // refuses to overwrite
	require.Equal(t, 0, run([]string{"keys", "--profiles-path", dir, "show"}))
}

func TestRunDbexNotImplemented(t *testing.T) {
	require.Equal(t, 1, run([]string{"dbex", "select * from blocks"}))
}
