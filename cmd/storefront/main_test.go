package main

import (
	"bytes"
	"testing"

	"github.com/storefrontbase/storefront/internal/indexsync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["reindex"])
	assert.True(t, names["admin"])

	flag := root.PersistentFlags().Lookup("config-dir")
	require.NotNil(t, flag)
	assert.Equal(t, "config", flag.DefValue)
}

func TestServeCmd_NothingToRun(t *testing.T) {
	root := newRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"serve", "--no-http", "--no-sync"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to run")
}

func TestReindexCmd_RequiresCollection(t *testing.T) {
	root := newRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"reindex"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--collection")
}

func TestAdminCmd_RequiresCredentials(t *testing.T) {
	t.Setenv(adminPasswordEnv, "")
	root := newRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"admin", "--email", "a@b.c"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password")
}

func TestPrintStats(t *testing.T) {
	cmd := newReindexCmd(new(string))
	out := new(bytes.Buffer)
	cmd.SetOut(out)

	printStats(cmd, indexsync.ReindexStats{indexsync.StateConfirmed: 3, indexsync.StateFailed: 1})

	assert.Equal(t, "  4 documents\n  confirmed  3\n  failed     1\n", out.String())
}
