package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"serve", "migrate", "ingest", "review", "commit", "rollback", "runs"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "syllabus-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestIngestCommand_Flags(t *testing.T) {
	for _, name := range []string{"user", "file", "source", "items"} {
		assert.NotNil(t, ingestCmd.Flags().Lookup(name), "ingest should have --%s flag", name)
	}
}

func TestCommitCommand_Flags(t *testing.T) {
	for _, name := range []string{"user", "file", "tz"} {
		assert.NotNil(t, commitCmd.Flags().Lookup(name), "commit should have --%s flag", name)
	}
}

func TestRollbackCommand_Flags(t *testing.T) {
	flag := rollbackCmd.Flags().Lookup("purge-staging")
	require.NotNil(t, flag, "rollback should have --purge-staging flag")
	assert.Equal(t, "false", flag.DefValue)
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "show"} {
		assert.True(t, names[name], "runs should have subcommand %q", name)
	}

	flag := runsListCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "50", flag.DefValue)
}
