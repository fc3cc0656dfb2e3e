package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"serve", "worker", "enrich"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "idresolver", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestWorkerCommand_Flags(t *testing.T) {
	flag := workerCmd.Flags().Lookup("concurrency")
	require.NotNil(t, flag, "worker command should have --concurrency flag")
}

func TestEnrichCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"tenant", "candidate", "role"} {
		flag := enrichCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "enrich should have --%s flag", flagName)
	}
}

func TestRootPersistentFlags(t *testing.T) {
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("replay"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("commit-evidence"))
}
