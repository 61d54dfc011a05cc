package main

import (
	"bytes"
	"os"
	"path/filepath"
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

	expected := []string{"reconcile", "normalize", "curated", "serve", "migrate", "runs"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "specrecon", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)

	flag := rootCmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag, "root command should have --config flag")
	assert.Equal(t, "", flag.DefValue)
}

func TestReconcileCommand_Flags(t *testing.T) {
	for _, name := range []string{"source", "output", "format", "coverage", "tiers", "provenance", "no-store", "report"} {
		assert.NotNil(t, reconcileCmd.Flags().Lookup(name), "reconcile command should have --%s flag", name)
	}
	assert.Equal(t, "o", reconcileCmd.Flags().Lookup("output").Shorthand)
	assert.Equal(t, "false", reconcileCmd.Flags().Lookup("no-store").DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["show"])

	flag := runsListCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "50", flag.DefValue)
}

func TestCuratedCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range curatedCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["validate"])
	assert.True(t, names["lookup"])
}

func TestExecute_Reconcile(t *testing.T) {
	dir := t.TempDir()
	tunisianet := filepath.Join(dir, "tunisianet.csv")
	require.NoError(t, os.WriteFile(tunisianet, []byte("name,price,battery,network\n"+
		"Samsung Galaxy A55 5G 8Go 256Go,1299 DT,5000 mAh,5G\n"), 0o644))
	mytek := filepath.Join(dir, "mytek.csv")
	require.NoError(t, os.WriteFile(mytek, []byte("model;price_dt;ram\n"+
		"Smartphone Samsung Galaxy A55 8Go 128Go;1199;8\n"), 0o644))
	out := filepath.Join(dir, "reconciled.csv")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	t.Cleanup(func() { rootCmd.SetOut(nil) })
	rootCmd.SetArgs([]string{"reconcile",
		"--source", "tunisianet=" + tunisianet,
		"--source", "mytek=" + mytek,
		"--output", out,
		"--coverage", "",
		"--no-store",
		"--report",
	})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, stdout.String(), "# Reconciliation Report:")
	assert.Contains(t, stdout.String(), "- Listings: 2")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Samsung Galaxy A55")
}

func TestExecute_Normalize(t *testing.T) {
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	t.Cleanup(func() { rootCmd.SetOut(nil) })
	rootCmd.SetArgs([]string{"normalize", "Smartphone SAMSUNG Galaxy A55 5G 8Go 256Go Bleu"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, stdout.String(), "samsung galaxy a55")
	assert.Contains(t, stdout.String(), "galaxy")
}
