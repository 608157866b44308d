package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"version", "config", "run", "cleanup", "archive", "status"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestConfigCommandHasValidate(t *testing.T) {
	found := false
	for _, c := range configCmd.Commands() {
		if c.Name() == "validate" {
			found = true
		}
	}
	assert.True(t, found)
}
