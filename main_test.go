// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package main

import (
	"bytes"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mia-platform/erpsync/internal/logger"
)

func TestRootCommand(t *testing.T) {
	t.Parallel()

	Version = "test"
	BuildDate = "2024-06-01"

	cmd := rootCmd()
	buffer := new(bytes.Buffer)
	cmd.SetOut(buffer)

	log := logger.NewLogger(cmd.OutOrStderr())
	ctx := logger.WithContext(t.Context(), log)

	cmd.SetArgs([]string{"--log-level", "WARN", "version"})
	err := cmd.ExecuteContext(ctx)
	require.NoError(t, err)

	log.Info("ignored line for set log level")
	lines := strings.Split(buffer.String(), "\n")
	assert.Len(t, lines, 2) // version output + empty line
	assert.Equal(t, versionString(Version, BuildDate, runtime.Version())+"\n", buffer.String())

	buffer.Reset()
	BuildDate = ""
	cmd.SetArgs([]string{"--log-level", "WARN", "version"})
	err = cmd.ExecuteContext(ctx)
	require.NoError(t, err)
	assert.Len(t, lines, 2) // version output + empty line
	assert.Equal(t, versionString(Version, "", runtime.Version())+"\n", buffer.String())
}

func TestRootSubcommands(t *testing.T) {
	t.Parallel()

	cmd := rootCmd()
	names := make([]string, 0)
	for _, subcommand := range cmd.Commands() {
		names = append(names, subcommand.Name())
	}

	assert.ElementsMatch(t, []string{"run", "sync", "version"}, names)
}

func TestVersionCmdRejectsArguments(t *testing.T) {
	t.Parallel()

	cmd := rootCmd()
	outBuffer := new(bytes.Buffer)
	cmd.SetOut(outBuffer)
	cmd.SetErr(outBuffer)
	cmd.SetArgs([]string{"version", "extra"})

	err := cmd.ExecuteContext(t.Context())
	require.Error(t, err)
	assert.Contains(t, outBuffer.String(), `unknown command "extra" for "erpsync version"`)
}
