// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mia-platform/erpsync/internal/autosync"
	"github.com/mia-platform/erpsync/internal/invoker"
	"github.com/mia-platform/erpsync/internal/invoker/writer"
)

const (
	connectorsFileFlagName  = "connectors-file"
	connectorsFileFlagShort = "f"
	connectorsFileFlagUsage = "Path to a YAML file listing the connectors. If not set, connectors are read from DATABASE_URL."

	dryRunFlagName     = "dry-run"
	dryRunFlagUsage    = "If set, writes the sync requests to stdout instead of sending them"
	defaultDryRunValue = false
)

// flags collects the CLI options shared by the run and sync commands.
type flags struct {
	connectorsFile string
	dryRun         bool
}

// addFlags registers the CLI flags on cmd.
func (f *flags) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(
		&f.connectorsFile,
		connectorsFileFlagName,
		connectorsFileFlagShort,
		"",
		connectorsFileFlagUsage)

	cmd.Flags().BoolVar(&f.dryRun, dryRunFlagName, defaultDryRunValue, dryRunFlagUsage)
}

// toOptions builds an options instance from the parsed flags and the environment.
func (f *flags) toOptions(cmd *cobra.Command) (*options, error) {
	config, err := autosync.LoadConfig()
	if err != nil {
		return nil, err
	}

	var syncInvoker invoker.Invoker
	if f.dryRun {
		syncInvoker = writer.NewInvoker(cmd.OutOrStdout())
	} else {
		client, err := invoker.NewClient()
		if err != nil {
			return nil, err
		}
		syncInvoker = client
	}

	connectorsFile := f.connectorsFile
	if connectorsFile != "" {
		connectorsFile = filepath.Clean(connectorsFile)
	}

	return &options{
		config:         config,
		connectorsFile: connectorsFile,
		invoker:        syncInvoker,
		registryGetter: registryFromFlags,
		serverGetter:   newStatusServer,
	}, nil
}
