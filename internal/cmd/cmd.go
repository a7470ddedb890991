// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

const (
	runCmdUsage = "run"
	runCmdShort = "start the periodic auto sync of the ERP connectors"
	runCmdLong  = `Start the periodic auto sync of the ERP connectors.
	Every interval the connectors with auto sync enabled that are not already
	syncing receive a sync request for every configured target. A first cycle
	starts a few seconds after the command. A status server exposes health,
	status, metrics and a route to start a cycle on demand.

	Connectors are read from the erp_connectors table of the DATABASE_URL
	database, or from a YAML file when --connectors-file is set.`

	runCmdExample = `# Run the auto sync reading connectors from the database
	DATABASE_URL=postgres://localhost:5432/erp erpsync run

	# Run the auto sync printing the requests instead of sending them
	erpsync run --connectors-file connectors.yaml --dry-run`

	syncCmdUsage = "sync"
	syncCmdShort = "run a single auto sync cycle"
	syncCmdLong  = `Run a single auto sync cycle and exit.
	The cycle runs even if ERP_AUTO_SYNC_ENABLED is false, and its outcome is
	logged like the ones started by the run command.`

	syncCmdExample = `# Sync every eligible connector once
	DATABASE_URL=postgres://localhost:5432/erp erpsync sync

	# Print the requests a cycle would send for the connectors in a file
	erpsync sync --connectors-file connectors.yaml --dry-run`
)

// RunCmd returns the Cobra command that schedules the auto sync cycles.
func RunCmd() *cobra.Command {
	flags := &flags{}
	cmd := &cobra.Command{
		Use:     runCmdUsage,
		Short:   heredoc.Doc(runCmdShort),
		Long:    heredoc.Doc(runCmdLong),
		Example: heredoc.Doc(runCmdExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		Args:              noArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.toOptions(cmd)
			if err != nil {
				return handleError(cmd, err)
			}

			if err := opts.executeRun(cmd.Context()); err != nil {
				return handleError(cmd, err)
			}

			return nil
		},
	}

	flags.addFlags(cmd)
	return cmd
}

// SyncCmd returns the Cobra command that runs a single auto sync cycle.
func SyncCmd() *cobra.Command {
	flags := &flags{}
	cmd := &cobra.Command{
		Use:     syncCmdUsage,
		Short:   heredoc.Doc(syncCmdShort),
		Long:    heredoc.Doc(syncCmdLong),
		Example: heredoc.Doc(syncCmdExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		Args:              noArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.toOptions(cmd)
			if err != nil {
				return handleError(cmd, err)
			}

			if err := opts.executeSync(cmd.Context()); err != nil {
				return handleError(cmd, err)
			}

			return nil
		},
	}

	flags.addFlags(cmd)
	return cmd
}
