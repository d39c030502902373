package main

import (
	"github.com/spf13/cobra"

	"github.com/hyperjump/embedd/internal/cli"
	"github.com/hyperjump/embedd/internal/models"
)

var statusServer string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show engine state, provider and limits",
	Long: `Show the engine status reported by the server at --server. With --server "" the engine
is loaded in-process and its status printed, which is a quick way to check that the model
and execution provider come up.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusServer, "server", defaultServerURL, `server URL ("" = load the engine in-process)`)
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var st *models.EngineStatus
	if statusServer != "" {
		if st, err = cli.NewClient(statusServer).Status(ctx); err != nil {
			return err
		}
		return cli.WriteStatus(cmd.OutOrStdout(), st, format)
	}

	cfg, _, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()
	rt, err := openLocal(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer rt.Close()
	// Init failure is part of the status: state=failed with last_error set.
	_ = rt.svc.Init(ctx)
	local := rt.svc.Status()
	return cli.WriteStatus(cmd.OutOrStdout(), &local, format)
}
