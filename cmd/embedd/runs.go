package main

import (
	"github.com/spf13/cobra"

	"github.com/hyperjump/embedd/internal/cli"
	"github.com/hyperjump/embedd/internal/models"
)

var (
	runsServer string
	runsLimit  int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent embedding runs and aggregate stats",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().StringVar(&runsServer, "server", defaultServerURL, `server URL ("" = read the run log directly)`)
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "number of runs to show")
}

func runRuns(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var (
		runs  []*models.Run
		stats *models.RunStats
	)
	if runsServer != "" {
		client := cli.NewClient(runsServer)
		if runs, err = client.Runs(ctx, runsLimit); err != nil {
			return err
		}
		if stats, err = client.RunStats(ctx); err != nil {
			return err
		}
		return cli.WriteRuns(cmd.OutOrStdout(), runs, stats, format)
	}

	cfg, _, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()
	// The run log is read without loading the engine.
	rt, err := openLocal(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer rt.Close()
	if runs, err = rt.svc.Runs(ctx, runsLimit); err != nil {
		return err
	}
	if stats, err = rt.svc.RunStats(ctx); err != nil {
		return err
	}
	return cli.WriteRuns(cmd.OutOrStdout(), runs, stats, format)
}
