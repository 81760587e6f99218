package main

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"filedrop/internal/api"
	"filedrop/internal/config"
)

func newCleanupCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var dryRun bool
	var limit int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired transfers and reclaim storage (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.AdminCleanup(cmd.Context(), api.CleanupRequest{
					DryRun: dryRun,
					Limit:  limit,
				})
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}

				if resp.DryRun {
					return writePlain("would delete %d expired transfers (%s)\n",
						resp.CandidateCount, humanize.Bytes(uint64(resp.ReclaimedBytes)))
				}
				return writePlain("deleted %d of %d expired transfers (%s)\n",
					resp.DeletedCount, resp.CandidateCount, humanize.Bytes(uint64(resp.ReclaimedBytes)))
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be deleted without deleting")
	cmd.Flags().IntVar(&limit, "limit", 0, "max transfers to sweep (0 = server default)")

	return cmd
}
