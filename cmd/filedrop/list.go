package main

import (
	"github.com/spf13/cobra"

	"filedrop/internal/api"
	"filedrop/internal/config"
)

func newListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all transfers (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				transfers, err := client.ListTransfers(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(transfers)
				}
				return writeTransferList(transfers)
			})
		},
	}
}
