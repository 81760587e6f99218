package main

import (
	"github.com/spf13/cobra"

	"filedrop/internal/api"
	"filedrop/internal/config"
)

func newInfoCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "info [transfer-id]",
		Short: "Show server limits, or verify and inspect a transfer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				if len(args) == 0 {
					resp, err := client.GetInfo(cmd.Context())
					if err != nil {
						return err
					}
					if *jsonOutput {
						return writeJSON(resp)
					}
					return writeServerInfo(resp)
				}

				resp, err := client.Verify(cmd.Context(), args[0], code)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writeTransferContents(args[0], resp)
			})
		},
	}

	cmd.Flags().StringVar(&code, "access-code", "", "access code for protected transfers")

	return cmd
}
