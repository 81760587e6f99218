package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"filedrop/internal/api"
	"filedrop/internal/config"
)

func newUploadCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var opts api.CreateTransferOptions

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload files as a new transfer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				info, err := os.Stat(path)
				if err != nil {
					return err
				}
				if info.IsDir() {
					return fmt.Errorf("%s is a directory; only files can be uploaded", path)
				}
			}
			opts.Paths = args

			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.CreateTransfer(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writeCreatedTransfer(resp)
			})
		},
	}

	cmd.Flags().IntVar(&opts.ExpiryDays, "expire-days", 0, "days until the transfer expires (0 = never)")
	cmd.Flags().BoolVar(&opts.RequireCode, "code", false, "protect the transfer with a generated access code")
	cmd.Flags().IntVar(&opts.MaxDownloads, "max-downloads", 0, "download limit (0 = server default)")
	cmd.Flags().StringVar(&opts.Uploader, "uploader", "", "uploader display name")
	cmd.Flags().StringVar(&opts.NotifyEmail, "email", "", "notification email for the uploader")

	return cmd
}
