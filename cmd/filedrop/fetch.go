package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"filedrop/internal/api"
	"filedrop/internal/config"
)

func newFetchCmd(cfg *config.Config) *cobra.Command {
	var code string
	var outPath string
	var fileID string

	cmd := &cobra.Command{
		Use:   "fetch <transfer-id>",
		Short: "Download a transfer as a ZIP archive, or one file with --file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			return withClient(cfg, func(client *api.Client) error {
				tmp, err := os.CreateTemp(filepath.Dir(defaultOutDir(outPath)), ".filedrop-fetch-*")
				if err != nil {
					return err
				}
				tmpPath := tmp.Name()
				defer os.Remove(tmpPath)

				var filename string
				if fileID != "" {
					filename, err = client.DownloadFile(cmd.Context(), id, fileID, code, tmp)
				} else {
					filename, err = client.DownloadArchive(cmd.Context(), id, code, tmp)
				}
				if closeErr := tmp.Close(); err == nil {
					err = closeErr
				}
				if err != nil {
					return err
				}

				target, err := resolveOutPath(outPath, filename)
				if err != nil {
					return err
				}
				if err := os.Rename(tmpPath, target); err != nil {
					return err
				}
				return writePlain("%s\n", target)
			})
		},
	}

	cmd.Flags().StringVar(&code, "access-code", "", "access code for protected transfers")
	cmd.Flags().StringVar(&outPath, "out", "", "output path (defaults to the server-provided filename)")
	cmd.Flags().StringVar(&fileID, "file", "", "download a single file by its id instead of the archive")

	return cmd
}

func defaultOutDir(outPath string) string {
	if outPath == "" {
		return "."
	}
	return outPath
}

func resolveOutPath(outPath, serverFilename string) (string, error) {
	if outPath == "" {
		if serverFilename == "" {
			return "", fmt.Errorf("server did not provide a filename; use --out")
		}
		return serverFilename, nil
	}

	info, err := os.Stat(outPath)
	if err == nil && info.IsDir() {
		if serverFilename == "" {
			return "", fmt.Errorf("server did not provide a filename; use --out with a file path")
		}
		return filepath.Join(outPath, serverFilename), nil
	}
	return outPath, nil
}
