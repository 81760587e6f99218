package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"filedrop/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var jsonOutput bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "filedrop",
		Short: "Filedrop shares files through expiring, code-protected transfers",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newUploadCmd(cfg, &jsonOutput),
		newInfoCmd(cfg, &jsonOutput),
		newFetchCmd(cfg),
		newListCmd(cfg, &jsonOutput),
		newRmCmd(cfg),
		newCleanupCmd(cfg, &jsonOutput),
		newLoginCmd(cfg),
		newConfigCmd(cfg),
	)

	return cmd
}
