package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"filedrop/internal/api"
	"filedrop/internal/config"
)

func newLoginCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Exchange the admin password for an API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword()
			if err != nil {
				return err
			}

			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Login(cmd.Context(), password)
				if err != nil {
					return err
				}

				if err := writePlain("%s\n", resp.Token); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "token expires at %s\n", resp.ExpiresAt.Format("2006-01-02 15:04 MST"))
				fmt.Fprintf(os.Stderr, "export FILEDROP_API_TOKEN to use it:\n  export FILEDROP_API_TOKEN=%s\n", resp.Token)
				return nil
			})
		},
	}
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Password: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	// Piped input, e.g. `echo "$PASSWORD" | filedrop login`.
	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}
