package main

import (
	"github.com/spf13/cobra"

	"github.com/sagarc03/shelf/clientcli"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <remote-path> [remote-path...]",
	Short: "Delete files or directories from the server",
	Long: `Delete one or more files or directories from the server.
Directories are removed with everything below them. A failure on one
path does not stop the others.

Examples:
  shelf-cli delete docs/file.txt
  shelf-cli delete old/a.txt old/b.txt tmp/
  shelf-cli delete -q temp/file.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Delete(cmd.Context(), clientcli.DeleteOptions{Paths: args})
	if err != nil {
		return err
	}

	if err := getFormatter().FormatDelete(stdout, results); err != nil {
		return err
	}

	if clientcli.HasDeleteErrors(results) {
		return &exitError{code: 1}
	}

	return nil
}
