package main

import (
	"github.com/spf13/cobra"
)

var copyCmd = &cobra.Command{
	Use:   "copy <source> <target>",
	Short: "Copy a file on the server",
	Long: `Copy a file to a new path on the server. The content never passes
through the client. Missing directories of the target are created.

Examples:
  shelf-cli copy docs/report.txt archive/2025/report.txt`,
	Args: cobra.ExactArgs(2),
	RunE: runCopy,
}

func runCopy(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.Copy(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	return getFormatter().FormatCopy(stdout, result)
}
