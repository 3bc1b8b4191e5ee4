package main

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [remote-dir]",
	Short: "List a directory on the server",
	Long: `List a directory and everything below it. Without an argument the
storage root is listed.

Examples:
  shelf-cli list
  shelf-cli list images/
  shelf-cli list --json docs`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.List(cmd.Context(), dir)
	if err != nil {
		return err
	}

	return getFormatter().FormatList(stdout, result)
}
