package main

import (
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <remote-path>",
	Short: "Show file metadata",
	Long: `Show the name, size and last change time of a file.

Directories have no metadata and are reported as not found.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	info, err := client.Info(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return getFormatter().FormatInfo(stdout, info)
}
