package main

import (
	"github.com/spf13/cobra"

	"github.com/sagarc03/shelf/clientcli"
)

var uploadRecursive bool

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path> [remote-path]",
	Short: "Upload files to the server",
	Long: `Upload files to the server.

When remote-path is omitted the local path is used, cleaned of leading
"./", "/" and "../" segments. Empty files are rejected.

Examples:
  shelf-cli upload ./file.txt docs/file.txt
  shelf-cli upload -r ./images/ media/images/`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVarP(&uploadRecursive, "recursive", "r", false, "upload directory recursively")
}

func runUpload(cmd *cobra.Command, args []string) error {
	opts := clientcli.UploadOptions{
		LocalPath: args[0],
		Recursive: uploadRecursive,
	}
	if len(args) > 1 {
		opts.RemotePath = args[1]
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Upload(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if err := getFormatter().FormatUpload(stdout, results); err != nil {
		return err
	}

	if clientcli.HasUploadErrors(results) {
		return &exitError{code: 1}
	}

	return nil
}
