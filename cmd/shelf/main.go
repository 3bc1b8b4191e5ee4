package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/shelf/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "shelf",
	Short:   "File storage server over plain HTTP",
	Long: `Shelf serves a directory tree over HTTP. Files under the storage root
can be uploaded, downloaded, copied, inspected, listed and deleted through
the /storage/ endpoint.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var configFiles []string
		if f, _ := cmd.Flags().GetString("config"); f != "" {
			configFiles = append(configFiles, f)
		}

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("storage-path", "", "storage directory path (default: ./data, env: SHELF_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("journal-type", "", "journal backend: none, sqlite, postgres (default: none, env: SHELF_JOURNAL_TYPE)")
	rootCmd.PersistentFlags().String("journal-dsn", "", "journal connection string (env: SHELF_JOURNAL_DSN)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default: info, env: SHELF_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
