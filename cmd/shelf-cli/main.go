package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/shelf/clientcli"
)

var (
	version = "dev"

	cfgFile    string
	profile    string
	endpoint   string
	jsonOutput bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:     "shelf-cli",
	Version: version,
	Short:   "Client for the shelf file server",
	Long: `shelf-cli talks to a shelf server over HTTP.

The server is chosen in this order: --endpoint, SHELF_ENDPOINT, then the
selected profile (--profile, SHELF_PROFILE or the default profile in
~/.shelf/config.yaml).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.shelf/config.yaml, env: SHELF_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "profile to use (env: SHELF_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:5708, env: SHELF_ENDPOINT)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var exitErr *exitError
	if !errors.As(err, &exitErr) {
		_ = getFormatter().FormatError(os.Stderr, err)
	}
	os.Exit(1)
}

// exitError is returned when the failure was already reported to the user.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func selection() clientcli.Selection {
	return clientcli.Selection{ConfigPath: cfgFile, Profile: profile, Endpoint: endpoint}
}

// getConfigPath returns the profile file path from flag, env, or default.
func getConfigPath() string {
	return selection().Path()
}

func buildConfig() (*clientcli.Config, error) {
	return selection().Resolve()
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	return clientcli.New(cfg)
}

// stdout is where command results go; tests replace it.
var stdout io.Writer = os.Stdout
