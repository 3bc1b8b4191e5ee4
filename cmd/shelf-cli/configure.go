package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sagarc03/shelf/clientcli"
)

const checkTimeout = 5 * time.Second

var (
	addURL       string
	addDefault   bool
	addSkipCheck bool
	removeYes    bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage server profiles",
	Long: `Manage the shelf servers known to shelf-cli.

Each profile stores the base URL of one server. Select one with --profile
or SHELF_PROFILE; without either the default profile is used.

Profiles are kept in ~/.shelf/config.yaml unless --config or SHELF_CONFIG
points elsewhere.`,
}

var configureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles, default marked with *",
	RunE:  runConfigureList,
}

var configureAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or update a profile",
	Long: `Add or update a profile.

Without --url the endpoint is asked for interactively. A URL ending in
/storage/ is saved as the server root. Before saving, the storage root is
listed to make sure a shelf server answers; --skip-check saves without it.`,
	Example: `  shelf-cli configure add local
  shelf-cli configure add prod --url https://files.example.com --default`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigureAdd,
}

var configureRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runConfigureRemove,
}

var configureSetDefaultCmd = &cobra.Command{
	Use:   "set-default <name>",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigureSetDefault,
}

var configureShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a profile, the default one if no name is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigureShow,
}

func init() {
	configureAddCmd.Flags().StringVar(&addURL, "url", "", "server endpoint, skips the prompts")
	configureAddCmd.Flags().BoolVar(&addDefault, "default", false, "make this the default profile")
	configureAddCmd.Flags().BoolVar(&addSkipCheck, "skip-check", false, "save without contacting the server")
	configureRemoveCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "remove without confirmation")

	configureCmd.AddCommand(configureListCmd, configureAddCmd, configureRemoveCmd, configureSetDefaultCmd, configureShowCmd)
}

// loadProfiles reads the profile file. A missing file is an empty one.
func loadProfiles(path string) (*clientcli.ConfigFile, error) {
	cf, err := clientcli.LoadConfigFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &clientcli.ConfigFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cf, nil
}

func runConfigureList(_ *cobra.Command, _ []string) error {
	cf, err := loadProfiles(getConfigPath())
	if err != nil {
		return err
	}

	if len(cf.Profiles) == 0 {
		_, _ = fmt.Fprintln(stdout, "No profiles configured.")
		_, _ = fmt.Fprintln(stdout, "Run 'shelf-cli configure add <name>' to create one.")
		return nil
	}

	var defaultName string
	if p, err := cf.GetDefaultProfile(); err == nil {
		defaultName = p.Name
	}

	return getFormatter().FormatProfileList(stdout, cf.Profiles, defaultName)
}

func runConfigureAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	configPath := getConfigPath()
	interactive := addURL == ""

	cf, err := loadProfiles(configPath)
	if err != nil {
		return err
	}

	current := clientcli.DefaultEndpoint
	existing, _ := cf.GetProfile(name)
	if existing != nil {
		current = existing.Endpoint
		if interactive && !confirm(fmt.Sprintf("Profile '%s' already exists. Update it", name)) {
			return nil
		}
	}

	rawURL := addURL
	if interactive {
		prompt := promptui.Prompt{Label: "Endpoint URL", Default: current, Validate: validateEndpoint}
		if rawURL, err = prompt.Run(); err != nil {
			return handlePromptError(err)
		}
	}

	makeDefault := addDefault || len(cf.Profiles) == 0
	if interactive && !makeDefault {
		makeDefault = confirm("Set as default profile")
	}

	if !addSkipCheck {
		if err := checkEndpoint(cmd.Context(), rawURL); err != nil {
			if !interactive {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "Warning: %v\n", err)
			if !confirm("Save profile anyway") {
				return nil
			}
		}
	}

	created, err := cf.PutProfile(clientcli.Profile{Name: name, Endpoint: rawURL})
	if err != nil {
		return err
	}
	if makeDefault {
		if err := cf.SetDefault(name); err != nil {
			return err
		}
	}
	if err := cf.Save(configPath); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	verb := "updated"
	if created {
		verb = "added"
	}
	saved, _ := cf.GetProfile(name)
	_, _ = fmt.Fprintf(stdout, "Profile '%s' %s: %s\n", name, verb, saved.Endpoint)
	if makeDefault {
		_, _ = fmt.Fprintln(stdout, "Set as default profile.")
	}
	return nil
}

func runConfigureRemove(_ *cobra.Command, args []string) error {
	name := args[0]
	configPath := getConfigPath()

	cf, err := clientcli.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if _, err := cf.GetProfile(name); err != nil {
		return err
	}

	if !removeYes && !confirm(fmt.Sprintf("Remove profile '%s'", name)) {
		return nil
	}

	if err := cf.RemoveProfile(name); err != nil {
		return err
	}
	if err := cf.Save(configPath); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	_, _ = fmt.Fprintf(stdout, "Profile '%s' removed.\n", name)
	return nil
}

func runConfigureSetDefault(_ *cobra.Command, args []string) error {
	configPath := getConfigPath()

	cf, err := clientcli.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cf.SetDefault(args[0]); err != nil {
		return err
	}
	if err := cf.Save(configPath); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	_, _ = fmt.Fprintf(stdout, "Default profile set to '%s'.\n", args[0])
	return nil
}

func runConfigureShow(_ *cobra.Command, args []string) error {
	cf, err := clientcli.LoadConfigFile(getConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	}

	p, err := cf.GetProfile(name)
	if err != nil {
		return err
	}

	def, err := cf.GetDefaultProfile()
	isDefault := err == nil && def.Name == p.Name

	return getFormatter().FormatProfileShow(stdout, *p, isDefault)
}

func validateEndpoint(input string) error {
	_, err := clientcli.ParseEndpoint(input)
	return err
}

// checkEndpoint reports whether a shelf server answers at rawURL.
func checkEndpoint(ctx context.Context, rawURL string) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	client, err := clientcli.New(&clientcli.Config{Endpoint: rawURL}, clientcli.WithTimeout(checkTimeout))
	if err != nil {
		return err
	}
	return client.CheckServer(ctx)
}

// confirm asks a yes/no question. Anything but yes counts as no.
func confirm(label string) bool {
	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			_ = handlePromptError(err)
		}
		_, _ = fmt.Fprintln(stdout, "Cancelled.")
		return false
	}
	return true
}

// handlePromptError exits on Ctrl+C and treats other aborts as a cancel.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		_, _ = fmt.Fprintln(stdout, "\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		_, _ = fmt.Fprintln(stdout, "Cancelled.")
		return nil
	}
	return err
}
