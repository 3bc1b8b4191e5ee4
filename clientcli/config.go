package clientcli

import (
	"cmp"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	shelfhttp "github.com/sagarc03/shelf/http"
)

// DefaultEndpoint is the server a client talks to when nothing else is set.
const DefaultEndpoint = "http://localhost:5708"

// Environment variables read by Selection.Resolve.
const (
	EnvEndpoint = "SHELF_ENDPOINT"
	EnvProfile  = "SHELF_PROFILE"
	EnvConfig   = "SHELF_CONFIG"
)

// ErrInvalidEndpoint is returned for endpoints that cannot address a shelf server.
var ErrInvalidEndpoint = errors.New("invalid endpoint")

// ParseEndpoint checks that raw can address a shelf server and returns it
// without a trailing slash. Only http and https with a host are accepted.
// A URL pointing at the storage route itself, such as
// "http://host:5708/storage/", is cut back to the server root.
func ParseEndpoint(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q must start with http:// or https://", ErrInvalidEndpoint, raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrInvalidEndpoint, raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, fmt.Errorf("%w: %q must not carry a query or fragment", ErrInvalidEndpoint, raw)
	}

	p := strings.TrimSuffix(u.Path, "/")
	p = strings.TrimSuffix(p, strings.TrimSuffix(shelfhttp.StoragePrefix, "/"))
	u.Path = strings.TrimSuffix(p, "/")
	u.RawPath = ""

	return u, nil
}

// Profile names a shelf server.
type Profile struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
	Default  bool   `yaml:"default,omitempty"`
}

// ConfigFile is the profile file, ~/.shelf/config.yaml by default.
type ConfigFile struct {
	Profiles []Profile `yaml:"profiles"`
}

func (c *ConfigFile) index(name string) int {
	return slices.IndexFunc(c.Profiles, func(p Profile) bool { return p.Name == name })
}

// GetProfile returns the named profile, or the default profile when name
// is empty.
func (c *ConfigFile) GetProfile(name string) (*Profile, error) {
	if name == "" {
		return c.GetDefaultProfile()
	}
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}

	i := c.index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return &c.Profiles[i], nil
}

// GetDefaultProfile returns the profile marked default, falling back to the
// first one.
func (c *ConfigFile) GetDefaultProfile() (*Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}
	if i := slices.IndexFunc(c.Profiles, func(p Profile) bool { return p.Default }); i >= 0 {
		return &c.Profiles[i], nil
	}
	return &c.Profiles[0], nil
}

// PutProfile validates p, stores its endpoint in canonical form, and adds
// it or replaces the profile of the same name. A replaced profile keeps its
// default mark. Reports whether the profile is new.
func (c *ConfigFile) PutProfile(p Profile) (bool, error) {
	if p.Name == "" {
		return false, errors.New("profile name is required")
	}

	endpoint, err := ParseEndpoint(p.Endpoint)
	if err != nil {
		return false, fmt.Errorf("profile %s: %w", p.Name, err)
	}
	p.Endpoint = endpoint.String()

	if i := c.index(p.Name); i >= 0 {
		p.Default = p.Default || c.Profiles[i].Default
		c.Profiles[i] = p
		return false, nil
	}

	c.Profiles = append(c.Profiles, p)
	return true, nil
}

// RemoveProfile deletes the named profile.
func (c *ConfigFile) RemoveProfile(name string) error {
	i := c.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	c.Profiles = slices.Delete(c.Profiles, i, i+1)
	return nil
}

// SetDefault marks the named profile as the only default.
func (c *ConfigFile) SetDefault(name string) error {
	if c.index(name) < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	for i := range c.Profiles {
		c.Profiles[i].Default = c.Profiles[i].Name == name
	}
	return nil
}

// Save writes the profile file with owner-only permissions, creating its
// directory if needed.
func (c *ConfigFile) Save(path string) error {
	cleanPath := filepath.Clean(path)

	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(cleanPath, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// LoadConfigFile reads a profile file. Duplicate profile names are rejected.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(filepath.Clean(path)) //#nosec G304 -- path is user-provided config file
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	seen := make(map[string]bool, len(cfg.Profiles))
	for _, p := range cfg.Profiles {
		if seen[p.Name] {
			return nil, fmt.Errorf("parse config file: %w: %s", ErrProfileExists, p.Name)
		}
		seen[p.Name] = true
	}

	return &cfg, nil
}

// DefaultConfigPath returns ~/.shelf/config.yaml, or "" without a home directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".shelf", "config.yaml")
}

// Config is the resolved client configuration.
type Config struct {
	Endpoint string
}

// WithDefaults returns a copy with DefaultEndpoint filled in.
func (c *Config) WithDefaults() *Config {
	cfg := *c
	cfg.Endpoint = cmp.Or(cfg.Endpoint, DefaultEndpoint)
	return &cfg
}

// Selection holds what was asked for on the command line. Empty fields fall
// back to the environment.
type Selection struct {
	ConfigPath string
	Profile    string
	Endpoint   string
}

// Path returns the profile file: the flag, then SHELF_CONFIG, then
// DefaultConfigPath.
func (s Selection) Path() string {
	return cmp.Or(s.ConfigPath, os.Getenv(EnvConfig), DefaultConfigPath())
}

// Resolve picks the endpoint from the flag, then SHELF_ENDPOINT, then the
// selected profile. A profile file or profile named by flag or environment
// must exist; the default file is optional.
func (s Selection) Resolve() (*Config, error) {
	name := cmp.Or(s.Profile, os.Getenv(EnvProfile))
	explicit := name != "" || cmp.Or(s.ConfigPath, os.Getenv(EnvConfig)) != ""

	var fromProfile string
	if path := s.Path(); path != "" {
		cf, err := LoadConfigFile(path)
		if err == nil {
			var p *Profile
			p, err = cf.GetProfile(name)
			if err == nil {
				fromProfile = p.Endpoint
			}
		}
		if err != nil && explicit {
			return nil, err
		}
	}

	endpoint := cmp.Or(s.Endpoint, os.Getenv(EnvEndpoint), fromProfile)
	if endpoint != "" {
		if _, err := ParseEndpoint(endpoint); err != nil {
			return nil, err
		}
	}

	return &Config{Endpoint: endpoint}, nil
}
