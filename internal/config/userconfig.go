// Package config implements the two persisted, TOML-encoded shapes
// described in spec.md §6: a user's local preferences and a canvas
// project's on-disk manifest. Grounded on
// daemon/config/config.go's Config/DefaultConfig shape, but made to
// actually parse: the teacher's own LoadConfig is a stub that ignores
// its path argument entirely ("simplified - just returns default"),
// which spec.md §6 requires this implementation not to do.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// UserConfig is the client's local, persisted preferences.
type UserConfig struct {
	Nickname    string `toml:"nickname"`
	RelayHost   string `toml:"relay_host"`
	ColorScheme string `toml:"color_scheme"`
	ToolbarVert bool   `toml:"toolbar_vertical"`
}

// DefaultRelayHost matches internal/relay's DefaultConfig listen port.
const DefaultRelayHost = "127.0.0.1:62137"

// DefaultUserConfig returns the configuration used when no file exists
// yet.
func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Nickname:    "Anonymous",
		RelayHost:   DefaultRelayHost,
		ColorScheme: "dark",
		ToolbarVert: true,
	}
}

// DefaultUserConfigPath returns the conventional location of the
// user's config file, under the OS config directory.
func DefaultUserConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "netcanv", "config.toml"), nil
}

// LoadUserConfig reads and decodes a user config file. A missing file
// is not an error: it returns DefaultUserConfig().
func LoadUserConfig(path string) (*UserConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultUserConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := DefaultUserConfig()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save encodes the config as TOML and writes it to path, creating any
// missing parent directories.
func (c *UserConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("config: encode %s: %w", path, err)
	}
	return nil
}
