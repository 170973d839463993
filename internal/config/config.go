package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the CLI configuration plus the persisted install id. It
// satisfies api.Config.
type Config struct {
	// ServerURLRaw is the unvalidated server location after applying
	// overrides; ServerURL parses it.
	ServerURLRaw string
	Disabled     bool
	Theme        string

	configDir string
	stateDir  string
	installID string
}

// Options control where Load looks and which values it overrides.
type Options struct {
	Path      string // config file; empty uses the default location
	ServerURL string // takes precedence over env and file
}

const (
	defaultConfigDir = "~/.config/asciinema"
	defaultStateDir  = "~/.local/state/asciinema"
	defaultServerURL = "https://asciinema.org"
	defaultTheme     = "Nightfox"

	configFileName = "config.toml"
)

// Load reads the config file, falling back to defaults when it is missing,
// and applies environment and flag overrides.
func Load(opts Options) (*Config, error) {
	configDir, err := resolveDir("XDG_CONFIG_HOME", defaultConfigDir)
	if err != nil {
		return nil, err
	}
	stateDir, err := resolveDir("XDG_STATE_HOME", defaultStateDir)
	if err != nil {
		return nil, err
	}

	path := strings.TrimSpace(opts.Path)
	if path == "" {
		path = filepath.Join(configDir, configFileName)
	}
	resolved, err := expandPath(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerURLRaw: defaultServerURL,
		Theme:        defaultTheme,
		configDir:    configDir,
		stateDir:     stateDir,
	}

	raw, err := readFile(resolved)
	if err != nil {
		return nil, err
	}
	if value := strings.TrimSpace(raw.Server.URL); value != "" {
		cfg.ServerURLRaw = value
	}
	cfg.Disabled = raw.Network.Disabled
	if theme := strings.TrimSpace(raw.UI.Theme); theme != "" {
		cfg.Theme = theme
	}

	for _, key := range []string{"ASCIINEMA_API_URL", "ASCIINEMA_SERVER_URL"} {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			cfg.ServerURLRaw = value
		}
	}
	if value := strings.TrimSpace(opts.ServerURL); value != "" {
		cfg.ServerURLRaw = value
	}
	if truthy(os.Getenv("ASCIINEMA_NO_NETWORK")) {
		cfg.Disabled = true
	}

	return cfg, nil
}

type fileConfig struct {
	Server struct {
		URL string `toml:"url"`
	} `toml:"server"`
	Network struct {
		Disabled bool `toml:"disabled"`
	} `toml:"network"`
	UI struct {
		Theme string `toml:"theme"`
	} `toml:"ui"`
}

func readFile(path string) (fileConfig, error) {
	var raw fileConfig

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return raw, nil
		}
		return raw, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return raw, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return raw, fmt.Errorf("parse config: %w", err)
	}
	return raw, nil
}

// ServerURL returns the validated server base URL. A value without a scheme
// is treated as https.
func (c *Config) ServerURL() (*url.URL, error) {
	trimmed := strings.TrimSpace(c.ServerURLRaw)
	if trimmed == "" {
		trimmed = defaultServerURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", c.ServerURLRaw, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, fmt.Errorf("invalid server URL %q: unsupported scheme %q", c.ServerURLRaw, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: missing host", c.ServerURLRaw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// NetworkDisabled reports whether network access has been turned off.
func (c *Config) NetworkDisabled() bool {
	return c != nil && c.Disabled
}

func resolveDir(envKey, fallback string) (string, error) {
	if base := strings.TrimSpace(os.Getenv(envKey)); base != "" {
		return expandPath(filepath.Join(base, "asciinema"))
	}
	return expandPath(fallback)
}

func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
