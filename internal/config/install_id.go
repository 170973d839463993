package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const installIDFileName = "install-id"

// InstallID returns the identifier of this installation, generating and
// saving one on first use. Files written by older versions under the config
// directory are honored.
func (c *Config) InstallID() (string, error) {
	if c.installID != "" {
		return c.installID, nil
	}

	for _, path := range []string{c.InstallIDPath(), filepath.Join(c.configDir, installIDFileName)} {
		id, err := readInstallID(path)
		if err != nil {
			return "", err
		}
		if id != "" {
			c.installID = id
			return id, nil
		}
	}

	id := uuid.NewString()
	if err := saveInstallID(c.InstallIDPath(), id); err != nil {
		return "", err
	}
	c.installID = id
	return id, nil
}

// InstallIDPath is where new install ids are saved.
func (c *Config) InstallIDPath() string {
	return filepath.Join(c.stateDir, installIDFileName)
}

func readInstallID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read install id: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func saveInstallID(path, id string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o644); err != nil {
		return fmt.Errorf("write install id: %w", err)
	}
	return nil
}
