package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoConfig means no config file exists in any standard location.
var ErrNoConfig = errors.New("no config found (checked: --config, $LAUNCHPAD_CONFIG, ~/.config/launchpad/config.yaml, ./config.yaml)")

// Discover finds the config file. Priority order: flagPath,
// $LAUNCHPAD_CONFIG, ~/.config/launchpad/config.yaml, ./config.yaml.
// An explicit flagPath or env path that does not exist is an error.
func Discover(flagPath string) (string, error) {
	if flagPath != "" {
		if _, err := os.Stat(flagPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", flagPath)
		}
		return flagPath, nil
	}

	if p := os.Getenv("LAUNCHPAD_CONFIG"); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("$LAUNCHPAD_CONFIG points at missing file: %s", p)
		}
		return p, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".config", "launchpad", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml", nil
	}
	return "", ErrNoConfig
}
