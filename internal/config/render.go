package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/danielolaszy/stud/internal/logging"
)

// ErrConfigExists is returned by WriteDefault when the target file exists.
var ErrConfigExists = errors.New("config file already exists")

// Render marshals cfg as YAML. With mask set, tokens are replaced by
// logging.MaskSensitive so the output is safe to share.
func Render(cfg *Config, mask bool) ([]byte, error) {
	out := *cfg
	if mask {
		out.Jira.Token = logging.MaskSensitive(out.Jira.Token)
		out.GitHub.Token = logging.MaskSensitive(out.GitHub.Token)
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}
	return data, nil
}

// WriteDefault writes the default configuration to path. The file is created
// with owner-only permissions since it is meant to hold API tokens.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	data, err := Render(Default(), false)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	logging.Info("wrote default config", "path", path)
	return nil
}
