package config

import (
	"errors"
	"fmt"
	"os"
)

// WriteTemplates gives a first run something to fill in. When status is
// SecretsMissing it writes empty secrets and, if config.json is also absent,
// writes cfg as config.json. Existing files are never touched. It returns
// the paths written.
func WriteTemplates(cfg Config, status SecretsLoadStatus) ([]string, error) {
	if status != SecretsMissing {
		return nil, nil
	}

	var written []string
	secretsPath, err := SecretsPath()
	if err != nil {
		return nil, err
	}
	if err := SaveSecrets(DefaultSecrets()); err != nil {
		return nil, fmt.Errorf("write secrets template: %w", err)
	}
	written = append(written, secretsPath)

	configPath, err := ConfigPath()
	if err != nil {
		return written, err
	}
	if _, err := os.Stat(configPath); !errors.Is(err, os.ErrNotExist) {
		return written, nil
	}
	if err := SaveConfig(cfg); err != nil {
		return written, fmt.Errorf("write config template: %w", err)
	}
	return append(written, configPath), nil
}
