// Package config provides configuration management for Rolecall.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/graaaaa/rolecall/internal/appinfo"
)

// EnvDataDir overrides the data directory, e.g. for a container volume.
const EnvDataDir = EnvPrefix + "DATA_DIR"

// DataDir returns the application data directory path.
// ROLECALL_DATA_DIR wins when set.
// On Windows: %LOCALAPPDATA%/rolecall/
// On other platforms: ~/.config/rolecall/ or equivalent
func DataDir() (string, error) {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return filepath.Clean(dir), nil
	}

	var base string

	// On Windows, use LOCALAPPDATA; on other platforms, use UserConfigDir
	if runtime.GOOS == "windows" {
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			base = localAppData
		} else {
			dir, err := os.UserConfigDir()
			if err != nil {
				return "", fmt.Errorf("get user config dir: %w", err)
			}
			base = dir
		}
	} else {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("get user config dir: %w", err)
		}
		base = dir
	}

	return filepath.Join(base, appinfo.DirName), nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create data dir %q: %w", dir, err)
	}

	return dir, nil
}

// dataPath returns the full path for a file in the data directory.
func dataPath(filename string) (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filename), nil
}

// ConfigPath returns the path to config.json.
func ConfigPath() (string, error) {
	return dataPath(appinfo.ConfigFileName)
}

// SecretsPath returns the path to secrets.json.
func SecretsPath() (string, error) {
	return dataPath(appinfo.SecretsFileName)
}

// DotEnvPath returns the path to the optional .env file.
func DotEnvPath() (string, error) {
	return dataPath(".env")
}

// LockFilePath returns the path to the lock file for single instance control.
func LockFilePath() (string, error) {
	return dataPath(appinfo.LockFileName)
}

// StorePath returns the default document path for backend: data.json for the
// file backend, the SQLite database otherwise.
func StorePath(backend string) (string, error) {
	if backend == "sqlite" {
		return dataPath(appinfo.DatabaseFileName)
	}
	return dataPath(appinfo.DataFileName)
}
