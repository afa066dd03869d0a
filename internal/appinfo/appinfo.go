// Package appinfo provides application identity constants.
// These are used across packages for consistent naming.
package appinfo

const (
	// AppName is the display name of the application.
	AppName = "Rolecall"

	// DirName is the directory name used for storing application data.
	// Location: %LOCALAPPDATA%/rolecall/ (Windows) or ~/.config/rolecall/ (other)
	DirName = "rolecall"

	// MutexName is the Windows mutex name for single instance control.
	// "Local\" prefix scopes the mutex to the current user session.
	MutexName = "Local\\rolecall"

	// LockFileName is the lock file name for single instance control.
	LockFileName = "rolecall.lock"

	// ConfigFileName is the configuration file name.
	ConfigFileName = "config.json"

	// SecretsFileName is the secrets file name.
	SecretsFileName = "secrets.json"

	// DataFileName is the whole-document state file used by the file backend.
	DataFileName = "data.json"

	// DatabaseFileName is the SQLite database file name.
	DatabaseFileName = "rolecall.sqlite"
)
