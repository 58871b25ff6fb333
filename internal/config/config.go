package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755
)

var (
	// ConfigDir is the global configuration directory (~/.reqflow)
	ConfigDir string

	// DatabasePath is the SQLite database file for request history
	DatabasePath string

	// SessionFile is the session state file
	SessionFile string

	// SettingsFile is the optional settings file
	SettingsFile string

	// LogFile receives application logs
	LogFile string
)

// Initialize sets up ~/.reqflow and the paths inside it
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	return InitializeAt(filepath.Join(homeDir, ".reqflow"))
}

// InitializeAt sets up dir as the configuration directory
func InitializeAt(dir string) error {
	ConfigDir = dir
	DatabasePath = filepath.Join(ConfigDir, "reqflow.db")
	SessionFile = filepath.Join(ConfigDir, ".session.json")
	SettingsFile = filepath.Join(ConfigDir, "config.yaml")
	LogFile = filepath.Join(ConfigDir, "reqflow.log")

	if err := os.MkdirAll(ConfigDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", ConfigDir, err)
	}

	if _, err := os.Stat(SessionFile); os.IsNotExist(err) {
		if err := os.WriteFile(SessionFile, []byte(`{}`), FilePermissions); err != nil {
			return fmt.Errorf("failed to create session file: %w", err)
		}
	}

	return nil
}

// GetSessionFilePath returns the session file path (local or global)
func GetSessionFilePath() string {
	if _, err := os.Stat(".session.json"); err == nil {
		return ".session.json"
	}
	return SessionFile
}
