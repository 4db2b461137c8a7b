package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the comply home directory.
	DefaultDirName = ".comply"

	// DataDirName is the subdirectory for the users database.
	DataDirName = "data"

	// SecretsDirName holds {provider}_api_key files.
	SecretsDirName = "secrets"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// UsersDBName is the SQLite file holding API users.
	UsersDBName = "users.db"
)

// Dir represents the comply home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.comply).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DataPath returns the path to the data directory.
func (d *Dir) DataPath() string {
	return filepath.Join(d.path, DataDirName)
}

// SecretsPath returns the directory searched for API key files.
func (d *Dir) SecretsPath() string {
	return filepath.Join(d.path, SecretsDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// UsersDBPath returns the default users database path.
func (d *Dir) UsersDBPath() string {
	return filepath.Join(d.DataPath(), UsersDBName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	// Create data directory (this also creates the parent)
	if err := os.MkdirAll(d.DataPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(d.SecretsPath(), 0o700); err != nil {
		return fmt.Errorf("failed to create secrets directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
