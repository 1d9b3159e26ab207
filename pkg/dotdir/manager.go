// Package dotdir manages the .aletheia/ and ~/.aletheia directories that hold
// config.toml.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirName is the name of the aletheia directory.
	DirName = ".aletheia"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .aletheia/ directory.
// Order of precedence is as follows:
//  1. Provided override, created when missing
//  2. Local ./.aletheia/ dir
//  3. Home ~/.aletheia/ dir
//  4. If none found, an empty string
func (m *Manager) Target(overrideDir string) (string, error) {
	if overrideDir != "" {
		if err := os.MkdirAll(overrideDir, 0o755); err != nil {
			return "", fmt.Errorf("creating aletheia directory %s: %w", overrideDir, err)
		}
		return filepath.Abs(overrideDir)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	if dir := filepath.Join(cwd, DirName); isDir(dir) {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	if dir := filepath.Join(home, DirName); isDir(dir) {
		return dir, nil
	}

	return "", nil
}

// Init creates ./.aletheia/ under base (the working directory when empty)
// and returns its absolute path.
func (m *Manager) Init(base string) (string, error) {
	if base == "" {
		var err error
		base, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
	}

	dir := filepath.Join(base, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating aletheia directory %s: %w", dir, err)
	}
	return filepath.Abs(dir)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
