// Package filex contains filesystem helpers for locating local data files.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureSubDir creates dirName under the current working directory when it
// does not exist yet and returns its absolute path.
func EnsureSubDir(dirName string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	dir := filepath.Join(cwd, dirName)
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}

// DataFile returns the path of fileName inside the dirName data directory,
// creating the directory on the way.
func DataFile(dirName, fileName string) (string, error) {
	dir, err := EnsureSubDir(dirName)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}
