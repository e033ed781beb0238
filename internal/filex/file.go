// Package filex contains small filesystem helpers shared by the server and
// consumer binaries.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir prepares a scratch directory for buffering uploads.
//
// An empty path means "use the OS temp dir" and is returned as-is, because
// os.CreateTemp treats "" the same way. A relative path is resolved against
// the current working directory. The directory is created if missing.
func EnsureDir(dirName string) (string, error) {
	if dirName == "" {
		return "", nil
	}

	dir := dirName
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dirName)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
