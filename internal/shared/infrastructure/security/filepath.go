// Package security validates operator-supplied file paths.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// forbiddenChars would be read as DSN query syntax or shell metacharacters.
var forbiddenChars = []string{"?", "#", ";", "&", "|", "$", "`", "<", ">", "\n", "\r", "\x00"}

// ValidateFilePath cleans path, makes it absolute and resolves symlinks
// when the file already exists.
func ValidateFilePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}

	for _, char := range forbiddenChars {
		if strings.Contains(path, char) {
			return "", fmt.Errorf("file path contains forbidden character %q: %s", char, path)
		}
	}

	cleanPath := filepath.Clean(path)
	if !filepath.IsAbs(cleanPath) {
		abs, err := filepath.Abs(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to resolve file path: %w", err)
		}
		cleanPath = abs
	}

	resolved, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cleanPath, nil
		}
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	return resolved, nil
}

// ValidateDatabasePath is ValidateFilePath for a SQLite file. The
// in-memory name is passed through.
func ValidateDatabasePath(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	return ValidateFilePath(path)
}
