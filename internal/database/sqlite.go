package database

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

// isSQLiteFilePath checks if a string looks like a SQLite file path
func isSQLiteFilePath(s string) bool {
	s = strings.ToLower(s)

	// Skip special cases
	if s == ":memory:" || strings.HasPrefix(s, "libsql://") {
		return false
	}

	if strings.HasPrefix(s, "sqlite://") || strings.HasPrefix(s, "file:") {
		return true
	}

	return strings.HasSuffix(s, ".db") ||
		strings.HasSuffix(s, ".sqlite") ||
		strings.HasSuffix(s, ".sqlite3")
}

// extractSQLiteFilePath extracts the actual file path from a SQLite connection string
func extractSQLiteFilePath(connStr string) string {
	for _, prefix := range []string{"sqlite://", "file:"} {
		if strings.HasPrefix(connStr, prefix) {
			path := strings.TrimPrefix(connStr, prefix)
			// Remove query parameters
			if idx := strings.Index(path, "?"); idx >= 0 {
				path = path[:idx]
			}
			return path
		}
	}
	return connStr
}

// sqliteDSN converts a connection string into a modernc.org/sqlite data
// source name. File databases must already exist: a script run against a
// mistyped path would otherwise silently create an empty database.
func sqliteDSN(connStr string) (string, error) {
	if connStr == ":memory:" {
		return connStr, nil
	}

	filePath := extractSQLiteFilePath(connStr)
	if filePath == ":memory:" {
		return connStr, nil
	}
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Errorf("sqlite database file does not exist: %s", filePath)
		}
		return "", errors.Wrap(err, "failed to stat sqlite database")
	}
	if info.IsDir() {
		return "", errors.Errorf("path is a directory, not a file: %s", filePath)
	}

	// modernc accepts file: URIs as is; sqlite:// is ours.
	if strings.HasPrefix(connStr, "sqlite://") {
		return filePath, nil
	}
	return connStr, nil
}
