package db

import (
	"strings"

	"github.com/brieflex/brieflex/errors"
)

// ErrDatabaseClosed is returned for operations attempted after shutdown has
// closed the connection.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed reports whether err indicates a closed connection. The
// string fallback covers raw driver errors that cannot be wrapped at the
// source.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}
