package db

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/brieflex/brieflex/errors"
)

// Open opens the SQLite database backing invocation history. WAL mode keeps
// reads available while the router records outcomes; the busy timeout covers
// the CLI and the notification server sharing one file.
func Open(path string, logger *zap.SugaredLogger) (*sql.DB, error) {
	if logger != nil {
		logger.Debugw("Opening history database", "path", path)
	}
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open database %s", path)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := database.Exec(pragma); err != nil {
			database.Close()
			return nil, errors.Wrap(err, pragma)
		}
	}

	if logger != nil {
		logger.Infow("History database opened", "path", path)
	}
	return database, nil
}
