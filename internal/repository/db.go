package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/docsight/docsight/internal/common"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	filename       TEXT NOT NULL,
	file_path      TEXT NOT NULL UNIQUE,
	document_type  TEXT NOT NULL,
	raw_text       TEXT NOT NULL DEFAULT '',
	extracted_data TEXT NOT NULL DEFAULT '{}',
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id      INTEGER NOT NULL REFERENCES documents(id),
	date             TEXT NOT NULL,
	amount           REAL NOT NULL,
	vendor           TEXT NOT NULL DEFAULT '',
	category         TEXT NOT NULL DEFAULT '',
	description      TEXT NOT NULL DEFAULT '',
	metadata         TEXT NOT NULL DEFAULT '{}',
	confidence_score REAL,
	is_corrected     INTEGER NOT NULL DEFAULT 0,
	created_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS document_corrections (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id     INTEGER NOT NULL REFERENCES documents(id),
	field_name      TEXT NOT NULL,
	original_value  TEXT NOT NULL DEFAULT '',
	corrected_value TEXT NOT NULL,
	created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_document_id ON transactions(document_id);
CREATE INDEX IF NOT EXISTS idx_transactions_vendor ON transactions(vendor);
CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
`

// Open connects to the sqlite database at path, applies the schema, and
// verifies connectivity within dialTimeout.
func Open(path string, dialTimeout time.Duration, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.NewAppError("DB_OPEN", "failed to open database", err)
	}

	// In-memory databases live per-connection; a pool of one keeps the
	// schema and the data on the same handle.
	if strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, common.NewAppError("DB_PING", "database unreachable", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, common.NewAppError("DB_MIGRATE", "failed to apply schema", err)
	}

	logger.Info("repository.connected", "path", path)
	return db, nil
}
