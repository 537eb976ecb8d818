package sqltools

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/docsight/docsight/internal/common"
)

// DefaultLimit caps result sets for queries that do not set their own LIMIT.
const DefaultLimit = 50

var dangerousKeywords = []string{"drop", "delete", "truncate", "alter", "create", "insert", "update"}

var reHasLimit = regexp.MustCompile(`(?i)\blimit\s+\d+`)

// Executor runs read-only SQL against the analytics database. Every query
// passes the safety gate: SELECT-only, no mutating keywords anywhere in the
// statement, and an enforced row limit.
type Executor struct {
	db    *sql.DB
	limit int
}

func NewExecutor(db *sql.DB, limit int) *Executor {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Executor{db: db, limit: limit}
}

// Validate rejects anything but a plain SELECT. The keyword check is a
// substring scan, deliberately stricter than a parse: "select * from
// deleted_items" is rejected too, a false positive we accept for a
// LLM-generated query surface.
func (e *Executor) Validate(query string) error {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return common.NewAppError("SQL_EMPTY", "empty query", common.ErrInvalidInput)
	}
	for _, kw := range dangerousKeywords {
		if strings.Contains(q, kw) {
			return common.NewAppError("SQL_FORBIDDEN",
				fmt.Sprintf("query contains forbidden keyword %q", kw), common.ErrInvalidInput)
		}
	}
	if !strings.HasPrefix(q, "select") {
		return common.NewAppError("SQL_NOT_SELECT", "only SELECT queries are allowed", common.ErrInvalidInput)
	}
	return nil
}

// ExecuteQuery validates, caps, and runs a query, returning rows as maps
// keyed by column name.
func (e *Executor) ExecuteQuery(ctx context.Context, query string) ([]map[string]any, error) {
	if err := e.Validate(query); err != nil {
		return nil, err
	}

	q := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), ";"))
	if !reHasLimit.MatchString(q) {
		q = fmt.Sprintf("%s LIMIT %d", q, e.limit)
	}

	rows, err := e.db.QueryContext(ctx, q)
	if err != nil {
		return nil, common.NewAppError("SQL_EXEC", "query execution failed", err)
	}
	defer rows.Close()
	return rowsToMaps(rows)
}

// TableSchema returns the column layout of one table via pragma_table_info.
func (e *Executor) TableSchema(ctx context.Context, table string) ([]map[string]any, error) {
	rows, err := e.db.QueryContext(ctx,
		`SELECT name, type, "notnull", pk FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, common.NewAppError("SQL_SCHEMA", "failed to read table schema", err)
	}
	defer rows.Close()
	return rowsToMaps(rows)
}

// SampleData returns a handful of rows so a query generator can see real
// value shapes.
func (e *Executor) SampleData(ctx context.Context, table string, n int) ([]map[string]any, error) {
	if !reIdentifier.MatchString(table) {
		return nil, common.NewAppError("SQL_TABLE", "invalid table name", common.ErrInvalidInput)
	}
	if n <= 0 || n > e.limit {
		n = 5
	}
	rows, err := e.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, n))
	if err != nil {
		return nil, common.NewAppError("SQL_SAMPLE", "failed to read sample rows", err)
	}
	defer rows.Close()
	return rowsToMaps(rows)
}

var reIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func rowsToMaps(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, common.NewAppError("SQL_COLUMNS", "failed to read columns", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, common.NewAppError("SQL_SCAN", "failed to scan row", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
