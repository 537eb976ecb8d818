package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/docsight/docsight/internal/llm"
	"github.com/docsight/docsight/internal/sqltools"
)

const sqlGenSystemPrompt = `You are a SQL generator for a SQLite analytics database.
Return exactly one SELECT statement and nothing else: no prose, no markdown fences.
Only reference columns that exist in the schema provided.
Never invent placeholder values; if the question names no concrete filter value, omit the WHERE clause.`

const sqlGenExamples = `Examples:
Q: What is the total amount spent?
SQL: SELECT SUM(amount) AS total_spend FROM transactions

Q: How much did we spend per vendor?
SQL: SELECT vendor, SUM(amount) AS total_spend FROM transactions GROUP BY vendor ORDER BY total_spend DESC

Q: How many transactions were there in March 2024?
SQL: SELECT COUNT(*) AS transaction_count FROM transactions WHERE date LIKE '2024-03%'`

var (
	reSQLFence = regexp.MustCompile("(?s)```(?:sql)?\\s*(.*?)\\s*```")
	// placeholder filters a model emits when it has no concrete value
	rePlaceholderCond = regexp.MustCompile(`(?i)\b\w+\s*=\s*(?:'(?:your_\w+|\w+_id|\?\?)'|NULL|\?\?)`)
	reWhitespace      = regexp.MustCompile(`\s+`)
	reDanglingWhere   = regexp.MustCompile(`(?i)\bwhere\s*(group\s+by|order\s+by|limit\b|$)`)
	reTrailingJunk    = regexp.MustCompile(`(?i)(?:\s+(?:and|or)|\s*,)\s*$`)
)

// SQLGenerator asks the model for a SELECT over the transactions table and
// post-processes the output into something the safety gate will accept.
type SQLGenerator struct {
	generator llm.Generator
	sql       *sqltools.Executor
}

func NewSQLGenerator(generator llm.Generator, sqlExec *sqltools.Executor) *SQLGenerator {
	return &SQLGenerator{generator: generator, sql: sqlExec}
}

// Generate produces a cleaned SELECT for the question, or an error when the
// model output cannot be salvaged into one.
func (g *SQLGenerator) Generate(ctx context.Context, question string) (string, error) {
	schema, err := g.sql.TableSchema(ctx, "transactions")
	if err != nil {
		return "", err
	}
	sample, err := g.sql.SampleData(ctx, "transactions", 3)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf("%s\n\nSchema of table transactions:\n%s\n\nSample rows:\n%s\n\nQ: %s\nSQL:",
		sqlGenExamples, compactJSON(schema), compactJSON(sample), question)

	raw, err := g.generator.Generate(ctx, llm.Request{System: sqlGenSystemPrompt, Prompt: prompt})
	if err != nil {
		return "", err
	}

	query := CleanSQL(raw)
	// literal token only: lowercase "select" output is discarded, not trusted
	if !strings.HasPrefix(query, "SELECT") {
		return "", fmt.Errorf("model did not produce a SELECT: %q", raw)
	}
	return query, nil
}

// CleanSQL strips markdown fences, placeholder filters, and dangling
// conjunctions from model-emitted SQL.
func CleanSQL(raw string) string {
	q := strings.TrimSpace(raw)
	if m := reSQLFence.FindStringSubmatch(q); m != nil {
		q = m[1]
	}
	// keep only the first statement
	if i := strings.Index(q, ";"); i >= 0 {
		q = q[:i]
	}
	q = rePlaceholderCond.ReplaceAllString(q, "")
	q = reWhitespace.ReplaceAllString(q, " ")
	q = strings.TrimSpace(q)
	q = reTrailingJunk.ReplaceAllString(q, "")
	// a WHERE whose condition was removed entirely
	q = reDanglingWhere.ReplaceAllString(q, "$1")
	return strings.TrimSpace(q)
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}
