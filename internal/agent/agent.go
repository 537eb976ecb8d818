package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docsight/docsight/internal/llm"
)

// Response is the complete answer to one query. A cache hit returns the
// stored value verbatim, so the shape carries no hit/miss marker; cache hits
// are visible in the logs only.
type Response struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources,omitempty"`
	SQLQuery  string   `json:"sql_query,omitempty"`
	ToolCalls []string `json:"tool_calls,omitempty"`
}

// Fast-path phrases answered deterministically without any model call.
var (
	vendorPhrases = []string{
		"top vendor", "vendor stat", "vendor by spend", "top vendors", "vendors by",
	}
	categoryPhrases = []string{
		"by category", "category breakdown", "spending by category", "category",
	}
	sqlIntentKeywords = []string{
		"total", "sum", "average", "count", "monthly", "vendor", "category", "spend", "spent", "amount",
	}
)

const routerSystemPrompt = `You answer questions about a user's financial documents.
You may call tools by emitting directives, one per line:
[TOOL: sql_query] SELECT ... — run a read-only SQL query against the transactions table
[TOOL: get_metrics] {"metric_type": "vendor_stats"|"category_breakdown"|"monthly_spend"|"forecast", ...} — precomputed spending metrics
[TOOL: search_documents] free text — semantic search over ingested documents
If you can answer directly without data, just answer with no directives.`

const synthesisSystemPrompt = `You summarize tool output into a concise answer for the user.
Base the answer only on the tool results provided. If results are empty or errors, say so plainly.`

// Agent routes a natural-language query through cache, deterministic fast
// paths, heuristic SQL generation, model-directed tools, and RAG fallback.
type Agent struct {
	generator llm.Generator
	toolbox   *Toolbox
	sqlgen    *SQLGenerator
	cache     *responseCache
	logger    *slog.Logger
}

func New(generator llm.Generator, toolbox *Toolbox, sqlgen *SQLGenerator, cacheSize int, logger *slog.Logger) (*Agent, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := newResponseCache(cacheSize)
	if err != nil {
		return nil, err
	}
	return &Agent{
		generator: generator,
		toolbox:   toolbox,
		sqlgen:    sqlgen,
		cache:     cache,
		logger:    logger,
	}, nil
}

// PurgeCache drops all memoized responses. Call after ingesting documents.
func (a *Agent) PurgeCache() {
	a.cache.Purge()
	a.logger.Debug("agent.cache_purged")
}

// ProcessQuery answers one query. Identical queries with identical flags hit
// the cache; everything else flows through the routing ladder.
func (a *Agent) ProcessQuery(ctx context.Context, query string, useRAG, useSQL bool) Response {
	start := time.Now()
	reqID := uuid.NewString()
	key := cacheKey(query, useRAG, useSQL)
	if resp, ok := a.cache.get(key); ok {
		a.logger.Info("agent.query.cache_hit", "req_id", reqID, "query_len", len(query))
		return resp
	}

	resp := a.route(ctx, query, useRAG, useSQL)
	a.cache.put(key, resp)

	a.logger.Info("agent.query.completed",
		"req_id", reqID,
		"tool_calls", resp.ToolCalls,
		"sql", resp.SQLQuery != "",
		"elapsed_ms", time.Since(start).Milliseconds())
	return resp
}

func (a *Agent) route(ctx context.Context, query string, useRAG, useSQL bool) Response {
	lower := strings.ToLower(query)

	// Deterministic fast paths: common metric questions skip the model
	// entirely, both for routing and for synthesis.
	if matchesAny(lower, vendorPhrases) {
		out, _ := a.toolbox.Execute(ctx, Directive{Tool: toolGetMetrics, Input: `{"metric_type": "vendor_stats"}`})
		return Response{Answer: out, ToolCalls: []string{toolGetMetrics}}
	}
	if matchesAny(lower, categoryPhrases) {
		out, _ := a.toolbox.Execute(ctx, Directive{Tool: toolGetMetrics, Input: `{"metric_type": "category_breakdown"}`})
		return Response{Answer: out, ToolCalls: []string{toolGetMetrics}}
	}

	// Heuristic SQL path: aggregate-sounding questions go straight to
	// query generation.
	if useSQL && matchesAny(lower, sqlIntentKeywords) {
		if resp, ok := a.sqlPath(ctx, query); ok {
			return resp
		}
	}

	return a.directivePath(ctx, query, useRAG, useSQL)
}

func (a *Agent) sqlPath(ctx context.Context, query string) (Response, bool) {
	sqlQuery, err := a.sqlgen.Generate(ctx, query)
	if err != nil {
		a.logger.Warn("agent.sqlgen_failed", "error", err)
		return Response{}, false
	}

	result, _ := a.toolbox.Execute(ctx, Directive{Tool: toolSQLQuery, Input: sqlQuery})
	answer := a.synthesize(ctx, query, []string{result})
	return Response{
		Answer:    answer,
		SQLQuery:  sqlQuery,
		ToolCalls: []string{toolSQLQuery},
	}, true
}

func (a *Agent) directivePath(ctx context.Context, query string, useRAG, useSQL bool) Response {
	routed, err := a.generator.Generate(ctx, llm.Request{System: routerSystemPrompt, Prompt: query})
	if err != nil {
		a.logger.Warn("agent.routing_failed", "error", err)
		return a.degrade(ctx, query, useRAG)
	}

	directives := ParseDirectives(routed)
	if len(directives) == 0 {
		if useRAG {
			// Nothing routed; treat the query itself as a document search.
			out, sources := a.toolbox.Execute(ctx, Directive{Tool: toolSearchDocs, Input: query})
			answer := a.synthesize(ctx, query, []string{out})
			return Response{Answer: answer, Sources: sources, ToolCalls: []string{toolSearchDocs}}
		}
		// The model answered directly.
		return Response{Answer: routed}
	}

	var results []string
	var sources []string
	var calls []string
	for _, d := range directives {
		if d.Tool == toolSQLQuery && !useSQL {
			continue
		}
		if d.Tool == toolSearchDocs && !useRAG {
			continue
		}
		out, src := a.toolbox.Execute(ctx, d)
		results = append(results, out)
		sources = append(sources, src...)
		calls = append(calls, d.Tool)
	}
	if len(results) == 0 {
		return Response{Answer: routed}
	}

	return Response{
		Answer:    a.synthesize(ctx, query, results),
		Sources:   sources,
		ToolCalls: calls,
	}
}

// synthesize asks the model to phrase tool results as an answer; if that
// fails the raw results are returned joined, so data already fetched is
// never thrown away.
func (a *Agent) synthesize(ctx context.Context, query string, results []string) string {
	prompt := fmt.Sprintf("Question: %s\n\nTool results:\n%s\n\nAnswer:", query, strings.Join(results, "\n---\n"))
	answer, err := a.generator.Generate(ctx, llm.Request{System: synthesisSystemPrompt, Prompt: prompt})
	if err != nil {
		a.logger.Warn("agent.synthesis_failed", "error", err)
		return strings.Join(results, "\n\n")
	}
	return answer
}

// degrade produces a model-free answer when routing itself is unavailable.
func (a *Agent) degrade(ctx context.Context, query string, useRAG bool) Response {
	if useRAG {
		out, sources := a.toolbox.Execute(ctx, Directive{Tool: toolSearchDocs, Input: query})
		return Response{Answer: out, Sources: sources, ToolCalls: []string{toolSearchDocs}}
	}
	out, _ := a.toolbox.Execute(ctx, Directive{Tool: toolGetMetrics, Input: `{"metric_type": "vendor_stats"}`})
	return Response{
		Answer:    "The language model is unavailable; here are the current spending metrics instead.\n\n" + out,
		ToolCalls: []string{toolGetMetrics},
	}
}

func matchesAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
