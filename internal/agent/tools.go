package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/docsight/docsight/internal/insights"
	"github.com/docsight/docsight/internal/rag"
	"github.com/docsight/docsight/internal/sqltools"
)

const (
	toolSQLQuery   = "sql_query"
	toolGetMetrics = "get_metrics"
	toolSearchDocs = "search_documents"
)

const getMetricsSchemaJSON = `{
	"type": "object",
	"properties": {
		"metric_type": {
			"type": "string",
			"enum": ["vendor_stats", "category_breakdown", "monthly_spend", "forecast"]
		},
		"limit": {"type": "integer", "minimum": 1, "maximum": 100},
		"year": {"type": "integer"},
		"month": {"type": "integer", "minimum": 1, "maximum": 12}
	},
	"required": ["metric_type"]
}`

var getMetricsSchema = jsonschema.MustCompileString("get_metrics.json", getMetricsSchemaJSON)

type metricsInput struct {
	Metric string `json:"metric_type"`
	Limit  int    `json:"limit"`
	Year   int    `json:"year"`
	Month  int    `json:"month"`
}

// Toolbox executes the tools the agent can route to. Tool failures are
// captured as strings so one bad call never aborts a whole query.
type Toolbox struct {
	sql          *sqltools.Executor
	insights     *insights.Service
	rag          *rag.Service
	metricsLimit int
	searchTopK   int
}

func NewToolbox(sqlExec *sqltools.Executor, ins *insights.Service, ragSvc *rag.Service, metricsLimit, searchTopK int) *Toolbox {
	if metricsLimit <= 0 {
		metricsLimit = 5
	}
	if searchTopK <= 0 {
		searchTopK = 5
	}
	return &Toolbox{
		sql:          sqlExec,
		insights:     ins,
		rag:          ragSvc,
		metricsLimit: metricsLimit,
		searchTopK:   searchTopK,
	}
}

// Execute runs one tool by name, returning its rendered output and the
// document filenames it drew on. Errors come back as a result string in the
// "Error executing tool X" shape the synthesis prompt expects.
func (t *Toolbox) Execute(ctx context.Context, d Directive) (string, []string) {
	out, sources, err := t.run(ctx, d)
	if err != nil {
		return fmt.Sprintf("Error executing tool %s: %v", d.Tool, err), nil
	}
	return out, sources
}

func (t *Toolbox) run(ctx context.Context, d Directive) (string, []string, error) {
	switch d.Tool {
	case toolSQLQuery:
		rows, err := t.sql.ExecuteQuery(ctx, d.Input)
		if err != nil {
			return "", nil, err
		}
		return formatRows(rows), nil, nil
	case toolGetMetrics:
		out, err := t.getMetrics(ctx, d.Input)
		return out, nil, err
	case toolSearchDocs:
		results, err := t.rag.Search(ctx, d.Input, t.searchTopK)
		if err != nil {
			return "", nil, err
		}
		sources := make([]string, 0, len(results))
		for _, r := range results {
			sources = append(sources, r.Filename)
		}
		return formatSearchResults(results), sources, nil
	default:
		return "", nil, fmt.Errorf("unknown tool %q", d.Tool)
	}
}

func (t *Toolbox) getMetrics(ctx context.Context, input string) (string, error) {
	in, err := parseMetricsInput(input)
	if err != nil {
		return "", err
	}
	switch in.Metric {
	case "vendor_stats":
		limit := in.Limit
		if limit <= 0 {
			limit = t.metricsLimit
		}
		stats, err := t.insights.TopVendors(ctx, limit)
		if err != nil {
			return "", err
		}
		return formatVendorStats(stats), nil
	case "category_breakdown":
		stats, err := t.insights.CategoryBreakdown(ctx)
		if err != nil {
			return "", err
		}
		return formatCategoryStats(stats), nil
	case "monthly_spend":
		if in.Year == 0 || in.Month == 0 {
			return "", fmt.Errorf("monthly_spend requires year and month")
		}
		stat, err := t.insights.MonthlySpend(ctx, in.Year, in.Month)
		if err != nil {
			return "", err
		}
		return formatMonthlyStat(stat), nil
	case "forecast":
		f, err := t.insights.SpendingForecast(ctx, 12)
		if err != nil {
			return "", err
		}
		return formatForecast(f), nil
	default:
		return "", fmt.Errorf("unknown metric %q", in.Metric)
	}
}

// parseMetricsInput accepts either the JSON shape validated by the schema
// or, as a fallback for terse model output, a bare metric name.
func parseMetricsInput(input string) (metricsInput, error) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "{") {
		return metricsInput{Metric: strings.Trim(input, `"' `)}, nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(input), &decoded); err != nil {
		return metricsInput{}, fmt.Errorf("invalid metrics input: %w", err)
	}
	if err := getMetricsSchema.Validate(decoded); err != nil {
		return metricsInput{}, fmt.Errorf("metrics input rejected: %w", err)
	}

	var in metricsInput
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return metricsInput{}, fmt.Errorf("invalid metrics input: %w", err)
	}
	return in, nil
}
