package openai

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"

	"github.com/docsight/docsight/internal/llm"
)

// ErrMissingAPIKey is returned when no API key was configured.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")

// Config for the OpenAI client.
type Config struct {
	APIKey string // if empty, falls back to env OPENAI_API_KEY
	Model  string // e.g., "gpt-5-mini"
}

type Client struct {
	client *openai.Client
	model  shared.ResponsesModel
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-5-mini"
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Client{
		client: &client,
		model:  shared.ResponsesModel(cfg.Model),
		logger: logger,
	}, nil
}

// Generate implements llm.Generator via the Responses API.
func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	start := time.Now()

	items := responses.ResponseInputParam{}
	if req.System != "" {
		items = append(items, responses.ResponseInputItemParamOfMessage(req.System, responses.EasyInputMessageRoleSystem))
	}
	items = append(items, responses.ResponseInputItemParamOfMessage(req.Prompt, responses.EasyInputMessageRoleUser))

	resp, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: c.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: items,
		},
	})
	if err != nil {
		c.logger.Error("llm.generate.http_error",
			"model", string(c.model),
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	output := strings.TrimSpace(resp.OutputText())
	if output == "" {
		return "", errors.New("model returned an empty response")
	}

	c.logger.Info("llm.generate.ok",
		"model", string(c.model),
		"response_len", len(output),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return output, nil
}
