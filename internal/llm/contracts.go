package llm

import "context"

// Request is a single-turn generation request.
type Request struct {
	System string // optional system framing
	Prompt string
}

// Generator is the interface the agent depends on.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
