package ai

import "context"

// Kind names the analysis a completion is for.
type Kind string

const (
	KindOperational Kind = "operational"
	KindRevenue     Kind = "revenue"
	KindBrief       Kind = "brief"
)

// Request is one text-completion call. Mode travels with the request so the
// dispatcher never consults shared state.
type Request struct {
	Mode      Mode
	Kind      Kind
	System    string
	Prompt    string
	MaxTokens int
}

// Client is the hosted-LLM collaborator.
type Client interface {
	// Complete returns the full response text.
	Complete(ctx context.Context, req Request) (string, error)
	// Stream calls onDelta for every chunk as it arrives and returns the
	// settled text once the stream ends.
	Stream(ctx context.Context, req Request, onDelta func(delta string)) (string, error)
}

// Prober checks that the live provider is reachable.
type Prober interface {
	Ping(ctx context.Context) error
}
