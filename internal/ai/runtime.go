package ai

import "context"

// Runtime is a chat backend: one request in, one response or error out.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers accepted by --provider and default_provider.
const (
	ProviderDashScope = "dashscope"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderLocal     = "local"
)
