package llm

import "context"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Params are the fixed generation parameters sent with every request.
type Params struct {
	Model       string
	Temperature float32
	TopP        float32
	MaxTokens   int
}

type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}
