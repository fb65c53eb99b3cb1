package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	client *openai.Client
	params Params
}

func NewOpenAI(apiKey, baseURL string, params Params, timeout time.Duration) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimRight(baseURL, "/")
	}
	config.HTTPClient = &http.Client{Timeout: timeout}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		params: params,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:       c.params.Model,
		Messages:    oaMsgs,
		Temperature: wireFloat(c.params.Temperature),
		TopP:        wireFloat(c.params.TopP),
		MaxTokens:   c.params.MaxTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create chat completion: %w", translate(err))
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("%w: response has no choices", ErrTransport)
	}

	out := Response{
		Content:      resp.Choices[0].Message.Content,
		Model:        c.params.Model,
		FinishReason: string(resp.Choices[0].FinishReason),
	}
	if resp.Model != "" {
		out.Model = resp.Model
	}
	out.PromptTokens = resp.Usage.PromptTokens
	out.CompletionTokens = resp.Usage.CompletionTokens
	out.TotalTokens = resp.Usage.TotalTokens
	return out, nil
}

// wireFloat maps zero to the smallest positive float32; go-openai drops
// zero-valued sampling fields from the request body.
func wireFloat(v float32) float32 {
	if v == 0 {
		return math.SmallestNonzeroFloat32
	}
	return v
}

// translate turns go-openai errors into the package's failure taxonomy.
func translate(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return statusError(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return statusError(reqErr.HTTPStatusCode, strings.TrimSpace(string(reqErr.Body)))
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

func statusError(code int, body string) error {
	if code == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrUnauthorized, body)
	}
	return &StatusError{Code: code, Body: body}
}
