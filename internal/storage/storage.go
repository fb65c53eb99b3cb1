package storage

import "time"

// Event is one exchange between a session and the model. It is an audit
// record only and is never replayed into a transcript.
type Event struct {
	Timestamp         time.Time `json:"timestamp"`
	Session           string    `json:"session"`
	Surface           string    `json:"surface"`
	Action            string    `json:"action"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
	Model             string    `json:"model,omitempty"`
	Complete          bool      `json:"complete"`
	Error             string    `json:"error,omitempty"`
	PromptTokens      int       `json:"prompt_tokens,omitempty"`
	CompletionTokens  int       `json:"completion_tokens,omitempty"`
}

// Recorder persists interaction events in the order they are appended.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendInteraction(event Event) error
}
