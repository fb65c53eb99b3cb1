package chat

import (
	"errors"

	"llama-chatter/internal/llm"
)

const (
	AuthErrorMessage      = "Authentication Error: Invalid API key or insufficient permissions."
	ProcessingErrorPrefix = "Error occurred while processing your request: "
	GoodbyeMessage        = "Goodbye!"
	NothingToContinueText = "No previous response to continue."
	NotAssistantReplyText = "Last entry is not a model response."
	EmptyInputText        = "Please enter a message."
)

var (
	ErrEmptyInput        = errors.New("empty input")
	ErrNothingToContinue = errors.New("no previous response to continue")
	ErrNotAssistantReply = errors.New("last entry is not a model response")
)

// ErrorMessage renders a client failure as the text shown to the user.
func ErrorMessage(err error) string {
	switch llm.Classify(err) {
	case llm.KindNone:
		return ""
	case llm.KindAuth:
		return AuthErrorMessage
	case llm.KindStatus:
		var se *llm.StatusError
		errors.As(err, &se)
		return ProcessingErrorPrefix + se.Error()
	default:
		return ProcessingErrorPrefix + err.Error()
	}
}

// Notice maps the service's own errors to user-facing text.
func Notice(err error) string {
	switch {
	case errors.Is(err, ErrEmptyInput):
		return EmptyInputText
	case errors.Is(err, ErrNothingToContinue):
		return NothingToContinueText
	case errors.Is(err, ErrNotAssistantReply):
		return NotAssistantReplyText
	case err == nil:
		return ""
	default:
		return err.Error()
	}
}
