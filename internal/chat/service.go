// Package chat implements one conversation turn: input validation, the quit
// command, context building, the completion call and the Continue action.
package chat

import (
	"context"
	"log"
	"strings"
	"time"

	"llama-chatter/internal/config"
	"llama-chatter/internal/llm"
	"llama-chatter/internal/storage"
	"llama-chatter/internal/transcript"
)

const quitCmd = "quit"

const (
	actionSend     = "send"
	actionContinue = "continue"
)

// Reply is what a surface renders after one Send or Continue.
type Reply struct {
	Text     string
	Complete bool
	// Error is set when Text is a synthetic failure notice.
	Error bool
	Kind  llm.Kind
	// Quit is set when the input was the quit command and the transcript was reset.
	Quit             bool
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// ShowContinue reports whether a surface should offer the Continue action.
func (r Reply) ShowContinue() bool {
	return !r.Complete && !r.Error && !r.Quit
}

// Options configure a Service. The zero value sends the full transcript and
// records nothing.
type Options struct {
	Mode     config.ContextMode
	Recorder storage.Recorder
	// Surface tags recorded events ("web", "repl", "telegram").
	Surface string
}

// Service runs conversation turns against an llm.Client. It holds no
// conversation state itself: callers pass the session transcript and must
// serialize access to it, as history.Manager.Update does.
type Service struct {
	client   llm.Client
	recorder storage.Recorder
	mode     config.ContextMode
	surface  string
	now      func() time.Time
}

// New returns a Service calling client. An empty Mode means config.ContextFull.
func New(client llm.Client, opts Options) *Service {
	mode := opts.Mode
	if mode == "" {
		mode = config.ContextFull
	}
	return &Service{
		client:   client,
		recorder: opts.Recorder,
		mode:     mode,
		surface:  opts.Surface,
		now:      time.Now,
	}
}

// IsQuit reports whether input is the quit command, ignoring case and
// surrounding space.
func IsQuit(input string) bool {
	return strings.EqualFold(strings.TrimSpace(input), quitCmd)
}

// Send handles one user message: it rejects empty input, resets t on quit,
// and otherwise appends the user turn and the model reply to t.
// Model failures never surface as errors: they become an error entry in t
// so the user can simply retry. The only returned error is ErrEmptyInput.
func (s *Service) Send(ctx context.Context, session string, t *transcript.Transcript, input string) (Reply, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Reply{}, ErrEmptyInput
	}
	if IsQuit(input) {
		s.Clear(t)
		log.Printf("session %s: conversation reset by quit", session)
		return Reply{Text: GoodbyeMessage, Complete: true, Quit: true}, nil
	}

	t.AppendUser(input)

	var msgs []llm.Message
	if s.mode == config.ContextLatest {
		msgs = []llm.Message{{Role: llm.RoleUser, Content: input}}
	} else {
		msgs = t.Messages()
	}
	return s.exchange(ctx, session, actionSend, input, msgs, t), nil
}

// Continue re-prompts the model with the last assistant reply and appends
// exactly one new entry. The wrapper prompt is not stored in t.
func (s *Service) Continue(ctx context.Context, session string, t *transcript.Transcript) (Reply, error) {
	last, ok := t.Last()
	if !ok {
		return Reply{}, ErrNothingToContinue
	}
	if last.Role != llm.RoleAssistant || last.Error {
		return Reply{}, ErrNotAssistantReply
	}

	prompt := ContinuePrompt(last.Content)
	var msgs []llm.Message
	if s.mode == config.ContextFull {
		msgs = t.Messages()
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: prompt})
	return s.exchange(ctx, session, actionContinue, prompt, msgs, t), nil
}

// Clear empties t regardless of its length.
func (s *Service) Clear(t *transcript.Transcript) {
	t.Reset()
}

func (s *Service) exchange(ctx context.Context, session, action, userText string, msgs []llm.Message, t *transcript.Transcript) Reply {
	resp, err := s.client.Generate(ctx, msgs)

	var reply Reply
	if err != nil {
		reply = Reply{Text: ErrorMessage(err), Complete: true, Error: true, Kind: llm.Classify(err)}
		log.Printf("session %s: %s failed [kind=%s]: %v", session, action, reply.Kind, err)
	} else {
		reply = Reply{
			Text:             resp.Content,
			Complete:         IsComplete(resp.Content),
			Model:            resp.Model,
			PromptTokens:     resp.PromptTokens,
			CompletionTokens: resp.CompletionTokens,
		}
		log.Printf("session %s: LLM response [model=%s, finish=%s, tokens: prompt=%d, completion=%d, total=%d, complete=%t]",
			session, resp.Model, resp.FinishReason, resp.PromptTokens, resp.CompletionTokens, resp.TotalTokens, reply.Complete)
	}

	t.Append(transcript.Entry{
		Role:     llm.RoleAssistant,
		Content:  reply.Text,
		Error:    reply.Error,
		Complete: reply.Complete,
	})
	s.record(session, action, userText, reply)
	return reply
}

func (s *Service) record(session, action, userText string, reply Reply) {
	if s.recorder == nil {
		return
	}
	ev := storage.Event{
		Timestamp:         s.now().UTC(),
		Session:           session,
		Surface:           s.surface,
		Action:            action,
		UserMessage:       userText,
		AssistantResponse: reply.Text,
		Model:             reply.Model,
		Complete:          reply.Complete,
		PromptTokens:      reply.PromptTokens,
		CompletionTokens:  reply.CompletionTokens,
	}
	if reply.Error {
		ev.Error = reply.Kind.String()
	}
	if err := s.recorder.AppendInteraction(ev); err != nil {
		log.Printf("failed to record interaction: %v", err)
	}
}
