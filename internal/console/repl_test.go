package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"llama-chatter/internal/chat"
	"llama-chatter/internal/llm"
)

type fakeLLM struct {
	replies []string
	err     error
	calls   int
}

func (f *fakeLLM) Generate(ctx context.Context, msgs []llm.Message) (llm.Response, error) {
	f.calls++
	if f.err != nil {
		return llm.Response{}, f.err
	}
	r := ""
	if len(f.replies) > 0 {
		r = f.replies[0]
		f.replies = f.replies[1:]
	}
	return llm.Response{Content: r}, nil
}

func run(t *testing.T, f *fakeLLM, input string) (*REPL, string) {
	t.Helper()
	var out bytes.Buffer
	r := New(chat.New(f, chat.Options{Surface: "repl"}), 20, strings.NewReader(input), &out)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	return r, out.String()
}

func TestREPL_ConversationAndContinue(t *testing.T) {
	f := &fakeLLM{replies: []string{"Half an answer", " and the rest."}}
	r, out := run(t, f, "hello\n/continue\n")

	if !strings.Contains(out, "Half an answer") || !strings.Contains(out, "and the rest.") {
		t.Fatalf("replies missing from output: %q", out)
	}
	if !strings.Contains(out, "/continue)") {
		t.Fatalf("cut-off hint missing: %q", out)
	}
	if f.calls != 2 || r.Transcript().Len() != 3 {
		t.Fatalf("calls=%d entries=%d", f.calls, r.Transcript().Len())
	}
}

func TestREPL_QuitAndClear(t *testing.T) {
	f := &fakeLLM{replies: []string{"One.", "Two."}}
	r, out := run(t, f, "a\nquit\nb\n/clear\n")
	if !strings.Contains(out, chat.GoodbyeMessage) || !strings.Contains(out, "Conversation cleared.") {
		t.Fatalf("unexpected output: %q", out)
	}
	if r.Transcript().Len() != 0 {
		t.Fatalf("transcript not cleared: %d", r.Transcript().Len())
	}
}

func TestREPL_ErrorsAreShownAndSessionContinues(t *testing.T) {
	f := &fakeLLM{err: errors.New("connection refused")}
	r, out := run(t, f, "hi\n/continue\n\n")
	if !strings.Contains(out, chat.ProcessingErrorPrefix) {
		t.Fatalf("processing error missing: %q", out)
	}
	if !strings.Contains(out, chat.NotAssistantReplyText) {
		t.Fatalf("continue on error reply should be refused: %q", out)
	}
	if !strings.Contains(out, chat.EmptyInputText) {
		t.Fatalf("empty line notice missing: %q", out)
	}
	if r.Transcript().Len() != 2 {
		t.Fatalf("want user + error entry, got %d", r.Transcript().Len())
	}
}

func TestREPL_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pr, pw := newBlockingReader()
	defer pw()
	var out bytes.Buffer
	r := New(chat.New(&fakeLLM{}, chat.Options{}), 20, pr, &out)

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

type blockingReader struct{ ch chan struct{} }

func (b blockingReader) Read(p []byte) (int, error) {
	<-b.ch
	return 0, errors.New("closed")
}

func newBlockingReader() (blockingReader, func()) {
	ch := make(chan struct{})
	return blockingReader{ch: ch}, func() { close(ch) }
}
