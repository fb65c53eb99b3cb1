// Package console is a line-oriented terminal surface for the chat service.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"llama-chatter/internal/chat"
	"llama-chatter/internal/transcript"
)

const (
	continueCmd = "/continue"
	clearCmd    = "/clear"
	sessionKey  = "repl"
)

var (
	youStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	botStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	hintStyle  = lipgloss.NewStyle().Faint(true)
	titleStyle = lipgloss.NewStyle().Bold(true)
)

type REPL struct {
	chat *chat.Service
	t    *transcript.Transcript
	in   io.Reader
	out  io.Writer
}

func New(svc *chat.Service, limit int, in io.Reader, out io.Writer) *REPL {
	return &REPL{chat: svc, t: transcript.New(limit), in: in, out: out}
}

// Transcript exposes the conversation state, mostly for tests.
func (r *REPL) Transcript() *transcript.Transcript { return r.t }

// Run reads one line per turn until EOF or ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, titleStyle.Render("NVIDIA LLaMA Chatbot"))
	fmt.Fprintln(r.out, hintStyle.Render("Type 'quit' to reset the conversation, /continue to extend a cut-off reply, /clear to start over. Ctrl-D exits."))

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		s := bufio.NewScanner(r.in)
		for s.Scan() {
			select {
			case lines <- s.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- s.Err()
		close(lines)
	}()

	for {
		fmt.Fprint(r.out, youStyle.Render("You")+": ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out)
			return nil
		case line, ok = <-lines:
			if !ok {
				fmt.Fprintln(r.out)
				return <-scanErr
			}
		}
		r.handle(ctx, line)
	}
}

func (r *REPL) handle(ctx context.Context, line string) {
	var (
		reply chat.Reply
		err   error
	)
	switch strings.TrimSpace(line) {
	case continueCmd:
		reply, err = r.chat.Continue(ctx, sessionKey, r.t)
	case clearCmd:
		r.chat.Clear(r.t)
		fmt.Fprintln(r.out, hintStyle.Render("Conversation cleared."))
		return
	default:
		reply, err = r.chat.Send(ctx, sessionKey, r.t, line)
	}
	if err != nil {
		fmt.Fprintln(r.out, errStyle.Render(chat.Notice(err)))
		return
	}
	r.print(reply)
}

func (r *REPL) print(reply chat.Reply) {
	switch {
	case reply.Quit:
		fmt.Fprintln(r.out, reply.Text)
	case reply.Error:
		fmt.Fprintln(r.out, errStyle.Render(reply.Text))
	default:
		fmt.Fprintf(r.out, "%s: %s\n", botStyle.Render("LLaMA"), reply.Text)
		if reply.ShowContinue() {
			fmt.Fprintln(r.out, hintStyle.Render("(reply looks cut off, type /continue)"))
		}
	}
}
