package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"llama-chatter/internal/chat"
	"llama-chatter/internal/llm"
	"llama-chatter/internal/transcript"
)

const sessionCookie = "chatter_session"

// Notices travel through the redirect as a short code.
const (
	noticeEmpty        = "empty"
	noticeGoodbye      = "goodbye"
	noticeNothing      = "nothing"
	noticeNotAssistant = "not-assistant"
	noticeCleared      = "cleared"
)

var noticeText = map[string]string{
	noticeEmpty:        chat.EmptyInputText,
	noticeGoodbye:      chat.GoodbyeMessage,
	noticeNothing:      chat.NothingToContinueText,
	noticeNotAssistant: chat.NotAssistantReplyText,
	noticeCleared:      "Conversation cleared.",
}

type entryView struct {
	Role    string
	Speaker string
	Content string
	Error   bool
}

type pageData struct {
	Title        string
	Entries      []entryView
	ShowContinue bool
	Notice       string
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	body := map[string]any{"status": "ok", "sessions": s.sessions.Len()}
	if s.opts.Sweeper != nil {
		body["sweeper_running"] = s.opts.Sweeper.IsRunning()
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	data := pageData{
		Title:  s.opts.Title,
		Notice: noticeText[r.URL.Query().Get("notice")],
	}
	entries := s.sessions.Get(id)
	for _, e := range entries {
		data.Entries = append(data.Entries, viewOf(e))
	}
	data.ShowContinue = continueAllowed(entries)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		log.Printf("failed to render page: %v", err)
	}
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	id := s.sessionID(w, r)
	input := r.PostForm.Get("message")

	var (
		reply chat.Reply
		err   error
	)
	s.sessions.Update(id, func(t *transcript.Transcript) {
		reply, err = s.chat.Send(r.Context(), sessionKey(id), t, input)
	})

	switch {
	case err != nil:
		s.redirect(w, r, noticeFor(err))
	case reply.Quit:
		s.redirect(w, r, noticeGoodbye)
	default:
		s.redirect(w, r, "")
	}
}

func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	var err error
	s.sessions.Update(id, func(t *transcript.Transcript) {
		_, err = s.chat.Continue(r.Context(), sessionKey(id), t)
	})
	s.redirect(w, r, noticeFor(err))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	s.sessions.Update(id, func(t *transcript.Transcript) { s.chat.Clear(t) })
	s.redirect(w, r, noticeCleared)
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, notice string) {
	target := "/"
	if notice != "" {
		target += "?notice=" + notice
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// sessionID reads the session cookie, issuing a new id when absent or malformed.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func sessionKey(id string) string { return "web:" + id }

func noticeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, chat.ErrEmptyInput):
		return noticeEmpty
	case errors.Is(err, chat.ErrNothingToContinue):
		return noticeNothing
	case errors.Is(err, chat.ErrNotAssistantReply):
		return noticeNotAssistant
	default:
		log.Printf("unexpected chat error: %v", err)
		return ""
	}
}

func viewOf(e transcript.Entry) entryView {
	speaker := "User"
	if e.Role == llm.RoleAssistant {
		speaker = "LLaMA"
	}
	return entryView{Role: e.Role, Speaker: speaker, Content: e.Content, Error: e.Error}
}

func continueAllowed(entries []transcript.Entry) bool {
	if len(entries) == 0 {
		return false
	}
	last := entries[len(entries)-1]
	return last.Role == llm.RoleAssistant && !last.Error && !last.Complete
}
