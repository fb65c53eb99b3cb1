package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"llama-chatter/internal/chat"
	"llama-chatter/internal/history"
)

//go:embed templates/*.html
var templatesFS embed.FS

const defaultTitle = "NVIDIA LLaMA Chatbot"

// SweeperStatus is the part of the session sweeper that /health reports.
type SweeperStatus interface {
	IsRunning() bool
}

type Options struct {
	Addr  string
	Title string
	// WriteTimeout must cover one full completion call.
	WriteTimeout time.Duration
	// RateLimit caps model-bound requests per client per second; zero disables it.
	RateLimit float64
	RateBurst int
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxy bool
	// Sweeper, when set, is reported by /health.
	Sweeper SweeperStatus
}

// Server is the single-page chat surface.
type Server struct {
	chat     *chat.Service
	sessions *history.Manager
	page     *template.Template
	opts     Options
	limiter  *ipLimiter
	server   *http.Server
}

func New(svc *chat.Service, sessions *history.Manager, opts Options) (*Server, error) {
	page, err := template.ParseFS(templatesFS, "templates/page.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	if opts.Title == "" {
		opts.Title = defaultTitle
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 90 * time.Second
	}
	srv := &Server{chat: svc, sessions: sessions, page: page, opts: opts}
	if opts.RateLimit > 0 {
		srv.limiter = newIPLimiter(opts.RateLimit, opts.RateBurst)
	}
	return srv, nil
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if s.opts.TrustProxy {
		r.Use(middleware.RealIP)
	}

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Post("/clear", s.handleClear)

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.middleware)
		}
		r.Post("/send", s.handleSend)
		r.Post("/continue", s.handleContinue)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting chat web server on %s", s.opts.Addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Println("shutting down chat web server")
	return s.server.Shutdown(shutdownCtx)
}
