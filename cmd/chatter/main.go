package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"llama-chatter/internal/analytics"
	"llama-chatter/internal/auth"
	"llama-chatter/internal/chat"
	"llama-chatter/internal/config"
	"llama-chatter/internal/console"
	"llama-chatter/internal/history"
	"llama-chatter/internal/llm"
	"llama-chatter/internal/scheduler"
	"llama-chatter/internal/storage"
	"llama-chatter/internal/telegram"
	"llama-chatter/internal/web"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	var addr string

	rootCmd := &cobra.Command{
		Use:   "chatter",
		Short: "Chat with an NVIDIA-hosted LLaMA model",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWeb(cmd.Context(), addr)
		},
		SilenceUsage: true,
	}

	webCmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the single-page chat UI (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWeb(cmd.Context(), addr)
		},
	}
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "", "listen address for the web UI (overrides HTTP_ADDR)")

	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Chat in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd.Context())
		},
	}

	telegramCmd := &cobra.Command{
		Use:   "telegram",
		Short: "Run the chat as a Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTelegram(cmd.Context())
		},
	}

	var (
		statsLog  string
		statsDate string
		statsJSON bool
	)
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise one day of the interaction log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(statsLog, statsDate, statsJSON)
		},
	}
	statsCmd.Flags().StringVar(&statsLog, "log", os.Getenv("LOG_FILE_PATH"), "interaction log path (defaults to LOG_FILE_PATH)")
	statsCmd.Flags().StringVar(&statsDate, "date", "", "day to summarise as YYYY-MM-DD (default today, UTC)")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print JSON instead of text")

	rootCmd.AddCommand(webCmd, replCmd, telegramCmd, statsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// mustLoadConfig treats a missing API key as fatal.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// newChatService returns the service and a func that closes the interaction log.
func newChatService(cfg *config.Config, surface string) (*chat.Service, func()) {
	client := llm.NewOpenAI(cfg.APIKey, cfg.BaseURL, llm.Params{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
		MaxTokens:   cfg.MaxTokens,
	}, cfg.Timeout)

	var (
		rec     storage.Recorder
		cleanup = func() {}
	)
	if cfg.LogFilePath != "" {
		fr, err := storage.OpenFileRecorder(cfg.LogFilePath)
		if err != nil {
			log.Printf("failed to init file recorder: %v", err)
		} else {
			rec = fr
			cleanup = func() {
				if err := fr.Close(); err != nil {
					log.Printf("failed to close interaction log: %v", err)
				}
			}
		}
	}

	log.Printf("using model %s at %s [context=%s, history=%d]", cfg.Model, cfg.BaseURL, cfg.ContextMode, cfg.HistoryLimit)
	return chat.New(client, chat.Options{Mode: cfg.ContextMode, Recorder: rec, Surface: surface}), cleanup
}

func startSweeper(cfg *config.Config, sessions *history.Manager) (*scheduler.Scheduler, error) {
	s := scheduler.New(sessions, cfg.SessionSweepSpec, cfg.SessionIdle)
	if err := s.Start(); err != nil {
		return nil, err
	}
	return s, nil
}

func runWeb(ctx context.Context, addr string) error {
	cfg := mustLoadConfig()
	if addr == "" {
		addr = cfg.HTTPAddr
	}

	sessions := history.NewManager(cfg.HistoryLimit)
	sweeper, err := startSweeper(cfg, sessions)
	if err != nil {
		return err
	}
	defer sweeper.Stop()

	svc, closeLog := newChatService(cfg, "web")
	defer closeLog()

	srv, err := web.New(svc, sessions, web.Options{
		Addr:         addr,
		WriteTimeout: cfg.Timeout + 30*time.Second,
		RateLimit:    cfg.RateLimit,
		RateBurst:    cfg.RateBurst,
		TrustProxy:   cfg.TrustProxy,
		Sweeper:      sweeper,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func runREPL(ctx context.Context) error {
	cfg := mustLoadConfig()
	svc, closeLog := newChatService(cfg, "repl")
	defer closeLog()
	r := console.New(svc, cfg.HistoryLimit, os.Stdin, os.Stdout)
	return r.Run(ctx)
}

func runTelegram(ctx context.Context) error {
	cfg := mustLoadConfig()
	if cfg.TelegramBotToken == "" {
		log.Fatalf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	sessions := history.NewManager(cfg.HistoryLimit)
	sweeper, err := startSweeper(cfg, sessions)
	if err != nil {
		return err
	}
	defer sweeper.Stop()

	svc, closeLog := newChatService(cfg, "telegram")
	defer closeLog()

	bot, err := telegram.New(cfg.TelegramBotToken, auth.New(cfg.AllowedUsers), svc, sessions)
	if err != nil {
		return err
	}
	bot.Start(ctx)
	return nil
}

func runStats(path, date string, asJSON bool) error {
	if path == "" {
		return fmt.Errorf("no interaction log: set LOG_FILE_PATH or pass --log")
	}
	day := time.Now().UTC()
	if date != "" {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", date, err)
		}
		day = d
	}

	lg, err := storage.ReadLog(path)
	if err != nil {
		return err
	}

	stats := analytics.AnalyzeDailyLogs(lg.Events, day)
	stats.SkippedLines = lg.Skipped
	if asJSON {
		out, err := stats.ToJSON()
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}
	fmt.Print(stats.Summary())
	return nil
}
