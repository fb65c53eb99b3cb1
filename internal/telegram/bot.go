package telegram

import (
	"context"
	"fmt"
	"log"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"llama-chatter/internal/auth"
	"llama-chatter/internal/chat"
	"llama-chatter/internal/history"
	"llama-chatter/internal/transcript"
)

const (
	continueCmd = "continue"
	clearCmd    = "clear"

	// maxMessageLen is Telegram's limit for a single text message, in UTF-16 code units.
	maxMessageLen = 4096
)

const welcomeText = "Welcome to the NVIDIA LLaMA Chatbot! Type 'quit' to exit the conversation."

type Bot struct {
	api      *tgbotapi.BotAPI
	s        sender
	authSvc  *auth.Service
	chat     *chat.Service
	sessions *history.Manager
}

func New(botToken string, authSvc *auth.Service, svc *chat.Service, sessions *history.Manager) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Printf("authorized on telegram account @%s", api.Self.UserName)
	return &Bot{
		api:      api,
		s:        botAPISender{api: api},
		authSvc:  authSvc,
		chat:     svc,
		sessions: sessions,
	}, nil
}

// Start long-polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil {
		b.handleIncomingMessage(ctx, update.Message)
		return
	}
	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func sessionKey(chatID int64) string { return fmt.Sprintf("tg:%d", chatID) }

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	if !b.authSvc.IsAllowed(msg.From.ID) {
		log.Printf("Unauthorized access attempt by user ID: %d, username: @%s", msg.From.ID, msg.From.UserName)
		b.sendMessage(msg.Chat.ID, "Access denied.", nil)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	log.Printf("Incoming message from %d (@%s), %d chars", msg.From.ID, msg.From.UserName, len(msg.Text))

	key := sessionKey(msg.Chat.ID)
	var (
		reply chat.Reply
		err   error
	)
	b.sessions.Update(key, func(t *transcript.Transcript) {
		reply, err = b.chat.Send(ctx, key, t, msg.Text)
	})
	if err != nil {
		b.sendMessage(msg.Chat.ID, chat.Notice(err), nil)
		return
	}
	b.sendReply(msg.Chat.ID, reply)
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		b.sendMessage(msg.Chat.ID, welcomeText, nil)
	case clearCmd:
		b.sessions.Delete(sessionKey(msg.Chat.ID))
		b.sendMessage(msg.Chat.ID, "Conversation cleared.", nil)
	default:
		b.sendMessage(msg.Chat.ID, "Unknown command. Use /clear to reset the conversation.", nil)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.s.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("failed to answer callback: %v", err)
	}
	if cb.Message == nil || cb.Message.Chat == nil || cb.From == nil || !b.authSvc.IsAllowed(cb.From.ID) {
		return
	}
	chatID := cb.Message.Chat.ID
	key := sessionKey(chatID)

	switch cb.Data {
	case continueCmd:
		var (
			reply chat.Reply
			err   error
		)
		b.sessions.Update(key, func(t *transcript.Transcript) {
			reply, err = b.chat.Continue(ctx, key, t)
		})
		if err != nil {
			b.sendMessage(chatID, chat.Notice(err), nil)
			return
		}
		b.sendReply(chatID, reply)
	case clearCmd:
		b.sessions.Delete(key)
		b.sendMessage(chatID, "Conversation cleared.", nil)
	}
}

func (b *Bot) sendReply(chatID int64, reply chat.Reply) {
	if reply.Quit {
		b.sendMessage(chatID, reply.Text, nil)
		return
	}
	text := reply.Text
	if text == "" {
		text = "(empty response)"
	}
	b.sendMessage(chatID, text, keyboardFor(reply))
}

func keyboardFor(reply chat.Reply) *tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	if reply.ShowContinue() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("Continue", continueCmd))
	}
	row = append(row, tgbotapi.NewInlineKeyboardButtonData("Clear", clearCmd))
	kb := tgbotapi.NewInlineKeyboardMarkup(row)
	return &kb
}

// sendMessage splits text over Telegram's length limit; the keyboard goes on
// the last part.
func (b *Bot) sendMessage(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	parts := split(text, maxMessageLen)
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		if kb != nil && i == len(parts)-1 {
			msg.ReplyMarkup = *kb
		}
		if _, err := b.s.Send(msg); err != nil {
			log.Printf("failed to send message: %v", err)
		}
	}
}

// split cuts text into parts of at most limit UTF-16 code units without
// breaking a rune.
func split(text string, limit int) []string {
	var (
		parts []string
		cur   []rune
		units int
	)
	for _, r := range text {
		n := utf16.RuneLen(r)
		if n < 1 {
			n = 1
		}
		if units+n > limit && len(cur) > 0 {
			parts = append(parts, string(cur))
			cur, units = cur[:0], 0
		}
		cur = append(cur, r)
		units += n
	}
	if len(cur) > 0 || len(parts) == 0 {
		parts = append(parts, string(cur))
	}
	return parts
}
