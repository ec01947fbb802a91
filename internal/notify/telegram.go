package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"sensorwatch/internal/config"
	"sensorwatch/internal/domain"
	"sensorwatch/internal/permanent"

	tgbot "github.com/go-telegram/bot"
)

// TelegramSender posts emitted notifications to one Telegram chat.
// Params: bot client and destination chat.
// Returns: telegram delivery channel.
type TelegramSender struct {
	client     *tgbot.Bot
	chatID     any
	capability staticCapability
	initErr    error
}

// NewTelegramSender creates telegram sender from channel config.
// Params: telegram channel config.
// Returns: sender; credential problems surface as permanent send errors.
func NewTelegramSender(cfg config.TelegramNotifier) *TelegramSender {
	sender := &TelegramSender{
		chatID:     normalizeChatID(cfg.ChatID),
		capability: staticCapability{supported: true, permission: PermissionGranted},
	}

	if strings.TrimSpace(cfg.BotToken) == "" {
		sender.initErr = errors.New("telegram bot token is required")
		return sender
	}
	if strings.TrimSpace(cfg.ChatID) == "" {
		sender.initErr = errors.New("telegram chat_id is required")
		return sender
	}

	options := []tgbot.Option{tgbot.WithSkipGetMe()}
	if strings.TrimSpace(cfg.APIBase) != "" {
		options = append(options, tgbot.WithServerURL(strings.TrimRight(cfg.APIBase, "/")))
	}
	botClient, err := tgbot.New(cfg.BotToken, options...)
	if err != nil {
		sender.initErr = fmt.Errorf("init telegram bot: %w", err)
		return sender
	}
	sender.client = botClient
	return sender
}

// Channel returns sender channel name.
// Params: none.
// Returns: static channel key.
func (s *TelegramSender) Channel() string {
	return config.NotifyChannelTelegram
}

// Capability returns the sender's permission gate.
// Params: none.
// Returns: always-granted capability; config validation owns credentials.
func (s *TelegramSender) Capability() Capability {
	return s.capability
}

// Send posts one notification message to the configured chat.
// Params: context and notification payload.
// Returns: transport error; init errors are permanent.
func (s *TelegramSender) Send(ctx context.Context, notification domain.Notification) error {
	if s.initErr != nil {
		return permanent.Mark(s.initErr)
	}
	if s.client == nil {
		return permanent.Mark(errors.New("telegram client is not initialized"))
	}

	request := &tgbot.SendMessageParams{
		ChatID: s.chatID,
		Text:   formatMessage(notification),
		// Low-priority alerts arrive silently.
		DisableNotification: notification.Priority == domain.PriorityLow,
	}
	if _, err := s.client.SendMessage(ctx, request); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// formatMessage renders one notification body for chat transports.
// Params: notification payload.
// Returns: plain-text message with rule name, priority, and reading context.
func formatMessage(notification domain.Notification) string {
	var b strings.Builder
	b.WriteString(notification.RuleName)
	b.WriteString(" [")
	b.WriteString(string(notification.Priority))
	b.WriteString("]\n")
	b.WriteString(notification.Message)
	fmt.Fprintf(&b, "\n%.1f°C  %.1f%%  %s",
		notification.Reading.Temperature,
		notification.Reading.Humidity,
		notification.Reading.Status)
	return b.String()
}

// normalizeChatID converts numeric chat ids to int64 for the bot API.
// Params: raw chat id value.
// Returns: int64 for numeric ids, original string otherwise.
func normalizeChatID(raw string) any {
	raw = strings.TrimSpace(raw)
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return id
	}
	return raw
}
