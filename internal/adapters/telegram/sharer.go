package telegram

import (
	"bytes"
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	telebot "gopkg.in/telebot.v3"

	"reviewpasta/internal/domain"
)

// Sender is the part of *telebot.Bot the sharer needs.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Sharer posts QR images to a fixed Telegram chat.
type Sharer struct {
	bot  Sender
	chat telebot.ChatID
}

// New builds a sharer from a bot token. No token means no share target, and
// the caller should pass a nil domain.Sharer instead.
func New(token string, chatID int64) (*Sharer, error) {
	if token == "" || chatID == 0 {
		return nil, domain.ErrShareUnavailable
	}
	b, err := telebot.NewBot(telebot.Settings{
		Token:   token,
		Offline: true, // send-only, no getMe round-trip or polling
		OnError: func(err error, _ telebot.Context) {
			log.Error().Err(err).Msg("telegram error")
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Telegram bot")
	}
	return NewWithSender(b, chatID), nil
}

func NewWithSender(s Sender, chatID int64) *Sharer {
	return &Sharer{bot: s, chat: telebot.ChatID(chatID)}
}

func (s *Sharer) Share(ctx context.Context, f domain.QRFile) error {
	if s == nil || s.bot == nil {
		return domain.ErrShareUnavailable
	}

	var what interface{}
	file := telebot.FromReader(bytes.NewReader(f.Data))
	if f.ContentType == "image/png" {
		what = &telebot.Photo{File: file, Caption: f.Caption}
	} else {
		what = &telebot.Document{File: file, FileName: f.Name, MIME: f.ContentType, Caption: f.Caption}
	}

	// telebot has no context support; run the send and stop waiting on cancel.
	done := make(chan error, 1)
	go func() {
		_, err := s.bot.Send(s.chat, what)
		done <- err
	}()

	start := time.Now()
	select {
	case <-ctx.Done():
		err := errors.Wrap(ctx.Err(), "telegram send")
		// a deadline is a failed share, only an explicit cancel is the user's choice
		if errors.Is(ctx.Err(), context.Canceled) {
			return errors.Mark(err, domain.ErrShareCancelled)
		}
		return err
	case err := <-done:
		if err != nil {
			return errors.Wrap(err, "telegram send")
		}
		log.Info().Str("file", f.Name).Dur("took", time.Since(start)).Msg("qr shared to telegram")
		return nil
	}
}
