package gateway

import (
	"context"
	"fmt"
	"strconv"
	"wabot/internal/core/domain"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

// Telegram receives updates through long polling. The bot token authenticates the session, no pairing needed.
type Telegram struct {
	bot     *bot.Bot
	botID   int64
	inbound chan *domain.Message
}

func NewTelegram(token string) (*Telegram, error) {
	t := &Telegram{inbound: make(chan *domain.Message, inboundBuffer)}

	b, err := bot.New(token, bot.WithDefaultHandler(t.handleUpdate), bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("failed initializing telegram bot: %w", err)
	}
	t.bot = b

	return t, nil
}

// Bot exposes the underlying bot for the sender adapter.
func (t *Telegram) Bot() *bot.Bot {
	return t.bot
}

func (t *Telegram) Messages() <-chan *domain.Message {
	return t.inbound
}

func (t *Telegram) Connect(ctx context.Context) error {
	me, err := t.bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to authenticate telegram bot: %w", err)
	}
	t.botID = me.ID

	log.Info().Str("username", me.Username).Msg("connected to telegram")

	go t.bot.Start(ctx)

	return nil
}

func (t *Telegram) Disconnect() {
	log.Debug().Msg("telegram polling stops with its context")
}

func (t *Telegram) handleUpdate(_ context.Context, _ *bot.Bot, update *models.Update) {
	if msg := messageFromUpdate(update, t.botID); msg != nil {
		t.inbound <- msg
	}
}

// messageFromUpdate converts a telegram update. Updates that are not messages are dropped; captions stand in for
// text on media messages.
func messageFromUpdate(update *models.Update, botID int64) *domain.Message {
	if update == nil || update.Message == nil {
		return nil
	}

	m := update.Message

	msg := &domain.Message{
		ID:         strconv.Itoa(m.ID),
		ChatID:     strconv.FormatInt(m.Chat.ID, 10),
		HasContent: true,
		Text:       m.Text,
	}

	if msg.Text == "" {
		msg.Text = m.Caption
	}

	if m.From != nil {
		msg.SenderID = strconv.FormatInt(m.From.ID, 10)
		msg.FromMe = botID != 0 && m.From.ID == botID
	}

	if m.ReplyToMessage != nil {
		msg.QuotedText = m.ReplyToMessage.Text
		if msg.QuotedText == "" {
			msg.QuotedText = m.ReplyToMessage.Caption
		}
	}

	return msg
}
