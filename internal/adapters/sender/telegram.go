package sender

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

type TelegramBot interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type TelegramSender struct {
	bot TelegramBot
}

func NewTelegramSender(bot TelegramBot) *TelegramSender {
	return &TelegramSender{bot: bot}
}

const TelegramMessageLimit = 4096

func (s *TelegramSender) SendText(ctx context.Context, chatID string, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}

	for _, chunk := range chunkText(text, TelegramMessageLimit) {
		_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: id,
			Text:   chunk,
		})
		if err != nil {
			log.Error().Err(err).Int64("chatId", id).Msg("failed to send message")
			return err
		}
	}

	return nil
}

// chunkText splits text into pieces of at most limit runes.
func chunkText(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	chunks := make([]string, 0, len(runes)/limit+1)
	for len(runes) > 0 {
		n := min(limit, len(runes))
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}

	return chunks
}
