package sender

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"
)

type WhatsAppClient interface {
	SendMessage(ctx context.Context, to types.JID, message *waE2E.Message,
		extra ...whatsmeow.SendRequestExtra) (whatsmeow.SendResponse, error)
}

type WhatsAppSender struct {
	client WhatsAppClient
}

func NewWhatsAppSender(client WhatsAppClient) *WhatsAppSender {
	return &WhatsAppSender{client: client}
}

func (s *WhatsAppSender) SendText(ctx context.Context, chatID string, text string) error {
	jid, err := types.ParseJID(chatID)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}

	resp, err := s.client.SendMessage(ctx, jid, &waE2E.Message{Conversation: proto.String(text)})
	if err != nil {
		log.Error().Err(err).Str("chatId", chatID).Msg("failed to send message")
		return err
	}

	log.Debug().Str("chatId", chatID).Str("messageId", string(resp.ID)).Msg("sent message")

	return nil
}
