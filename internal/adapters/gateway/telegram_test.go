package gateway

import (
	"testing"
	"wabot/internal/core/domain"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
)

func makeUpdate(txt string, fromID int64) *models.Update {
	return &models.Update{
		Message: &models.Message{
			ID:   1,
			Text: txt,
			Chat: models.Chat{ID: 100},
			From: &models.User{ID: fromID, Username: "bob", FirstName: "bob"},
		},
	}
}

func Test_messageFromUpdate(t *testing.T) {
	const botID = 999

	captioned := makeUpdate("", 200)
	captioned.Message.Caption = "!ask what is this"

	reply := makeUpdate("!ask explain", 200)
	reply.Message.ReplyToMessage = &models.Message{Text: "quoted"}

	tests := []struct {
		name   string
		update *models.Update
		want   *domain.Message
	}{
		{
			name:   "no message in update",
			update: &models.Update{},
			want:   nil,
		},
		{
			name:   "nil update",
			update: nil,
			want:   nil,
		},
		{
			name:   "text message",
			update: makeUpdate("!ping", 200),
			want: &domain.Message{
				ID:         "1",
				ChatID:     "100",
				SenderID:   "200",
				HasContent: true,
				Text:       "!ping",
			},
		},
		{
			name:   "caption stands in for text",
			update: captioned,
			want: &domain.Message{
				ID:         "1",
				ChatID:     "100",
				SenderID:   "200",
				HasContent: true,
				Text:       "!ask what is this",
			},
		},
		{
			name:   "reply carries quoted text",
			update: reply,
			want: &domain.Message{
				ID:         "1",
				ChatID:     "100",
				SenderID:   "200",
				HasContent: true,
				Text:       "!ask explain",
				QuotedText: "quoted",
			},
		},
		{
			name:   "message from the bot itself",
			update: makeUpdate("!ping", botID),
			want: &domain.Message{
				ID:         "1",
				ChatID:     "100",
				SenderID:   "999",
				FromMe:     true,
				HasContent: true,
				Text:       "!ping",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, messageFromUpdate(tc.update, botID))
		})
	}
}
