package service

import (
	"github.com/rs/zerolog/log"
)

type Authorizer interface {
	IsAuthorized(chatID string) bool
}

// ChatAuthorizer restricts command handling to an allowlist of chats. An empty allowlist admits every chat.
type ChatAuthorizer struct {
	allowlist map[string]struct{}
}

func NewAuthorizer(chatIDs []string) *ChatAuthorizer {
	list := make(map[string]struct{}, len(chatIDs))
	for _, id := range chatIDs {
		if id == "" {
			continue
		}
		list[id] = struct{}{}
	}

	return &ChatAuthorizer{allowlist: list}
}

func (a *ChatAuthorizer) IsAuthorized(chatID string) bool {
	if len(a.allowlist) == 0 {
		return true
	}

	if _, ok := a.allowlist[chatID]; ok {
		return true
	}

	log.Debug().Str("chatId", chatID).Msg("chat not in allowlist")
	return false
}
