package port

import (
	"context"
	"wabot/internal/core/domain"
)

// Invocation is the per-message bundle handed to a plugin. It is only valid for the duration of Execute.
type Invocation struct {
	// Sender delivers replies through the session the message arrived on.
	Sender  TextSender
	Message *domain.Message
	Args    []string
	ChatID  string
	// DB is nil when no database connection is available.
	DB Database
}

type Plugin interface {
	// Name returns the command the plugin answers to. Matching is case-insensitive.
	Name() string
	// Description returns a short human-readable summary, may be empty.
	Description() string
	// Execute handles one command invocation.
	Execute(ctx context.Context, inv *Invocation) error
}

type PluginRegistry interface {
	// Resolve returns the plugin registered for a command token, or domain.ErrPluginNotFound.
	Resolve(command string) (Plugin, error)
	// List returns all registered plugins ordered by name.
	List() []Plugin
}
