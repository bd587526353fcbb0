package domain

import "errors"

var (
	ErrSendingReplyFailed = errors.New("failed to send reply")
	ErrEmptyPrompt        = errors.New("empty prompt")
	ErrPluginNotFound     = errors.New("plugin not found")
	ErrInvalidPlugin      = errors.New("invalid plugin")
	ErrNoDatabase         = errors.New("no database connection")
)
