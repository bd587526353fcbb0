package port

import (
	"context"
	"wabot/internal/core/domain"
)

type TextGenerator interface {
	GenerateFromPrompt(ctx context.Context, prompts []domain.Prompt) (domain.ModelResponse, error)
}
