package plugin

import (
	"context"
	"wabot/internal/core/domain"

	"github.com/stretchr/testify/mock"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendText(ctx context.Context, chatID string, text string) error {
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateFromPrompt(ctx context.Context, prompts []domain.Prompt) (domain.ModelResponse, error) {
	args := m.Called(ctx, prompts)
	return args.Get(0).(domain.ModelResponse), args.Error(1)
}
