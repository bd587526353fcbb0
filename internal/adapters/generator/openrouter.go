package generator

import (
	"context"
	"errors"
	"fmt"
	"wabot/internal/core/domain"

	"github.com/revrost/go-openrouter"
)

type OpenRouterClient interface {
	CreateChatCompletion(ctx context.Context,
		request openrouter.ChatCompletionRequest) (openrouter.ChatCompletionResponse, error)
}

type OpenRouter struct {
	client       OpenRouterClient
	systemPrompt string
}

func NewOpenRouter(apiKey, systemPrompt string) *OpenRouter {
	return &OpenRouter{
		systemPrompt: systemPrompt,
		client: openrouter.NewClient(
			apiKey,
			openrouter.WithXTitle("wabot"),
		),
	}
}

func (c *OpenRouter) GenerateFromPrompt(ctx context.Context, prompts []domain.Prompt) (domain.ModelResponse, error) {
	if len(prompts) == 0 {
		return domain.ModelResponse{}, domain.ErrEmptyPrompt
	}

	messages := make([]openrouter.ChatCompletionMessage, len(prompts)+1)

	messages[0] = openrouter.ChatCompletionMessage{
		Role: openrouter.ChatMessageRoleSystem,
		Content: openrouter.Content{
			Text: c.systemPrompt,
		},
	}

	for i, prompt := range prompts {
		role := openrouter.ChatMessageRoleUser
		if prompt.Author == domain.System {
			role = openrouter.ChatMessageRoleAssistant
		}

		messages[i+1] = openrouter.ChatCompletionMessage{
			Role: role,
			Content: openrouter.Content{
				Text: prompt.Prompt,
			},
		}
	}

	ccr := openrouter.ChatCompletionRequest{
		Messages: messages,
		Model:    prompts[len(prompts)-1].Model.Identifier,
	}

	resp, err := c.client.CreateChatCompletion(ctx, ccr)
	if err != nil {
		return domain.ModelResponse{}, fmt.Errorf("openrouter API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return domain.ModelResponse{}, errors.New("openrouter returned no choices")
	}

	return domain.ModelResponse{
		Response: resp.Choices[0].Message.Content.Text,
		Metadata: domain.ResponseMetadata{
			Model:            resp.Model,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}
