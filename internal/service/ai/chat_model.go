package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModelCompleter sends requests through an eino chat model such as the
// Ark vision model.
type ChatModelCompleter struct {
	chatModel   model.BaseChatModel
	temperature float32
	maxTokens   int
}

// NewChatModelCompleter wraps chatModel with fixed sampling options.
func NewChatModelCompleter(chatModel model.BaseChatModel, temperature float32, maxTokens int) *ChatModelCompleter {
	return &ChatModelCompleter{
		chatModel:   chatModel,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Complete builds a single user message, image part first, and returns the
// model's text.
func (c *ChatModelCompleter) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.chatModel.Generate(ctx, []*schema.Message{buildUserMessage(req)},
		model.WithTemperature(c.temperature),
		model.WithMaxTokens(c.maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("chat model generate: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("chat model returned no message")
	}
	return resp.Content, nil
}

func buildUserMessage(req Request) *schema.Message {
	if req.ImageURL == "" {
		return schema.UserMessage(req.Prompt)
	}
	return &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{
				Type:     schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{URL: req.ImageURL},
			},
			{
				Type: schema.ChatMessagePartTypeText,
				Text: req.Prompt,
			},
		},
	}
}
