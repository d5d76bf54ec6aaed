package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
}

// OpenAIClient serves both text completion and image generation.
type OpenAIClient struct {
	client     *openai.Client
	textModel  string
	imageModel string
}

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.TextModel == "" {
		cfg.TextModel = openai.GPT4oMini
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = openai.CreateImageModelDallE3
	}
	return &OpenAIClient{
		client:     openai.NewClientWithConfig(config),
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
	}
}

// toMessages folds consecutive parts with the same role into one message.
func toMessages(parts []MessagePart) []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage
	for _, p := range parts {
		var part openai.ChatMessagePart
		if p.ImageURL != "" {
			part = openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: p.ImageURL, Detail: openai.ImageURLDetailLow},
			}
		} else {
			part = openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: p.Text}
		}

		role := p.Role
		if role == "" {
			role = RoleUser
		}
		if n := len(messages); n > 0 && messages[n-1].Role == role {
			messages[n-1].MultiContent = append(messages[n-1].MultiContent, part)
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:         role,
			MultiContent: []openai.ChatMessagePart{part},
		})
	}

	// system messages only take plain content
	for i := range messages {
		if messages[i].Role != RoleSystem {
			continue
		}
		var texts []string
		for _, part := range messages[i].MultiContent {
			if part.Type == openai.ChatMessagePartTypeText {
				texts = append(texts, part.Text)
			}
		}
		messages[i].Content = strings.Join(texts, "\n\n")
		messages[i].MultiContent = nil
	}
	return messages
}

func (c *OpenAIClient) GenerateText(ctx context.Context, parts []MessagePart) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.textModel,
		Messages:    toMessages(parts),
		Temperature: 0.8,
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", c.textModel)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) GenerateImages(ctx context.Context, prompt string, n int, size string) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	if size == "" {
		size = openai.CreateImageSize1024x1024
	}

	// dall-e-3 only accepts n=1 per request
	perRequest := n
	if c.imageModel == openai.CreateImageModelDallE3 {
		perRequest = 1
	}

	var urls []string
	for len(urls) < n {
		resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
			Prompt:         prompt,
			Model:          c.imageModel,
			N:              perRequest,
			Size:           size,
			ResponseFormat: openai.CreateImageResponseFormatURL,
		})
		if err != nil {
			return urls, classifyOpenAIError(err)
		}
		before := len(urls)
		for _, d := range resp.Data {
			if d.URL != "" && len(urls) < n {
				urls = append(urls, d.URL)
			}
		}
		if len(urls) == before {
			break
		}
	}
	return urls, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return err
}
