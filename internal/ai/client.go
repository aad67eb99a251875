package ai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/hmiddleton/schoolpitch/internal/errors"
)

const MaxTokens = 4096

// defaultModel is passed as a plain string because the pinned client
// library predates a constant for it.
const defaultModel = "gpt-4o-mini"

// ErrNoAPIKey marks that text generation is unconfigured. Callers treat the
// feature as degraded rather than failing their whole operation.
var ErrNoAPIKey = errors.NewSentinel("text generation is not configured")

// Completer produces a chat completion for a system and user prompt pair.
// The web and CLI layers depend on this interface so tests can stub the
// remote service.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type Client struct {
	client *openai.Client
	model  string
}

// NewClient returns a Client, or nil when no API key is configured. A nil
// *Client is a valid Completer that always returns ErrNoAPIKey.
func NewClient(apiKey, model string) *Client {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c == nil {
		return "", ErrNoAPIKey
	}
	completion, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
			Model:     c.model,
			MaxTokens: MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
		},
	)
	if err != nil {
		return "", errors.Wrap(err, "create chat completion")
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// DecodeJSON unmarshals a completion into v, tolerating prose or markdown
// fences around the JSON object by slicing from the first '{' to the last
// '}'.
func DecodeJSON(completion string, v any) error {
	start := strings.Index(completion, "{")
	end := strings.LastIndex(completion, "}")
	if start == -1 || end == -1 || end < start {
		return errors.New("completion contains no JSON object")
	}
	if err := json.Unmarshal([]byte(completion[start:end+1]), v); err != nil {
		return errors.Wrap(err, "unmarshal completion")
	}
	return nil
}
