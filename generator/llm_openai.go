package generator

import (
	"context"
	"errors"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const jsonOnlySystemPrompt = "You are an SEO research assistant. Respond with raw JSON only."

// OpenAILLM implements LLMClient using the official openai-go SDK (chat completions).
// It also serves OpenAI-compatible providers through BaseURL.
type OpenAILLM struct {
	Model    string
	Provider string
	client   openai.Client
}

func NewOpenAILLMFromConfig(cfg *LLMSettings) (*OpenAILLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; provide llm.api_key")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	return &OpenAILLM{Model: cfg.Model, Provider: provider, client: openai.NewClient(opts...)}, nil
}

func (o *OpenAILLM) Name() string { return o.Provider + ":" + o.Model }

func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if prompt.Shape != nil {
		msgs = append(msgs, openai.SystemMessage(jsonOnlySystemPrompt))
	}
	msgs = append(msgs, openai.UserMessage(prompt.Text))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.Model),
		Messages: msgs,
	}
	// JSON mode only admits a top-level object; array shapes rely on the prompt.
	if prompt.Shape != nil && prompt.Shape.Kind == ShapeObject {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &GenerationError{Err: errors.New("openai: empty choices")}
	}
	txt := resp.Choices[0].Message.Content
	if strings.TrimSpace(txt) == "" {
		return "", &GenerationError{Err: ErrEmptyResponse}
	}
	return txt, nil
}
