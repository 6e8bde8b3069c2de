package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// VendorConfig - параметры подключения к одному вендору.
type VendorConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

type OpenAI struct {
	client    *openai.Client
	model     string
	maxTokens int
}

func NewOpenAI(cfg VendorConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingCredential)
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-5"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 900
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAI{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

func (o *OpenAI) Vendor() string { return "openai" }
func (o *OpenAI) Model() string  { return o.model }

func (o *OpenAI) messages(p Prompt) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: p.System},
		{Role: openai.ChatMessageRoleUser, Content: p.User},
	}
}

func (o *OpenAI) Text(ctx context.Context, p Prompt) (Completion, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               o.model,
		Messages:            o.messages(p),
		MaxCompletionTokens: o.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Completion{}, o.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return Completion{Usage: openAIUsage(resp.Usage)}, nil
	}
	return Completion{
		Text:  strings.TrimSpace(resp.Choices[0].Message.Content),
		Usage: openAIUsage(resp.Usage),
	}, nil
}

// WithTools запрещает параллельные вызовы: модель выбирает не больше одного действия за ход.
func (o *OpenAI) WithTools(ctx context.Context, p Prompt, tools []ToolSpec) (Reply, error) {
	defs := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               o.model,
		Messages:            o.messages(p),
		MaxCompletionTokens: o.maxTokens,
		Tools:               defs,
		ParallelToolCalls:   false,
	})
	if err != nil {
		return nil, o.wrapError(err)
	}

	usage := openAIUsage(resp.Usage)
	if len(resp.Choices) == 0 {
		return Final{Usage: usage}, nil
	}
	msg := resp.Choices[0].Message

	calls := make([]ToolCall, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		args, raw := decodeArgs(tc.Function.Arguments)
		calls = append(calls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Args: args, RawArgs: raw})
	}
	return reply(calls, strings.TrimSpace(msg.Content), usage), nil
}

func (o *OpenAI) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Vendor: o.Vendor(), Status: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &APIError{Vendor: o.Vendor(), Status: reqErr.HTTPStatusCode, Err: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &APIError{Vendor: o.Vendor(), Err: err}
}

func openAIUsage(u openai.Usage) Usage {
	return Usage{PromptTokens: u.PromptTokens, CompletionTokens: u.CompletionTokens}
}
