package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

func NewAnthropic(cfg VendorConfig) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY", ErrMissingCredential)
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-sonnet-20241022"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 900
	}

	// Повторы выполняет Instrument, у SDK они выключены.
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

func (a *Anthropic) Vendor() string { return "anthropic" }
func (a *Anthropic) Model() string  { return a.model }

func (a *Anthropic) params(p Prompt) anthropic.MessageNewParams {
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(a.maxTokens),
		System:    []anthropic.TextBlockParam{{Text: p.System}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(p.User)),
		},
	}
}

func (a *Anthropic) Text(ctx context.Context, p Prompt) (Completion, error) {
	msg, err := a.client.Messages.New(ctx, a.params(p))
	if err != nil {
		return Completion{}, a.wrapError(err)
	}
	var texts []string
	for _, block := range msg.Content {
		if block.Type == "text" {
			texts = append(texts, block.Text)
		}
	}
	return Completion{Text: strings.TrimSpace(strings.Join(texts, "")), Usage: anthropicUsage(msg.Usage)}, nil
}

// WithTools требует вызова инструмента (tool_choice any) и запрещает параллельные вызовы.
func (a *Anthropic) WithTools(ctx context.Context, p Prompt, tools []ToolSpec) (Reply, error) {
	params := a.params(p)
	defs, err := anthropicTools(tools)
	if err != nil {
		return nil, err
	}
	params.Tools = defs
	params.ToolChoice = anthropic.ToolChoiceUnionParam{
		OfAny: &anthropic.ToolChoiceAnyParam{DisableParallelToolUse: anthropic.Bool(true)},
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, a.wrapError(err)
	}

	var calls []ToolCall
	var texts []string
	for _, block := range msg.Content {
		switch block.Type {
		case "tool_use":
			args, raw := decodeArgs(string(block.Input))
			calls = append(calls, ToolCall{ID: block.ID, Name: block.Name, Args: args, RawArgs: raw})
		case "text":
			texts = append(texts, block.Text)
		}
	}
	return reply(calls, strings.TrimSpace(strings.Join(texts, "\n")), anthropicUsage(msg.Usage)), nil
}

func anthropicTools(tools []ToolSpec) ([]anthropic.ToolUnionParam, error) {
	result := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		raw, err := json.Marshal(t.Parameters)
		if err != nil {
			return nil, fmt.Errorf("схема инструмента %s: %w", t.Name, err)
		}
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(raw, &schema); err != nil {
			return nil, fmt.Errorf("схема инструмента %s: %w", t.Name, err)
		}
		param := anthropic.ToolUnionParamOfTool(schema, t.Name)
		if param.OfTool == nil {
			return nil, fmt.Errorf("схема инструмента %s: пустое описание", t.Name)
		}
		param.OfTool.Description = anthropic.String(t.Description)
		result = append(result, param)
	}
	return result, nil
}

func (a *Anthropic) wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &APIError{Vendor: a.Vendor(), Status: apiErr.StatusCode, Err: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &APIError{Vendor: a.Vendor(), Err: err}
}

func anthropicUsage(u anthropic.Usage) Usage {
	return Usage{PromptTokens: int(u.InputTokens), CompletionTokens: int(u.OutputTokens)}
}
