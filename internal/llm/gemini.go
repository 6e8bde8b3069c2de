package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"google.golang.org/genai"
)

type Gemini struct {
	client    *genai.Client
	model     string
	maxTokens int
}

func NewGemini(ctx context.Context, cfg VendorConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingCredential)
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 900
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: ошибка создания клиента: %w", err)
	}

	return &Gemini{client: client, model: cfg.Model, maxTokens: cfg.MaxTokens}, nil
}

func (g *Gemini) Vendor() string { return "gemini" }
func (g *Gemini) Model() string  { return g.model }

func (g *Gemini) config(p Prompt) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: p.System}}},
		MaxOutputTokens:   int32(min(g.maxTokens, math.MaxInt32)),
	}
}

func (g *Gemini) contents(p Prompt) []*genai.Content {
	return []*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: p.User}}}}
}

func (g *Gemini) Text(ctx context.Context, p Prompt) (Completion, error) {
	cfg := g.config(p)
	cfg.ResponseMIMEType = "application/json"

	resp, err := g.client.Models.GenerateContent(ctx, g.model, g.contents(p), cfg)
	if err != nil {
		return Completion{}, g.wrapError(err)
	}
	_, text := geminiParts(resp)
	return Completion{Text: text, Usage: geminiUsage(resp)}, nil
}

func (g *Gemini) WithTools(ctx context.Context, p Prompt, tools []ToolSpec) (Reply, error) {
	cfg := g.config(p)
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  GeminiSchema(t.Parameters),
		})
	}
	cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, g.contents(p), cfg)
	if err != nil {
		return nil, g.wrapError(err)
	}
	calls, text := geminiParts(resp)
	return reply(calls, text, geminiUsage(resp)), nil
}

// geminiParts собирает вызов функции и текст первого кандидата. У Gemini нет запрета
// параллельных вызовов, поэтому берется только первый: за ход выполняется один вызов.
func geminiParts(resp *genai.GenerateContentResponse) ([]ToolCall, string) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ""
	}
	var calls []ToolCall
	var texts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if fc := part.FunctionCall; fc != nil {
			if len(calls) > 0 {
				continue
			}
			args := fc.Args
			if args == nil {
				args = map[string]any{}
			}
			calls = append(calls, ToolCall{ID: fc.ID, Name: fc.Name, Args: args})
			continue
		}
		if part.Text != "" && !part.Thought {
			texts = append(texts, part.Text)
		}
	}
	return calls, strings.TrimSpace(strings.Join(texts, ""))
}

func geminiUsage(resp *genai.GenerateContentResponse) Usage {
	if resp == nil || resp.UsageMetadata == nil {
		return Usage{}
	}
	return Usage{
		PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
		CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
	}
}

// GeminiSchema переводит JSON Schema в genai.Schema. Gemini понимает только
// подмножество ключей, остальные отбрасываются.
func GeminiSchema(schemaMap map[string]any) *genai.Schema {
	if schemaMap == nil {
		return nil
	}
	schema := &genai.Schema{}

	if t, ok := schemaMap["type"].(string); ok {
		schema.Type = genai.Type(strings.ToUpper(t))
	}
	if desc, ok := schemaMap["description"].(string); ok {
		schema.Description = desc
	}
	if enum, ok := schemaMap["enum"].([]any); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}
	if props, ok := schemaMap["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				schema.Properties[name] = GeminiSchema(propMap)
			}
		}
	}
	switch required := schemaMap["required"].(type) {
	case []any:
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	case []string:
		schema.Required = append(schema.Required, required...)
	}
	if items, ok := schemaMap["items"].(map[string]any); ok {
		schema.Items = GeminiSchema(items)
	}
	return schema
}

func (g *Gemini) wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Vendor: g.Vendor(), Status: apiErr.Code, Err: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &APIError{Vendor: g.Vendor(), Err: err}
}
