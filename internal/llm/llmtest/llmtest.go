// Package llmtest - сценарный llm.Provider для тестов.
// Ответы Text и WithTools берутся из двух независимых очередей.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"browserAgent/internal/llm"
)

// ErrExhausted возвращается, когда сценарий закончился раньше, чем запросы.
var ErrExhausted = errors.New("llmtest: очередь ответов пуста")

type textStep struct {
	text string
	err  error
}

type replyStep struct {
	reply llm.Reply
	err   error
}

type Provider struct {
	mu      sync.Mutex
	texts   []textStep
	replies []replyStep
	prompts []llm.Prompt
	tools   [][]llm.ToolSpec
}

func New() *Provider {
	return &Provider{}
}

// QueueText ставит в очередь ответ для следующего Text.
func (p *Provider) QueueText(text string) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.texts = append(p.texts, textStep{text: text})
	return p
}

func (p *Provider) QueueTextError(err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.texts = append(p.texts, textStep{err: err})
	return p
}

// QueueFinal ставит в очередь текстовый ответ для следующего WithTools.
func (p *Provider) QueueFinal(text string) *Provider {
	return p.QueueReply(llm.Final{Text: text})
}

// QueueCall ставит в очередь ответ с одним вызовом инструмента.
func (p *Provider) QueueCall(name string, args map[string]any) *Provider {
	return p.QueueReply(llm.ToolCalls{Calls: []llm.ToolCall{{Name: name, Args: args}}})
}

func (p *Provider) QueueReply(r llm.Reply) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, replyStep{reply: r})
	return p
}

func (p *Provider) QueueReplyError(err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, replyStep{err: err})
	return p
}

func (p *Provider) Vendor() string { return "scripted" }
func (p *Provider) Model() string  { return "scripted-1" }

func (p *Provider) Text(ctx context.Context, prompt llm.Prompt) (llm.Completion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, prompt)
	if err := ctx.Err(); err != nil {
		return llm.Completion{}, err
	}
	if len(p.texts) == 0 {
		return llm.Completion{}, ErrExhausted
	}
	step := p.texts[0]
	p.texts = p.texts[1:]
	return llm.Completion{Text: step.text}, step.err
}

func (p *Provider) WithTools(ctx context.Context, prompt llm.Prompt, tools []llm.ToolSpec) (llm.Reply, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, prompt)
	p.tools = append(p.tools, tools)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(p.replies) == 0 {
		return nil, ErrExhausted
	}
	step := p.replies[0]
	p.replies = p.replies[1:]
	return step.reply, step.err
}

// Prompts возвращает все запросы в порядке поступления.
func (p *Provider) Prompts() []llm.Prompt {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.Prompt(nil), p.prompts...)
}

// PromptsFor возвращает запросы одной роли.
func (p *Provider) PromptsFor(role llm.Role) []llm.Prompt {
	var out []llm.Prompt
	for _, pr := range p.Prompts() {
		if pr.Role == role {
			out = append(out, pr)
		}
	}
	return out
}

// ToolSets возвращает наборы инструментов, переданные в WithTools.
func (p *Provider) ToolSets() [][]llm.ToolSpec {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]llm.ToolSpec(nil), p.tools...)
}

// Pending сообщает, сколько ответов осталось в очередях.
func (p *Provider) Pending() (texts, replies int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.texts), len(p.replies)
}
