// Package llm сводит протоколы OpenAI, Anthropic и Gemini к двум операциям:
// запрос структурированного текста и запрос с набором инструментов.
// Ответ с инструментами - закрытый вариант Reply: либо Final, либо ToolCalls.
package llm

import (
	"context"
)

type Role string

const (
	RolePlanner Role = "planner"
	RoleActor   Role = "actor"
	RoleCritic  Role = "critic"
)

// Prompt - системная инструкция и единственное пользовательское сообщение.
type Prompt struct {
	Role   Role
	System string
	User   string
}

// ToolSpec описывает инструмент, доступный модели. Parameters - JSON Schema объекта аргументов.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall - нормализованный вызов инструмента. Если аргументы пришли не JSON-объектом,
// Args равен nil, а исходная строка сохраняется в RawArgs.
type ToolCall struct {
	ID      string
	Name    string
	Args    map[string]any
	RawArgs string
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

func (u Usage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}

type Completion struct {
	Text  string
	Usage Usage
}

// Reply - результат WithTools. Реализации: Final и ToolCalls.
type Reply interface {
	TokenUsage() Usage
	isReply()
}

// Final - текстовый ответ без вызова инструментов.
type Final struct {
	Text  string
	Usage Usage
}

// ToolCalls - вызовы в том порядке, в котором их вернула модель. Всегда не пуст.
type ToolCalls struct {
	Calls []ToolCall
	Usage Usage
}

func (f Final) TokenUsage() Usage     { return f.Usage }
func (t ToolCalls) TokenUsage() Usage { return t.Usage }
func (Final) isReply()                {}
func (ToolCalls) isReply()            {}

// Provider - адаптер одного вендора.
type Provider interface {
	Vendor() string
	Model() string
	// Text просит модель ответить JSON-объектом.
	Text(ctx context.Context, p Prompt) (Completion, error)
	WithTools(ctx context.Context, p Prompt, tools []ToolSpec) (Reply, error)
}

// Journal сохраняет обмен с моделью в аудит-журнал.
type Journal interface {
	LogLLMRequest(ctx context.Context, taskID *uint, stepID *uint, role, promptText, responseText, model string, tokensUsed int) error
}

type taskKey struct{}

// WithTaskID привязывает запросы к задаче журнала.
func WithTaskID(ctx context.Context, id uint) context.Context {
	return context.WithValue(ctx, taskKey{}, id)
}

func TaskIDFrom(ctx context.Context) *uint {
	if id, ok := ctx.Value(taskKey{}).(uint); ok {
		return &id
	}
	return nil
}

// reply собирает Reply из разобранных вызовов и текста.
func reply(calls []ToolCall, text string, usage Usage) Reply {
	if len(calls) > 0 {
		return ToolCalls{Calls: calls, Usage: usage}
	}
	return Final{Text: text, Usage: usage}
}
