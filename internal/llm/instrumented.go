package llm

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"browserAgent/internal/logger"

	"go.uber.org/zap"
)

// Metrics принимает наблюдения о запросах к модели.
type Metrics interface {
	ObserveLLMRequest(vendor, role, status string, elapsed time.Duration, tokens int)
}

type Sanitizer interface {
	Sanitize(text string) string
}

type InstrumentOptions struct {
	Log        *logger.Zap
	Limiter    *RateLimiter
	Counter    TokenCounter
	MaxTokens  int // резерв токенов под ответ при оценке запроса
	Retries    int
	RetryDelay time.Duration
	Journal    Journal
	Metrics    Metrics
	Sanitizer  Sanitizer
}

type instrumented struct {
	next Provider
	opts InstrumentOptions
}

// Instrument добавляет к адаптеру лимиты, повторы временных ошибок, логирование,
// метрики и запись в журнал. Ошибки конфигурации и ответы 4xx не повторяются.
func Instrument(p Provider, opts InstrumentOptions) Provider {
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.Counter == nil {
		opts.Counter = ApproxCounter{}
	}
	if opts.Retries == 0 {
		opts.Retries = 3
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 2 * time.Second
	}
	return &instrumented{next: p, opts: opts}
}

func (i *instrumented) Vendor() string { return i.next.Vendor() }
func (i *instrumented) Model() string  { return i.next.Model() }

func (i *instrumented) Text(ctx context.Context, p Prompt) (Completion, error) {
	var out Completion
	err := i.call(ctx, p, func(ctx context.Context) (Usage, string, error) {
		c, err := i.next.Text(ctx, p)
		out = c
		return c.Usage, c.Text, err
	})
	return out, err
}

func (i *instrumented) WithTools(ctx context.Context, p Prompt, tools []ToolSpec) (Reply, error) {
	var out Reply
	err := i.call(ctx, p, func(ctx context.Context) (Usage, string, error) {
		r, err := i.next.WithTools(ctx, p, tools)
		if err != nil {
			return Usage{}, "", err
		}
		out = r
		return r.TokenUsage(), RenderReply(r), nil
	})
	return out, err
}

func (i *instrumented) call(ctx context.Context, p Prompt, fn func(context.Context) (Usage, string, error)) error {
	estimate := i.opts.Counter.Count(p.System) + i.opts.Counter.Count(p.User) + i.opts.MaxTokens
	var (
		usage Usage
		text  string
	)
	start := time.Now()
	err := retryAction(ctx, i.opts.Retries, i.opts.RetryDelay, func() error {
		if lim := i.opts.Limiter; lim != nil {
			if err := lim.AllowRequest(ctx); err != nil {
				return err
			}
			if err := lim.AllowTokens(ctx, estimate); err != nil {
				return err
			}
		}
		var err error
		usage, text, err = fn(ctx)
		return err
	}, func(attempt int, err error) {
		i.opts.Log.Warn("Повтор запроса к модели",
			zap.String("vendor", i.Vendor()),
			zap.String("role", string(p.Role)),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	})
	elapsed := time.Since(start)

	if lim := i.opts.Limiter; lim != nil && usage.Total() > estimate {
		lim.ConsumeTokens(usage.Total() - estimate)
	}

	status := "ok"
	if err != nil {
		status = "error"
		i.opts.Log.Error("Ошибка запроса к модели",
			zap.String("vendor", i.Vendor()),
			zap.String("role", string(p.Role)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
	} else {
		i.opts.Log.Debug("Ответ модели",
			zap.String("vendor", i.Vendor()),
			zap.String("model", i.Model()),
			zap.String("role", string(p.Role)),
			zap.Duration("elapsed", elapsed),
			zap.Int("tokens", usage.Total()))
	}
	if i.opts.Metrics != nil {
		i.opts.Metrics.ObserveLLMRequest(i.Vendor(), string(p.Role), status, elapsed, usage.Total())
	}

	if i.opts.Journal != nil {
		response := text
		if err != nil {
			response = "Ошибка: " + err.Error()
		}
		promptText := p.System + "\n\n" + p.User
		if s := i.opts.Sanitizer; s != nil {
			promptText, response = s.Sanitize(promptText), s.Sanitize(response)
		}
		if jerr := i.opts.Journal.LogLLMRequest(ctx, TaskIDFrom(ctx), nil, string(p.Role), promptText, response, i.Model(), usage.Total()); jerr != nil {
			i.opts.Log.Warn("Не удалось записать запрос к модели в журнал", zap.Error(jerr))
		}
	}
	return err
}

// RenderReply превращает ответ в строку для логов: текст или вызовы по одному на строку.
func RenderReply(r Reply) string {
	switch v := r.(type) {
	case Final:
		return v.Text
	case ToolCalls:
		lines := make([]string, 0, len(v.Calls))
		for _, c := range v.Calls {
			lines = append(lines, c.Name+" "+RenderArgs(c))
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}

// RenderArgs возвращает аргументы вызова в JSON или исходную строку, если JSON не разобрался.
func RenderArgs(c ToolCall) string {
	if c.Args == nil {
		return c.RawArgs
	}
	data, err := json.Marshal(c.Args)
	if err != nil {
		return c.RawArgs
	}
	return string(data)
}
