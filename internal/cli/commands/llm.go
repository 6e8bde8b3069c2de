package commands

import (
	"context"
	"fmt"
	"io"

	"browserAgent/internal/agent"
	"browserAgent/internal/cli/ui"
	"browserAgent/internal/llm"
)

// LLMHandler проверяет связь с моделью: запрашивает только план задачи.
type LLMHandler struct {
	provider llm.Provider
	out      io.Writer
}

func NewLLMHandler(provider llm.Provider, out io.Writer) *LLMHandler {
	return &LLMHandler{provider: provider, out: out}
}

func (h *LLMHandler) TestPlan(ctx context.Context, task string) {
	if h.provider == nil {
		ui.Errorf(h.out, "Модель не настроена")
		return
	}
	ui.Infof(h.out, "%s Запрос к %s (%s)...", ui.IconBrain, h.provider.Vendor(), h.provider.Model())
	plan, err := agent.MakePlan(ctx, h.provider, task, "")
	if err != nil {
		ui.Errorf(h.out, "Ошибка: %v", err)
		return
	}

	fmt.Fprintln(h.out, ui.ColorGreen+ui.IconCheckmark+" План:"+ui.ColorReset)
	fmt.Fprintf(h.out, "  "+ui.ColorCyan+"Цель:"+ui.ColorReset+" %s\n", plan.Goal)
	fmt.Fprintf(h.out, "  "+ui.ColorCyan+"Стратегия:"+ui.ColorReset+" %s\n", plan.Strategy)
	for i, c := range plan.Checkpoints {
		fmt.Fprintf(h.out, "  %d. %s\n", i+1, c)
	}
}
