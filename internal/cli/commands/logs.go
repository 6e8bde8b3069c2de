package commands

import (
	"context"
	"fmt"
	"io"

	"browserAgent/internal/cli/ui"
	"browserAgent/internal/observe"

	"go.uber.org/zap"
)

const (
	logsLimit  = 50
	textBudget = 200
)

// LogsHandler выводит обмен с моделью по задаче.
type LogsHandler struct {
	journal Journal
	out     io.Writer
	log     *zap.Logger
}

func NewLogsHandler(journal Journal, out io.Writer, log *zap.Logger) *LogsHandler {
	return &LogsHandler{journal: journal, out: out, log: log}
}

func (h *LogsHandler) Show(ctx context.Context, idStr string) {
	if h.journal == nil {
		ui.Errorf(h.out, "Журнал выключен (JOURNAL_DRIVER)")
		return
	}
	id, ok := parseID(h.out, idStr)
	if !ok {
		return
	}
	logs, err := h.journal.ListLLMLogs(ctx, id, logsLimit)
	if err != nil {
		h.log.Error("Ошибка чтения логов", zap.Uint("task_id", id), zap.Error(err))
		ui.Errorf(h.out, "Ошибка чтения логов: %v", err)
		return
	}
	if len(logs) == 0 {
		fmt.Fprintln(h.out, ui.ColorGray+"Логов нет"+ui.ColorReset)
		return
	}

	fmt.Fprintf(h.out, "\n"+ui.ColorBold+"=== %s Логи задачи #%d ==="+ui.ColorReset+"\n", ui.IconList, id)
	for _, l := range logs {
		fmt.Fprintf(h.out, ui.ColorGray+"[%s]"+ui.ColorReset+" "+ui.ColorCyan+"%s"+ui.ColorReset+" %s, токенов: %d\n",
			l.CreatedAt.Format("15:04:05"), l.Role, l.Model, l.TokensUsed)
		fmt.Fprintf(h.out, "  → %s\n", observe.Truncate(l.PromptText, textBudget))
		fmt.Fprintf(h.out, "  ← %s\n", observe.Truncate(l.ResponseText, textBudget))
	}
	fmt.Fprintln(h.out)
}
