package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"browserAgent/internal/cli/ui"
	"browserAgent/internal/observe"

	"go.uber.org/zap"
)

// ShowHandler выводит задачу со всеми шагами и оценками критика.
type ShowHandler struct {
	journal Journal
	out     io.Writer
	log     *zap.Logger
}

func NewShowHandler(journal Journal, out io.Writer, log *zap.Logger) *ShowHandler {
	return &ShowHandler{journal: journal, out: out, log: log}
}

func (h *ShowHandler) Show(ctx context.Context, idStr string) {
	if h.journal == nil {
		ui.Errorf(h.out, "Журнал выключен (JOURNAL_DRIVER)")
		return
	}
	id, ok := parseID(h.out, idStr)
	if !ok {
		return
	}
	task, err := h.journal.GetTaskByID(ctx, id)
	if err != nil {
		ui.Errorf(h.out, "Задача #%d не найдена", id)
		return
	}

	_, color, statusText := ui.FormatStatus(task.Status)
	fmt.Fprintf(h.out, "\n"+ui.ColorBold+"=== Задача #%d ==="+ui.ColorReset+"\n", task.ID)
	fmt.Fprintf(h.out, ui.ColorCyan+"Задача:"+ui.ColorReset+" %s\n", task.UserInput)
	fmt.Fprintf(h.out, ui.ColorCyan+"Статус:"+ui.ColorReset+" %s%s"+ui.ColorReset+"\n", color, statusText)
	fmt.Fprintf(h.out, ui.ColorCyan+"Создана:"+ui.ColorReset+" %s\n", task.CreatedAt.Format("2006-01-02 15:04:05"))
	if task.Plan != "" {
		fmt.Fprintf(h.out, ui.ColorCyan+"План:"+ui.ColorReset+" %s\n", task.Plan)
	}
	if task.ResultSummary != "" {
		fmt.Fprintf(h.out, ui.ColorCyan+ui.IconDone+" Итог:"+ui.ColorReset+" %s\n", task.ResultSummary)
	}

	steps, err := h.journal.ListSteps(ctx, task.ID)
	if err != nil {
		h.log.Error("Ошибка получения шагов", zap.Error(err))
		ui.Errorf(h.out, "Ошибка получения шагов: %v", err)
		return
	}
	if len(steps) == 0 {
		fmt.Fprintln(h.out, "\n"+ui.ColorGray+"Шагов нет"+ui.ColorReset)
		return
	}

	fmt.Fprintf(h.out, "\n"+ui.ColorYellow+ui.IconLoop+" Шаги (%d):"+ui.ColorReset+"\n", len(steps))
	for _, s := range steps {
		fmt.Fprintf(h.out, ui.ColorBold+"[%d]"+ui.ColorReset+" "+ui.ColorCyan+"%s"+ui.ColorReset+" %s", s.StepNo, s.ToolName, s.Arguments)
		fmt.Fprintf(h.out, " %s%s"+ui.ColorReset+"\n", ui.StepColor(s.Status), s.Status)
		if s.Result != "" {
			fmt.Fprintf(h.out, "  "+ui.ColorGray+"Результат:"+ui.ColorReset+" %s\n", observe.Truncate(s.Result, 160))
		}
		if s.CriticStatus != "" {
			fmt.Fprintf(h.out, "  "+ui.ColorGray+"Критик:"+ui.ColorReset+" %s %s\n", s.CriticStatus, s.CriticNote)
		}
	}
	fmt.Fprintln(h.out)
}

func parseID(out io.Writer, s string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id == 0 {
		ui.Errorf(out, "Неверный ID задачи: %q", s)
		return 0, false
	}
	return uint(id), true
}
