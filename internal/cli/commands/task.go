// Package commands - обработчики команд REPL. Каждый пишет в свой io.Writer.
package commands

import (
	"context"
	"fmt"
	"io"

	"browserAgent/internal/agent"
	"browserAgent/internal/cli/ui"
	"browserAgent/internal/database"

	"go.uber.org/zap"
)

// Journal - чтение аудит-журнала.
type Journal interface {
	ListTasks(ctx context.Context, limit, offset int) ([]database.Task, error)
	GetTaskByID(ctx context.Context, id uint) (*database.Task, error)
	ListSteps(ctx context.Context, taskID uint) ([]database.AgentStep, error)
	ListLLMLogs(ctx context.Context, taskID uint, limit int) ([]database.LlmLog, error)
}

type Runner interface {
	Run(ctx context.Context, task string) (agent.Outcome, error)
}

// TaskHandler выполняет задачи. Каждая задача получает свой Runner.
type TaskHandler struct {
	newRunner func() Runner
	journal   Journal
	out       io.Writer
	log       *zap.Logger
}

func NewTaskHandler(newRunner func() Runner, journal Journal, out io.Writer, log *zap.Logger) *TaskHandler {
	return &TaskHandler{newRunner: newRunner, journal: journal, out: out, log: log}
}

// Run выполняет задачу и печатает итог.
func (h *TaskHandler) Run(ctx context.Context, task string) {
	out, err := h.newRunner().Run(ctx, task)
	if err != nil {
		h.log.Error("Задача прервана", zap.String("error_type", agent.Classify(err).String()), zap.Error(err))
		ui.Errorf(h.out, "Задача прервана (%s): %v", agent.Classify(err), err)
		return
	}

	color := ui.ColorGreen
	if out.State != agent.StateDone {
		color = ui.ColorYellow
	}
	fmt.Fprintf(h.out, "%s%s Итог:%s %s\n", color, ui.IconDone, ui.ColorReset, out.Text)
	if out.TaskID != nil {
		fmt.Fprintf(h.out, ui.ColorGray+"Задача #%d, шагов: %d"+ui.ColorReset+"\n", *out.TaskID, out.Steps)
	}
}

// List выводит последние задачи журнала.
func (h *TaskHandler) List(ctx context.Context) {
	if h.journal == nil {
		ui.Errorf(h.out, "Журнал выключен (JOURNAL_DRIVER)")
		return
	}
	tasks, err := h.journal.ListTasks(ctx, 20, 0)
	if err != nil {
		h.log.Error("Ошибка чтения задач", zap.Error(err))
		ui.Errorf(h.out, "Ошибка чтения задач: %v", err)
		return
	}
	if len(tasks) == 0 {
		fmt.Fprintln(h.out, ui.ColorGray+"Задач пока нет"+ui.ColorReset)
		return
	}

	fmt.Fprintln(h.out, "\n"+ui.ColorBold+ui.IconList+" Задачи:"+ui.ColorReset)
	for _, t := range tasks {
		icon, color, text := ui.FormatStatus(t.Status)
		fmt.Fprintf(h.out, "  "+ui.ColorBold+"#%d"+ui.ColorReset+" %s%s %s"+ui.ColorReset+" (%d шагов)\n", t.ID, color, icon, text, t.Steps)
		fmt.Fprintf(h.out, "  "+ui.ColorGray+"└─"+ui.ColorReset+" %s\n", t.UserInput)
	}
	fmt.Fprintln(h.out)
}
