// Package agent реализует цикл браузерного агента: планировщик составляет план,
// исполнитель выбирает инструменты, проверка безопасности спрашивает человека
// перед рискованными действиями, критик после каждого действия обновляет
// короткую память и решает, закончена ли задача.
package agent

import (
	"context"
	"time"

	"browserAgent/internal/browser"
	"browserAgent/internal/database"
	"browserAgent/internal/llm"
	"browserAgent/internal/logger"
	"browserAgent/internal/observe"
	"browserAgent/internal/sanitizer"
	"browserAgent/internal/security"
	"browserAgent/internal/tools"
)

// State - состояние цикла. Done, NeedUser и StepLimit конечные.
type State string

const (
	StatePlanning  State = "planning"
	StateActing    State = "acting"
	StateVerifying State = "verifying"
	StateDone      State = "done"
	StateNeedUser  State = "need_user"
	StateStepLimit State = "step_limit"
)

// Префиксы итогового текста.
const (
	DonePrefix     = "DONE:"
	NeedUserPrefix = "NEED_USER:"
)

const (
	declinedText  = NeedUserPrefix + " Отменено пользователем (security prompt)."
	stepLimitText = NeedUserPrefix + " Достигнут лимит шагов, уточни задачу или дай подсказку/URL."
)

// Plan - ответ планировщика. Не меняется до конца задачи.
type Plan struct {
	Goal        string   `json:"goal"`
	Strategy    string   `json:"strategy"`
	Checkpoints []string `json:"checkpoints"`
}

// Статусы критика.
const (
	CriticContinue = "continue"
	CriticDone     = "done"
	CriticNeedUser = "need_user"
)

// CriticVerdict - ответ критика. MemoryUpdate == nil оставляет память прежней.
type CriticVerdict struct {
	Status       string  `json:"status"`
	Note         string  `json:"note"`
	MemoryUpdate *string `json:"memory_update"`
}

// Outcome - итог задачи. Text начинается с DONE: или NEED_USER:,
// кроме случая, когда лимит шагов исчерпан после текстового ответа модели.
type Outcome struct {
	State  State
	Text   string
	Steps  int
	TaskID *uint
}

// TaskStore - аудит-журнал. Ошибки журнала не прерывают задачу.
type TaskStore interface {
	CreateTask(ctx context.Context, t *database.Task) error
	SavePlan(ctx context.Context, id uint, plan string) error
	CreateStep(ctx context.Context, s *database.AgentStep) error
	UpdateStepVerdict(ctx context.Context, id uint, status, note string) error
	FinishTask(ctx context.Context, id uint, status, summary string, steps int) error
}

type Metrics interface {
	ObserveTool(tool, status string, elapsed time.Duration)
	ObserveOutcome(state string, steps int)
}

// Reporter показывает человеку вызовы инструментов и их результаты.
type Reporter interface {
	ToolCall(name string, args map[string]any)
	ToolResult(name string, result any)
	Warn(msg string)
}

// Deps - коллабораторы цикла. Browser, Provider, Observer, Executor и Gate обязательны.
type Deps struct {
	Browser   browser.Driver
	Provider  llm.Provider
	Observer  *observe.Observer
	Executor  *tools.Executor
	Gate      *security.Gate
	Log       *logger.Zap
	Store     TaskStore
	Metrics   Metrics
	Reporter  Reporter
	Sanitizer *sanitizer.DataSanitizer
}

type Config struct {
	MaxSteps       int // ходов исполнителя на задачу
	ActorElements  int // элементов в сводке для исполнителя
	CriticElements int // элементов в сводке для критика
	MemoryLimit    int // рун в памяти
}
