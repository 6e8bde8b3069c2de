package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"browserAgent/internal/browser"
	"browserAgent/internal/database"
	"browserAgent/internal/llm"
	"browserAgent/internal/logger"
	"browserAgent/internal/observe"
	"browserAgent/internal/sanitizer"
	"browserAgent/internal/security"
	"browserAgent/internal/tools"

	"go.uber.org/zap"
)

// Runner выполняет одну задачу за раз против одного браузера.
// Память и последнее наблюдение принадлежат Runner и меняются только между шагами.
type Runner struct {
	browser  browser.Driver
	provider llm.Provider
	observer *observe.Observer
	executor *tools.Executor
	gate     *security.Gate
	log      *logger.Zap
	store    TaskStore
	metrics  Metrics
	reporter Reporter
	san      *sanitizer.DataSanitizer
	cfg      Config
	tools    []llm.ToolSpec

	memory *Memory
	last   *observe.Observation
	state  State
}

// taskRun - неизменяемые на время задачи данные и счетчик ходов.
type taskRun struct {
	task   string
	page   browser.Page
	plan   Plan
	taskID *uint
	steps  int
}

func New(deps Deps, cfg Config) *Runner {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 60
	}
	if cfg.ActorElements <= 0 {
		cfg.ActorElements = 40
	}
	if cfg.CriticElements <= 0 {
		cfg.CriticElements = 30
	}
	if cfg.MemoryLimit <= 0 {
		cfg.MemoryLimit = MemoryLimit
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Sanitizer == nil {
		deps.Sanitizer = sanitizer.New()
	}
	if deps.Executor == nil {
		deps.Executor = tools.NewExecutor(tools.Config{}, deps.Log)
	}
	if deps.Gate == nil {
		deps.Gate = security.NewGate(nil, deps.Log)
	}

	return &Runner{
		browser:  deps.Browser,
		provider: deps.Provider,
		observer: deps.Observer,
		executor: deps.Executor,
		gate:     deps.Gate,
		log:      deps.Log,
		store:    deps.Store,
		metrics:  deps.Metrics,
		reporter: deps.Reporter,
		san:      deps.Sanitizer,
		cfg:      cfg,
		tools:    tools.Definitions(),
		memory:   NewMemory(cfg.MemoryLimit),
		state:    StatePlanning,
	}
}

// Memory возвращает текущую короткую память.
func (r *Runner) Memory() string {
	return r.memory.String()
}

func (r *Runner) State() State {
	return r.state
}

func (r *Runner) contextFields(taskID *uint, stepNo int, fields ...zap.Field) []zap.Field {
	base := []zap.Field{
		zap.Int("step", stepNo),
		zap.String("state", string(r.state)),
	}
	if taskID != nil {
		base = append(base, zap.Uint("task_id", *taskID))
	}
	return append(base, fields...)
}

// Run выполняет задачу до DONE, NEED_USER или исчерпания лимита шагов.
// Ошибкой завершаются только сбои конфигурации, браузера, ссылки на элемент
// не из текущего наблюдения и отмена ctx.
func (r *Runner) Run(ctx context.Context, task string) (Outcome, error) {
	page, err := r.browser.Page()
	if err != nil {
		return Outcome{}, fmt.Errorf("ошибка получения страницы: %w", err)
	}

	r.memory.Reset()
	r.last = nil
	r.state = StatePlanning

	run := &taskRun{task: task, page: page}
	run.taskID = r.startTask(ctx, task)
	if run.taskID != nil {
		ctx = llm.WithTaskID(ctx, *run.taskID)
	}

	start := time.Now()
	out, err := r.loop(ctx, run)
	out.TaskID = run.taskID
	r.finishTask(context.WithoutCancel(ctx), run, out, err, time.Since(start))
	return out, err
}

func (r *Runner) loop(ctx context.Context, run *taskRun) (Outcome, error) {
	plan, err := MakePlan(ctx, r.provider, run.task, r.memory.String())
	if err != nil {
		return r.modelFailure(ctx, run, err)
	}
	run.plan = plan
	r.savePlan(ctx, run)
	r.log.Info("План составлен", r.contextFields(run.taskID, 0,
		zap.String("goal", plan.Goal),
		zap.Int("checkpoints", len(plan.Checkpoints)))...)

	obs, err := r.observer.Capture(ctx, run.page)
	if err != nil {
		return r.abort(run), fmt.Errorf("ошибка начального наблюдения: %w", err)
	}
	r.last = obs

	lastFinal := ""
	for run.steps < r.cfg.MaxSteps {
		if err := ctx.Err(); err != nil {
			return r.abort(run), err
		}
		run.steps++
		r.state = StateActing

		actorObs := r.last
		reply, err := r.provider.WithTools(ctx,
			prompt(llm.RoleActor, actorPrompt, actorInput(run.task, run.plan, r.memory.String(), actorObs, r.cfg.ActorElements)),
			r.tools)
		if err != nil {
			return r.modelFailure(ctx, run, err)
		}

		switch v := reply.(type) {
		case llm.Final:
			text := strings.TrimSpace(v.Text)
			lastFinal = text
			switch {
			case strings.HasPrefix(text, DonePrefix):
				return r.finish(run, StateDone, text), nil
			case strings.HasPrefix(text, NeedUserPrefix):
				return r.finish(run, StateNeedUser, text), nil
			}
			r.warn(run, "Модель ответила текстом без DONE/NEED_USER, продолжаем",
				zap.String("text", observe.Truncate(text, 200)))

		case llm.ToolCalls:
			// Все вызовы пакета адресуют наблюдение, которое видел исполнитель.
			for _, tc := range v.Calls {
				out, stop, err := r.act(ctx, run, tc, actorObs)
				if err != nil || stop {
					return out, err
				}
			}
		}
	}

	if lastFinal == "" {
		lastFinal = stepLimitText
	}
	r.log.Warn("Достигнут лимит шагов", r.contextFields(run.taskID, run.steps, zap.Int("max_steps", r.cfg.MaxSteps))...)
	return r.finish(run, StateStepLimit, lastFinal), nil
}

// MakePlan спрашивает планировщика. Ответ не JSON дает пустой план.
func MakePlan(ctx context.Context, p llm.Provider, task, memory string) (Plan, error) {
	plan, err := llm.TextOnly[Plan](ctx, p, prompt(llm.RolePlanner, plannerPrompt, plannerInput(task, memory)))
	if err != nil {
		return Plan{}, err
	}
	if plan.Checkpoints == nil {
		plan.Checkpoints = []string{}
	}
	return plan, nil
}

// act проводит один вызов через проверку безопасности, исполнение, новое наблюдение и критика.
// stop сообщает, что задача закончена.
func (r *Runner) act(ctx context.Context, run *taskRun, tc llm.ToolCall, actorObs *observe.Observation) (Outcome, bool, error) {
	secret := isSecretInput(tc, actorObs)
	shownArgs := r.shownArgs(tc, secret)
	if r.reporter != nil {
		r.reporter.ToolCall(tc.Name, shownArgs)
	}
	r.log.Info("Вызов инструмента", r.contextFields(run.taskID, run.steps,
		zap.String("tool", tc.Name),
		zap.Any("args", shownArgs))...)

	step := &database.AgentStep{StepNo: run.steps, ToolName: tc.Name, Arguments: toJSON(shownArgs)}
	start := time.Now()

	var result tools.Result
	call, err := tools.Parse(tc)
	if err != nil {
		r.log.Warn("Вызов не выполнен: неверные аргументы", r.contextFields(run.taskID, run.steps,
			zap.String("tool", tc.Name),
			zap.String("error_type", Classify(err).String()),
			zap.Error(err))...)
		result = tools.Result{"ok": false, "error": err.Error()}
		step.Status = database.StepInvalid
	} else {
		if t, ok := call.(tools.Targeted); ok {
			step.TargetElement = t.Target()
			// Ссылку проверяем до вопроса человеку: спрашивать про несуществующий элемент незачем.
			if _, err := actorObs.Handle(t.Target()); err != nil {
				return r.failStep(ctx, run, step, start, err)
			}
		}

		allowed, err := r.gate.Check(ctx, call, actorObs)
		if err != nil {
			return r.abort(run), true, err
		}
		if !allowed {
			step.Status = database.StepDeclined
			r.recordStep(ctx, run, step)
			r.observeTool(tc.Name, step.Status, time.Since(start))
			return r.finish(run, StateNeedUser, declinedText), true, nil
		}

		res, err := r.executor.Execute(ctx, tools.Env{Page: run.page, Observation: actorObs, Observer: r.observer}, call)
		switch {
		case err == nil:
			result = res
			step.Status = database.StepOK
		case Classify(err) == KindAction && ctx.Err() == nil:
			r.log.Warn("Ошибка выполнения действия", r.contextFields(run.taskID, run.steps,
				zap.String("tool", tc.Name),
				zap.Error(err))...)
			result = tools.Result{"ok": false, "error": err.Error()}
			step.Status = database.StepError
		default:
			return r.failStep(ctx, run, step, start, err)
		}
	}
	r.observeTool(tc.Name, step.Status, time.Since(start))
	if r.reporter != nil {
		r.reporter.ToolResult(tc.Name, result)
	}

	r.state = StateVerifying
	newObs, err := r.observer.Capture(ctx, run.page)
	if err != nil {
		return r.abort(run), true, fmt.Errorf("ошибка наблюдения после %s: %w", tc.Name, err)
	}
	r.last = newObs

	step.Result = r.san.Sanitize(toJSON(result))
	step.ObservationID = newObs.ID
	step.ScreenshotPath = newObs.ScreenshotPath
	r.recordStep(ctx, run, step)

	prevMemory := r.memory.String()
	verdict, err := llm.TextOnly[CriticVerdict](ctx, r.provider, prompt(llm.RoleCritic, criticPrompt,
		criticInput(run.task, run.plan, prevMemory, tc.Name+" "+actionArgs(tc, secret), result, newObs, r.cfg.CriticElements)))
	if err != nil {
		out, err := r.modelFailure(ctx, run, err)
		return out, true, err
	}
	if verdict.MemoryUpdate != nil {
		r.memory.Update(*verdict.MemoryUpdate)
	}
	r.saveVerdict(ctx, run, step, verdict)
	r.log.Info("Оценка критика", r.contextFields(run.taskID, run.steps,
		zap.String("status", verdict.Status),
		zap.String("note", r.san.Sanitize(verdict.Note)))...)

	switch verdict.Status {
	case CriticDone:
		return r.finish(run, StateDone, DonePrefix+" "+verdict.Note), true, nil
	case CriticNeedUser:
		return r.finish(run, StateNeedUser, NeedUserPrefix+" "+verdict.Note), true, nil
	}
	r.state = StateActing
	return Outcome{}, false, nil
}

// failStep записывает шаг, который прервал задачу ошибкой.
func (r *Runner) failStep(ctx context.Context, run *taskRun, step *database.AgentStep, start time.Time, err error) (Outcome, bool, error) {
	step.Status = database.StepError
	step.Result = r.san.Sanitize(err.Error())
	r.recordStep(ctx, run, step)
	r.observeTool(step.ToolName, step.Status, time.Since(start))
	r.log.Error("Задача прервана", r.contextFields(run.taskID, run.steps,
		zap.String("tool", step.ToolName),
		zap.String("error_type", Classify(err).String()),
		zap.Error(err))...)
	return r.abort(run), true, err
}

// modelFailure превращает недоступность модели в NEED_USER. Отмена и ошибки конфигурации
// возвращаются как есть.
func (r *Runner) modelFailure(ctx context.Context, run *taskRun, err error) (Outcome, error) {
	if ctx.Err() != nil {
		return r.abort(run), ctx.Err()
	}
	switch Classify(err) {
	case KindCanceled, KindConfig:
		return r.abort(run), err
	}
	r.log.Error("Модель недоступна", r.contextFields(run.taskID, run.steps,
		zap.String("error_type", Classify(err).String()),
		zap.Error(err))...)
	return r.finish(run, StateNeedUser, NeedUserPrefix+" Модель недоступна: "+err.Error()), nil
}

func (r *Runner) finish(run *taskRun, state State, text string) Outcome {
	r.state = state
	return Outcome{State: state, Text: text, Steps: run.steps}
}

func (r *Runner) abort(run *taskRun) Outcome {
	return Outcome{State: r.state, Steps: run.steps}
}

func (r *Runner) warn(run *taskRun, msg string, fields ...zap.Field) {
	r.log.Warn(msg, r.contextFields(run.taskID, run.steps, fields...)...)
	if r.reporter != nil {
		r.reporter.Warn(msg)
	}
}

func (r *Runner) observeTool(tool, status string, elapsed time.Duration) {
	if r.metrics != nil {
		r.metrics.ObserveTool(tool, status, elapsed)
	}
}

// shownArgs - аргументы для консоли, логов и журнала.
func (r *Runner) shownArgs(tc llm.ToolCall, secret bool) map[string]any {
	if tc.Args == nil {
		return map[string]any{"raw": r.san.Sanitize(tc.RawArgs)}
	}
	return r.san.SanitizeArgs(tc.Args, secret)
}

// actionArgs - аргументы для критика. Пароль модели не показывается.
func actionArgs(tc llm.ToolCall, secret bool) string {
	if tc.Args == nil {
		return tc.RawArgs
	}
	if !secret {
		return toJSON(tc.Args)
	}
	masked := make(map[string]any, len(tc.Args))
	for k, v := range tc.Args {
		masked[k] = v
	}
	masked["text"] = sanitizer.Filtered
	return toJSON(masked)
}

// isSecretInput сообщает, что вызов вводит текст в поле пароля.
func isSecretInput(tc llm.ToolCall, obs *observe.Observation) bool {
	if tc.Name != string(tools.Type) {
		return false
	}
	id, _ := tc.Args["element_id"].(string)
	el, ok := obs.Element(id)
	return ok && strings.EqualFold(el.Type, "password")
}
