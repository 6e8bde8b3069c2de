package agent

import (
	"context"
	"time"

	"browserAgent/internal/database"

	"go.uber.org/zap"
)

// Запись в журнал не влияет на ход задачи: ошибки только логируются.

func (r *Runner) startTask(ctx context.Context, task string) *uint {
	if r.store == nil {
		return nil
	}
	t := &database.Task{UserInput: r.san.Sanitize(task), Status: database.TaskRunning}
	if err := r.store.CreateTask(ctx, t); err != nil {
		r.log.Warn("Не удалось записать задачу в журнал", zap.Error(err))
		return nil
	}
	id := t.ID
	return &id
}

func (r *Runner) savePlan(ctx context.Context, run *taskRun) {
	if r.store == nil || run.taskID == nil {
		return
	}
	if err := r.store.SavePlan(ctx, *run.taskID, r.san.Sanitize(toJSON(run.plan))); err != nil {
		r.log.Warn("Не удалось сохранить план", r.contextFields(run.taskID, 0, zap.Error(err))...)
	}
}

func (r *Runner) recordStep(ctx context.Context, run *taskRun, step *database.AgentStep) {
	if r.store == nil || run.taskID == nil {
		return
	}
	step.TaskID = *run.taskID
	if err := r.store.CreateStep(ctx, step); err != nil {
		r.log.Warn("Не удалось записать шаг", r.contextFields(run.taskID, run.steps, zap.Error(err))...)
	}
}

func (r *Runner) saveVerdict(ctx context.Context, run *taskRun, step *database.AgentStep, v CriticVerdict) {
	if r.store == nil || step.ID == 0 {
		return
	}
	if err := r.store.UpdateStepVerdict(ctx, step.ID, v.Status, r.san.Sanitize(v.Note)); err != nil {
		r.log.Warn("Не удалось записать оценку критика", r.contextFields(run.taskID, run.steps, zap.Error(err))...)
	}
}

// finishTask закрывает задачу в журнале и метриках.
func (r *Runner) finishTask(ctx context.Context, run *taskRun, out Outcome, err error, elapsed time.Duration) {
	status := taskStatus(out.State)
	summary := out.Text
	if err != nil {
		status = database.TaskFailed
		summary = err.Error()
		r.log.Error("Задача завершилась ошибкой", r.contextFields(run.taskID, run.steps,
			zap.String("error_type", Classify(err).String()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))...)
	} else {
		r.log.Info("Задача завершена", r.contextFields(run.taskID, run.steps,
			zap.String("result", r.san.Sanitize(out.Text)),
			zap.Duration("elapsed", elapsed))...)
	}

	if r.metrics != nil {
		r.metrics.ObserveOutcome(status, run.steps)
	}
	if r.store == nil || run.taskID == nil {
		return
	}
	if err := r.store.FinishTask(ctx, *run.taskID, status, r.san.Sanitize(summary), run.steps); err != nil {
		r.log.Warn("Не удалось завершить задачу в журнале", zap.Error(err))
	}
}

func taskStatus(s State) string {
	switch s {
	case StateDone:
		return database.TaskDone
	case StateNeedUser:
		return database.TaskNeedUser
	case StateStepLimit:
		return database.TaskStepLimit
	default:
		return database.TaskFailed
	}
}
