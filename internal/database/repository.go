package database

import (
	"context"

	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) CreateTask(ctx context.Context, t *Task) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TaskRepository) GetTaskByID(ctx context.Context, id uint) (*Task, error) {
	var task Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) ListTasks(ctx context.Context, limit, offset int) ([]Task, error) {
	var tasks []Task
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Offset(offset).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) UpdateTaskStatus(ctx context.Context, id uint, status, summary string) error {
	return r.db.WithContext(ctx).Model(&Task{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":         status,
			"result_summary": summary,
		}).Error
}

// FinishTask записывает итог задачи и число ходов исполнителя.
func (r *TaskRepository) FinishTask(ctx context.Context, id uint, status, summary string, steps int) error {
	return r.db.WithContext(ctx).Model(&Task{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":         status,
			"result_summary": summary,
			"steps":          steps,
		}).Error
}

// SavePlan сохраняет план задачи в виде JSON.
func (r *TaskRepository) SavePlan(ctx context.Context, id uint, plan string) error {
	return r.db.WithContext(ctx).Model(&Task{}).Where("id = ?", id).Update("plan", plan).Error
}

func (r *TaskRepository) CreateStep(ctx context.Context, s *AgentStep) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// UpdateStepVerdict дописывает к шагу оценку критика.
func (r *TaskRepository) UpdateStepVerdict(ctx context.Context, id uint, status, note string) error {
	return r.db.WithContext(ctx).Model(&AgentStep{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"critic_status": status,
			"critic_note":   note,
		}).Error
}

// ListSteps возвращает шаги задачи по порядку.
func (r *TaskRepository) ListSteps(ctx context.Context, taskID uint) ([]AgentStep, error) {
	var steps []AgentStep
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("step_no ASC, id ASC").Find(&steps).Error; err != nil {
		return nil, err
	}
	return steps, nil
}

func (r *TaskRepository) LogLLMRequest(ctx context.Context, taskID *uint, stepID *uint, role, promptText, responseText, model string, tokensUsed int) error {
	return r.db.WithContext(ctx).Create(&LlmLog{
		TaskID:       taskID,
		StepID:       stepID,
		Role:         role,
		PromptText:   promptText,
		ResponseText: responseText,
		Model:        model,
		TokensUsed:   tokensUsed,
	}).Error
}

// ListLLMLogs возвращает обмен с моделью по задаче; limit <= 0 - без ограничения.
func (r *TaskRepository) ListLLMLogs(ctx context.Context, taskID uint, limit int) ([]LlmLog, error) {
	q := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var logs []LlmLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
