// Package database - аудит-журнал агента: задачи, выполненные шаги и обмен с моделью.
// Журнал только пишется во время выполнения задачи и читается командами истории CLI.
package database

import "time"

// Статусы задачи совпадают с итоговыми состояниями цикла агента.
const (
	TaskPending   = "pending"
	TaskRunning   = "running"
	TaskDone      = "done"
	TaskNeedUser  = "need_user"
	TaskStepLimit = "step_limit"
	TaskFailed    = "failed"
)

// Статусы шага.
const (
	StepOK       = "ok"
	StepError    = "error"
	StepInvalid  = "invalid"
	StepDeclined = "declined"
)

type Task struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserInput     string    `gorm:"type:text;not null" json:"user_input"`
	Status        string    `gorm:"type:varchar(32);not null;default:'pending'" json:"status"`
	Plan          string    `gorm:"type:text" json:"plan,omitempty"` // JSON плана
	ResultSummary string    `gorm:"type:text" json:"result_summary,omitempty"`
	Steps         int       `gorm:"not null;default:0" json:"steps"` // ходы исполнителя
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// AgentStep - один вызов инструмента и оценка критика после него.
type AgentStep struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	TaskID         uint      `gorm:"index;not null" json:"task_id"`
	StepNo         int       `gorm:"not null" json:"step_no"`
	ToolName       string    `gorm:"type:varchar(64);not null" json:"tool_name"`
	TargetElement  string    `gorm:"type:varchar(32)" json:"target_element,omitempty"`
	Arguments      string    `gorm:"type:text" json:"arguments,omitempty"` // JSON без секретов
	Status         string    `gorm:"type:varchar(16);not null" json:"status"`
	Result         string    `gorm:"type:text" json:"result,omitempty"`
	CriticStatus   string    `gorm:"type:varchar(16)" json:"critic_status,omitempty"`
	CriticNote     string    `gorm:"type:text" json:"critic_note,omitempty"`
	ObservationID  string    `gorm:"type:varchar(64)" json:"observation_id,omitempty"`
	ScreenshotPath string    `gorm:"type:text" json:"screenshot_path,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// LlmLog - запрос к модели и ответ на него в маскированном виде.
type LlmLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TaskID       *uint     `gorm:"index" json:"task_id,omitempty"`
	StepID       *uint     `gorm:"index" json:"step_id,omitempty"`
	Role         string    `gorm:"type:varchar(16);not null" json:"role"` // planner, actor, critic
	PromptText   string    `gorm:"type:text;not null" json:"prompt_text"`
	ResponseText string    `gorm:"type:text" json:"response_text"`
	Model        string    `gorm:"type:varchar(64)" json:"model"`
	TokensUsed   int       `json:"tokens_used"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
