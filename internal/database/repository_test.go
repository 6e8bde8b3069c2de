package database

import (
	"context"
	"path/filepath"
	"testing"

	"browserAgent/internal/config"
	"browserAgent/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func openTestDB(t *testing.T) *TaskRepository {
	t.Helper()
	log := logger.Wrap(zaptest.NewLogger(t))
	db, err := Open(config.Journal{
		Driver:  "sqlite",
		DSN:     filepath.Join(t.TempDir(), "journal.db"),
		Migrate: true,
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(log) })
	return NewTaskRepository(db.DB)
}

func TestOpen_Disabled(t *testing.T) {
	_, err := Open(config.Journal{}, logger.Nop())
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.Journal{Driver: "mysql", DSN: "x"}, logger.Nop())
	assert.Error(t, err)
}

func TestTaskRepository_TaskLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := openTestDB(t)

	task := &Task{UserInput: "открой example.com", Status: TaskRunning}
	require.NoError(t, repo.CreateTask(ctx, task))
	require.NotZero(t, task.ID)

	require.NoError(t, repo.SavePlan(ctx, task.ID, `{"goal":"g"}`))
	require.NoError(t, repo.FinishTask(ctx, task.ID, TaskDone, "DONE: Example Domain", 2))

	got, err := repo.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskDone, got.Status)
	assert.Equal(t, "DONE: Example Domain", got.ResultSummary)
	assert.Equal(t, `{"goal":"g"}`, got.Plan)
	assert.Equal(t, 2, got.Steps)

	require.NoError(t, repo.UpdateTaskStatus(ctx, task.ID, TaskFailed, "ошибка"))
	got, err = repo.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, TaskFailed, got.Status)

	_, err = repo.GetTaskByID(ctx, task.ID+100)
	assert.Error(t, err)
}

func TestTaskRepository_ListTasksNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := openTestDB(t)
	for _, input := range []string{"первая", "вторая", "третья"} {
		require.NoError(t, repo.CreateTask(ctx, &Task{UserInput: input, Status: TaskPending}))
	}

	tasks, err := repo.ListTasks(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "третья", tasks[0].UserInput)
	assert.Equal(t, "вторая", tasks[1].UserInput)
}

func TestTaskRepository_StepsAndLLMLogs(t *testing.T) {
	ctx := context.Background()
	repo := openTestDB(t)
	task := &Task{UserInput: "t", Status: TaskRunning}
	require.NoError(t, repo.CreateTask(ctx, task))

	second := &AgentStep{TaskID: task.ID, StepNo: 2, ToolName: "browser_click", TargetElement: "e3", Status: StepOK}
	first := &AgentStep{TaskID: task.ID, StepNo: 1, ToolName: "browser_goto", Arguments: `{"url":"https://example.com"}`, Status: StepOK}
	require.NoError(t, repo.CreateStep(ctx, second))
	require.NoError(t, repo.CreateStep(ctx, first))
	require.NoError(t, repo.UpdateStepVerdict(ctx, first.ID, "continue", "страница открыта"))

	steps, err := repo.ListSteps(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "browser_goto", steps[0].ToolName)
	assert.Equal(t, "continue", steps[0].CriticStatus)
	assert.Equal(t, "страница открыта", steps[0].CriticNote)
	assert.Equal(t, "e3", steps[1].TargetElement)

	require.NoError(t, repo.LogLLMRequest(ctx, &task.ID, nil, "planner", "prompt", `{"goal":"g"}`, "gpt-5", 42))
	require.NoError(t, repo.LogLLMRequest(ctx, &task.ID, &first.ID, "critic", "prompt 2", "{}", "gpt-5", 10))
	require.NoError(t, repo.LogLLMRequest(ctx, nil, nil, "actor", "без задачи", "", "gpt-5", 1))

	logs, err := repo.ListLLMLogs(ctx, task.ID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "planner", logs[0].Role)
	assert.Nil(t, logs[0].StepID)
	require.NotNil(t, logs[1].StepID)
	assert.Equal(t, first.ID, *logs[1].StepID)

	limited, err := repo.ListLLMLogs(ctx, task.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
