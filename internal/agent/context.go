package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"browserAgent/internal/llm"
	"browserAgent/internal/observe"
)

const emptyMemory = "(empty)"

func plannerInput(task, memory string) string {
	return strings.TrimSpace(fmt.Sprintf("Задача: %s\nКороткая память: %s", task, memory))
}

func memoryLine(memory string) string {
	if m := observe.Truncate(memory, MemoryLimit); m != "" {
		return m
	}
	return emptyMemory
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%q", fmt.Sprint(v))
	}
	return string(data)
}

// actorInput собирает сообщение исполнителю: задача, план, память и сводка страницы.
func actorInput(task string, plan Plan, memory string, obs *observe.Observation, elements int) string {
	return strings.Join([]string{
		"TASK: " + task,
		"PLAN: " + toJSON(plan),
		"MEMORY: " + memoryLine(memory),
		"OBSERVE_SUMMARY:\n" + observe.Summarize(obs, elements),
	}, "\n\n")
}

// criticInput собирает сообщение критику о последнем действии и новой странице.
func criticInput(task string, plan Plan, prevMemory, lastAction string, result any, obs *observe.Observation, elements int) string {
	return strings.Join([]string{
		"TASK: " + task,
		"PLAN: " + toJSON(plan),
		"PREV_MEMORY: " + memoryLine(prevMemory),
		"LAST_ACTION: " + lastAction,
		"ACTION_RESULT: " + toJSON(result),
		"NEW_OBS_SUMMARY:\n" + observe.Summarize(obs, elements),
	}, "\n\n")
}

func prompt(role llm.Role, system, user string) llm.Prompt {
	return llm.Prompt{Role: role, System: system, User: user}
}
