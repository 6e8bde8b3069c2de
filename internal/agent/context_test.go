package agent

import (
	"strings"
	"testing"

	"browserAgent/internal/observe"

	"github.com/stretchr/testify/assert"
)

func TestPlannerInput(t *testing.T) {
	assert.Equal(t, "Задача: открой example.com\nКороткая память:", plannerInput("открой example.com", ""))
	assert.Equal(t, "Задача: x\nКороткая память: y", plannerInput("x", "y"))
}

func TestActorInput(t *testing.T) {
	obs := &observe.Observation{
		URL:            "https://example.com/",
		Title:          "Example Domain",
		ScreenshotPath: "shot.png",
		Elements:       []observe.Element{{ID: "e1", Tag: "a", Name: "More information..."}},
	}
	plan := Plan{Goal: "g", Strategy: "s", Checkpoints: []string{"c"}}

	got := actorInput("задача", plan, "", obs, 40)
	parts := strings.Split(got, "\n\n")
	assert.Len(t, parts, 4)
	assert.Equal(t, "TASK: задача", parts[0])
	assert.Equal(t, `PLAN: {"goal":"g","strategy":"s","checkpoints":["c"]}`, parts[1])
	assert.Equal(t, "MEMORY: (empty)", parts[2])
	assert.True(t, strings.HasPrefix(parts[3], "OBSERVE_SUMMARY:\nurl: https://example.com/\ntitle: Example Domain"))
	assert.Contains(t, parts[3], "e1:a")
}

func TestCriticInput(t *testing.T) {
	obs := &observe.Observation{URL: "https://example.com/"}
	got := criticInput("t", Plan{}, "память", `browser_goto {"url":"https://example.com"}`,
		map[string]any{"ok": true}, obs, 30)

	assert.Contains(t, got, "PREV_MEMORY: память\n\n")
	assert.Contains(t, got, `LAST_ACTION: browser_goto {"url":"https://example.com"}`)
	assert.Contains(t, got, `ACTION_RESULT: {"ok":true}`)
	assert.Contains(t, got, "NEW_OBS_SUMMARY:\nurl: https://example.com/")
}
