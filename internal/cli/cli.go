// Package cli - интерактивный интерфейс агента: чтение задач, вопросы
// подтверждения и вывод хода выполнения.
package cli

import (
	"context"
	"strings"

	"browserAgent/internal/browser"
	"browserAgent/internal/cli/commands"
	"browserAgent/internal/cli/ui"
	"browserAgent/internal/llm"
	"browserAgent/internal/logger"
)

// Deps - то, что нужно командам REPL. Journal может быть nil.
type Deps struct {
	Console   *Console
	Browser   browser.Driver
	Provider  llm.Provider
	Journal   commands.Journal
	NewRunner func() commands.Runner
	Log       *logger.Zap
}

type CLI struct {
	console *Console
	vendor  string
	model   string

	taskHandler    *commands.TaskHandler
	showHandler    *commands.ShowHandler
	logsHandler    *commands.LogsHandler
	browserHandler *commands.BrowserHandler
	llmHandler     *commands.LLMHandler
}

func New(deps Deps) *CLI {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	out := deps.Console.Out()
	c := &CLI{
		console:        deps.Console,
		taskHandler:    commands.NewTaskHandler(deps.NewRunner, deps.Journal, out, deps.Log.Logger),
		showHandler:    commands.NewShowHandler(deps.Journal, out, deps.Log.Logger),
		logsHandler:    commands.NewLogsHandler(deps.Journal, out, deps.Log.Logger),
		browserHandler: commands.NewBrowserHandler(deps.Browser, out),
		llmHandler:     commands.NewLLMHandler(deps.Provider, out),
	}
	if deps.Provider != nil {
		c.vendor, c.model = deps.Provider.Vendor(), deps.Provider.Model()
	}
	return c
}

// Run показывает приветствие и обрабатывает ввод до exit или отмены ctx.
func (c *CLI) Run(ctx context.Context) error {
	ui.PrintWelcome(c.console.Out(), c.vendor, c.model)
	return c.console.Run(ctx, c.handleCommand)
}

// RunTask выполняет одну задачу без REPL.
func (c *CLI) RunTask(ctx context.Context, task string) {
	c.taskHandler.Run(ctx, task)
}

func (c *CLI) handleCommand(ctx context.Context, line string) {
	cmd, arg, _ := strings.Cut(line, " ")
	cmd, arg = strings.ToLower(cmd), strings.TrimSpace(arg)

	// show, logs и open принимают одно слово, иначе строка - задача ("open example.com и найди ...").
	switch cmd {
	case "show", "logs", "open":
		if strings.Contains(arg, " ") {
			cmd = ""
		}
	}

	switch cmd {
	case "help":
		ui.PrintHelp(c.console.Out())
	case "clear":
		ui.ClearScreen(c.console.Out())
	case "tasks":
		c.taskHandler.List(ctx)
	case "show":
		c.showHandler.Show(ctx, arg)
	case "logs":
		c.logsHandler.Show(ctx, arg)
	case "open":
		c.browserHandler.Open(ctx, arg)
	case "test-llm":
		c.llmHandler.TestPlan(ctx, arg)
	default:
		c.taskHandler.Run(ctx, line)
	}
}
