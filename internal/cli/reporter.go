package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"browserAgent/internal/cli/ui"
	"browserAgent/internal/observe"
)

// resultBudget - сколько рун результата инструмента печатается в консоль.
const resultBudget = 400

// Reporter печатает вызовы инструментов и их результаты. Аргументы приходят уже маскированными.
type Reporter struct {
	out io.Writer
}

func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

func (r *Reporter) ToolCall(name string, args map[string]any) {
	fmt.Fprintf(r.out, ui.ColorCyan+"%s tool_call"+ui.ColorReset+" %s %s\n", ui.IconTool, name, compact(args))
}

func (r *Reporter) ToolResult(name string, result any) {
	fmt.Fprintf(r.out, ui.ColorGray+"%s tool_result"+ui.ColorReset+" %s %s\n",
		ui.IconPackage, name, observe.Truncate(compact(result), resultBudget))
}

func (r *Reporter) Warn(msg string) {
	fmt.Fprintf(r.out, ui.ColorYellow+"%s %s"+ui.ColorReset+"\n", ui.IconWarn, msg)
}

func compact(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
