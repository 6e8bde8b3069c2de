package ui

import (
	"fmt"
	"io"
)

// PrintWelcome выводит приветствие. vendor и model - выбранная модель.
func PrintWelcome(w io.Writer, vendor, model string) {
	fmt.Fprintln(w, ColorBold+IconBrain+" Browser Agent"+ColorReset)
	fmt.Fprintln(w, ColorGray+"Агент управляет браузером: планировщик, исполнитель и критик"+ColorReset)
	if vendor != "" {
		fmt.Fprintf(w, ColorGray+"Модель: %s / %s"+ColorReset+"\n", vendor, model)
	}
	fmt.Fprintln(w)
	PrintHelp(w)
}

// PrintHelp выводит список команд. Любой другой ввод считается задачей для агента.
func PrintHelp(w io.Writer) {
	fmt.Fprintln(w, ColorYellow+IconList+" Команды:"+ColorReset)
	fmt.Fprintln(w, "  "+ColorGreen+"<текст задачи>"+ColorReset+"     - Выполнить задачу")
	fmt.Fprintln(w, "  "+ColorGreen+"tasks"+ColorReset+"              - Последние задачи из журнала")
	fmt.Fprintln(w, "  "+ColorGreen+"show"+ColorReset+" <id>          - Шаги задачи")
	fmt.Fprintln(w, "  "+ColorGreen+"logs"+ColorReset+" <id>          - Обмен с моделью по задаче")
	fmt.Fprintln(w, "  "+ColorGreen+"open"+ColorReset+" <url>         - Открыть адрес в браузере агента")
	fmt.Fprintln(w, "  "+ColorGreen+"test-llm"+ColorReset+" <задача>  - Только план, без действий")
	fmt.Fprintln(w, "  "+ColorGreen+"help"+ColorReset+"               - Эта справка")
	fmt.Fprintln(w, "  "+ColorGreen+"clear"+ColorReset+"              - Очистить экран")
	fmt.Fprintln(w, "  "+ColorGreen+"exit"+ColorReset+"               - Выход (также quit или пустая строка)")
	fmt.Fprintln(w)
}
