package ui

import (
	"fmt"
	"io"
)

// FormatStatus возвращает иконку, цвет и текст для статуса задачи из журнала.
func FormatStatus(status string) (icon, color, text string) {
	switch status {
	case "done":
		return IconCheckmark, ColorGreen, "выполнена"
	case "need_user":
		return IconHand, ColorYellow, "нужен пользователь"
	case "step_limit":
		return IconStop, ColorYellow, "лимит шагов"
	case "failed":
		return IconCross, ColorRed, "ошибка"
	case "running":
		return IconLoop, ColorCyan, "выполняется"
	default:
		return IconWarn, ColorGray, status
	}
}

// StepColor - цвет статуса шага.
func StepColor(status string) string {
	switch status {
	case "ok":
		return ColorGreen
	case "declined", "invalid":
		return ColorYellow
	default:
		return ColorRed
	}
}

func ClearScreen(w io.Writer) {
	fmt.Fprint(w, "\033[H\033[2J")
}

func Errorf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ColorRed+IconCross+" "+format+ColorReset+"\n", args...)
}

func Infof(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ColorCyan+format+ColorReset+"\n", args...)
}
