package observe

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

const (
	titleBudget = 120
	labelBudget = 80
)

// Ellipsis дописывается к обрезанной строке.
const Ellipsis = "…"

// Truncate схлопывает пробельные символы и обрезает строку до n рун,
// заменяя последнюю руну на многоточие.
func Truncate(s string, n int) string {
	t := strings.Join(strings.Fields(s), " ")
	if n <= 0 || utf8.RuneCountInString(t) <= n {
		return t
	}
	runes := []rune(t)
	return string(runes[:n-1]) + Ellipsis
}

// Summarize рендерит наблюдение в текст для модели: адрес, заголовок, скриншот,
// общее число элементов и по строке на каждый из первых maxElements элементов.
func Summarize(obs *Observation, maxElements int) string {
	if obs == nil {
		return "(нет наблюдения)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "url: %s\n", obs.URL)
	if obs.Title != "" {
		fmt.Fprintf(&b, "title: %s\n", Truncate(obs.Title, titleBudget))
	}
	fmt.Fprintf(&b, "screenshot: %s\n", obs.ScreenshotPath)
	fmt.Fprintf(&b, "elements_count: %d\n", len(obs.Elements))
	b.WriteString("elements:")

	shown := obs.Elements
	if maxElements >= 0 && len(shown) > maxElements {
		shown = shown[:maxElements]
	}
	for _, e := range shown {
		b.WriteString("\n")
		b.WriteString(elementLine(e))
	}
	return b.String()
}

func elementLine(e Element) string {
	head := e.ID + ":" + e.Tag
	if e.Role != "" {
		head += "(" + e.Role + ")"
	}
	parts := []string{head}
	if label := Truncate(e.Label(), labelBudget); label != "" {
		parts = append(parts, label)
	}
	if e.BBox != nil {
		parts = append(parts, fmt.Sprintf("@%d,%d", int(math.Round(e.BBox.X)), int(math.Round(e.BBox.Y))))
	}
	return strings.Join(parts, " ")
}
