package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// TextOnly запрашивает у модели JSON и разбирает его в T. Если модель ответила
// не JSON, возвращается нулевое значение T без ошибки: ошибкой считается только сбой запроса.
func TextOnly[T any](ctx context.Context, p Provider, prompt Prompt) (T, error) {
	var zero T
	c, err := p.Text(ctx, prompt)
	if err != nil {
		return zero, err
	}
	v, _ := DecodeJSON[T](c.Text)
	return v, nil
}

// DecodeJSON терпимо разбирает ответ модели: снимает markdown-ограждение
// и вырезает объект между первой { и последней }.
func DecodeJSON[T any](text string) (T, bool) {
	var v T
	body := strings.TrimSpace(text)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	}
	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		body = body[start : end+1]
	}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// decodeArgs разбирает аргументы вызова. Пустая строка - пустой объект.
func decodeArgs(raw string) (map[string]any, string) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, ""
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return nil, raw
	}
	return args, ""
}
