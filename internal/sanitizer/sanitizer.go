// Package sanitizer маскирует секреты и персональные данные перед записью
// в логи и журнал: пароли, токены, ключи API, cookie, карты, email, телефоны, адреса.
package sanitizer

import "strings"

// Filtered подставляется вместо значения целиком.
const Filtered = "[FILTERED]"

type DataSanitizer struct {
	rules []rule
}

func New() *DataSanitizer {
	return &DataSanitizer{rules: defaultRules}
}

// Sanitize применяет все правила по порядку.
func (s *DataSanitizer) Sanitize(text string) string {
	if text == "" {
		return text
	}
	for _, r := range s.rules {
		text = r.apply(text)
	}
	return text
}

// SanitizeValue маскирует значение, введенное пользователем или агентом.
// Короткое значение, похожее на секрет, заменяется целиком.
func (s *DataSanitizer) SanitizeValue(value string) string {
	if value == "" {
		return value
	}
	if len(value) <= 50 && looksLikeSecret(value) {
		return Filtered
	}
	return s.Sanitize(value)
}

// SanitizeArgs возвращает копию аргументов инструмента для логов и журнала.
// secret означает, что text вводится в поле пароля и не должен попасть в логи вовсе.
func (s *DataSanitizer) SanitizeArgs(args map[string]any, secret bool) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		switch val := v.(type) {
		case string:
			if secret && k == "text" {
				out[k] = Filtered
				continue
			}
			if k == "text" {
				out[k] = s.SanitizeValue(val)
				continue
			}
			out[k] = s.Sanitize(val)
		default:
			out[k] = v
		}
	}
	return out
}

var secretMarkers = []string{
	"password", "пароль", "token", "secret", "cvv", "cvc", "session",
}

func looksLikeSecret(value string) bool {
	lower := strings.ToLower(value)
	for _, m := range secretMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	if len(value) < 24 || strings.ContainsAny(value, " \t\n") {
		return false
	}
	// Длинная строка из одного "слова" без пробелов похожа на токен.
	letters, digits := 0, 0
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			letters++
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return letters > 0 && digits > 0
}
