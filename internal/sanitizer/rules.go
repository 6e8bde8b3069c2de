package sanitizer

import "regexp"

// rule - набор шаблонов одного вида секретов и строка замены.
// Замена может ссылаться на группу ${1}, чтобы сохранить имя ключа.
type rule struct {
	name        string
	patterns    []*regexp.Regexp
	replacement string
}

func (r rule) apply(text string) string {
	for _, p := range r.patterns {
		text = p.ReplaceAllString(text, r.replacement)
	}
	return text
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// Порядок важен: ключ-значение раньше общих шаблонов, чтобы сохранить имя ключа.
var defaultRules = []rule{
	{
		name: "password",
		patterns: compile(
			`(?i)(password|пароль|passwd|pwd)["']?\s*[:=]\s*["']?([^"'\s,}]{3,})["']?`,
		),
		replacement: `${1}: [FILTERED]`,
	},
	{
		name: "api_key",
		patterns: compile(
			`(?i)(api[_-]?key|api[_-]?secret|api[_-]?token|secret[_-]?key|secret[_-]?token|access[_-]?token|access[_-]?key)\s*[:=]\s*["']?([a-zA-Z0-9_\-]{20,})["']?`,
		),
		replacement: `${1}: [FILTERED]`,
	},
	{
		name: "token",
		patterns: compile(
			`(?i)(token|токен)\s*[:=]\s*["']?([a-zA-Z0-9_\-]{20,})["']?`,
			`(?i)(bearer\s+)([a-zA-Z0-9_\-.]{20,})`,
		),
		replacement: `${1}[FILTERED]`,
	},
	{
		name: "vendor_key",
		patterns: compile(
			`sk-(?:ant-|proj-)?[a-zA-Z0-9_\-]{20,}`,
			`pk_[a-zA-Z0-9]{32,}`,
			`AIza[0-9A-Za-z_\-]{35}`,
		),
		replacement: `[FILTERED]`,
	},
	{
		name: "cookie",
		patterns: compile(
			`(?i)(set-cookie\s*[:=]\s*|cookie\s*[:=]\s*|куки\s*[:=]\s*)["']?[^"'\n]{10,}["']?`,
			`(?i)(session[_-]?id\s*[:=]\s*|session[_-]?token\s*[:=]\s*)["']?[a-zA-Z0-9_\-]{10,}["']?`,
		),
		replacement: `${1}[FILTERED]`,
	},
	{
		name: "card",
		patterns: compile(
			`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`,
			`(?i)(cvv2?|cvc2?)\s*[:=]\s*["']?\d{3,4}["']?`,
			`(?i)(expir\w*|срок)\s*[:=]\s*["']?\d{2}[/-]\d{2,4}["']?`,
		),
		replacement: `[FILTERED]`,
	},
	{
		name:        "email",
		patterns:    compile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
		replacement: `[FILTERED_EMAIL]`,
	},
	{
		name: "phone",
		patterns: compile(
			`(?:\+7|\b8)\s?\(?\d{3}\)?\s?\d{3}[-.\s]?\d{2}[-.\s]?\d{2}\b`,
			`\+\d{1,3}[\s\-]?\(?\d{2,4}\)?[\s\-]?\d{3}[\s\-]?\d{2,4}(?:[\s\-]?\d{2,4})?\b`,
			`(?i)(phone|телефон|тел\.?)\s*[:=]\s*["']?[+\d\s\-()]{7,}["']?`,
		),
		replacement: `[FILTERED_PHONE]`,
	},
	{
		name: "address",
		patterns: compile(
			`(?i)(address|адрес)\s*[:=]\s*["']?[^"'\n]{10,}["']?`,
			`(?i)(?:улица|ул\.|проспект|пр-т|переулок|пер\.|бульвар|шоссе)\s+[А-Яа-яЁё0-9\- ]+,\s*(?:д\.|дом)\s*\d+[А-Яа-я]?(?:,\s*(?:кв\.|квартира)\s*\d+)?`,
		),
		replacement: `[FILTERED_ADDRESS]`,
	},
}
