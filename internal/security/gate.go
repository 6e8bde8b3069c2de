// Package security решает, можно ли выполнить действие молча или нужно
// спросить человека. Проверяются только клики и ввод текста.
package security

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"browserAgent/internal/logger"
	"browserAgent/internal/observe"
	"browserAgent/internal/tools"

	"go.uber.org/zap"
)

// Asker задает вопрос человеку и возвращает ответ.
type Asker interface {
	AskUser(ctx context.Context, question string) (string, error)
}

// Metrics принимает решения проверки: allowed, approved, declined.
type Metrics interface {
	ObserveGate(decision string)
}

// DangerousPattern - группа основ слов, по которым действие считается рискованным.
type DangerousPattern struct {
	Keywords    []string
	Description string
}

var dangerousPatterns = []DangerousPattern{
	{
		Keywords:    []string{"оплат", "pay", "checkout", "купить", "purchase", "заказ", "order"},
		Description: "Финансовая операция или заказ",
	},
	{
		Keywords:    []string{"удал", "delete", "remove"},
		Description: "Удаление данных",
	},
	{
		Keywords:    []string{"confirm", "подтверд"},
		Description: "Подтверждение необратимого действия",
	},
	{
		Keywords:    []string{"отправ", "send", "submit"},
		Description: "Отправка данных",
	},
}

var patternRegexps = compilePatterns(dangerousPatterns)

func compilePatterns(patterns []DangerousPattern) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		quoted := make([]string, 0, len(p.Keywords))
		for _, k := range p.Keywords {
			quoted = append(quoted, regexp.QuoteMeta(k))
		}
		out = append(out, regexp.MustCompile(`(?i)(`+strings.Join(quoted, "|")+`)`))
	}
	return out
}

// Verdict - результат классификации одного вызова.
type Verdict struct {
	Dangerous bool
	Hint      string // tag role name text целевого элемента
	Reason    string
	Keyword   string
}

// Classify - чистая проверка вызова по наблюдению. Опасен клик или ввод, если описание
// элемента содержит слово из словаря, а для ввода еще и поле пароля.
func Classify(call tools.Call, obs *observe.Observation) Verdict {
	target, ok := call.(tools.Targeted)
	if !ok {
		return Verdict{}
	}

	el, _ := obs.Element(target.Target())
	v := Verdict{Hint: strings.TrimSpace(fmt.Sprintf("%s %s %s %s", el.Tag, el.Role, el.Name, el.Text))}

	for i, re := range patternRegexps {
		if m := re.FindString(v.Hint); m != "" {
			v.Dangerous = true
			v.Reason = dangerousPatterns[i].Description
			v.Keyword = strings.ToLower(m)
			return v
		}
	}

	if call.Tool() == tools.Type && strings.EqualFold(el.Type, "password") {
		v.Dangerous = true
		v.Reason = "Ввод в поле пароля"
	}
	return v
}

type Gate struct {
	asker   Asker
	log     *logger.Zap
	metrics Metrics
}

func NewGate(asker Asker, log *logger.Zap) *Gate {
	if log == nil {
		log = logger.Nop()
	}
	return &Gate{asker: asker, log: log}
}

// WithMetrics подключает учет решений.
func (g *Gate) WithMetrics(m Metrics) *Gate {
	g.metrics = m
	return g
}

// Question - текст вопроса человеку.
func Question(call tools.Call, hint string) string {
	return fmt.Sprintf("🔐 Security check: выполнить \"%s\" по \"%s\"? (y/n): ", string(call.Tool()), hint)
}

// Check пропускает безопасные вызовы, а для опасных спрашивает человека.
// Одобрением считаются только "y" и "yes" в любом регистре. Без Asker опасное действие отклоняется.
func (g *Gate) Check(ctx context.Context, call tools.Call, obs *observe.Observation) (bool, error) {
	v := Classify(call, obs)
	if !v.Dangerous {
		g.observe("allowed")
		return true, nil
	}

	g.log.Info("Требуется подтверждение действия",
		zap.String("tool", string(call.Tool())),
		zap.String("hint", v.Hint),
		zap.String("reason", v.Reason))

	if g.asker == nil {
		g.observe("declined")
		return false, nil
	}
	answer, err := g.asker.AskUser(ctx, Question(call, v.Hint))
	if err != nil {
		return false, fmt.Errorf("ошибка запроса подтверждения: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		g.observe("approved")
		return true, nil
	default:
		g.observe("declined")
		g.log.Info("Действие отклонено пользователем", zap.String("tool", string(call.Tool())))
		return false, nil
	}
}

func (g *Gate) observe(decision string) {
	if g.metrics != nil {
		g.metrics.ObserveGate(decision)
	}
}
