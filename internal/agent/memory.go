package agent

// MemoryLimit - предел памяти в рунах.
const MemoryLimit = 2000

// Memory - короткая память агента. Каждое обновление заменяет текст целиком
// и обрезает его до limit рун.
type Memory struct {
	text  string
	limit int
}

func NewMemory(limit int) *Memory {
	if limit <= 0 {
		limit = MemoryLimit
	}
	return &Memory{limit: limit}
}

func (m *Memory) Update(text string) {
	runes := []rune(text)
	if len(runes) > m.limit {
		text = string(runes[:m.limit])
	}
	m.text = text
}

func (m *Memory) String() string {
	return m.text
}

func (m *Memory) Reset() {
	m.text = ""
}
