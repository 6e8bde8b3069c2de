package ui

// ANSI-коды. Других стилей консоль не использует.
const (
	ColorReset  = "\033[0m"
	ColorBold   = "\033[1m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
)

// События цикла агента.
const (
	IconBrain   = "🧠"
	IconTool    = "🛠"
	IconPackage = "📦"
	IconWarn    = "⚠"
	IconDone    = "✅"
	IconStop    = "⛔"
	IconHand    = "✋"
)

// Журнал и служебные сообщения.
const (
	IconCheckmark = "✓"
	IconCross     = "✗"
	IconLoop      = "🔄"
	IconList      = "📋"
	IconWave      = "👋"
)
