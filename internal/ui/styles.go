// Package ui provides a live terminal dashboard for a running fuzzing
// session, rendered with bubbletea/lipgloss in the same cyberpunk
// palette the rest of the project's tooling uses.
package ui

import "github.com/charmbracelet/lipgloss"

// Color palette - Cyberpunk theme
var (
	// Primary colors
	ColorCyan    = lipgloss.Color("#00FFFF")
	ColorMagenta = lipgloss.Color("#FF00FF")
	ColorGreen   = lipgloss.Color("#00FF00")
	ColorYellow  = lipgloss.Color("#FFFF00")
	ColorRed     = lipgloss.Color("#FF0055")
	ColorOrange  = lipgloss.Color("#FF8800")

	// Background colors
	ColorDarkBg   = lipgloss.Color("#0D0D0D")
	ColorPanelBg  = lipgloss.Color("#1A1A2E")
	ColorHeaderBg = lipgloss.Color("#16213E")

	// Text colors
	ColorText       = lipgloss.Color("#E0E0E0")
	ColorDimText    = lipgloss.Color("#666666")
	ColorBrightText = lipgloss.Color("#FFFFFF")
)

// Style definitions
var (
	BaseStyle = lipgloss.NewStyle().
			Background(ColorDarkBg).
			Foreground(ColorText)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan).
			Background(ColorHeaderBg).
			Padding(0, 1).
			MarginBottom(1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorMagenta).
			Background(ColorHeaderBg).
			Padding(0, 2)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorCyan).
			Padding(1, 2).
			MarginRight(1)

	StatsPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMagenta).
			Padding(1, 2)

	LogPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGreen).
			Padding(0, 1).
			Height(10)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorDimText).
			Width(18)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorBrightText).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	RunningStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	StoppedStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorDimText).
			MarginTop(1)

	KeyStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorDimText)

	// Crash-kind styles, keyed by severity-ish grouping for quick scanning
	// of the activity log.
	CrashAbortStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	CrashGasStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	CrashOtherStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorCyan)

	SpinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
)

// RenderLabel renders a label with consistent styling.
func RenderLabel(label string) string {
	return LabelStyle.Render(label + ":")
}

// RenderValue renders a value with consistent styling.
func RenderValue(value string) string {
	return ValueStyle.Render(value)
}

// RenderLabelValue renders a label-value pair.
func RenderLabelValue(label, value string) string {
	return RenderLabel(label) + " " + RenderValue(value)
}

// RenderKey renders a keyboard key.
func RenderKey(key string) string {
	return KeyStyle.Render("[" + key + "]")
}

// RenderHelp renders help text.
func RenderHelp(key, description string) string {
	return RenderKey(key) + " " + HelpStyle.Render(description)
}

// Banner is the startup ASCII banner for the fuzz subcommand.
const Banner = `
╔═══════════════════════════════════════════════════════════════╗
║   ██████╗ █████╗ ██╗██████╗  ██████╗ ███████╗██╗   ██╗███████╗ ║
║  ██╔════╝██╔══██╗██║██╔══██╗██╔═══██╗██╔════╝██║   ██║╚══███╔╝ ║
║  ██║     ███████║██║██████╔╝██║   ██║█████╗  ██║   ██║  ███╔╝  ║
║  ██║     ██╔══██║██║██╔══██╗██║   ██║██╔══╝  ██║   ██║ ███╔╝   ║
║  ╚██████╗██║  ██║██║██║  ██║╚██████╔╝██║     ╚██████╔╝███████╗ ║
║   ╚═════╝╚═╝  ╚═╝╚═╝╚═╝  ╚═╝ ╚═════╝ ╚═╝      ╚═════╝ ╚══════╝ ║
║                                                                 ║
║              [ coverage-guided Cairo bytecode fuzzer ]          ║
╚═══════════════════════════════════════════════════════════════╝`

// MiniBanner is a compact version for the dashboard header.
const MiniBanner = `┌─ cairofuzz ─────────────────────────────────────────────────────┐`
