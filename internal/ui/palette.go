package ui

import "github.com/charmbracelet/lipgloss"

const (
	failureColorConstant  = "1"
	successColorConstant  = "2"
	warningColorConstant  = "3"
	commandColorConstant  = "6"
	emphasisColorConstant = "15"
)

// Palette colors single-line diagnostics by severity.
type Palette struct {
	failureStyle  lipgloss.Style
	warningStyle  lipgloss.Style
	successStyle  lipgloss.Style
	commandStyle  lipgloss.Style
	emphasisStyle lipgloss.Style
}

// NewPalette constructs the default palette.
func NewPalette() Palette {
	return Palette{
		failureStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color(failureColorConstant)).Bold(true),
		warningStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color(warningColorConstant)),
		successStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color(successColorConstant)),
		commandStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color(commandColorConstant)),
		emphasisStyle: lipgloss.NewStyle().Foreground(lipgloss.Color(emphasisColorConstant)).Bold(true),
	}
}

// Failure renders text red.
func (palette Palette) Failure(text string) string {
	return palette.failureStyle.Render(text)
}

// Warning renders text yellow.
func (palette Palette) Warning(text string) string {
	return palette.warningStyle.Render(text)
}

// Success renders text green.
func (palette Palette) Success(text string) string {
	return palette.successStyle.Render(text)
}

// Command renders a copy-pasteable command line cyan.
func (palette Palette) Command(text string) string {
	return palette.commandStyle.Render(text)
}

// Emphasis renders text bold.
func (palette Palette) Emphasis(text string) string {
	return palette.emphasisStyle.Render(text)
}
