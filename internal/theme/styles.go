package theme

import "github.com/charmbracelet/lipgloss"

// Color is an alias for lipgloss.Color for convenience
type Color = lipgloss.Color

// Semantic colors for CLI output
const (
	ColorError   Color = "196" // Bright red
	ColorGood    Color = "2"   // Green - high focus quality
	ColorHeading Color = "99"  // Purple - titles
	ColorMuted   Color = "241" // Gray - secondary text
	ColorPoor    Color = "1"   // Red - low focus quality
	ColorWarn    Color = "3"   // Yellow - middling focus quality
)

var (
	// HeadingStyle renders section titles in session summaries
	HeadingStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorHeading)

	// LabelStyle renders metric labels
	LabelStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	// ErrorStyle renders error lines
	ErrorStyle = lipgloss.NewStyle().Foreground(ColorError)
)

// QualityStyle picks a style for a focus-quality percentage.
func QualityStyle(quality int) lipgloss.Style {
	switch {
	case quality >= 75:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorGood)
	case quality >= 40:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorWarn)
	default:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorPoor)
	}
}
