// Package styles provides the colour palette and styling for the chat TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Badge labels shown next to every answer.
const (
	GroundedLabel   = "from your records"
	UngroundedLabel = "not in your records"
)

// Theme is the chat palette. Answer provenance gets its own pair of colours
// so a reader can tell record-backed answers from general advice at a glance.
type Theme struct {
	// Brand colours the header.
	Brand lipgloss.Color

	// Patient colours the user's questions.
	Patient lipgloss.Color

	// Text is the answer body colour.
	Text lipgloss.Color

	// Heading colours section titles such as Recommendations.
	Heading lipgloss.Color

	// Subtle is for citations, hints and status text.
	Subtle lipgloss.Color

	// Grounded marks answers built from the records.
	Grounded lipgloss.Color

	// Ungrounded marks answers from general knowledge.
	Ungrounded lipgloss.Color

	// Alert is used for failures.
	Alert lipgloss.Color

	// Ink is the text colour on badges.
	Ink lipgloss.Color

	// Frame is the input border colour.
	Frame lipgloss.Color

	// StatusBackground fills the status bar.
	StatusBackground lipgloss.Color
}

// DefaultTheme returns a muted clinical palette.
func DefaultTheme() *Theme {
	return &Theme{
		Brand:            lipgloss.Color("#14B8A6"), // teal
		Patient:          lipgloss.Color("#93C5FD"), // light blue
		Text:             lipgloss.Color("#E2E8F0"),
		Heading:          lipgloss.Color("#5EEAD4"),
		Subtle:           lipgloss.Color("#64748B"),
		Grounded:         lipgloss.Color("#22C55E"),
		Ungrounded:       lipgloss.Color("#F59E0B"),
		Alert:            lipgloss.Color("#EF4444"),
		Ink:              lipgloss.Color("#0F172A"),
		Frame:            lipgloss.Color("#334155"),
		StatusBackground: lipgloss.Color("#1E293B"),
	}
}

// Styles contains the lipgloss styles used by the chat screen.
type Styles struct {
	theme *Theme

	Header     lipgloss.Style
	Tagline    lipgloss.Style
	Question   lipgloss.Style
	Answer     lipgloss.Style
	Heading    lipgloss.Style
	Citation   lipgloss.Style
	Hint       lipgloss.Style
	Grounded   lipgloss.Style
	Ungrounded lipgloss.Style
	Alert      lipgloss.Style
	Prompt     lipgloss.Style
	InputField lipgloss.Style

	// Indexed renders the chunk count in the status bar.
	Indexed lipgloss.Style

	StatusBar lipgloss.Style
}

// NewStyles creates styles from a theme. A nil theme means DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	badge := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.Ink).
		Padding(0, 1)

	return &Styles{
		theme: theme,

		Header:   lipgloss.NewStyle().Bold(true).Foreground(theme.Brand),
		Tagline:  lipgloss.NewStyle().Italic(true).Foreground(theme.Subtle),
		Question: lipgloss.NewStyle().Bold(true).Foreground(theme.Patient),
		Answer:   lipgloss.NewStyle().Foreground(theme.Text),
		Heading:  lipgloss.NewStyle().Bold(true).Foreground(theme.Heading),
		Citation: lipgloss.NewStyle().Italic(true).Foreground(theme.Subtle),
		Hint:     lipgloss.NewStyle().Foreground(theme.Subtle),

		Grounded:   badge.Background(theme.Grounded),
		Ungrounded: badge.Background(theme.Ungrounded),

		Alert:  lipgloss.NewStyle().Bold(true).Foreground(theme.Alert),
		Prompt: lipgloss.NewStyle().Bold(true).Foreground(theme.Patient),
		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Frame).
			Padding(0, 1),

		Indexed: lipgloss.NewStyle().Foreground(theme.Grounded),
		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Subtle).
			Background(theme.StatusBackground).
			Padding(0, 1),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Badge renders the provenance badge for an answer.
func (s *Styles) Badge(grounded bool) string {
	if grounded {
		return s.Grounded.Render(GroundedLabel)
	}
	return s.Ungrounded.Render(UngroundedLabel)
}
