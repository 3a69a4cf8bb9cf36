package report

import "github.com/charmbracelet/lipgloss"

// Theme defines all colors used by the report card and spinner.
// Use DarkTheme() or LightTheme() to get a pre-built theme,
// or construct a custom Theme.
type Theme struct {
	Primary   lipgloss.Color // warm accent: title, spinner
	Secondary lipgloss.Color // cool accent: model and provider
	Error     lipgloss.Color // misses, errors
	Warning   lipgloss.Color // absent responses
	Success   lipgloss.Color // matches
	Text      lipgloss.Color // primary text
	TextMuted lipgloss.Color // field names, raw response
	Border    lipgloss.Color // card border
}

// DarkTheme returns the default dark theme.
func DarkTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("#fab283"),
		Secondary: lipgloss.Color("#5c9cf5"),
		Error:     lipgloss.Color("#e06c75"),
		Warning:   lipgloss.Color("#f5a742"),
		Success:   lipgloss.Color("#7fd88f"),
		Text:      lipgloss.Color("#eeeeee"),
		TextMuted: lipgloss.Color("#808080"),
		Border:    lipgloss.Color("#484848"),
	}
}

// LightTheme returns a light theme for bright terminal backgrounds.
func LightTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("#b35c00"),
		Secondary: lipgloss.Color("#0550ae"),
		Error:     lipgloss.Color("#cf222e"),
		Warning:   lipgloss.Color("#bf8700"),
		Success:   lipgloss.Color("#116329"),
		Text:      lipgloss.Color("#1f2328"),
		TextMuted: lipgloss.Color("#656d76"),
		Border:    lipgloss.Color("#d0d7de"),
	}
}

// ThemeByName returns a theme by name. Defaults to dark.
func ThemeByName(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	default:
		return DarkTheme()
	}
}

// styles holds all lipgloss styles derived from a Theme.
type styles struct {
	card   lipgloss.Style
	title  lipgloss.Style
	key    lipgloss.Style
	text   lipgloss.Style
	model  lipgloss.Style
	match  lipgloss.Style
	miss   lipgloss.Style
	absent lipgloss.Style
	dim    lipgloss.Style
	spin   lipgloss.Style
}

// newStyles builds all styles from a theme.
func newStyles(t Theme) styles {
	return styles{
		card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		key:    lipgloss.NewStyle().Foreground(t.TextMuted).Width(10),
		text:   lipgloss.NewStyle().Foreground(t.Text),
		model:  lipgloss.NewStyle().Foreground(t.Secondary),
		match:  lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		miss:   lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		absent: lipgloss.NewStyle().Foreground(t.Warning),
		dim:    lipgloss.NewStyle().Foreground(t.TextMuted),
		spin:   lipgloss.NewStyle().Foreground(t.Primary),
	}
}
