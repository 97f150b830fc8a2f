package styles

import "github.com/charmbracelet/lipgloss"

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports.
var (
	// CLI styles.
	CommandHeaderStyle lipgloss.Style
	DividerStyle       lipgloss.Style

	// Board styles.
	ColumnStyle         lipgloss.Style
	ColumnFocusedStyle  lipgloss.Style
	ColumnDropStyle     lipgloss.Style
	ColumnTitleStyle    lipgloss.Style
	TaskStyle           lipgloss.Style
	TaskSelectedStyle   lipgloss.Style
	TaskDraggingStyle   lipgloss.Style
	TaskMetaStyle       lipgloss.Style
	DropMarkerStyle     lipgloss.Style
	StatusStyle         lipgloss.Style
	StatusErrorStyle    lipgloss.Style
	HelpStyle           lipgloss.Style
	FormFieldStyle      lipgloss.Style
	FormFieldFocusStyle lipgloss.Style
	FormLabelStyle      lipgloss.Style
)

// ColorPool is used for deterministic color hashing of type tags.
var ColorPool []lipgloss.Color

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	CommandHeaderStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	DividerStyle = lipgloss.NewStyle().
		Foreground(p.Muted)

	ColumnStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Surface).
		Padding(0, 1)
	ColumnFocusedStyle = ColumnStyle.
		BorderForeground(p.Primary)
	ColumnDropStyle = ColumnStyle.
		BorderForeground(p.Warning)
	ColumnTitleStyle = lipgloss.NewStyle().
		Foreground(p.Foreground).
		Bold(true).
		MarginBottom(1)

	TaskStyle = lipgloss.NewStyle().
		Foreground(p.Foreground)
	TaskSelectedStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	TaskDraggingStyle = lipgloss.NewStyle().
		Foreground(p.Warning).
		Italic(true)
	TaskMetaStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	DropMarkerStyle = lipgloss.NewStyle().
		Foreground(p.Warning).
		Bold(true)

	StatusStyle = lipgloss.NewStyle().
		Foreground(p.Success)
	StatusErrorStyle = lipgloss.NewStyle().
		Foreground(p.Error)
	HelpStyle = lipgloss.NewStyle().
		Foreground(p.Muted)

	FormFieldStyle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(p.Muted).
		PaddingLeft(1)
	FormFieldFocusStyle = FormFieldStyle.
		BorderForeground(p.Primary)
	FormLabelStyle = lipgloss.NewStyle().
		Foreground(p.Secondary)

	ColorPool = []lipgloss.Color{
		p.Primary,
		p.Secondary,
		p.Success,
		p.Warning,
		p.Error,
	}
}

// ColorForString returns a deterministic color for a given string.
// The same string always produces the same color.
func ColorForString(s string) lipgloss.Color {
	var hash uint32
	for _, c := range s {
		hash = hash*31 + uint32(c)
	}
	return ColorPool[hash%uint32(len(ColorPool))]
}

// QuadrantColor maps an Eisenhower quadrant name to a palette color.
func QuadrantColor(q string) lipgloss.Color {
	switch q {
	case "do":
		return CurrentPalette.Error
	case "schedule":
		return CurrentPalette.Primary
	case "delegate":
		return CurrentPalette.Warning
	default:
		return CurrentPalette.Muted
	}
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}
