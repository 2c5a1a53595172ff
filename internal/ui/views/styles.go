package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title            lipgloss.Style
	Dim              lipgloss.Style
	Status           lipgloss.Style
	Filter           lipgloss.Style
	SearchPrompt     lipgloss.Style
	ResultCount      lipgloss.Style
	InfoBox          lipgloss.Style
	VoiceBox         lipgloss.Style
	Help             lipgloss.Style
	Main             lipgloss.Style
	Scroll           lipgloss.Style
	Highlight        lipgloss.Style
	PostTitle        lipgloss.Style
	PostID           lipgloss.Style
	PostBody         lipgloss.Style
	Skeleton         lipgloss.Style
	ErrorTitle       lipgloss.Style
	EmptyTitle       lipgloss.Style
	StatusError      lipgloss.Style
	StatusLoading    lipgloss.Style
	StatusRefreshing lipgloss.Style
	PullArmed        lipgloss.Style
	SelectionBg      lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Dim: lipgloss.NewStyle().Faint(true),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Filter:       lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		SearchPrompt: lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		ResultCount:  lipgloss.NewStyle().Foreground(lipgloss.Color("78")), // green
		InfoBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2).
			BorderForeground(lipgloss.Color("241")),
		VoiceBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2).
			Width(56).
			BorderForeground(lipgloss.Color("99")),
		Help: lipgloss.NewStyle().Faint(true),
		Main: lipgloss.NewStyle().
			Padding(1, 2),
		Scroll:           lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
		Highlight:        lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		PostTitle:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		PostID:           lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		PostBody:         lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Skeleton:         lipgloss.NewStyle().Foreground(lipgloss.Color("237")),
		ErrorTitle:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")), // red
		EmptyTitle:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		StatusError:      lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		StatusLoading:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")), // gray
		StatusRefreshing: lipgloss.NewStyle().Foreground(lipgloss.Color("51")),  // cyan
		PullArmed:        lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Bold(true),
		SelectionBg:      lipgloss.NewStyle().Background(lipgloss.Color("238")),
	}
}
