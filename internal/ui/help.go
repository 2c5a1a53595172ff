package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"postexplorer/internal/domain"
)

// HelpRenderer handles help and post detail content rendering
type HelpRenderer struct {
	title   lipgloss.Style
	section lipgloss.Style
	key     lipgloss.Style
	desc    lipgloss.Style
	dim     lipgloss.Style
}

// NewHelpRenderer creates a new help renderer
func NewHelpRenderer() *HelpRenderer {
	return &HelpRenderer{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).MarginBottom(1),
		section: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginTop(1),
		key:     lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		desc:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		dim:     lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241")),
	}
}

type helpEntry struct {
	keys string
	desc string
}

var helpSections = []struct {
	name    string
	entries []helpEntry
}{
	{"Navigation", []helpEntry{
		{"↑/↓, j/k", "Move selection"},
		{"PgUp/PgDn", "Page up/down"},
		{"gg/G", "Go to top/bottom"},
		{"Enter", "Open selected post"},
		{"Mouse wheel", "Scroll"},
	}},
	{"Search", []helpEntry{
		{"/", "Edit search query"},
		{"Enter/Esc", "Leave the search bar"},
		{"x", "Clear search query"},
		{"X", "Forget saved search"},
	}},
	{"Loading", []helpEntry{
		{"r", "Refresh (retry after an error)"},
		{"R", "Retry"},
		{"Drag down", "Pull to refresh"},
	}},
	{"Other", []helpEntry{
		{"v", "Voice assistant"},
		{"?", "Toggle this help"},
		{"q", "Quit"},
	}},
}

// RenderHelpContent renders the help information
func (r *HelpRenderer) RenderHelpContent() string {
	var help strings.Builder
	help.WriteString(r.title.Render("Post Explorer Help"))
	help.WriteString("\n")

	for i, section := range helpSections {
		help.WriteString(r.section.Render(section.name))
		help.WriteString("\n")
		for _, e := range section.entries {
			help.WriteString(fmt.Sprintf("  %s  %s\n", r.key.Render(fmt.Sprintf("%-12s", e.keys)), r.desc.Render(e.desc)))
		}
		if i < len(helpSections)-1 {
			help.WriteString("\n")
		}
	}
	help.WriteString(r.dim.Render("  Search matches post titles and bodies, ignoring case"))
	return help.String()
}

// RenderPostDetail renders the full text of a post
func (r *HelpRenderer) RenderPostDetail(p domain.Post) string {
	var b strings.Builder
	b.WriteString(r.title.Render(p.Title))
	b.WriteString("\n")
	b.WriteString(r.dim.Render(fmt.Sprintf("Post #%d by user %d", p.ID, p.UserID)))
	b.WriteString("\n\n")
	b.WriteString(r.desc.Render(p.Body))
	return b.String()
}
