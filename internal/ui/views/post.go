package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"postexplorer/internal/domain"
)

// PostHeight is the number of terminal rows one post card occupies
const PostHeight = 3

// PostRenderer handles rendering of post cards
type PostRenderer struct {
	styles *Styles
}

// NewPostRenderer creates a new post renderer
func NewPostRenderer(styles *Styles) *PostRenderer {
	return &PostRenderer{styles: styles}
}

// RenderPost renders the two text rows of a card: title and first body line
func (r *PostRenderer) RenderPost(post domain.Post, isSelected bool, searchQuery string, width int) string {
	if width <= 0 {
		width = 80
	}
	textWidth := width - 4 // marker and padding
	if textWidth < 10 {
		textWidth = 10
	}

	marker := "  "
	if isSelected {
		marker = r.styles.Highlight.Render("▌ ")
	}

	id := r.styles.PostID.Render(fmt.Sprintf("#%d", post.ID))
	titleWidth := textWidth - lipgloss.Width(id) - 1
	title := r.highlight(truncate(post.Title, titleWidth), searchQuery, r.styles.PostTitle)

	firstLine := firstLine(post.Body)
	body := r.styles.PostBody.Render(truncate(firstLine, textWidth))

	titleLine := marker + title + " " + id
	bodyLine := "  " + body
	if isSelected {
		titleLine = r.styles.SelectionBg.Render(titleLine)
		bodyLine = r.styles.SelectionBg.Render(bodyLine)
	}
	return titleLine + "\n" + bodyLine
}

// RenderSkeleton renders a placeholder card of the same height
func (r *PostRenderer) RenderSkeleton(width int) string {
	if width <= 0 {
		width = 80
	}
	titleW := width / 2
	bodyW := width - 8
	if bodyW < titleW {
		bodyW = titleW
	}
	return "  " + r.styles.Skeleton.Render(strings.Repeat("▒", titleW)) + "\n" +
		"  " + r.styles.Skeleton.Render(strings.Repeat("░", bodyW))
}

// highlight emphasizes the first case-insensitive occurrence of query
func (r *PostRenderer) highlight(text, query string, base lipgloss.Style) string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return base.Render(text)
	}
	lower := strings.ToLower(text)
	idx := strings.Index(lower, q)
	if idx < 0 || len(lower) != len(text) {
		return base.Render(text)
	}
	return base.Render(text[:idx]) +
		r.styles.Highlight.Render(text[idx:idx+len(q)]) +
		base.Render(text[idx+len(q):])
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// truncate shortens s to at most width cells, adding an ellipsis
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
