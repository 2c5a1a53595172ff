package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"postexplorer/internal/domain"
)

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width  int
	Height int

	Snapshot       domain.Snapshot
	SelectedIndex  int
	ViewportOffset int
	ViewportHeight int // in posts

	Searching   bool   // search bar has focus
	SearchInput string // rendered text input while searching
	SpinnerView string

	PullActive    bool
	PullArmed     bool
	PullDistance  int
	PullThreshold int

	StatusMessage string
	HelpView      string

	// Popups, at most one is shown
	DetailContent string
	HelpContent   string
	Voice         *VoiceView
}

// VoiceView is the voice assistant overlay
type VoiceView struct {
	Status    string
	User      string
	Assistant string
	Err       string
}

// Renderer handles all view rendering
type Renderer struct {
	styles      *Styles
	postRender  *PostRenderer
	popupRender *PopupRenderer
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	styles := NewStyles()
	return &Renderer{
		styles:      styles,
		postRender:  NewPostRenderer(styles),
		popupRender: NewPopupRenderer(styles),
	}
}

// ChromeHeight is the number of rows used by everything except the list
// body: container padding, header, search bar, pull row, scroll indicators,
// status and help footer.
const ChromeHeight = 2 + 2 + 2 + 1 + 2 + 2

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	content := &strings.Builder{}

	content.WriteString(r.renderHeader(state))
	content.WriteString("\n\n")

	content.WriteString(r.renderSearchBar(state))
	content.WriteString("\n")

	content.WriteString(r.renderPullIndicator(state))
	content.WriteString("\n")

	content.WriteString(r.renderBody(state))

	footer := ""
	if state.StatusMessage != "" {
		footer = r.styles.Status.Render(state.StatusMessage) + "\n"
	}
	if state.HelpView != "" {
		footer += state.HelpView
	} else {
		footer += r.styles.Help.Render("Press ? for help")
	}

	// Push the footer to the bottom
	currentLines := strings.Count(content.String(), "\n") + 1
	availableLines := state.Height - 2
	if availableLines <= 0 {
		availableLines = 22
	}
	footerLines := strings.Count(footer, "\n") + 1
	if padding := availableLines - currentLines - footerLines; padding > 0 {
		content.WriteString(strings.Repeat("\n", padding))
	}
	content.WriteString("\n")
	content.WriteString(footer)

	mainStyle := r.styles.Main
	if state.Height > 0 {
		mainStyle = mainStyle.MaxHeight(state.Height)
	}
	finalContent := mainStyle.Render(content.String())

	switch {
	case state.Voice != nil:
		return r.popupRender.RenderPopupOverlay(finalContent, r.renderVoice(state.Voice), state.Height, state.Width, r.styles.VoiceBox)
	case state.DetailContent != "":
		return r.popupRender.RenderPopupOverlay(finalContent, state.DetailContent, state.Height, state.Width, r.styles.InfoBox)
	case state.HelpContent != "":
		return r.popupRender.RenderPopupOverlay(finalContent, state.HelpContent, state.Height, state.Width, r.styles.InfoBox)
	}
	return finalContent
}

func (r *Renderer) renderHeader(state ViewState) string {
	logo := r.styles.Title.Render("Post Explorer")

	var indicators []string
	if state.Snapshot.IsRefreshing {
		indicators = append(indicators, r.styles.StatusRefreshing.Render(state.SpinnerView+" Refreshing"))
	}
	if state.Snapshot.Status == domain.StatusLoading && !state.Snapshot.IsRefreshing {
		indicators = append(indicators, r.styles.StatusLoading.Render(state.SpinnerView+" Loading"))
	}
	if q := strings.TrimSpace(state.Snapshot.SearchQuery); q != "" {
		indicators = append(indicators, r.styles.Filter.Render(fmt.Sprintf("[Filter: %s]", q)))
	}
	if len(indicators) == 0 {
		return logo
	}

	rightContent := strings.Join(indicators, "  ")
	termWidth := state.Width
	if termWidth <= 0 {
		termWidth = 80
	}
	paddingWidth := termWidth - 4 - lipgloss.Width(logo) - lipgloss.Width(rightContent)
	if paddingWidth < 2 {
		paddingWidth = 2
	}
	return logo + strings.Repeat(" ", paddingWidth) + rightContent
}

func (r *Renderer) renderSearchBar(state ViewState) string {
	prompt := r.styles.SearchPrompt.Render("Search: ")

	var bar string
	switch {
	case state.Searching:
		bar = prompt + state.SearchInput
	case state.Snapshot.SearchQuery != "":
		bar = prompt + state.Snapshot.SearchQuery + r.styles.Dim.Render("  (x to clear)")
	default:
		bar = r.styles.Dim.Render("Press / to search posts...")
	}

	count := ""
	if strings.TrimSpace(state.Snapshot.SearchQuery) != "" && state.Snapshot.Status == domain.StatusSuccess {
		count = r.styles.ResultCount.Render(ResultsLabel(len(state.Snapshot.Posts)))
	}
	return bar + "\n" + count
}

// ResultsLabel formats the result counter shown while a query is active
func ResultsLabel(n int) string {
	if n == 1 {
		return "1 Result found"
	}
	return fmt.Sprintf("%d Results found", n)
}

func (r *Renderer) renderPullIndicator(state ViewState) string {
	if !state.PullActive {
		return ""
	}
	if state.PullArmed {
		return r.styles.PullArmed.Render("↑ Release to refresh")
	}
	return r.styles.Dim.Render(fmt.Sprintf("↓ Pull to refresh (%d/%d)", state.PullDistance, state.PullThreshold))
}

func (r *Renderer) renderBody(state ViewState) string {
	snap := state.Snapshot
	switch {
	case snap.Status == domain.StatusError:
		return r.renderError(snap)
	case (snap.Status == domain.StatusLoading || snap.Status == domain.StatusIdle) && !snap.IsRefreshing:
		return r.renderSkeleton(state)
	case len(snap.Posts) == 0:
		return r.renderEmpty(snap)
	default:
		return r.renderPostList(state)
	}
}

func (r *Renderer) renderSkeleton(state ViewState) string {
	count := state.ViewportHeight
	if count <= 0 || count > 5 {
		count = 5
	}
	cards := make([]string, 0, count)
	for i := 0; i < count; i++ {
		cards = append(cards, r.postRender.RenderSkeleton(state.Width-6))
	}
	return strings.Join(cards, "\n\n")
}

func (r *Renderer) renderError(snap domain.Snapshot) string {
	var b strings.Builder
	b.WriteString(r.styles.ErrorTitle.Render("Network Error"))
	b.WriteString("\n")
	if snap.LastError != "" {
		b.WriteString(r.styles.StatusError.Render(snap.LastError))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(r.styles.Dim.Render("Press r to retry"))
	return b.String()
}

func (r *Renderer) renderEmpty(snap domain.Snapshot) string {
	q := strings.TrimSpace(snap.SearchQuery)
	if q == "" {
		return r.styles.EmptyTitle.Render("No posts available") + "\n" +
			r.styles.Dim.Render("Press r to refresh")
	}
	return r.styles.EmptyTitle.Render("No matches found") + "\n" +
		r.styles.Dim.Render(fmt.Sprintf("We couldn't find any posts matching %q", q))
}

func (r *Renderer) renderPostList(state ViewState) string {
	posts := state.Snapshot.Posts
	start := state.ViewportOffset
	if start < 0 || start >= len(posts) {
		start = 0
	}
	end := start + state.ViewportHeight
	if state.ViewportHeight <= 0 || end > len(posts) {
		end = len(posts)
	}

	var lines []string
	if start > 0 {
		lines = append(lines, r.styles.Scroll.Render(fmt.Sprintf("↑ %d more above ↑", start)))
	}
	for i := start; i < end; i++ {
		card := r.postRender.RenderPost(posts[i], i == state.SelectedIndex, state.Snapshot.SearchQuery, state.Width-6)
		lines = append(lines, card)
		if i < end-1 {
			lines = append(lines, "")
		}
	}
	if below := len(posts) - end; below > 0 {
		lines = append(lines, r.styles.Scroll.Render(fmt.Sprintf("↓ %d more below ↓", below)))
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) renderVoice(v *VoiceView) string {
	var b strings.Builder
	b.WriteString(r.styles.Title.Render("Voice Assistant"))
	b.WriteString("\n")
	b.WriteString(r.styles.Dim.Render(v.Status))
	b.WriteString("\n\n")

	user := v.User
	if user == "" {
		user = "…"
	}
	b.WriteString(r.styles.SearchPrompt.Render("You: "))
	b.WriteString(user)
	b.WriteString("\n")
	b.WriteString(r.styles.ResultCount.Render("Assistant: "))
	b.WriteString(v.Assistant)

	if v.Err != "" {
		b.WriteString("\n\n")
		b.WriteString(r.styles.StatusError.Render(v.Err))
	}
	b.WriteString("\n\n")
	b.WriteString(r.styles.Help.Render("v/esc close"))
	return b.String()
}
