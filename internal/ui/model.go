package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"postexplorer/internal/config"
	"postexplorer/internal/domain"
	"postexplorer/internal/ui/input"
	inputtypes "postexplorer/internal/ui/input/types"
	"postexplorer/internal/ui/logic"
	"postexplorer/internal/ui/views"
)

// Explorer is the read and write surface of the explorer hub used by the TUI
type Explorer interface {
	Start(ctx context.Context) error
	Snapshot() domain.Snapshot
	SetSearchQuery(query string)
	Refresh(ctx context.Context) error
	Retry(ctx context.Context) error
	ClearSearchHistory(ctx context.Context)
}

// Options configures the UI model
type Options struct {
	UI      config.UISettings
	Voice   VoiceFactory // nil disables the voice overlay
	Pager   Pager        // defaults to the ov pager once a program is set
	Log     zerolog.Logger
	Context context.Context
}

const statusTimeout = 3 * time.Second

// Model represents the UI state
type Model struct {
	explorer Explorer
	ctx      context.Context
	log      zerolog.Logger

	// UI-specific state
	width    int
	height   int
	snapshot domain.Snapshot
	// selectedID keys the selection so it survives refreshes and filtering
	selectedID    int
	statusMessage string
	inPagerMode   bool

	// Popups used when the pager is unavailable
	detailContent string
	helpContent   string
	voice         *voiceOverlay

	help       help.Model
	keys       keyMap
	searchKeys searchKeyMap
	spinner    spinner.Model

	navigator    *logic.Navigator
	pull         *logic.PullTracker
	renderer     *views.Renderer
	helpRenderer *HelpRenderer
	inputHandler *input.Handler
	voiceFactory VoiceFactory

	pager    Pager
	pagerOps *PagerOps

	// Program reference for terminal management
	program *tea.Program
}

// NewModel creates a new UI model
func NewModel(explorer Explorer, opts Options) *Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := &Model{
		explorer:     explorer,
		ctx:          ctx,
		log:          opts.Log.With().Str("component", "ui").Logger(),
		snapshot:     explorer.Snapshot(),
		help:         help.New(),
		keys:         newKeyMap(),
		searchKeys:   newSearchKeyMap(),
		spinner:      s,
		navigator:    logic.NewNavigator(),
		pull:         logic.NewPullTracker(opts.UI.PullThreshold, opts.UI.PullUnitsPerRow),
		renderer:     views.NewRenderer(),
		helpRenderer: NewHelpRenderer(),
		inputHandler: input.New(),
		voiceFactory: opts.Voice,
		pager:        opts.Pager,
	}
	m.navigator.SetTotal(len(m.snapshot.Posts))
	return m
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
	if m.pager == nil {
		m.pagerOps = NewPagerOps()
		m.pager = m.pagerOps
	}
	if m.pagerOps != nil {
		m.pagerOps.SetProgram(p)
	}
}

// Init starts the spinner and the initial restore and load
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start())
}

func (m *Model) start() tea.Cmd {
	return func() tea.Msg {
		return startedMsg{err: m.explorer.Start(m.ctx)}
	}
}

// load starts a refresh (background) or a retry (foreground)
func (m *Model) load(background bool) tea.Cmd {
	return func() tea.Msg {
		var err error
		if background {
			err = m.explorer.Refresh(m.ctx)
		} else {
			err = m.explorer.Retry(m.ctx)
		}
		return loadDoneMsg{background: background, err: err}
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.updateViewportHeight()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case spinner.TickMsg:
		if m.inPagerMode {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		return m.handleNonKeyboardMsg(msg)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Popups take the keyboard first
	if m.voice != nil {
		switch msg.String() {
		case "ctrl+c":
			return m, m.quit()
		case "v", "esc", "q":
			return m, m.closeVoiceOverlay()
		}
		return m, nil
	}
	if m.detailContent != "" || m.helpContent != "" {
		switch msg.String() {
		case "ctrl+c":
			return m, m.quit()
		case "esc", "q", "enter", "?":
			m.detailContent = ""
			m.helpContent = ""
		}
		return m, nil
	}

	ctx := &input.ModelContext{
		Snapshot:  m.snapshot,
		Navigator: m.navigator,
	}
	actions, cmd := m.inputHandler.HandleKey(msg, ctx)

	cmds := []tea.Cmd{}
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	for _, action := range actions {
		if actionCmd := m.processAction(action); actionCmd != nil {
			cmds = append(cmds, actionCmd)
		}
	}
	return m, tea.Batch(cmds...)
}

// processAction processes an action from the input handler
func (m *Model) processAction(action inputtypes.Action) tea.Cmd {
	m.log.Debug().Str("action", action.Type()).Msg("processAction")
	switch a := action.(type) {
	case inputtypes.NavigateAction:
		switch a.Direction {
		case "up":
			m.navigator.Move(-1)
		case "down":
			m.navigator.Move(1)
		case "pageup":
			m.navigator.PageUp()
		case "pagedown":
			m.navigator.PageDown()
		case "home":
			m.navigator.Home()
		case "end":
			m.navigator.End()
		}
		m.rememberSelection()

	case inputtypes.UpdateTextAction:
		m.setQuery(a.Text)

	case inputtypes.SubmitTextAction:
		if a.Mode == inputtypes.ModeSearch {
			m.setQuery(a.Text)
		}

	case inputtypes.ClearQueryAction:
		m.setQuery("")
		m.setStatus("Search cleared")
		return clearStatusAfter()

	case inputtypes.ClearHistoryAction:
		return func() tea.Msg {
			m.explorer.ClearSearchHistory(m.ctx)
			return historyClearedMsg{}
		}

	case inputtypes.RefreshAction:
		return m.load(true)

	case inputtypes.RetryAction:
		return m.load(false)

	case inputtypes.OpenPostAction:
		post, ok := m.postByID(a.ID)
		if !ok {
			return nil
		}
		return m.showInPager("post", m.helpRenderer.RenderPostDetail(post))

	case inputtypes.ToggleHelpAction:
		return m.showInPager("help", m.helpRenderer.RenderHelpContent())

	case inputtypes.ToggleVoiceAction:
		return m.openVoiceOverlay()

	case inputtypes.QuitAction:
		return m.quit()
	}
	return nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.voice != nil || m.detailContent != "" || m.helpContent != "" {
		return nil
	}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.pull.Cancel()
		m.navigator.Move(-1)
		m.rememberSelection()
	case msg.Button == tea.MouseButtonWheelDown:
		m.pull.Cancel()
		m.navigator.Move(1)
		m.rememberSelection()
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.pull.Press(msg.Y, m.navigator.AtTop())
	case msg.Action == tea.MouseActionMotion:
		m.pull.Move(msg.Y)
	case msg.Action == tea.MouseActionRelease:
		if m.pull.Release(msg.Y) {
			m.log.Debug().Msg("pull to refresh triggered")
			return m.load(true)
		}
	}
	return nil
}

// handleNonKeyboardMsg handles non-keyboard messages
func (m *Model) handleNonKeyboardMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		// Hub state changed, re-read it
		m.syncSnapshot()
		return m, nil

	case startedMsg:
		m.syncSnapshot()
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Msg("initial load failed")
		}
		return m, nil

	case loadDoneMsg:
		m.syncSnapshot()
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Bool("background", msg.background).Msg("load failed")
		}
		return m, nil

	case historyClearedMsg:
		m.setStatus("Saved search forgotten")
		return m, clearStatusAfter()

	case pagerDoneMsg:
		if msg.err != nil {
			// Pager failed, fall back to a popup
			m.log.Warn().Err(msg.err).Str("content", msg.what).Msg("pager failed, falling back to popup")
			m.showPopup(msg.what, msg.fallback)
		}
		return m, nil

	case voiceOpenedMsg:
		return m, m.handleVoiceOpened(msg)

	case voiceEventMsg:
		return m, m.handleVoiceEvent(msg)

	case pauseRenderingMsg:
		m.inPagerMode = true
		return m, nil

	case resumeRenderingMsg:
		m.inPagerMode = false
		return m, m.spinner.Tick

	case clearStatusMsg:
		m.statusMessage = ""
		return m, nil

	default:
		// Cursor blink and other text input messages
		return m, m.inputHandler.Update(msg)
	}
}

// View renders the UI
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	state := views.ViewState{
		Width:          m.width,
		Height:         m.height,
		Snapshot:       m.snapshot,
		SelectedIndex:  m.navigator.Selected(),
		ViewportOffset: m.navigator.Offset(),
		ViewportHeight: m.navigator.Height(),
		SpinnerView:    m.spinner.View(),
		PullActive:     m.pull.Active(),
		PullArmed:      m.pull.Armed(),
		PullDistance:   m.pull.Distance(),
		PullThreshold:  m.pull.Threshold(),
		StatusMessage:  m.statusMessage,
		DetailContent:  m.detailContent,
		HelpContent:    m.helpContent,
	}
	if ti := m.inputHandler.TextInput(); ti != nil {
		state.Searching = true
		state.SearchInput = ti.View()
		state.HelpView = m.help.View(m.searchKeys)
	} else {
		state.HelpView = m.help.View(m.keys)
	}
	if m.voice != nil {
		state.Voice = m.voice.view()
	}
	return m.renderer.Render(state)
}

// syncSnapshot re-reads the hub and keeps the selection on the same post
func (m *Model) syncSnapshot() {
	m.snapshot = m.explorer.Snapshot()
	m.navigator.SetTotal(len(m.snapshot.Posts))
	m.reconcileSelection()
}

func (m *Model) reconcileSelection() {
	if m.selectedID != 0 {
		for i, p := range m.snapshot.Posts {
			if p.ID == m.selectedID {
				m.navigator.Select(i)
				return
			}
		}
	}
	// The selected post is gone, keep the position and adopt whatever is there now
	m.rememberSelection()
}

func (m *Model) rememberSelection() {
	i := m.navigator.Selected()
	if i >= 0 && i < len(m.snapshot.Posts) {
		m.selectedID = m.snapshot.Posts[i].ID
		return
	}
	m.selectedID = 0
}

func (m *Model) setQuery(query string) {
	m.explorer.SetSearchQuery(query)
	m.syncSnapshot()
}

func (m *Model) postByID(id int) (domain.Post, bool) {
	for _, p := range m.snapshot.Posts {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Post{}, false
}

func (m *Model) updateViewportHeight() {
	rows := m.height - views.ChromeHeight
	items := rows / views.PostHeight
	if items < 1 {
		items = 1
	}
	m.navigator.SetViewportHeight(items)
}

func (m *Model) setStatus(msg string) {
	m.statusMessage = msg
}

func clearStatusAfter() tea.Cmd {
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

// showInPager returns a command that shows content in the pager,
// or shows it in a popup right away when there is no pager
func (m *Model) showInPager(what, content string) tea.Cmd {
	if m.pager == nil {
		m.showPopup(what, content)
		return nil
	}
	pager := m.pager
	program := m.program
	return func() tea.Msg {
		// Pause rendering while the pager owns the terminal
		if program != nil {
			program.Send(pauseRenderingMsg{})
		}
		err := pager.Show(content)
		if program != nil {
			program.Send(resumeRenderingMsg{})
		}
		return pagerDoneMsg{what: what, fallback: content, err: err}
	}
}

func (m *Model) showPopup(what, content string) {
	if what == "help" {
		m.helpContent = content
		return
	}
	m.detailContent = content
}

func (m *Model) openVoiceOverlay() tea.Cmd {
	if m.voiceFactory == nil {
		m.setStatus("Voice assistant is not configured")
		return clearStatusAfter()
	}
	m.voice = &voiceOverlay{connecting: true}
	return openVoice(m.ctx, m.voiceFactory)
}

func (m *Model) closeVoiceOverlay() tea.Cmd {
	overlay := m.voice
	m.voice = nil
	if overlay == nil || overlay.session == nil {
		return nil
	}
	return closeVoice(overlay.session)
}

func (m *Model) handleVoiceOpened(msg voiceOpenedMsg) tea.Cmd {
	if m.voice == nil || !m.voice.connecting {
		// Overlay was closed while connecting
		if msg.session != nil {
			return closeVoice(msg.session)
		}
		return nil
	}
	m.voice.connecting = false
	if msg.err != nil {
		m.log.Warn().Err(msg.err).Msg("voice session failed to open")
		m.voice.err = fmt.Sprintf("Could not connect: %v", msg.err)
		return nil
	}
	m.voice.session = msg.session
	return waitVoice(msg.session)
}

func (m *Model) handleVoiceEvent(msg voiceEventMsg) tea.Cmd {
	if m.voice == nil || m.voice.session != msg.session {
		// Event from a session that was already closed
		return nil
	}
	if !msg.ok {
		m.voice.session = nil
		return closeVoice(msg.session)
	}
	m.voice.transcript.Apply(msg.event)
	if msg.event.Err != nil {
		m.voice.err = msg.event.Err.Error()
	}
	return waitVoice(msg.session)
}

func (m *Model) quit() tea.Cmd {
	if closeCmd := m.closeVoiceOverlay(); closeCmd != nil {
		return tea.Sequence(closeCmd, tea.Quit)
	}
	return tea.Quit
}
