package types

// Navigation actions
type NavigateAction struct {
	Direction string // "up", "down", "pageup", "pagedown", "home", "end"
}

func (a NavigateAction) Type() string { return "navigate" }

// Mode transition actions
type ChangeModeAction struct {
	Mode Mode
}

func (a ChangeModeAction) Type() string { return "change_mode" }

// Text input actions
type UpdateTextAction struct {
	Text string
}

func (a UpdateTextAction) Type() string { return "update_text" }

type SubmitTextAction struct {
	Text string
	Mode Mode // Which mode submitted the text
}

func (a SubmitTextAction) Type() string { return "submit_text" }

// Explorer actions
type RefreshAction struct{}

func (a RefreshAction) Type() string { return "refresh" }

type RetryAction struct{}

func (a RetryAction) Type() string { return "retry" }

type ClearQueryAction struct{}

func (a ClearQueryAction) Type() string { return "clear_query" }

type ClearHistoryAction struct{}

func (a ClearHistoryAction) Type() string { return "clear_history" }

type OpenPostAction struct {
	ID int
}

func (a OpenPostAction) Type() string { return "open_post" }

// Overlay actions
type ToggleHelpAction struct{}

func (a ToggleHelpAction) Type() string { return "toggle_help" }

type ToggleVoiceAction struct{}

func (a ToggleVoiceAction) Type() string { return "toggle_voice" }

type QuitAction struct {
	Force bool // true for Ctrl+C, false for 'q'
}

func (a QuitAction) Type() string { return "quit" }
