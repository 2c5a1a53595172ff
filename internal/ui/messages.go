package ui

import (
	"postexplorer/internal/eventbus"
	"postexplorer/internal/voice"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// startedMsg is sent when the startup restore and first load finished
type startedMsg struct {
	err error
}

// loadDoneMsg contains the result of a user triggered refresh or retry
type loadDoneMsg struct {
	background bool
	err        error
}

// historyClearedMsg is sent after the persisted query was removed
type historyClearedMsg struct{}

// pagerDoneMsg contains the result of a pager command
type pagerDoneMsg struct {
	what     string
	fallback string // content shown in a popup when the pager failed
	err      error
}

// voiceOpenedMsg contains the result of opening a voice session
type voiceOpenedMsg struct {
	session VoiceSession
	err     error
}

// voiceEventMsg carries one event from the active voice session.
// ok is false once the session's event stream is closed.
type voiceEventMsg struct {
	session VoiceSession
	event   voice.Event
	ok      bool
}

// clearStatusMsg clears the status line
type clearStatusMsg struct{}

// pauseRenderingMsg signals to pause Bubble Tea rendering
type pauseRenderingMsg struct{}

// resumeRenderingMsg signals to resume Bubble Tea rendering
type resumeRenderingMsg struct{}
