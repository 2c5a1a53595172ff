package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"postexplorer/internal/ui/views"
	"postexplorer/internal/voice"
)

// VoiceSession is the part of a voice session the overlay drives
type VoiceSession interface {
	Open(ctx context.Context) error
	Events() <-chan voice.Event
	Close() error
}

// VoiceFactory creates a fresh, unopened session each time the overlay opens
type VoiceFactory func() (VoiceSession, error)

const voiceOpenTimeout = 30 * time.Second

// voiceOverlay is the state of the voice popup while it is shown
type voiceOverlay struct {
	session    VoiceSession // nil while connecting or after the session ended
	connecting bool
	transcript voice.Transcript
	err        string
}

func (v *voiceOverlay) view() *views.VoiceView {
	status := "Listening"
	switch {
	case v.connecting:
		status = "Connecting..."
	case v.session == nil:
		status = "Disconnected"
	}
	return &views.VoiceView{
		Status:    status,
		User:      v.transcript.User,
		Assistant: v.transcript.Assistant,
		Err:       v.err,
	}
}

// openVoice creates and opens a session
func openVoice(ctx context.Context, factory VoiceFactory) tea.Cmd {
	return func() tea.Msg {
		session, err := factory()
		if err != nil {
			return voiceOpenedMsg{err: err}
		}
		openCtx, cancel := context.WithTimeout(ctx, voiceOpenTimeout)
		defer cancel()
		if err := session.Open(openCtx); err != nil {
			_ = session.Close()
			return voiceOpenedMsg{err: err}
		}
		return voiceOpenedMsg{session: session}
	}
}

// waitVoice waits for the next event of the session
func waitVoice(session VoiceSession) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-session.Events()
		return voiceEventMsg{session: session, event: ev, ok: ok}
	}
}

// closeVoice closes a session off the update loop; Close waits for the reader
func closeVoice(session VoiceSession) tea.Cmd {
	return func() tea.Msg {
		_ = session.Close()
		return nil
	}
}
