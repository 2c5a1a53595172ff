package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"postexplorer/internal/config"
	"postexplorer/internal/domain"
	"postexplorer/internal/eventbus"
	"postexplorer/internal/ui"
	"postexplorer/internal/voice"
)

var errNoAPIKey = errors.New("no voice API key set (GEMINI_API_KEY or voice.api_key)")

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	a, err := newApp(cmd, opts, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	bus := a.bus()
	hub, err := a.hub(bus)
	if err != nil {
		return err
	}

	model := ui.NewModel(hub, ui.Options{
		UI:      a.cfg.UI,
		Voice:   newVoiceFactory(a.cfg.Voice, bus, a.log),
		Log:     a.log,
		Context: ctx,
	})

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if a.cfg.UI.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	if a.cfg.UI.Mouse {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(model, programOpts...)
	model.SetProgram(p)

	// Forward hub state changes to the UI
	eventChan := make(chan eventbus.DomainEvent, 100)
	done := make(chan struct{})
	defer close(done)
	for _, t := range domain.StateEventTypes() {
		unsubscribe := bus.Subscribe(t, func(e eventbus.DomainEvent) {
			select {
			case eventChan <- e:
			default:
				a.log.Debug().Str("event", string(e.Type())).Msg("event channel full, dropping event")
			}
		})
		defer unsubscribe()
	}
	go func() {
		for {
			select {
			case e := <-eventChan:
				p.Send(ui.EventMsg{Event: e})
			case <-done:
				return
			}
		}
	}()

	a.log.Info().Msg("starting UI")
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			// interrupted by a signal
			return nil
		}
		a.log.Error().Err(err).Msg("error running program")
		return fmt.Errorf("run program: %w", err)
	}
	a.log.Info().Msg("UI exited normally")
	return nil
}

// newVoiceFactory opens a session streaming from the configured input file
// (a FIFO fed by an audio recorder, for example) to the configured output
func newVoiceFactory(cfg config.VoiceConfig, bus eventbus.EventBus, log zerolog.Logger) ui.VoiceFactory {
	return func() (ui.VoiceSession, error) {
		if cfg.APIKey == "" {
			return nil, errNoAPIKey
		}
		if cfg.Input == "" {
			return nil, fmt.Errorf("no voice input configured (voice.input)")
		}

		in, err := os.Open(cfg.Input)
		if err != nil {
			return nil, fmt.Errorf("open voice input: %w", err)
		}
		files := []io.Closer{in}

		var out io.Writer = io.Discard
		if cfg.Output != "" {
			f, err := os.OpenFile(cfg.Output, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
			if err != nil {
				in.Close()
				return nil, fmt.Errorf("open voice output: %w", err)
			}
			out = f
			files = append(files, f)
		}

		session := voice.NewSession(voiceConfig(cfg), in, out, voice.WithBus(bus), voice.WithLogger(log))
		return &fileSession{Session: session, files: files}, nil
	}
}

func voiceConfig(cfg config.VoiceConfig) voice.Config {
	return voice.Config{
		URL:         cfg.URL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Voice:       cfg.Voice,
		Instruction: cfg.Instruction,
	}
}

// fileSession closes the audio files together with the session
type fileSession struct {
	*voice.Session
	files []io.Closer
}

func (f *fileSession) Close() error {
	err := f.Session.Close()
	for _, c := range f.files {
		_ = c.Close()
	}
	return err
}
