package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"postexplorer/internal/voice"
)

func newVoiceCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "voice",
		Short: "Talk to the voice assistant, raw PCM on stdin and stdout",
		Long: "Talk to the voice assistant.\n\n" +
			"Reads 16 kHz 16-bit mono PCM from stdin and writes the assistant's\n" +
			"24 kHz 16-bit mono PCM to stdout. Transcripts go to stderr.",
		Example: "  arecord -f S16_LE -r 16000 -c 1 -t raw | postexplorer voice | aplay -f S16_LE -r 24000 -c 1 -t raw",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.Voice.APIKey == "" {
				return errNoAPIKey
			}

			session := voice.NewSession(voiceConfig(a.cfg.Voice), cmd.InOrStdin(), cmd.OutOrStdout(), voice.WithLogger(a.log))
			if err := session.Open(cmd.Context()); err != nil {
				return err
			}
			defer session.Close()

			stderr := cmd.ErrOrStderr()
			var transcript voice.Transcript
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case ev, ok := <-session.Events():
					if !ok {
						return nil
					}
					transcript.Apply(ev)
					switch ev.Kind {
					case voice.EventInputTranscript:
						fmt.Fprintf(stderr, "you: %s\n", transcript.User)
					case voice.EventTurnComplete:
						fmt.Fprintln(stderr)
					case voice.EventOutputTranscript:
						fmt.Fprint(stderr, ev.Text)
					case voice.EventClosed:
						if ev.Err != nil {
							return ev.Err
						}
					}
				}
			}
		},
	}
}
