package voice

// Transcript holds the two caption lines shown while a session runs
type Transcript struct {
	User      string
	Assistant string
}

// Apply folds a session event into the captions.
// The user line is replaced by each input transcription, the assistant line
// accumulates output transcriptions until the turn completes.
func (t *Transcript) Apply(ev Event) {
	switch ev.Kind {
	case EventInputTranscript:
		t.User = ev.Text
	case EventOutputTranscript:
		t.Assistant += ev.Text
	case EventTurnComplete:
		t.Assistant = ""
	}
}

// Reset clears both lines
func (t *Transcript) Reset() {
	t.User = ""
	t.Assistant = ""
}
