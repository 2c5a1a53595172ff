package voice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLive is a websocket peer speaking the live envelope format
type fakeLive struct {
	t        *testing.T
	upgrader websocket.Upgrader

	mu       sync.Mutex
	setup    *setupMessage
	chunks   [][]byte
	rawQuery string

	script []serverMessage
}

func (f *fakeLive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if !assert.NoError(f.t, err) {
		return
	}
	defer conn.Close()

	f.mu.Lock()
	f.rawQuery = r.URL.RawQuery
	f.mu.Unlock()

	var first clientMessage
	if !assert.NoError(f.t, conn.ReadJSON(&first)) {
		return
	}
	f.mu.Lock()
	f.setup = first.Setup
	f.mu.Unlock()
	_ = conn.WriteJSON(serverMessage{SetupComplete: &struct{}{}})

	// wait for one audio chunk before replying
	var in clientMessage
	if err := conn.ReadJSON(&in); err != nil {
		return
	}
	if in.RealtimeInput != nil {
		for _, c := range in.RealtimeInput.MediaChunks {
			assert.Equal(f.t, inputMimeType, c.MimeType)
			data, _ := base64.StdEncoding.DecodeString(c.Data)
			f.mu.Lock()
			f.chunks = append(f.chunks, data)
			f.mu.Unlock()
		}
	}

	for _, msg := range f.script {
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	// drain until the client goes away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

type discardBuffer struct {
	bytes.Buffer
	discards int
}

func (d *discardBuffer) Discard() {
	d.discards++
	d.Reset()
}

func collect(t *testing.T, s *Session) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("session did not finish")
			return out
		}
	}
}

func TestSessionRoundTrip(t *testing.T) {
	audio := []byte{1, 2, 3, 4}
	live := &fakeLive{
		t: t,
		script: []serverMessage{
			{ServerContent: &serverContent{InputTranscription: &transcription{Text: "show me posts"}}},
			{ServerContent: &serverContent{OutputTranscription: &transcription{Text: "Sure, "}}},
			{ServerContent: &serverContent{OutputTranscription: &transcription{Text: "here you go."}}},
			{ServerContent: &serverContent{ModelTurn: &content{Parts: []part{{
				InlineData: &blob{MimeType: "audio/pcm;rate=24000", Data: base64.StdEncoding.EncodeToString(audio)},
			}}}}},
			{ServerContent: &serverContent{TurnComplete: true}},
		},
	}
	srv := httptest.NewServer(live)
	defer srv.Close()

	sink := &discardBuffer{}
	s := NewSession(Config{
		URL:         wsURL(srv),
		APIKey:      "secret",
		Model:       "models/test",
		Voice:       "Zephyr",
		Instruction: "be nice",
	}, bytes.NewReader([]byte{9, 9, 9, 9}), sink, WithLogger(zerolog.Nop()))
	require.NotEmpty(t, s.ID())

	require.NoError(t, s.Open(context.Background()))
	events := collect(t, s)
	require.NoError(t, s.Close())

	var kinds []EventKind
	var tr Transcript
	var user string
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
		tr.Apply(ev)
		if ev.Kind == EventOutputTranscript {
			user = tr.User
		}
	}
	assert.Equal(t, []EventKind{
		EventOpened,
		EventInputTranscript,
		EventOutputTranscript,
		EventOutputTranscript,
		EventAudio,
		EventTurnComplete,
		EventClosed,
	}, kinds)
	assert.Equal(t, "show me posts", user)
	assert.Empty(t, tr.Assistant, "turn complete resets the assistant line")
	assert.NoError(t, events[len(events)-1].Err)
	assert.Equal(t, audio, sink.Bytes())

	live.mu.Lock()
	defer live.mu.Unlock()
	require.NotNil(t, live.setup)
	assert.Equal(t, "models/test", live.setup.Model)
	assert.Equal(t, []string{"AUDIO"}, live.setup.GenerationConfig.ResponseModalities)
	assert.Equal(t, "Zephyr", live.setup.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName)
	assert.Equal(t, "be nice", live.setup.SystemInstruction.Parts[0].Text)
	assert.NotNil(t, live.setup.InputAudioTranscription)
	assert.Equal(t, "key=secret", live.rawQuery)
	assert.Equal(t, [][]byte{{9, 9, 9, 9}}, live.chunks)
}

func TestSessionInterruptDiscardsPlayback(t *testing.T) {
	live := &fakeLive{
		t: t,
		script: []serverMessage{
			{ServerContent: &serverContent{ModelTurn: &content{Parts: []part{{
				InlineData: &blob{Data: base64.StdEncoding.EncodeToString([]byte{7, 7})},
			}}}}},
			{ServerContent: &serverContent{Interrupted: true}},
		},
	}
	srv := httptest.NewServer(live)
	defer srv.Close()

	sink := &discardBuffer{}
	s := NewSession(Config{URL: wsURL(srv)}, bytes.NewReader([]byte{1}), sink)
	require.NoError(t, s.Open(context.Background()))
	events := collect(t, s)
	s.Close()

	var sawInterrupt bool
	for _, ev := range events {
		if ev.Kind == EventInterrupted {
			sawInterrupt = true
		}
	}
	assert.True(t, sawInterrupt)
	assert.Equal(t, 1, sink.discards)
	assert.Zero(t, sink.Len())
}

func TestSessionServerError(t *testing.T) {
	live := &fakeLive{
		t:      t,
		script: []serverMessage{{Error: &serverError{Code: 403, Message: "bad key"}}},
	}
	srv := httptest.NewServer(live)
	defer srv.Close()

	s := NewSession(Config{URL: wsURL(srv)}, bytes.NewReader([]byte{1}), nil)
	require.NoError(t, s.Open(context.Background()))
	events := collect(t, s)
	s.Close()

	last := events[len(events)-1]
	assert.Equal(t, EventClosed, last.Kind)
	require.Error(t, last.Err)
	assert.Contains(t, last.Err.Error(), "bad key")
}

func TestSessionOpenErrors(t *testing.T) {
	s := NewSession(Config{}, nil, nil)
	assert.ErrorIs(t, s.Open(context.Background()), ErrNoEndpoint)
	assert.NoError(t, s.Close())

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	s = NewSession(Config{URL: wsURL(srv)}, nil, nil)
	err := s.Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial live endpoint")
}

func TestSetupEnvelope(t *testing.T) {
	raw, err := json.Marshal(newSetup(Config{Model: "m"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"setup":{"model":"m","generationConfig":{"responseModalities":["AUDIO"]},"inputAudioTranscription":{},"outputAudioTranscription":{}}}`, string(raw))
}

func TestTranscript(t *testing.T) {
	var tr Transcript
	tr.Apply(Event{Kind: EventInputTranscript, Text: "hel"})
	tr.Apply(Event{Kind: EventInputTranscript, Text: "hello"})
	tr.Apply(Event{Kind: EventOutputTranscript, Text: "Hi"})
	tr.Apply(Event{Kind: EventOutputTranscript, Text: " there"})
	assert.Equal(t, "hello", tr.User)
	assert.Equal(t, "Hi there", tr.Assistant)

	tr.Apply(Event{Kind: EventTurnComplete})
	assert.Equal(t, "", tr.Assistant)
	assert.Equal(t, "hello", tr.User)

	tr.Reset()
	assert.Equal(t, Transcript{}, tr)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "turn_complete", EventTurnComplete.String())
	assert.Equal(t, "unknown", EventKind(99).String())
}
