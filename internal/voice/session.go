package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"postexplorer/internal/domain"
	"postexplorer/internal/eventbus"
)

// ErrNoEndpoint is returned by Open when no endpoint URL is configured
var ErrNoEndpoint = errors.New("voice: no endpoint configured")

// Config describes the live endpoint and the assistant persona
type Config struct {
	URL         string
	APIKey      string
	Model       string
	Voice       string
	Instruction string

	// ChunkSize is the number of input bytes sent per realtime chunk.
	// Defaults to 100ms of 16 kHz 16-bit mono audio.
	ChunkSize int
}

// EventKind identifies what happened on a session
type EventKind int

const (
	EventOpened EventKind = iota
	EventInputTranscript
	EventOutputTranscript
	EventTurnComplete
	EventInterrupted
	EventAudio
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventOpened:
		return "opened"
	case EventInputTranscript:
		return "input_transcript"
	case EventOutputTranscript:
		return "output_transcript"
	case EventTurnComplete:
		return "turn_complete"
	case EventInterrupted:
		return "interrupted"
	case EventAudio:
		return "audio"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is emitted on the session's event channel
type Event struct {
	Kind  EventKind
	Text  string // transcripts
	Bytes int    // audio bytes written to the sink
	Err   error  // set on EventClosed when the session ended abnormally
}

// Discarder is implemented by audio sinks that can drop buffered playback.
// The session calls it when the assistant is interrupted.
type Discarder interface {
	Discard()
}

// Option configures a Session
type Option func(*Session)

// WithBus publishes open/close events on the bus
func WithBus(bus eventbus.EventBus) Option {
	return func(s *Session) { s.bus = bus }
}

// WithLogger sets the session logger
func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithDialer overrides the websocket dialer
func WithDialer(d *websocket.Dialer) Option {
	return func(s *Session) { s.dialer = d }
}

// Session is one live conversation. Audio is read from in and the
// assistant's speech is written to out.
type Session struct {
	id     string
	cfg    Config
	in     io.Reader
	out    io.Writer
	bus    eventbus.EventBus
	log    zerolog.Logger
	dialer *websocket.Dialer

	writeMu sync.Mutex
	conn    *websocket.Conn

	events    chan Event
	done      chan struct{}
	readDone  chan struct{}
	cancel    context.CancelFunc
	closing   atomic.Bool
	closeOnce sync.Once
}

// NewSession creates a session; nothing is dialed until Open
func NewSession(cfg Config, in io.Reader, out io.Writer, opts ...Option) *Session {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = InputSampleRate * 2 / 10
	}
	s := &Session{
		id:       uuid.NewString(),
		cfg:      cfg,
		in:       in,
		out:      out,
		log:      zerolog.Nop(),
		dialer:   &websocket.Dialer{HandshakeTimeout: 30 * time.Second},
		events:   make(chan Event, 64),
		done:     make(chan struct{}),
		readDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "voice").Str("session", s.id).Logger()
	return s
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Events returns the event stream. It is closed after EventClosed.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Open dials the endpoint, sends the setup envelope and starts streaming
func (s *Session) Open(ctx context.Context) error {
	if s.cfg.URL == "" {
		return ErrNoEndpoint
	}
	endpoint, err := s.endpointURL()
	if err != nil {
		return err
	}

	conn, _, err := s.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial live endpoint: %w", err)
	}
	s.conn = conn

	if err := s.write(newSetup(s.cfg)); err != nil {
		conn.Close()
		s.conn = nil
		return fmt.Errorf("send setup: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.emit(Event{Kind: EventOpened})
	if s.bus != nil {
		s.bus.Publish(domain.VoiceOpenedEvent{SessionID: s.id})
	}
	s.log.Info().Str("model", s.cfg.Model).Msg("voice session opened")

	go s.readLoop()
	go s.sendLoop(runCtx)
	return nil
}

// Close ends the session and waits for the reader to stop
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		close(s.done)
		if s.cancel != nil {
			s.cancel()
		}
		if s.conn == nil {
			close(s.events)
			return
		}

		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()
		s.conn.Close()
		<-s.readDone
	})
	return nil
}

func (s *Session) endpointURL() (string, error) {
	u, err := url.Parse(s.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("parse voice url: %w", err)
	}
	if s.cfg.APIKey != "" {
		q := u.Query()
		q.Set("key", s.cfg.APIKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (s *Session) write(msg clientMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(msg)
}

// emit delivers an event unless the session is being torn down
func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// sendLoop streams microphone audio. Reads from in cannot be interrupted,
// so the loop exits on the first read or write after Close.
func (s *Session) sendLoop(ctx context.Context) {
	if s.in == nil {
		return
	}
	buf := make([]byte, s.cfg.ChunkSize)
	for {
		n, err := s.in.Read(buf)
		if n > 0 {
			if ctx.Err() != nil {
				return
			}
			chunk := clientMessage{RealtimeInput: &realtimeInputMessage{
				MediaChunks: []blob{{
					MimeType: inputMimeType,
					Data:     base64.StdEncoding.EncodeToString(buf[:n]),
				}},
			}}
			if werr := s.write(chunk); werr != nil {
				if !s.closing.Load() {
					s.log.Warn().Err(werr).Msg("failed to send audio")
				}
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !s.closing.Load() {
				s.log.Warn().Err(err).Msg("audio input ended")
			}
			return
		}
	}
}

func (s *Session) readLoop() {
	defer close(s.readDone)
	defer close(s.events)

	var endErr error
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closing.Load() && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				endErr = err
			}
			break
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warn().Err(err).Msg("ignoring undecodable server message")
			continue
		}
		if msg.Error != nil {
			endErr = fmt.Errorf("live endpoint error %d: %s", msg.Error.Code, msg.Error.Message)
			break
		}
		if msg.SetupComplete != nil {
			s.log.Debug().Msg("setup complete")
		}
		if msg.ServerContent != nil {
			s.handleContent(msg.ServerContent)
		}
	}

	if endErr != nil {
		s.log.Error().Err(endErr).Msg("voice session ended")
	} else {
		s.log.Info().Msg("voice session closed")
	}
	s.emit(Event{Kind: EventClosed, Err: endErr})
	if s.bus != nil {
		s.bus.Publish(domain.VoiceClosedEvent{SessionID: s.id, Err: endErr})
	}
}

func (s *Session) handleContent(sc *serverContent) {
	if sc.InputTranscription != nil {
		s.emit(Event{Kind: EventInputTranscript, Text: sc.InputTranscription.Text})
	}
	if sc.OutputTranscription != nil {
		s.emit(Event{Kind: EventOutputTranscript, Text: sc.OutputTranscription.Text})
	}
	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if p.InlineData == nil {
				continue
			}
			audio, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				s.log.Warn().Err(err).Msg("bad audio payload")
				continue
			}
			if s.out != nil {
				if _, err := s.out.Write(audio); err != nil {
					s.log.Warn().Err(err).Msg("failed to play audio")
					continue
				}
			}
			s.emit(Event{Kind: EventAudio, Bytes: len(audio)})
		}
	}
	if sc.Interrupted {
		if d, ok := s.out.(Discarder); ok {
			d.Discard()
		}
		s.emit(Event{Kind: EventInterrupted})
	}
	if sc.TurnComplete {
		s.emit(Event{Kind: EventTurnComplete})
	}
}
