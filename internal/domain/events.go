package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventQueryRestored  EventType = "QueryRestored"
	EventQueryChanged   EventType = "QueryChanged"
	EventLoadStarted    EventType = "LoadStarted"
	EventPostsLoaded    EventType = "PostsLoaded"
	EventLoadFailed     EventType = "LoadFailed"
	EventHistoryCleared EventType = "HistoryCleared"
	EventVoiceOpened    EventType = "VoiceOpened"
	EventVoiceClosed    EventType = "VoiceClosed"
)

// StateEventTypes lists the events that mean the explorer state changed.
// Presentation layers subscribe to these and re-read the snapshot.
func StateEventTypes() []EventType {
	return []EventType{
		EventQueryRestored,
		EventQueryChanged,
		EventLoadStarted,
		EventPostsLoaded,
		EventLoadFailed,
	}
}

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// QueryRestoredEvent is emitted when a persisted query is restored at startup
type QueryRestoredEvent struct {
	Query string
}

func (e QueryRestoredEvent) Type() EventType { return EventQueryRestored }

// QueryChangedEvent is emitted when the search query changes
type QueryChangedEvent struct {
	Query string
}

func (e QueryChangedEvent) Type() EventType { return EventQueryChanged }

// LoadStartedEvent is emitted when a post load begins
type LoadStartedEvent struct {
	Background bool
}

func (e LoadStartedEvent) Type() EventType { return EventLoadStarted }

// PostsLoadedEvent is emitted when a post load succeeds
type PostsLoadedEvent struct {
	Count      int
	Background bool
}

func (e PostsLoadedEvent) Type() EventType { return EventPostsLoaded }

// LoadFailedEvent is emitted when a post load fails
type LoadFailedEvent struct {
	Err        error
	Background bool
}

func (e LoadFailedEvent) Type() EventType { return EventLoadFailed }

// HistoryClearedEvent is emitted when the persisted query is removed
type HistoryClearedEvent struct{}

func (e HistoryClearedEvent) Type() EventType { return EventHistoryCleared }

// VoiceOpenedEvent is emitted when a voice session connects
type VoiceOpenedEvent struct {
	SessionID string
}

func (e VoiceOpenedEvent) Type() EventType { return EventVoiceOpened }

// VoiceClosedEvent is emitted when a voice session ends
type VoiceClosedEvent struct {
	SessionID string
	Err       error
}

func (e VoiceClosedEvent) Type() EventType { return EventVoiceClosed }
