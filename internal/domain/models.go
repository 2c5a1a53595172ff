package domain

// Post represents a single content record fetched from the posts endpoint
type Post struct {
	UserID int    `json:"userId"`
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// FetchStatus represents the state of the post collection fetch
type FetchStatus string

const (
	StatusIdle    FetchStatus = "IDLE"
	StatusLoading FetchStatus = "LOADING"
	StatusSuccess FetchStatus = "SUCCESS"
	StatusError   FetchStatus = "ERROR"
)

// ExplorerState is the authoritative state record owned by the explorer hub
type ExplorerState struct {
	Posts        []Post
	Status       FetchStatus
	SearchQuery  string
	IsRefreshing bool
	LastError    string // message of the most recent failed load, "" after a success
}

// Snapshot is the read-only view handed to presentation layers.
// Posts holds the filtered posts; Total is the size of the unfiltered collection.
type Snapshot struct {
	Posts        []Post      `json:"posts"`
	Total        int         `json:"total"`
	Status       FetchStatus `json:"status"`
	SearchQuery  string      `json:"searchQuery"`
	IsRefreshing bool        `json:"isRefreshing"`
	LastError    string      `json:"lastError,omitempty"`
}
