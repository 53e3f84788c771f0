package domain

// Event represents a single post received from the social stream.
// Events are immutable once received; the pipeline never mutates them.
type Event struct {
	ID         string          `json:"id"`
	Text       string          `json:"text"`
	Author     EventAuthor     `json:"author"`
	Timestamp  string          `json:"timestamp"` // ISO 8601
	Engagement EventEngagement `json:"metrics"`
}

// EventAuthor identifies the account that published the event.
type EventAuthor struct {
	Name     string `json:"name"`
	Handle   string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Verified bool   `json:"verified"`
}

// EventEngagement carries engagement counters at receive time.
type EventEngagement struct {
	Likes   int `json:"likes"`
	Reposts int `json:"retweets"`
	Replies int `json:"replies"`
}
