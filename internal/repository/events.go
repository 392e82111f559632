package repository

import "time"

const TopicSearchCompleted = "searches.completed"

// SearchEvent is published after a search record lands in the history.
// Consumers (the cache worker) use it to refresh derived state off the
// request path.
type SearchEvent struct {
	RecordID  int64     `json:"record_id"`
	UserID    string    `json:"user_id"`
	Query     string    `json:"query"`
	Found     bool      `json:"found"`
	CreatedAt time.Time `json:"created_at"`
}
