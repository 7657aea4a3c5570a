package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// Comment is a user comment submitted for moderation.
// An empty Language selects the default dictionary.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	ParentID  uuid.UUID `json:"parent_id,omitempty"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Language  string    `json:"language,omitempty"`
	Published time.Time `json:"published"`
}

// Verdict is the moderation outcome of a comment.
type Verdict struct {
	CommentID        uuid.UUID `json:"comment_id"`
	PostID           uuid.UUID `json:"post_id"`
	Author           string    `json:"author"`
	Language         string    `json:"language"`
	HasProfanity     bool      `json:"has_profanity"`
	CleanText        string    `json:"clean_text"`
	ProfanitiesCount int       `json:"profanities_count"`
	Profanities      []string  `json:"profanities"`
	CheckedAt        time.Time `json:"checked_at"`
}

// LogEntry is an access log record published to Kafka.
type LogEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	IP         string    `json:"ip"`
	StatusCode int       `json:"status_code"`
	Bytes      int       `json:"bytes"`
	RequestID  string    `json:"request_id"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Duration   float64   `json:"duration_sec"`
	Service    string    `json:"service"`
}
