package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// ThreadMessage is one caller-supplied chat message. The core never reorders them.
type ThreadMessage struct {
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// UnmarshalJSON accepts both the flat shape ({author, content, timestamp}) and
// the chat UI shape ({user: {name}, content, created_at}). Non-string content
// is kept as its JSON text.
func (m *ThreadMessage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Author    string          `json:"author"`
		UserName  string          `json:"userName"`
		User      *messageUser    `json:"user"`
		Content   json.RawMessage `json:"content"`
		Timestamp string          `json:"timestamp"`
		CreatedAt string          `json:"created_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	author := raw.Author
	if author == "" {
		author = raw.UserName
	}
	if author == "" && raw.User != nil {
		author = raw.User.Name
		if author == "" {
			author = raw.User.DisplayName
		}
	}

	*m = ThreadMessage{
		Author:  strings.TrimSpace(author),
		Content: contentText(raw.Content),
	}
	ts := raw.Timestamp
	if ts == "" {
		ts = raw.CreatedAt
	}
	// An unparseable timestamp is dropped rather than rejecting the message.
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		m.Timestamp = t
	}
	return nil
}

type messageUser struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

func contentText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// AuthorOr returns the author name, or fallback when it is unknown.
func (m ThreadMessage) AuthorOr(fallback string) string {
	if m.Author == "" {
		return fallback
	}
	return m.Author
}
