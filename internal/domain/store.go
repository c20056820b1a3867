package domain

import (
	"context"
	"time"
)

type ChannelInfo struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
	Public      bool   `json:"is_public" yaml:"public"`
}

// ContextMessage is a recent message from a public channel, author resolved.
type ContextMessage struct {
	ChannelName string    `json:"channel_name"`
	AuthorName  string    `json:"author_name"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

type PinnedDocument struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ChannelName string    `json:"channel_name,omitempty"`
	AuthorName  string    `json:"author_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrganizationalContext is a read-only snapshot gathered for one request.
type OrganizationalContext struct {
	Channels  []ChannelInfo
	Messages  []ContextMessage
	Documents []PinnedDocument
}

// Sources summarizes the snapshot's size.
func (c OrganizationalContext) Sources() SourceCounts {
	return SourceCounts{
		Channels:  len(c.Channels),
		Messages:  len(c.Messages),
		Documents: len(c.Documents),
	}
}

// OrgStore reads organizational data. A limit <= 0 means no limit.
// Messages and documents are returned newest first.
type OrgStore interface {
	PublicChannels(ctx context.Context) ([]ChannelInfo, error)
	RecentMessages(ctx context.Context, channelIDs []string, limit int) ([]ContextMessage, error)
	PinnedDocuments(ctx context.Context, limit int) ([]PinnedDocument, error)
}
