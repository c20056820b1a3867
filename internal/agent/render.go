package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"huddle/internal/domain"
)

// noData stands in for an empty section so the model sees the gap explicitly.
const noData = "No data available."

// replyDocumentPreview caps how much of each pinned document a reply prompt carries.
const replyDocumentPreview = 200

func renderChannels(channels []domain.ChannelInfo) string {
	if len(channels) == 0 {
		return noData
	}
	lines := make([]string, len(channels))
	for i, c := range channels {
		desc := c.Description
		if desc == "" {
			desc = "No description"
		}
		lines[i] = fmt.Sprintf("Channel: %s - %s", c.Name, desc)
	}
	return strings.Join(lines, "\n")
}

// renderMessages formats `[channel] author: content`, with the date appended when withDate is set.
func renderMessages(msgs []domain.ContextMessage, withDate bool) string {
	if len(msgs) == 0 {
		return noData
	}
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		author := m.AuthorName
		if author == "" {
			author = "Unknown"
		}
		line := fmt.Sprintf("[%s] %s: %s", m.ChannelName, author, m.Content)
		if withDate && !m.CreatedAt.IsZero() {
			line += fmt.Sprintf(" (%s)", m.CreatedAt.Format("1/2/2006"))
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func renderDocuments(docs []domain.PinnedDocument) string {
	if len(docs) == 0 {
		return noData
	}
	blocks := make([]string, len(docs))
	for i, d := range docs {
		channel := d.ChannelName
		if channel == "" {
			channel = "General"
		}
		author := d.AuthorName
		if author == "" {
			author = "Unknown"
		}
		blocks[i] = fmt.Sprintf("Document: %q in %s by %s:\n%s", d.Title, channel, author, d.Content)
	}
	return strings.Join(blocks, "\n\n")
}

// renderDocumentPreviews is the short form used to ground reply suggestions.
func renderDocumentPreviews(docs []domain.PinnedDocument) string {
	if len(docs) == 0 {
		return noData
	}
	lines := make([]string, len(docs))
	for i, d := range docs {
		lines[i] = fmt.Sprintf("Document: %q - %s...", d.Title, preview(d.Content, replyDocumentPreview))
	}
	return strings.Join(lines, "\n")
}

// preview cuts s to at most n runes.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// renderTranscript numbers thread messages in caller order: `1. author: content`.
func renderTranscript(msgs []domain.ThreadMessage) string {
	if len(msgs) == 0 {
		return noData
	}
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = fmt.Sprintf("%d. %s: %s", i+1, m.AuthorOr("User"), m.Content)
	}
	return strings.Join(lines, "\n")
}

// jsonText renders a value the way it would appear inside a transcript.
func jsonText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
