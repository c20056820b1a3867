package agent

import (
	"context"
	"errors"
	"sync"
	"time"

	"huddle/internal/domain"
)

// fakeLLM replies from a script and records every request.
type fakeLLM struct {
	reply    string
	err      error
	readyErr error
	delay    func(req domain.CompletionRequest) time.Duration

	mu    sync.Mutex
	calls []domain.CompletionRequest
}

func (f *fakeLLM) Name() string { return "fake" }
func (f *fakeLLM) Ready() error { return f.readyErr }

func (f *fakeLLM) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.readyErr != nil {
		return "", f.readyErr
	}
	if f.delay != nil {
		select {
		case <-time.After(f.delay(req)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeLLM) lastCall() domain.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// fakeStore serves fixed data and honors limits the way SQLiteStore does.
type fakeStore struct {
	channels []domain.ChannelInfo
	messages []domain.ContextMessage
	docs     []domain.PinnedDocument
	err      error

	mu        sync.Mutex
	msgLimit  int
	docLimit  int
	gotIDs    []string
	readCount int
}

var errStoreDown = errors.New("database is locked")

func (s *fakeStore) PublicChannels(ctx context.Context) ([]domain.ChannelInfo, error) {
	s.mu.Lock()
	s.readCount++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.channels, nil
}

func (s *fakeStore) RecentMessages(ctx context.Context, ids []string, limit int) ([]domain.ContextMessage, error) {
	s.mu.Lock()
	s.readCount++
	s.msgLimit = limit
	s.gotIDs = ids
	s.mu.Unlock()
	if limit > 0 && len(s.messages) > limit {
		return s.messages[:limit], nil
	}
	return s.messages, nil
}

func (s *fakeStore) PinnedDocuments(ctx context.Context, limit int) ([]domain.PinnedDocument, error) {
	s.mu.Lock()
	s.readCount++
	s.docLimit = limit
	s.mu.Unlock()
	if limit > 0 && len(s.docs) > limit {
		return s.docs[:limit], nil
	}
	return s.docs, nil
}

func (s *fakeStore) reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readCount
}

func sampleStore(messages, docs int) *fakeStore {
	s := &fakeStore{
		channels: []domain.ChannelInfo{
			{ID: "c1", Name: "general", Description: "Company-wide", Public: true},
			{ID: "c2", Name: "engineering", Public: true},
		},
	}
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < messages; i++ {
		s.messages = append(s.messages, domain.ContextMessage{
			ChannelName: "general",
			AuthorName:  "Alice",
			Content:     "update",
			CreatedAt:   base.Add(-time.Duration(i) * time.Minute),
		})
	}
	for i := 0; i < docs; i++ {
		s.docs = append(s.docs, domain.PinnedDocument{Title: "Doc", Content: "body", ChannelName: "general"})
	}
	return s
}

func thread(contents ...string) []domain.ThreadMessage {
	out := make([]domain.ThreadMessage, len(contents))
	for i, c := range contents {
		out[i] = domain.ThreadMessage{Author: "Sam", Content: c}
	}
	return out
}
