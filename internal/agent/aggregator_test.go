package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huddle/internal/config"
	"huddle/internal/domain"
)

func TestGather_OrgBrainLimits(t *testing.T) {
	store := sampleStore(80, 12)
	a := NewAggregator(store, config.Defaults().Agents, nil)

	oc, err := a.Gather(context.Background(), domain.KindOrgBrain)
	require.NoError(t, err)
	assert.Len(t, oc.Channels, 2)
	assert.Len(t, oc.Messages, 50)
	assert.Len(t, oc.Documents, 12, "org brain documents are unbounded by default")
	assert.Equal(t, 50, store.msgLimit)
	assert.Equal(t, 0, store.docLimit)
	assert.True(t, oc.Messages[0].CreatedAt.After(oc.Messages[1].CreatedAt), "newest first")
}

func TestGather_ReplyLimits(t *testing.T) {
	store := sampleStore(80, 12)
	a := NewAggregator(store, config.Defaults().Agents, nil)

	oc, err := a.Gather(context.Background(), domain.KindReplySuggestion)
	require.NoError(t, err)
	assert.Len(t, oc.Messages, 20)
	assert.Len(t, oc.Documents, 5)
}

func TestGather_ConfigurableLimits(t *testing.T) {
	agents := config.Defaults().Agents
	agents.OrgBrainMessageLimit = 3
	agents.OrgBrainDocumentLimit = 1
	a := NewAggregator(sampleStore(10, 4), agents, nil)

	oc, err := a.Gather(context.Background(), domain.KindOrgBrain)
	require.NoError(t, err)
	assert.Len(t, oc.Messages, 3)
	assert.Len(t, oc.Documents, 1)
	assert.Equal(t, Limits{Messages: 3, Documents: 1}, a.LimitsFor(domain.KindOrgBrain))
}

func TestGather_SkippedForTextOnlyKinds(t *testing.T) {
	store := sampleStore(5, 5)
	a := NewAggregator(store, config.Defaults().Agents, nil)

	for _, kind := range []domain.AgentKind{domain.KindToneAnalysis, domain.KindMeetingNotes} {
		oc, err := a.Gather(context.Background(), kind)
		require.NoError(t, err)
		assert.Equal(t, domain.OrganizationalContext{}, oc)
	}
	assert.Zero(t, store.reads())
}

func TestGather_ReadFailureIsAggregationError(t *testing.T) {
	store := sampleStore(5, 5)
	store.err = errStoreDown
	a := NewAggregator(store, config.Defaults().Agents, nil)

	oc, err := a.Gather(context.Background(), domain.KindOrgBrain)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAggregation)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, domain.OrganizationalContext{}, oc, "partial context is never returned")
}

func TestGather_NoStore(t *testing.T) {
	a := NewAggregator(nil, config.Defaults().Agents, nil)
	_, err := a.Gather(context.Background(), domain.KindReplySuggestion)
	assert.ErrorIs(t, err, domain.ErrAggregation)
}

func TestGather_NoPublicChannels(t *testing.T) {
	store := &fakeStore{docs: []domain.PinnedDocument{{Title: "Doc"}}}
	a := NewAggregator(store, config.Defaults().Agents, nil)

	oc, err := a.Gather(context.Background(), domain.KindOrgBrain)
	require.NoError(t, err)
	assert.Empty(t, oc.Channels)
	assert.Empty(t, oc.Messages)
	assert.Empty(t, store.gotIDs)
	assert.Len(t, oc.Documents, 1)
}
