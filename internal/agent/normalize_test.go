package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huddle/internal/domain"
)

func replies(t *testing.T, raw string) ([]domain.Suggestion, Normalized) {
	t.Helper()
	n := Normalize(domain.AgentRequest{Kind: domain.KindReplySuggestion}, domain.OrganizationalContext{}, raw)
	res, ok := n.Result.(domain.ReplySuggestions)
	require.True(t, ok, "unexpected result type %T", n.Result)
	return res.Suggestions, n
}

func tone(t *testing.T, raw string) (domain.ToneAnalysis, Normalized) {
	t.Helper()
	n := Normalize(domain.AgentRequest{Kind: domain.KindToneAnalysis}, domain.OrganizationalContext{}, raw)
	res, ok := n.Result.(domain.ToneAnalysis)
	require.True(t, ok, "unexpected result type %T", n.Result)
	return res, n
}

// --- Reply suggestions ---

func TestReplies_AlwaysThree(t *testing.T) {
	inputs := []string{
		"",
		"   \n\n  ",
		"Sure!",
		"1. One\n2. Two\n3. Three\n4. Four\n5. Five",
		`["only one"]`,
		`[]`,
		`{"suggestions": "not a list"}`,
		"```\nnot json\n```",
		"1.\n2.\n3.",
		strings.Repeat("- item\n", 40),
	}
	for _, in := range inputs {
		got, _ := replies(t, in)
		assert.Len(t, got, domain.ReplySuggestionCount, "input %q", in)
		for _, s := range got {
			assert.NotEmpty(t, s.Content, "input %q", in)
			assert.NotEmpty(t, s.Tone, "input %q", in)
		}
	}
}

func TestReplies_NumberedList(t *testing.T) {
	got, n := replies(t, "1. Sounds good.\n2. Let's sync tomorrow.\n3. Noted, thanks.")
	assert.Equal(t, []domain.Suggestion{
		{Content: "Sounds good.", Tone: domain.ReplyToneProfessional},
		{Content: "Let's sync tomorrow.", Tone: domain.ReplyToneProfessional},
		{Content: "Noted, thanks.", Tone: domain.ReplyToneProfessional},
	}, got)
	assert.Equal(t, "lines", n.Strategy)
	assert.True(t, n.Degraded)
}

func TestReplies_ToneLabelsInferredAndStripped(t *testing.T) {
	raw := `Here are three options:

1. **Professional:** Thank you for the update, I will review the document today.
2. Collaborative - Great work team! Want to pair on the remaining items?
3. (Concise) Looks good.`
	got, _ := replies(t, raw)
	assert.Equal(t, []domain.Suggestion{
		{Content: "Thank you for the update, I will review the document today.", Tone: domain.ReplyToneProfessional},
		{Content: "Great work team! Want to pair on the remaining items?", Tone: domain.ReplyToneCollaborative},
		{Content: "Looks good.", Tone: domain.ReplyToneConcise},
	}, got)
}

func TestReplies_ContinuationLinesJoin(t *testing.T) {
	raw := "1. Professional: Thanks for flagging this.\nI'll follow up by Friday.\n2. Concise: On it."
	got, _ := replies(t, raw)
	assert.Equal(t, "Thanks for flagging this. I'll follow up by Friday.", got[0].Content)
	assert.Equal(t, "On it.", got[1].Content)
	assert.Equal(t, domain.ReplyToneConcise, got[1].Tone)
	assert.Equal(t, fallbackReply, got[2].Content)
	assert.Equal(t, domain.ReplyToneProfessional, got[2].Tone)
}

func TestReplies_UnmarkedLines(t *testing.T) {
	got, _ := replies(t, "Sounds good\nLet's do it\nOk")
	assert.Equal(t, "Sounds good", got[0].Content)
	assert.Equal(t, "Let's do it", got[1].Content)
	assert.Equal(t, "Ok", got[2].Content)
}

func TestReplies_DashMarkers(t *testing.T) {
	got, _ := replies(t, "- First\n- Second\n- Third")
	assert.Equal(t, "First", got[0].Content)
	assert.Equal(t, "Third", got[2].Content)
}

func TestReplies_JSONStrings(t *testing.T) {
	got, n := replies(t, `["Sounds great!", "Happy to help with the collaborative review", "Done."]`)
	assert.Equal(t, "json", n.Strategy)
	assert.False(t, n.Degraded)
	assert.Equal(t, "Sounds great!", got[0].Content)
	assert.Equal(t, domain.ReplyToneCollaborative, got[1].Tone)
}

func TestReplies_JSONObjectsInFence(t *testing.T) {
	raw := "```json\n[{\"content\": \"Thanks, reviewing now.\", \"tone\": \"concise\"}, {\"text\": \"Let's pair on it\", \"tone\": \"Collaborative\"}]\n```"
	got, n := replies(t, raw)
	assert.Equal(t, "json", n.Strategy)
	assert.True(t, n.Degraded, "padding marks the result degraded")
	assert.Equal(t, domain.Suggestion{Content: "Thanks, reviewing now.", Tone: domain.ReplyToneConcise}, got[0])
	assert.Equal(t, domain.Suggestion{Content: "Let's pair on it", Tone: domain.ReplyToneCollaborative}, got[1])
	assert.Equal(t, fallbackReply, got[2].Content)
}

func TestReplies_JSONWrapperObject(t *testing.T) {
	got, _ := replies(t, `Sure: {"suggestions": ["a", "b", "c"]}`)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].Content, got[1].Content, got[2].Content})
}

func TestReplies_MarkedListQuotingJSON(t *testing.T) {
	inputs := []string{
		"1. Professional: Sure, I'll add [\"beta\"] to the flags list.\n2. Collaborative: Happy to pair on the rollout.\n3. Concise: Done by EOD.",
		"1. Professional: Config now reads {\"replies\":[\"x\"]} as expected.\n2. Collaborative: Want to review it together?\n3. Concise: Fixed.",
	}
	for _, raw := range inputs {
		got, n := replies(t, raw)
		assert.Equal(t, "lines", n.Strategy, raw)
		require.Len(t, got, 3)
		for _, s := range got {
			assert.NotEqual(t, fallbackReply, s.Content, raw)
		}
		assert.Equal(t, domain.ReplyToneProfessional, got[0].Tone)
		assert.Equal(t, domain.ReplyToneCollaborative, got[1].Tone)
		assert.Equal(t, domain.ReplyToneConcise, got[2].Tone)
	}

	got, _ := replies(t, "1. Professional: Sure, I'll add [\"beta\"] to the flags list.\n2. b\n3. c")
	assert.Equal(t, `Sure, I'll add ["beta"] to the flags list.`, got[0].Content)
}

func TestReplies_EmptyPadsWithDefault(t *testing.T) {
	got, n := replies(t, "")
	assert.Equal(t, "default", n.Strategy)
	for _, s := range got {
		assert.Equal(t, domain.Suggestion{Content: fallbackReply, Tone: domain.ReplyToneProfessional}, s)
	}
}

func TestReplies_ContextCounts(t *testing.T) {
	req := domain.AgentRequest{Kind: domain.KindReplySuggestion, ThreadMessages: thread("a", "b")}
	oc := domain.OrganizationalContext{
		Messages:  make([]domain.ContextMessage, 7),
		Documents: make([]domain.PinnedDocument, 2),
	}
	res := Normalize(req, oc, "1. ok").Result.(domain.ReplySuggestions)
	assert.Equal(t, domain.ReplyContextCounts{ThreadMessages: 2, RecentMessages: 7, Documents: 2}, res.Context)
}

// --- Tone analysis ---

func TestTone_InvalidJSONFallback(t *testing.T) {
	raw := "I think it's fine."
	got, n := tone(t, raw)
	assert.Equal(t, domain.ToneAnalysis{
		Tone: "neutral", Impact: "medium", Confidence: 75, Suggestions: []string{}, Analysis: raw,
	}, got)
	assert.True(t, n.Degraded)
}

func TestTone_FullJSON(t *testing.T) {
	got, n := tone(t, `{"tone":"aggressive","impact":"high","confidence":88,"suggestions":["Soften the opener","Add context"],"analysis":"Reads as a demand."}`)
	assert.Equal(t, domain.ToneAnalysis{
		Tone:        domain.ToneAggressive,
		Impact:      domain.ImpactHigh,
		Confidence:  88,
		Suggestions: []string{"Soften the opener", "Add context"},
		Analysis:    "Reads as a demand.",
	}, got)
	assert.False(t, n.Degraded)
}

func TestTone_PerFieldDefaults(t *testing.T) {
	got, n := tone(t, `{"impact":"LOW"}`)
	assert.Equal(t, domain.ToneNeutral, got.Tone)
	assert.Equal(t, domain.ImpactLow, got.Impact)
	assert.Equal(t, 75, got.Confidence)
	assert.NotNil(t, got.Suggestions)
	assert.Empty(t, got.Suggestions)
	assert.True(t, n.Degraded)
}

func TestTone_InvalidEnumsDefault(t *testing.T) {
	got, _ := tone(t, `{"tone":"sarcastic","impact":"enormous","confidence":60}`)
	assert.Equal(t, domain.ToneNeutral, got.Tone)
	assert.Equal(t, domain.ImpactMedium, got.Impact)
	assert.Equal(t, 60, got.Confidence)
}

func TestTone_ConfidenceAlwaysInRange(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`{"confidence": 150}`, 100},
		{`{"confidence": -20}`, 0},
		{`{"confidence": "92"}`, 92},
		{`{"confidence": "85%"}`, 85},
		{`{"confidence": "very"}`, 75},
		{`{"confidence": 0.9}`, 90},
		{`{"confidence": 66.6}`, 67},
		{`{"confidence": null}`, 75},
		{`{"confidence": [1]}`, 75},
		{`{}`, 75},
	}
	for _, tt := range tests {
		got, _ := tone(t, tt.raw)
		assert.Equal(t, tt.want, got.Confidence, tt.raw)
		assert.GreaterOrEqual(t, got.Confidence, 0)
		assert.LessOrEqual(t, got.Confidence, 100)
	}
}

func TestTone_OverflowingConfidenceKeepsOtherFields(t *testing.T) {
	got, n := tone(t, `{"tone":"urgent","impact":"high","confidence":1e400,"suggestions":["Add a deadline"],"analysis":"Pushy."}`)
	assert.Equal(t, "json", n.Strategy)
	assert.Equal(t, domain.ToneAnalysis{
		Tone:        domain.ToneUrgent,
		Impact:      domain.ImpactHigh,
		Confidence:  100,
		Suggestions: []string{"Add a deadline"},
		Analysis:    "Pushy.",
	}, got)

	got, _ = tone(t, `{"tone":"calm","confidence":-1e400}`)
	assert.Equal(t, 0, got.Confidence)
}

func TestTone_SuggestionsCappedAndCleaned(t *testing.T) {
	got, _ := tone(t, `{"suggestions":["a", "", "  b ", null, {"text":"c"}, "d", "e"]}`)
	assert.Equal(t, []string{"a", "b", "c", "d"}, got.Suggestions)

	got, _ = tone(t, `{"suggestions":"Say please"}`)
	assert.Equal(t, []string{"Say please"}, got.Suggestions)
}

func TestTone_FencedWithProse(t *testing.T) {
	got, _ := tone(t, "Here you go:\n```json\n{\"tone\": \"Urgent\", \"impact\": \"high\", \"confidence\": 70}\n```")
	assert.Equal(t, domain.ToneUrgent, got.Tone)
	assert.Equal(t, domain.ImpactHigh, got.Impact)
}

func TestTone_NestedAnalysisUnwrapped(t *testing.T) {
	got, _ := tone(t, `{"analysis": {"tone": "positive", "impact": "low", "confidence": 80, "summary": "Friendly."}}`)
	assert.Equal(t, domain.TonePositive, got.Tone)
	assert.Equal(t, domain.ImpactLow, got.Impact)
	assert.Equal(t, 80, got.Confidence)
	assert.Equal(t, "Friendly.", got.Analysis)
}

func TestTone_InvalidEscapesRepaired(t *testing.T) {
	got, _ := tone(t, `{"tone": "casual", "analysis": "Uses 100\% slang"}`)
	assert.Equal(t, domain.ToneCasual, got.Tone)
	assert.Equal(t, "Uses 100% slang", got.Analysis)
}

// --- Verbatim kinds ---

func TestOrgBrain_VerbatimWithSources(t *testing.T) {
	oc := domain.OrganizationalContext{
		Channels: make([]domain.ChannelInfo, 4),
		Messages: make([]domain.ContextMessage, 9),
	}
	n := Normalize(domain.AgentRequest{Kind: domain.KindOrgBrain}, oc, "  raw answer ")
	assert.Equal(t, domain.OrgBrainAnswer{
		Response: "  raw answer ",
		Sources:  domain.SourceCounts{Channels: 4, Messages: 9, Documents: 0},
	}, n.Result)
	assert.False(t, n.Degraded)
}

func TestMeetingNotes_Verbatim(t *testing.T) {
	n := Normalize(domain.AgentRequest{Kind: domain.KindMeetingNotes}, domain.OrganizationalContext{}, "")
	assert.Equal(t, domain.MeetingNotes{Notes: ""}, n.Result)
}
