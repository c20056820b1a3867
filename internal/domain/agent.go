package domain

import "strings"

// AgentKind selects the prompt template and normalizer applied to a request.
type AgentKind string

const (
	KindOrgBrain        AgentKind = "OrgBrain"
	KindReplySuggestion AgentKind = "ReplySuggestion"
	KindToneAnalysis    AgentKind = "ToneAnalysis"
	KindMeetingNotes    AgentKind = "MeetingNotes"
)

// AllKinds lists every supported agent in a stable order.
var AllKinds = []AgentKind{KindOrgBrain, KindReplySuggestion, KindToneAnalysis, KindMeetingNotes}

// kindAliases maps the names used by older clients onto the canonical kinds.
var kindAliases = map[string]AgentKind{
	"orgbrain":            KindOrgBrain,
	"ask-org-brain":       KindOrgBrain,
	"replysuggestion":     KindReplySuggestion,
	"autoreplycomposer":   KindReplySuggestion,
	"auto-reply-composer": KindReplySuggestion,
	"toneanalysis":        KindToneAnalysis,
	"toneimpactmeter":     KindToneAnalysis,
	"tone-impact-meter":   KindToneAnalysis,
	"meetingnotes":        KindMeetingNotes,
	"meetingnotesgen":     KindMeetingNotes,
	"meeting-notes-gen":   KindMeetingNotes,
}

// ParseAgentKind resolves a canonical name or alias (case-insensitive).
func ParseAgentKind(s string) (AgentKind, bool) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]
	return k, ok
}

// NeedsContext reports whether the kind is grounded in organizational data.
// Tone scoring and meeting notes work only on caller-supplied text.
func (k AgentKind) NeedsContext() bool {
	return k == KindOrgBrain || k == KindReplySuggestion
}

// AgentRequest is the caller's payload. Which fields are required depends on Kind.
type AgentRequest struct {
	Kind           AgentKind       `json:"agent"`
	Query          string          `json:"query,omitempty"`
	ThreadMessages []ThreadMessage `json:"threadMessages,omitempty"`
	Title          string          `json:"title,omitempty"`
}

// AgentResult is one of OrgBrainAnswer, ReplySuggestions, ToneAnalysis or MeetingNotes.
type AgentResult interface {
	Kind() AgentKind
}

// SourceCounts reports how much organizational context grounded an answer.
type SourceCounts struct {
	Channels  int `json:"channels"`
	Messages  int `json:"messages"`
	Documents int `json:"documents"`
}

type OrgBrainAnswer struct {
	Response string       `json:"response"`
	Sources  SourceCounts `json:"sources"`
}

func (OrgBrainAnswer) Kind() AgentKind { return KindOrgBrain }

// Reply tone labels.
const (
	ReplyToneProfessional  = "Professional"
	ReplyToneCollaborative = "Collaborative"
	ReplyToneConcise       = "Concise"
)

// ReplySuggestionCount is the exact number of suggestions after normalization.
const ReplySuggestionCount = 3

type Suggestion struct {
	Content string `json:"content"`
	Tone    string `json:"tone"`
}

// ReplyContextCounts describes the inputs a set of suggestions was built from.
type ReplyContextCounts struct {
	ThreadMessages int `json:"threadMessages"`
	RecentMessages int `json:"recentMessages"`
	Documents      int `json:"documents"`
}

type ReplySuggestions struct {
	Suggestions []Suggestion       `json:"suggestions"`
	Context     ReplyContextCounts `json:"context"`
}

func (ReplySuggestions) Kind() AgentKind { return KindReplySuggestion }

type Tone string

const (
	ToneAggressive   Tone = "aggressive"
	ToneWeak         Tone = "weak"
	ToneConfusing    Tone = "confusing"
	ToneNeutral      Tone = "neutral"
	TonePositive     Tone = "positive"
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
	ToneUrgent       Tone = "urgent"
)

// Tones lists every valid tone label.
var Tones = []Tone{
	ToneAggressive, ToneWeak, ToneConfusing, ToneNeutral,
	TonePositive, ToneProfessional, ToneCasual, ToneUrgent,
}

func (t Tone) Valid() bool {
	for _, v := range Tones {
		if t == v {
			return true
		}
	}
	return false
}

type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

func (i Impact) Valid() bool {
	return i == ImpactHigh || i == ImpactMedium || i == ImpactLow
}

// Tone analysis defaults, applied per field.
const (
	DefaultTone        = ToneNeutral
	DefaultImpact      = ImpactMedium
	DefaultConfidence  = 75
	MaxToneSuggestions = 4
)

type ToneAnalysis struct {
	Tone        Tone     `json:"tone"`
	Impact      Impact   `json:"impact"`
	Confidence  int      `json:"confidence"`
	Suggestions []string `json:"suggestions"`
	Analysis    string   `json:"analysis,omitempty"`
}

func (ToneAnalysis) Kind() AgentKind { return KindToneAnalysis }

// MeetingNotes carries provider Markdown untouched.
type MeetingNotes struct {
	Notes string `json:"notes"`
}

func (MeetingNotes) Kind() AgentKind { return KindMeetingNotes }

// Envelope is the uniform result of a dispatch.
// Success implies Data is set and Error is empty; failure implies the reverse.
type Envelope struct {
	Success bool        `json:"success"`
	Data    AgentResult `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`

	// Err keeps the typed failure so transports can pick a status code.
	Err error `json:"-"`
}

func Succeed(result AgentResult) Envelope {
	return Envelope{Success: true, Data: result}
}

func Fail(err error) Envelope {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Envelope{Success: false, Error: msg, Err: err}
}
