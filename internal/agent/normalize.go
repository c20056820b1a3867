package agent

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"huddle/internal/domain"
)

// Normalized is a typed result plus how it was obtained.
// Degraded is set when a fallback strategy or default produced the result.
type Normalized struct {
	Result   domain.AgentResult
	Strategy string
	Degraded bool
}

// Normalize turns raw provider text into the typed result for req.Kind.
// It never fails: when no strategy matches, a fixed default is returned.
func Normalize(req domain.AgentRequest, oc domain.OrganizationalContext, raw string) Normalized {
	switch req.Kind {
	case domain.KindOrgBrain:
		return Normalized{
			Result:   domain.OrgBrainAnswer{Response: raw, Sources: oc.Sources()},
			Strategy: "verbatim",
		}
	case domain.KindReplySuggestion:
		n := normalizeReplies(raw)
		r := n.Result.(domain.ReplySuggestions)
		r.Context = domain.ReplyContextCounts{
			ThreadMessages: len(req.ThreadMessages),
			RecentMessages: len(oc.Messages),
			Documents:      len(oc.Documents),
		}
		n.Result = r
		return n
	case domain.KindToneAnalysis:
		return normalizeTone(raw)
	default:
		return Normalized{Result: domain.MeetingNotes{Notes: raw}, Strategy: "verbatim"}
	}
}

// --- Reply suggestions ---

const fallbackReply = "Thanks for sharing! I'll review this and get back to you."

// replyStrategy returns suggestions, or ok=false to let the next strategy try.
type replyStrategy struct {
	name  string
	parse func(raw string) ([]domain.Suggestion, bool)
}

var replyStrategies = []replyStrategy{
	{"json", parseReplyJSON},
	{"lines", parseReplyLines},
}

func normalizeReplies(raw string) Normalized {
	out := Normalized{Strategy: "default", Degraded: true}
	var suggestions []domain.Suggestion
	for i, s := range replyStrategies {
		if got, ok := s.parse(raw); ok {
			suggestions = got
			out.Strategy = s.name
			out.Degraded = i > 0
			break
		}
	}

	if len(suggestions) > domain.ReplySuggestionCount {
		suggestions = suggestions[:domain.ReplySuggestionCount]
	}
	if len(suggestions) < domain.ReplySuggestionCount {
		out.Degraded = true
	}
	for len(suggestions) < domain.ReplySuggestionCount {
		suggestions = append(suggestions, domain.Suggestion{Content: fallbackReply, Tone: domain.ReplyToneProfessional})
	}
	out.Result = domain.ReplySuggestions{Suggestions: suggestions}
	return out
}

// parseReplyJSON accepts an array of strings or objects, or an object holding such an array.
// Output that is a marked list is left to the line strategy even when a line
// quotes a JSON fragment.
func parseReplyJSON(raw string) ([]domain.Suggestion, bool) {
	if body := stripCodeFence(strings.TrimSpace(raw)); !startsWith(body, 0) && hasMarkedLine(body) {
		return nil, false
	}
	var items []json.RawMessage
	if !extractJSON(raw, '[', &items) {
		var wrapper struct {
			Suggestions []json.RawMessage `json:"suggestions"`
			Replies     []json.RawMessage `json:"replies"`
		}
		if !extractJSON(raw, '{', &wrapper) {
			return nil, false
		}
		items = wrapper.Suggestions
		if len(items) == 0 {
			items = wrapper.Replies
		}
	}

	var out []domain.Suggestion
	for _, item := range items {
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			if s, ok := suggestionFromLine(text); ok {
				out = append(out, s)
			}
			continue
		}
		var obj struct {
			Content    string `json:"content"`
			Text       string `json:"text"`
			Reply      string `json:"reply"`
			Suggestion string `json:"suggestion"`
			Tone       string `json:"tone"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		content := firstNonEmpty(obj.Content, obj.Text, obj.Reply, obj.Suggestion)
		s, ok := suggestionFromLine(content)
		if !ok {
			continue
		}
		if tone := toneLabel(obj.Tone); obj.Tone != "" {
			s.Tone = tone
		}
		out = append(out, s)
	}
	return out, len(out) > 0
}

var (
	ordinalMarker = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s*`)
	// toneLead matches a leading tone label such as "**Professional:**", "Concise -" or "(Collaborative)".
	toneLead = regexp.MustCompile(`(?i)^[*_"]*\s*(?:\((?:professional|collaborative|concise)\)(?:\s*[:\-–—])?|(?:professional|collaborative|concise)(?:\s+(?:tone|reply|response|option))?[*_]*\s*[:\-–—])[*_]*\s*`)
)

func hasMarkedLine(s string) bool {
	for _, l := range strings.Split(s, "\n") {
		if ordinalMarker.MatchString(l) {
			return true
		}
	}
	return false
}

// parseReplyLines reads one suggestion per marked line. Unmarked lines after a
// marked one continue it; text before the first marker is treated as preamble.
// When nothing is marked, every non-blank line is a suggestion.
func parseReplyLines(raw string) ([]domain.Suggestion, bool) {
	var lines []string
	for _, l := range strings.Split(stripCodeFence(strings.TrimSpace(raw)), "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil, false
	}

	marked := false
	for _, l := range lines {
		if ordinalMarker.MatchString(l) {
			marked = true
			break
		}
	}

	var items []string
	for _, l := range lines {
		switch {
		case !marked:
			items = append(items, l)
		case ordinalMarker.MatchString(l):
			items = append(items, l)
		case len(items) > 0:
			items[len(items)-1] += " " + strings.TrimSpace(l)
		}
	}

	var out []domain.Suggestion
	for _, item := range items {
		if s, ok := suggestionFromLine(item); ok {
			out = append(out, s)
		}
	}
	return out, len(out) > 0
}

// suggestionFromLine strips markers and a leading tone label, and infers the tone.
func suggestionFromLine(line string) (domain.Suggestion, bool) {
	tone := toneLabel(line)
	content := ordinalMarker.ReplaceAllString(strings.TrimSpace(line), "")
	content = toneLead.ReplaceAllString(content, "")
	content = strings.Trim(strings.TrimSpace(content), `"“”`)
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Suggestion{}, false
	}
	return domain.Suggestion{Content: content, Tone: tone}, true
}

// toneLabel infers a reply tone by case-insensitive substring match.
func toneLabel(s string) string {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "professional"):
		return domain.ReplyToneProfessional
	case strings.Contains(lower, "collaborative"):
		return domain.ReplyToneCollaborative
	case strings.Contains(lower, "concise"):
		return domain.ReplyToneConcise
	default:
		return domain.ReplyToneProfessional
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// --- Tone analysis ---

func fallbackTone(raw string) domain.ToneAnalysis {
	return domain.ToneAnalysis{
		Tone:        domain.DefaultTone,
		Impact:      domain.DefaultImpact,
		Confidence:  domain.DefaultConfidence,
		Suggestions: []string{},
		Analysis:    raw,
	}
}

// normalizeTone parses a JSON object and fills each missing or invalid field
// with its default independently. Unparseable output yields the fixed fallback.
func normalizeTone(raw string) Normalized {
	var obj map[string]any
	if !extractJSON(raw, '{', &obj) {
		return Normalized{Result: fallbackTone(raw), Strategy: "default", Degraded: true}
	}

	// Some models nest the whole result under "analysis".
	if _, hasTone := obj["tone"]; !hasTone {
		if nested, ok := obj["analysis"].(map[string]any); ok {
			obj = nested
		}
	}

	res := domain.ToneAnalysis{
		Tone:        domain.DefaultTone,
		Impact:      domain.DefaultImpact,
		Confidence:  domain.DefaultConfidence,
		Suggestions: []string{},
	}
	degraded := false

	if s, ok := obj["tone"].(string); ok && domain.Tone(strings.ToLower(strings.TrimSpace(s))).Valid() {
		res.Tone = domain.Tone(strings.ToLower(strings.TrimSpace(s)))
	} else {
		degraded = true
	}
	if s, ok := obj["impact"].(string); ok && domain.Impact(strings.ToLower(strings.TrimSpace(s))).Valid() {
		res.Impact = domain.Impact(strings.ToLower(strings.TrimSpace(s)))
	} else {
		degraded = true
	}
	if c, ok := confidence(obj["confidence"]); ok {
		res.Confidence = c
	} else {
		degraded = true
	}
	res.Suggestions = toneSuggestions(obj["suggestions"])

	switch a := obj["analysis"].(type) {
	case string:
		res.Analysis = strings.TrimSpace(a)
	case map[string]any:
		if s, ok := a["summary"].(string); ok {
			res.Analysis = s
		} else if s, ok := a["text"].(string); ok {
			res.Analysis = s
		} else {
			res.Analysis = jsonText(a)
		}
	}
	if s, ok := obj["summary"].(string); ok && res.Analysis == "" {
		res.Analysis = strings.TrimSpace(s)
	}

	return Normalized{Result: res, Strategy: "json", Degraded: degraded}
}

// confidence reads a number or numeric string and clamps it to 0..100.
// Values in (0, 1) are read as fractions; out-of-range magnitudes clamp.
func confidence(v any) (int, bool) {
	var (
		f  float64
		ok bool
	)
	switch x := v.(type) {
	case json.Number:
		f, ok = parseNumber(x.String())
	case float64:
		f, ok = x, true
	case string:
		f, ok = parseNumber(strings.TrimSuffix(strings.TrimSpace(x), "%"))
	}
	if !ok || math.IsNaN(f) {
		return 0, false
	}
	if f > 0 && f < 1 {
		f *= 100
	}
	return int(math.Round(math.Max(0, math.Min(100, f)))), true
}

// parseNumber accepts overflowing values as ±Inf, which the caller clamps.
func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}

// toneSuggestions accepts a list or a single string and keeps at most four non-blank entries.
func toneSuggestions(v any) []string {
	out := []string{}
	var items []any
	switch x := v.(type) {
	case []any:
		items = x
	case string:
		items = []any{x}
	}
	for _, item := range items {
		var s string
		switch it := item.(type) {
		case string:
			s = it
		case map[string]any:
			if t, ok := it["text"].(string); ok {
				s = t
			} else if t, ok := it["suggestion"].(string); ok {
				s = t
			} else {
				s = jsonText(it)
			}
		case nil:
			continue
		default:
			s = jsonText(it)
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
		if len(out) == domain.MaxToneSuggestions {
			break
		}
	}
	return out
}
