package agent

import (
	"fmt"
	"strings"

	"huddle/internal/domain"
)

// Prompt is the provider-ready input for one dispatch.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Request converts the prompt into a completion request for the default model.
func (p Prompt) Request() domain.CompletionRequest {
	return domain.CompletionRequest{
		SystemPrompt: p.System,
		UserPrompt:   p.User,
		Temperature:  p.Temperature,
		MaxTokens:    p.MaxTokens,
	}
}

// generation holds the fixed sampling parameters per agent.
// They are not caller-tunable so output stays in the shape the normalizers expect.
var generation = map[domain.AgentKind]struct {
	temperature float64
	maxTokens   int
}{
	domain.KindOrgBrain:        {0.7, 1000},
	domain.KindReplySuggestion: {0.7, 500},
	domain.KindToneAnalysis:    {0.4, 300},
	domain.KindMeetingNotes:    {0.5, 900},
}

const replyInstruction = "Generate 3 reply suggestions for this conversation thread."

// BuildPrompt composes the system and user instructions for req. It performs no I/O.
func BuildPrompt(req domain.AgentRequest, oc domain.OrganizationalContext) Prompt {
	var p Prompt
	switch req.Kind {
	case domain.KindOrgBrain:
		p.System = orgBrainSystem(oc)
		p.User = req.Query
	case domain.KindReplySuggestion:
		p.System = replySystem(req.ThreadMessages, oc)
		p.User = replyInstruction + "\n\nThread:\n" + renderTranscript(req.ThreadMessages)
	case domain.KindToneAnalysis:
		p.System = toneSystem()
		p.User = req.Query
	case domain.KindMeetingNotes:
		p.System = notesSystem(req.Title)
		p.User = "Thread transcript:\n\n" + renderTranscript(req.ThreadMessages)
	}
	g := generation[req.Kind]
	p.Temperature = g.temperature
	p.MaxTokens = g.maxTokens
	return p
}

func orgBrainSystem(oc domain.OrganizationalContext) string {
	var sb strings.Builder
	sb.WriteString("You are OrgBrain, an AI assistant that helps users find information across their organization's chat channels and documents.\n\n")
	sb.WriteString("Available Channels:\n")
	sb.WriteString(renderChannels(oc.Channels))
	sb.WriteString("\n\nRecent Messages:\n")
	sb.WriteString(renderMessages(oc.Messages, true))
	sb.WriteString("\n\nPinned Documents:\n")
	sb.WriteString(renderDocuments(oc.Documents))
	sb.WriteString("\n\nPlease provide a helpful summary based on the user's query. ")
	sb.WriteString("Focus on relevant information from the channels and documents. ")
	sb.WriteString("If you can't find specific information, let the user know what channels or documents might be relevant.")
	return sb.String()
}

func replySystem(thread []domain.ThreadMessage, oc domain.OrganizationalContext) string {
	var sb strings.Builder
	sb.WriteString("You are an AI assistant that suggests intelligent replies for team chat conversations.\n\n")
	sb.WriteString("Current Thread Context:\n")
	sb.WriteString(renderTranscript(thread))
	sb.WriteString("\n\nRecent Organizational Context:\n")
	sb.WriteString(renderMessages(oc.Messages, false))
	sb.WriteString("\n\nRelevant Documents:\n")
	sb.WriteString(renderDocumentPreviews(oc.Documents))
	sb.WriteString(`

Based on the thread conversation and organizational context, suggest exactly 3 different reply options with different tones:
1. Professional - formal and business-appropriate
2. Collaborative - friendly and team-oriented
3. Concise - brief and to the point

Each suggestion should be contextually relevant to the conversation and appropriate for the team setting.
Write each suggestion on its own numbered line and name its tone at the start of the line.`)
	return sb.String()
}

func toneSystem() string {
	tones := make([]string, len(domain.Tones))
	for i, t := range domain.Tones {
		tones[i] = fmt.Sprintf("%q", t)
	}
	return fmt.Sprintf(`You are an assistant that analyzes the tone and potential impact of a chat message.
Return a short JSON object with the following fields:
{
  "tone": one of [%s],
  "impact": one of ["high","medium","low"],
  "confidence": number from 0 to 100,
  "suggestions": array of 2-%d short actionable rewrites/improvements,
  "analysis": one or two concise sentences explaining why
}
Only output JSON.`, strings.Join(tones, ","), domain.MaxToneSuggestions)
}

func notesSystem(title string) string {
	if strings.TrimSpace(title) == "" {
		title = "Meeting Notes"
	}
	return `You are an assistant that generates concise, well-structured meeting notes from a chat thread.
Return ONLY Markdown with the following sections when possible:

# ` + title + `

## Summary
One or two paragraphs summarizing key points.

## Decisions
- Bullet list of decisions (if any)

## Action Items
- Owner: Action (Due date if mentioned)

## Risks/Concerns
- Bullet list (if any)

## Detailed Discussion
- Brief bullets capturing main discussion points.`
}
