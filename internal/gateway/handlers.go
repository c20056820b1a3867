package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"huddle/internal/domain"
)

// agentBody is the union of every agent's request fields.
// Fields stay raw so type mismatches become caller errors with the right message.
type agentBody struct {
	Agent          string          `json:"agent"`
	Query          json.RawMessage `json:"query"`
	Prompt         json.RawMessage `json:"prompt"`
	ThreadMessages json.RawMessage `json:"threadMessages"`
	Title          json.RawMessage `json:"title"`
}

func (s *Server) handleOrgBrain(w http.ResponseWriter, r *http.Request) {
	s.serveAgent(w, r, domain.KindOrgBrain)
}

func (s *Server) handleReplySuggestion(w http.ResponseWriter, r *http.Request) {
	s.serveAgent(w, r, domain.KindReplySuggestion)
}

func (s *Server) handleToneAnalysis(w http.ResponseWriter, r *http.Request) {
	s.serveAgent(w, r, domain.KindToneAnalysis)
}

func (s *Server) handleMeetingNotes(w http.ResponseWriter, r *http.Request) {
	s.serveAgent(w, r, domain.KindMeetingNotes)
}

// serveAgent answers a per-kind endpoint: the bare result on success, {"error"} otherwise.
func (s *Server) serveAgent(w http.ResponseWriter, r *http.Request, kind domain.AgentKind) {
	body, err := s.decodeBody(w, r)
	if err != nil {
		writeError(w, statusForDecode(err), err.Error())
		return
	}
	req, err := requestFor(kind, body)
	if err != nil {
		writeError(w, domain.StatusFor(err), err.Error())
		return
	}

	env := s.dispatch(r.Context(), req)
	if !env.Success {
		writeError(w, domain.StatusFor(env.Err), env.Error)
		return
	}
	writeJSON(w, http.StatusOK, env.Data)
}

// handleDispatch is the unified endpoint: {"agent": "...", ...} in, an envelope out.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	body, err := s.decodeBody(w, r)
	if err != nil {
		writeJSON(w, statusForDecode(err), domain.Fail(err))
		return
	}
	kind, ok := domain.ParseAgentKind(body.Agent)
	if !ok {
		err := domain.Callerf("unknown agent %q", body.Agent)
		writeJSON(w, http.StatusBadRequest, domain.Fail(err))
		return
	}
	req, err := requestFor(kind, body)
	if err != nil {
		writeJSON(w, domain.StatusFor(err), domain.Fail(err))
		return
	}

	env := s.dispatch(r.Context(), req)
	writeJSON(w, domain.StatusFor(env.Err), env)
}

func (s *Server) dispatch(ctx context.Context, req domain.AgentRequest) domain.Envelope {
	if s.dispatcher == nil {
		return domain.Fail(&domain.ConfigurationError{Msg: "agent router is not configured"})
	}
	return s.dispatcher.Dispatch(ctx, req)
}

var errBodyTooLarge = errors.New("request body too large")

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request) (agentBody, error) {
	var body agentBody
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return body, errBodyTooLarge
		}
		return body, domain.ErrInvalidPayload
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return body, domain.ErrInvalidPayload
	}
	return body, nil
}

func statusForDecode(err error) int {
	if errors.Is(err, errBodyTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return domain.StatusFor(err)
}

// requestFor maps the wire body onto an AgentRequest for kind. Field type
// mismatches are caller errors; missing fields are left to the router.
func requestFor(kind domain.AgentKind, body agentBody) (domain.AgentRequest, error) {
	req := domain.AgentRequest{Kind: kind}
	switch kind {
	case domain.KindOrgBrain:
		q, ok := stringField(body.Query)
		if !ok {
			return req, domain.Callerf("Query is required")
		}
		req.Query = q
	case domain.KindToneAnalysis:
		// The tone endpoint calls its text "prompt"; "query" is accepted on the unified endpoint.
		raw := body.Prompt
		if isAbsent(raw) {
			raw = body.Query
		}
		p, ok := stringField(raw)
		if !ok {
			return req, domain.Callerf("prompt (message string) is required")
		}
		req.Query = p
	case domain.KindReplySuggestion, domain.KindMeetingNotes:
		msgs, ok := threadField(body.ThreadMessages)
		if !ok {
			if kind == domain.KindMeetingNotes {
				return req, domain.Callerf("threadMessages (non-empty array) is required")
			}
			return req, domain.Callerf("threadMessages array is required")
		}
		req.ThreadMessages = msgs
		if title, ok := stringField(body.Title); ok {
			req.Title = title
		}
	}
	return req, nil
}

func isAbsent(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// stringField decodes an optional string. Absent yields "", true; any other type yields false.
func stringField(raw json.RawMessage) (string, bool) {
	if isAbsent(raw) {
		return "", true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// threadField decodes an optional message array. Absent yields nil, true.
func threadField(raw json.RawMessage) ([]domain.ThreadMessage, bool) {
	if isAbsent(raw) {
		return nil, true
	}
	var msgs []domain.ThreadMessage
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, false
	}
	return msgs, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.cfg.Checks))
	for name, check := range s.cfg.Checks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	writeJSON(w, status, map[string]any{
		"status":  state,
		"version": s.cfg.Version,
		"checks":  checks,
		"time":    time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
