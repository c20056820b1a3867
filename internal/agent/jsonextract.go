package agent

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// extractJSON pulls a JSON value out of model output and decodes it into v.
// Models wrap JSON in several ways, all of which are handled:
//   - Pure JSON: `{"tone":"neutral",...}`
//   - Code-fenced: ```json\n{...}\n```
//   - Prefixed text: `Here is the analysis:\n{...}`
//   - Suffixed text: `[...]\n\nLet me know if you need more.`
//
// open restricts the search to objects ('{') or arrays ('['); 0 accepts either.
func extractJSON(content string, open byte, v any) bool {
	content = stripCodeFence(strings.TrimSpace(content))

	// Fast path: the whole content is the value.
	if startsWith(content, open) && decodeLenient(content, v) {
		return true
	}

	// Fallback: find the value's boundaries within surrounding text.
	if start, end := findJSONBounds(content, open); start >= 0 && end > start {
		return decodeLenient(content[start:end], v)
	}
	return false
}

func startsWith(s string, open byte) bool {
	if s == "" {
		return false
	}
	if open == 0 {
		return s[0] == '{' || s[0] == '['
	}
	return s[0] == open
}

// decodeLenient tries raw first, then retries with invalid escapes repaired.
func decodeLenient(raw string, v any) bool {
	if err := decodeNumbers(raw, v); err == nil {
		return true
	}
	fixed := sanitizeJSONEscapes(raw)
	if fixed == raw {
		return false
	}
	return decodeNumbers(fixed, v) == nil
}

var errTrailingData = errors.New("trailing data after JSON value")

// decodeNumbers is json.Unmarshal with numbers kept as json.Number, so a
// single out-of-range number does not fail the whole value.
func decodeNumbers(raw string, v any) error {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errTrailingData
	}
	return nil
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) >= 3 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
	}
	return content
}

// findJSONBounds locates the first top-level JSON object ({}) or array ([]) in s.
// Returns the start index and end+1 index, or (-1, -1) if not found.
func findJSONBounds(s string, open byte) (int, int) {
	var start int
	switch open {
	case '{', '[':
		start = strings.IndexByte(s, open)
	default:
		start = strings.IndexAny(s, "{[")
	}
	if start < 0 {
		return -1, -1
	}

	openChar := s[start]
	closeChar := byte('}')
	if openChar == '[' {
		closeChar = ']'
	}

	depth := 0
	inStr := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inStr {
			if ch == '\\' {
				i++ // skip escaped character
				continue
			}
			if ch == '"' {
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case openChar:
			depth++
		case closeChar:
			depth--
			if depth == 0 {
				return start, i + 1
			}
		}
	}
	return -1, -1
}

// sanitizeJSONEscapes fixes invalid JSON escape sequences produced by some LLMs.
// Valid JSON escapes: \", \\, \/, \b, \f, \n, \r, \t, \uXXXX.
// Invalid ones (e.g. \% or \Y) are corrected by dropping the backslash.
func sanitizeJSONEscapes(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))
	inString := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '"' {
			inString = !inString
			buf.WriteByte(ch)
			continue
		}
		if inString && ch == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
				// valid escape: copy both bytes so an escaped quote keeps the string open
				buf.WriteByte(ch)
				buf.WriteByte(s[i+1])
				i++
			}
			continue
		}
		buf.WriteByte(ch)
	}
	return buf.String()
}
