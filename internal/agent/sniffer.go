package agent

import (
	"encoding/json"
	"strings"
)

// SniffedCall is a tool-call candidate recognized in the text channel
// instead of the structured function-call protocol.
type SniffedCall struct {
	Name      string
	Arguments json.RawMessage
}

// Segment is one drained unit of the content stream. Withheld
// segments carry one or more recognized calls and are never routed to
// content_delta; non-withheld segments are ordinary text.
type Segment struct {
	Text     string
	Withheld bool
	Calls    []SniffedCall
}

// Sniffer is a small stateful buffer over the content stream that
// detects a model emitting tool-call JSON as plain text instead of
// using the structured function-call channel (spec §4.3).
type Sniffer struct {
	buf strings.Builder
}

// Feed appends a content delta and returns any segments the drain
// policy makes emittable now.
func (s *Sniffer) Feed(delta string) []Segment {
	s.buf.WriteString(delta)
	return s.drain(false)
}

// Final flushes the remainder of the buffer unconditionally, to be
// called once the stream has closed.
func (s *Sniffer) Final() []Segment {
	return s.drain(true)
}

func (s *Sniffer) drain(final bool) []Segment {
	var segments []Segment
	for {
		buf := s.buf.String()
		if buf == "" {
			return segments
		}

		if final {
			s.buf.Reset()
			segments = append(segments, classify(buf))
			return segments
		}

		if idx := strings.IndexByte(buf, '\n'); idx >= 0 {
			segment := buf[:idx+1]
			rest := buf[idx+1:]
			s.buf.Reset()
			s.buf.WriteString(rest)
			segments = append(segments, classify(segment))
			continue
		}

		trimmed := strings.TrimLeft(buf, " \t\r\n")
		if trimmed != "" && (trimmed[0] == '{' || trimmed[0] == '[') {
			// looks like an in-progress JSON value; wait for more input.
			return segments
		}

		s.buf.Reset()
		segments = append(segments, classify(buf))
		return segments
	}
}

// classify parses a drained segment into tool-call candidates; if any
// normalize to a named call, the segment is withheld from emission.
func classify(segment string) Segment {
	calls := parseCandidates(segment)
	if len(calls) == 0 {
		return Segment{Text: segment}
	}
	return Segment{Withheld: true, Calls: calls}
}

func parseCandidates(segment string) []SniffedCall {
	var dicts []map[string]any

	var whole any
	if err := json.Unmarshal([]byte(segment), &whole); err == nil {
		switch v := whole.(type) {
		case []any:
			for _, el := range v {
				if m, ok := el.(map[string]any); ok {
					dicts = append(dicts, m)
				}
			}
		case map[string]any:
			dicts = append(dicts, v)
		}
	}

	if len(dicts) == 0 {
		for _, line := range strings.Split(segment, "\n") {
			line = strings.TrimSpace(line)
			line = strings.TrimRight(line, ",")
			if line == "" {
				continue
			}
			var m map[string]any
			if err := json.Unmarshal([]byte(line), &m); err == nil {
				dicts = append(dicts, m)
			}
		}
	}

	var calls []SniffedCall
	for _, d := range dicts {
		if call, ok := normalizeCandidate(d); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

func normalizeCandidate(m map[string]any) (SniffedCall, bool) {
	name := firstString(m, "name", "tool_name", "function")

	var argsVal any
	for _, key := range []string{"arguments", "args", "input", "parameters", "payload"} {
		if v, ok := m[key]; ok {
			argsVal = v
			break
		}
	}

	if name == "" {
		if argsVal == nil {
			// A bare argument object: the candidate itself is the arguments.
			argsVal = m
		}
		name = inferToolName(argsVal)
	}
	if name == "" {
		return SniffedCall{}, false
	}

	argsJSON, err := json.Marshal(argsVal)
	if err != nil || argsVal == nil {
		argsJSON = []byte("{}")
	}
	return SniffedCall{Name: name, Arguments: argsJSON}, true
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// inferToolName maps a bare argument shape to a tool name when the
// candidate omitted one, per the fixed mapping in spec §4.3.
func inferToolName(argsVal any) string {
	m, ok := argsVal.(map[string]any)
	if !ok {
		return ""
	}
	if _, ok := m["thinking_focus"]; ok {
		return "reasoning"
	}
	if _, ok := m["specific_question"]; ok {
		return "reasoning"
	}
	if _, ok := m["query"]; ok {
		return "web_search"
	}
	if _, ok := m["queries"]; ok {
		return "web_search"
	}
	if _, ok := m["timezone"]; ok {
		return "get_current_time"
	}
	if _, ok := m["url"]; ok {
		return "browse"
	}
	return ""
}
