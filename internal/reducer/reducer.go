// Package reducer implements the Streaming Reducer (spec §4.6): the thin
// stateful wrapper that binds a gtm.StreamState's lifecycle to repeated
// Adapter.ReduceChunk calls. The adapter's completing chunk carries the
// finalized tool calls; Finalize returns them on demand for a stream that
// stops early. It is grounded on the teacher's handlers/proxy.go SSE-scanning
// loop (bufio.Scanner over the upstream body, one StreamState per request),
// generalized from "re-emit Anthropic SSE text" to "accumulate and return
// GenericStreamingResponse values".
package reducer

import (
	"log/slog"

	"github.com/tidwall/gjson"

	"github.com/arcbridge/llmcore/internal/gtm"
	"github.com/arcbridge/llmcore/internal/providers"
)

// Session drives one streamed turn end-to-end: feed it every raw chunk in
// arrival order; each Feed returns that chunk's delta, and the chunk with
// Complete set carries the adapter's finalized tool calls.
type Session struct {
	adapter providers.Adapter
	state   *gtm.StreamState
	logger  *slog.Logger
}

// NewSession starts a fresh streaming reduction against adapter.
func NewSession(adapter providers.Adapter, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{adapter: adapter, state: gtm.NewStreamState(), logger: logger}
}

// Feed reduces one raw chunk and returns the delta response for it. A nil
// response (with a nil error) means the chunk carried no user-visible
// delta — a framing-only line, for instance — and callers should simply
// keep reading.
func (s *Session) Feed(raw []byte) (*gtm.GenericStreamingResponse, error) {
	resp, err := s.adapter.ReduceChunk(raw, s.state)
	if err != nil {
		s.logger.Debug("reducer: chunk reduction failed", "provider", s.adapter.Name(), "event_type", probeEventType(raw), "error", err)
		return nil, err
	}
	return resp, nil
}

// probeEventType pulls a "type" (Anthropic, Responses) or "object" (OpenAI
// family) field out of a raw chunk without a full json.Unmarshal, purely
// for attaching a human-readable tag to a failure log line — the adapters
// themselves always do their own full unmarshal of the payload.
func probeEventType(raw []byte) string {
	payload := raw
	if idx := indexOfJSONStart(raw); idx >= 0 {
		payload = raw[idx:]
	}
	if t := gjson.GetBytes(payload, "type"); t.Exists() {
		return t.String()
	}
	if t := gjson.GetBytes(payload, "object"); t.Exists() {
		return t.String()
	}
	return "unknown"
}

func indexOfJSONStart(raw []byte) int {
	for i, b := range raw {
		if b == '{' {
			return i
		}
	}
	return -1
}

// Done reports whether the stream has reached a terminal state.
func (s *Session) Done() bool { return s.state.Done }

// Finalize drains any tool calls left in state — a caller that stops
// feeding chunks early (connection drop, caller-side timeout) can still
// recover whatever arguments had accumulated so far.
func (s *Session) Finalize() []gtm.GenericToolCall {
	return gtm.FinalizeToolCalls(s.state)
}
