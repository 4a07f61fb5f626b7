// Package gtm defines the Generic Tool Model: the neutral data types used
// as the pivot for every cross-provider translation performed by this
// module (messages, tool definitions, tool calls, and streamed responses).
package gtm

// Role constants for Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Normalized finish reasons. Every adapter's HandleFinishReason-equivalent
// must map its native terminators into this closed set.
const (
	FinishStop         = "stop"
	FinishLength       = "length"
	FinishToolCalls    = "tool_calls"
	FinishContentFilter = "content_filter"
	FinishError        = "error"
)

// ImagePart is one inline image attached to a Message.
type ImagePart struct {
	MIMEType string `json:"mime_type"`
	Base64   string `json:"base64"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// AudioPart is one inline audio clip attached to a Message.
type AudioPart struct {
	MIMEType string `json:"mime_type"`
	Base64   string `json:"base64"`
}

// ToolCallRef is the compact reference an assistant Message carries for a
// tool invocation it made (as opposed to GenericToolCall, which is the
// pivot type used during translation/streaming).
type ToolCallRef struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ArgumentsJSON string `json:"arguments_json"`
}

// Message is one canonical conversational turn. See spec §3 for invariants:
// a tool message must carry ToolCallID; an assistant message may carry both
// Content and ToolCalls; image/audio parts are allowed alongside text.
type Message struct {
	Role       string        `json:"role"`
	Content    string        `json:"content,omitempty"`
	ImageParts []ImagePart   `json:"image_parts,omitempty"`
	AudioParts []AudioPart   `json:"audio_parts,omitempty"`
	ToolCalls  []ToolCallRef `json:"tool_calls,omitempty"`

	// Tool-message-only fields.
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`
	IsError    bool   `json:"is_error,omitempty"`
}

// HasText reports whether the message carries non-empty text content.
func (m Message) HasText() bool { return m.Content != "" }

// GenericTool is the canonical tool descriptor (spec §3).
type GenericTool struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	ProviderHint string         `json:"provider_hint,omitempty"`
	IsSpecial    bool           `json:"is_special,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// EffectiveName returns the tie-break tool name per spec §4.2: ID if
// present, else Name, else a synthesized tool_{index} placeholder.
func (t GenericTool) EffectiveName(index int) string {
	switch {
	case t.ID != "":
		return t.ID
	case t.Name != "":
		return t.Name
	default:
		return SyntheticToolName(index)
	}
}

// SyntheticToolName produces the spec's tool_{index} tie-break fallback.
func SyntheticToolName(index int) string {
	return "tool_" + itoa(index)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// GenericToolCall is the canonical tool invocation (spec §3). During
// streaming, ID/Name may be empty and a delta carries its argument fragment
// in RawArgs with Arguments unset; a finalized call whose accumulated text
// does not parse holds a {"raw": string} placeholder in Arguments.
type GenericToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
	RawArgs   string         `json:"-"`
	Index     int            `json:"index"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ArgumentsOrRaw returns the finalized arguments object, or {"raw": s} if
// the accumulated argument text never parsed as JSON.
func ArgumentsOrRaw(parsed map[string]any, raw string, parseOK bool) map[string]any {
	if parseOK {
		if parsed == nil {
			parsed = map[string]any{}
		}
		return parsed
	}
	return map[string]any{"raw": raw}
}

// ImageOut is one image produced by an image-generation provider.
type ImageOut struct {
	MIMEType      string `json:"mime_type"`
	BaseOrURL     string `json:"base64_or_url"`
	NeedsDownload bool   `json:"needs_download,omitempty"`
}

// GenericStreamingResponse is one reduced chunk of an upstream response
// (spec §3).
type GenericStreamingResponse struct {
	Content      []string          `json:"content,omitempty"`
	ToolCalls    []GenericToolCall `json:"tool_calls,omitempty"`
	Complete     bool              `json:"complete"`
	FinishReason string            `json:"finish_reason,omitempty"`
	Error        bool              `json:"error,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Passages     []any             `json:"passages,omitempty"`
	Telemetry    map[string]any    `json:"telemetry,omitempty"`
	Images       []ImageOut        `json:"images,omitempty"`
	Usage        map[string]any    `json:"usage,omitempty"`
}

// ContentBlockState tracks one content-block slot (text or tool_use) over
// the life of a stream — the per-slot accumulation triple spec §3 calls out,
// plus the index/stream-start bookkeeping the providers need.
type ContentBlockState struct {
	Type          string // "text" or "tool_use"
	StartSent     bool
	StopSent      bool
	ToolCallID    string
	ToolCallIndex int
	ToolName      string
	Arguments     string // byte-wise accumulated function.arguments text
}

// StreamState is per-stream, adapter-owned accumulation state (spec §3).
// The caller creates and owns the handle; adapters mutate it in place.
type StreamState struct {
	MessageStartSent bool
	MessageID        string
	Model            string

	ContentBlocks map[int]*ContentBlockState
	CurrentIndex  int

	LastFinishReason string
	Done             bool
}

// NewStreamState allocates a fresh, empty stream handle.
func NewStreamState() *StreamState {
	return &StreamState{ContentBlocks: make(map[int]*ContentBlockState)}
}

// TextBlockIndex is the reserved slot key adapters that assign their own
// tool-call indices (OpenAI, Responses, Google, iAssistant) use for the
// single running text block, so a tool call arriving at wire index 0 can
// never collide with it. Anthropic's own wire indices already interleave
// text and tool_use blocks consistently and don't need this reservation.
const TextBlockIndex = -1

// Block returns (creating if absent) the content block at index.
func (s *StreamState) Block(index int, blockType string) *ContentBlockState {
	if s.ContentBlocks == nil {
		s.ContentBlocks = make(map[int]*ContentBlockState)
	}
	b, ok := s.ContentBlocks[index]
	if !ok {
		b = &ContentBlockState{Type: blockType}
		s.ContentBlocks[index] = b
	}
	return b
}

// FindToolBlock locates a tool_use block by its wire slot index or its ID,
// per the "tool calls arrive indexed by slot" accumulation rule in spec §4.4.
func (s *StreamState) FindToolBlock(wireIndex int, id string) (int, *ContentBlockState, bool) {
	if s.ContentBlocks == nil {
		return 0, nil, false
	}
	for idx, b := range s.ContentBlocks {
		if b.Type != "tool_use" {
			continue
		}
		if b.ToolCallIndex == wireIndex {
			return idx, b, true
		}
	}
	if id != "" {
		for idx, b := range s.ContentBlocks {
			if b.Type == "tool_use" && b.ToolCallID == id {
				return idx, b, true
			}
		}
	}
	return 0, nil, false
}

// NewToolBlock allocates the next content-block slot as a tool_use block.
func (s *StreamState) NewToolBlock(wireIndex int, id, name string) (int, *ContentBlockState) {
	if s.ContentBlocks == nil {
		s.ContentBlocks = make(map[int]*ContentBlockState)
	}
	idx := len(s.ContentBlocks)
	b := &ContentBlockState{Type: "tool_use", ToolCallID: id, ToolCallIndex: wireIndex, ToolName: name}
	s.ContentBlocks[idx] = b
	return idx, b
}
