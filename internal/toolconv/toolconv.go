// Package toolconv implements the Tool Dialect Converters (spec §4.2): the
// GTM↔provider conversion pair for tool definitions and tool calls, plus the
// top-level convert_between router. Patterns are grounded on the teacher's
// providers/base.go (TransformTools, TransformAssistantMessage's tool_use
// handling) and providers/gemini.go (convertAnthropicToolsToGemini,
// convertContentBlockToGeminiPart) — generalized from "convert straight to
// Anthropic" to "convert through the neutral GenericTool/GenericToolCall
// pivot".
package toolconv

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/arcbridge/llmcore/internal/gtm"
	"github.com/arcbridge/llmcore/internal/schema"
)

// Provider aliases schema.Provider so callers need only import one enum.
type Provider = schema.Provider

const (
	Google          = schema.Google
	OpenAI          = schema.OpenAI
	OpenAIResponses = schema.OpenAIResponses
	Anthropic       = schema.Anthropic
	VLLM            = schema.VLLM
	Mistral         = schema.Mistral
	IAssistant      = schema.IAssistant
)

// isOpenAIFamily reports whether provider shares the OpenAI function-calling
// wire shape (chat.completions tool/tool_call JSON).
func isOpenAIFamily(p Provider) bool {
	switch p {
	case OpenAI, OpenAIResponses, Mistral, VLLM:
		return true
	default:
		return false
	}
}

// FilterForDestination applies the special-tool filtering rule of spec
// §4.2: drop tools hinted at a different provider family, drop unhinted
// special tools, and drop duplicate native-search tools when dest's own
// search tool is already present in tools.
func FilterForDestination(tools []gtm.GenericTool, dest Provider) []gtm.GenericTool {
	hasNativeSearch := false
	for _, t := range tools {
		if t.IsSpecial && t.ProviderHint == string(dest) && isWebSearchTool(t) {
			hasNativeSearch = true
			break
		}
	}

	out := make([]gtm.GenericTool, 0, len(tools))
	for _, t := range tools {
		if t.ProviderHint != "" && Provider(t.ProviderHint) != dest {
			continue
		}
		if t.IsSpecial && t.ProviderHint == "" {
			continue
		}
		if t.IsSpecial && isWebSearchTool(t) && Provider(t.ProviderHint) == dest && hasNativeSearch && t.Metadata["duplicate_of_native"] == true {
			continue
		}
		out = append(out, t)
	}
	return out
}

func isWebSearchTool(t gtm.GenericTool) bool {
	name := strings.ToLower(t.Name)
	return strings.Contains(name, "search")
}

// ToolsFromGeneric renders tools in dest's wire shape. For vLLM, which also
// needs a derived tool_choice, toolChoice is non-nil when tools is non-empty.
func ToolsFromGeneric(tools []gtm.GenericTool, dest Provider) (wireTools []any, toolChoice any) {
	filtered := FilterForDestination(tools, dest)

	switch {
	case isOpenAIFamily(dest):
		wireTools = make([]any, 0, len(filtered))
		for i, t := range filtered {
			wireTools = append(wireTools, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        t.EffectiveName(i),
					"description": t.Description,
					"parameters":  schema.Sanitize(t.Parameters, dest),
				},
			})
		}
		if dest == VLLM && len(wireTools) > 0 {
			toolChoice = "auto"
		}
	case dest == Anthropic:
		wireTools = make([]any, 0, len(filtered))
		for i, t := range filtered {
			wireTools = append(wireTools, map[string]any{
				"name":         t.EffectiveName(i),
				"description":  t.Description,
				"input_schema": schema.Sanitize(t.Parameters, dest),
			})
		}
	case dest == Google:
		decls := make([]any, 0, len(filtered))
		for i, t := range filtered {
			decls = append(decls, map[string]any{
				"name":        t.EffectiveName(i),
				"description": t.Description,
				"parameters":  schema.Sanitize(t.Parameters, dest),
			})
		}
		if len(decls) > 0 {
			wireTools = []any{map[string]any{"functionDeclarations": decls}}
		}
	default:
		// IAssistant bare tool support, if any, reuses the OpenAI shape with no
		// schema rewriting (handled by schema.Sanitize's no-op branch). Mistral
		// takes the OpenAI-family branch above.
		wireTools = make([]any, 0, len(filtered))
		for i, t := range filtered {
			wireTools = append(wireTools, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        t.EffectiveName(i),
					"description": t.Description,
					"parameters":  schema.Sanitize(t.Parameters, dest),
				},
			})
		}
	}

	return wireTools, toolChoice
}

// ToolsToGeneric parses provider-shaped tools back into GenericTool.
func ToolsToGeneric(wireTools []any, source Provider) []gtm.GenericTool {
	out := make([]gtm.GenericTool, 0, len(wireTools))

	switch {
	case source == Google:
		for _, raw := range wireTools {
			m, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			decls, _ := m["functionDeclarations"].([]any)
			for _, d := range decls {
				dm, ok := d.(map[string]any)
				if !ok {
					continue
				}
				out = append(out, genericFromDecl(dm, "parameters"))
			}
		}
	case source == Anthropic:
		for _, raw := range wireTools {
			m, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, genericFromDecl(m, "input_schema"))
		}
	default:
		for _, raw := range wireTools {
			m, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			fn, _ := m["function"].(map[string]any)
			if fn == nil {
				continue
			}
			out = append(out, genericFromDecl(fn, "parameters"))
		}
	}

	return out
}

func genericFromDecl(m map[string]any, paramKey string) gtm.GenericTool {
	name, _ := m["name"].(string)
	desc, _ := m["description"].(string)
	params, _ := m[paramKey].(map[string]any)
	return gtm.GenericTool{ID: name, Name: name, Description: desc, Parameters: params}
}

// ToolCallsFromGeneric renders a finalized set of tool calls into dest's
// wire shape for inclusion in an assistant turn being replayed back to the
// provider (e.g. multi-turn tool-use history).
func ToolCallsFromGeneric(calls []gtm.GenericToolCall, dest Provider) []any {
	out := make([]any, 0, len(calls))

	for _, c := range calls {
		switch {
		case isOpenAIFamily(dest):
			argsJSON, _ := json.Marshal(c.Arguments)
			out = append(out, map[string]any{
				"id":   DenormalizeID(c.ID, dest),
				"type": "function",
				"function": map[string]any{
					"name":      c.Name,
					"arguments": string(argsJSON),
				},
			})
		case dest == Anthropic:
			out = append(out, map[string]any{
				"type":  "tool_use",
				"id":    DenormalizeID(c.ID, dest),
				"name":  c.Name,
				"input": c.Arguments,
			})
		case dest == Google:
			out = append(out, map[string]any{
				"functionCall": map[string]any{
					"name": c.Name,
					"args": c.Arguments,
				},
			})
		default:
			argsJSON, _ := json.Marshal(c.Arguments)
			out = append(out, map[string]any{
				"id":   c.ID,
				"type": "function",
				"function": map[string]any{
					"name":      c.Name,
					"arguments": string(argsJSON),
				},
			})
		}
	}

	return out
}

// ToolCallsToGeneric parses a set of provider-shaped tool calls (as found
// in a complete, non-streaming response message) back into GenericToolCall.
func ToolCallsToGeneric(wireCalls []any, source Provider) []gtm.GenericToolCall {
	out := make([]gtm.GenericToolCall, 0, len(wireCalls))

	for i, raw := range wireCalls {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		switch {
		case source == Anthropic:
			id, _ := m["id"].(string)
			name, _ := m["name"].(string)
			input, _ := m["input"].(map[string]any)
			out = append(out, gtm.GenericToolCall{ID: NormalizeID(id, source), Name: name, Arguments: input, Index: i})
		case source == Google:
			fc, _ := m["functionCall"].(map[string]any)
			if fc == nil {
				continue
			}
			name, _ := fc["name"].(string)
			args, _ := fc["args"].(map[string]any)
			out = append(out, gtm.GenericToolCall{ID: uuid.NewString(), Name: name, Arguments: args, Index: i})
		default:
			id, _ := m["id"].(string)
			fn, _ := m["function"].(map[string]any)
			name, _ := fn["name"].(string)
			argsStr, _ := fn["arguments"].(string)
			var parsed map[string]any
			_ = json.Unmarshal([]byte(argsStr), &parsed)
			out = append(out, gtm.GenericToolCall{ID: NormalizeID(id, source), Name: name, Arguments: parsed, Index: i})
		}
	}

	return out
}

// NormalizeID converts a provider-native tool-call ID into the GTM's own
// representation. We keep OpenAI's call_ and Anthropic's toolu_ prefixes
// as-is (both are already globally distinguishable) and only synthesize an
// ID where the source protocol has none (Google) — done at the caller via
// uuid.NewString, mirroring the teacher's convertToolCallID/time-based
// synthesis in providers/openai.go and providers/gemini.go, replaced with a
// collision-free generator.
func NormalizeID(id string, _ Provider) string { return id }

// DenormalizeID renders a GTM tool-call ID back into dest's native prefix
// convention, porting providers/openai.go's convertToolCallID both ways.
func DenormalizeID(id string, dest Provider) string {
	switch dest {
	case Anthropic:
		if strings.HasPrefix(id, "toolu_") {
			return id
		}
		if strings.HasPrefix(id, "call_") {
			return "toolu_" + strings.TrimPrefix(id, "call_")
		}
		return "toolu_" + id
	case OpenAI, OpenAIResponses, Mistral, VLLM:
		if strings.HasPrefix(id, "call_") {
			return id
		}
		if strings.HasPrefix(id, "toolu_") {
			return "call_" + strings.TrimPrefix(id, "toolu_")
		}
		return id
	default:
		return id
	}
}

// ConvertBetween composes source→generic→dest for either a tool list
// ([]gtm.GenericTool is accepted directly as "already generic") or a tool
// call list, short-circuiting when source == dest (spec §4.2).
func ConvertBetween(source, dest Provider, object any) (any, error) {
	if source == dest {
		return object, nil
	}

	switch v := object.(type) {
	case []any:
		// Ambiguous: try tool-call shape first (has "function"/"functionCall"/"input"),
		// fall back to tool-definition shape.
		if looksLikeToolCalls(v) {
			generic := ToolCallsToGeneric(v, source)
			calls := make([]gtm.GenericToolCall, len(generic))
			copy(calls, generic)
			return ToolCallsFromGeneric(calls, dest), nil
		}
		generic := ToolsToGeneric(v, source)
		return func() []any { w, _ := ToolsFromGeneric(generic, dest); return w }(), nil
	case []gtm.GenericTool:
		w, _ := ToolsFromGeneric(v, dest)
		return w, nil
	case []gtm.GenericToolCall:
		return ToolCallsFromGeneric(v, dest), nil
	default:
		return object, nil
	}
}

func looksLikeToolCalls(items []any) bool {
	for _, raw := range items {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := m["functionCall"]; ok {
			return true
		}
		if _, ok := m["input"]; ok {
			return true
		}
		if fn, ok := m["function"].(map[string]any); ok {
			if _, ok := fn["arguments"]; ok {
				return true
			}
		}
	}
	return false
}
