// Package message implements the Message Canonicalizer (spec §4.3): the
// GTM Message ↔ provider wire-message conversion pair. The per-provider
// content-part shapes are grounded on the teacher's providers/openai.go
// convertMessageContent (OpenAI array-of-parts) and providers/gemini.go
// convertAnthropicMessageToGemini/convertContentBlockToGeminiPart (role
// remapping, functionCall/functionResponse parts), generalized from
// "Anthropic is always one side" to "either side may be any provider,
// with GTM's Message as the neutral pivot".
package message

import (
	"strings"

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

// Canonicalized is the output of FromProvider: the neutral message list plus
// whatever system/instructions text the source protocol carries out-of-band
// from the turn array (spec §4.3: "system message extraction").
type Canonicalized struct {
	System   string
	Messages []gtm.Message
}

// FromProvider parses a provider's wire conversation (already-decoded JSON
// values) into the GTM pivot.
func FromProvider(turns []any, dest Provider) Canonicalized {
	switch dest {
	case Anthropic:
		return fromAnthropic(turns)
	case Google:
		return fromGoogle(turns)
	case IAssistant:
		return fromIAssistant(turns)
	default:
		return fromOpenAIFamily(turns)
	}
}

// ToProvider renders a canonicalized conversation into dest's wire shape.
// The returned value is the provider's full "messages"/"contents" field
// (a []any); callers attach provider-specific siblings (systemInstruction,
// instructions, model, tools) around it.
func ToProvider(c Canonicalized, dest Provider) []any {
	switch dest {
	case Anthropic:
		return toAnthropic(c)
	case Google:
		return toGoogle(c)
	case IAssistant:
		return toIAssistant(c)
	default:
		return toOpenAIFamily(c, dest)
	}
}

// ---- OpenAI / Mistral / vLLM family -------------------------------------

func fromOpenAIFamily(turns []any) Canonicalized {
	var out Canonicalized
	for _, raw := range turns {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		role, _ := m["role"].(string)
		if role == gtm.RoleSystem {
			if text, ok := m["content"].(string); ok {
				out.System = joinNonEmpty(out.System, text)
			}
			continue
		}

		msg := gtm.Message{Role: role}
		if role == gtm.RoleTool {
			msg.ToolCallID, _ = m["tool_call_id"].(string)
		}

		switch content := m["content"].(type) {
		case string:
			msg.Content = content
		case []any:
			for _, partRaw := range content {
				part, ok := partRaw.(map[string]any)
				if !ok {
					continue
				}
				switch part["type"] {
				case "text":
					text, _ := part["text"].(string)
					msg.Content = joinNonEmpty(msg.Content, text)
				case "image_url":
					if img, ok := part["image_url"].(map[string]any); ok {
						if url, _ := img["url"].(string); url != "" {
							msg.ImageParts = append(msg.ImageParts, parseDataURL(url))
						}
					}
				}
			}
		}

		if calls, ok := m["tool_calls"].([]any); ok {
			for i, raw := range calls {
				cm, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				id, _ := cm["id"].(string)
				fn, _ := cm["function"].(map[string]any)
				name, _ := fn["name"].(string)
				args, _ := fn["arguments"].(string)
				msg.ToolCalls = append(msg.ToolCalls, gtm.ToolCallRef{ID: id, Name: name, ArgumentsJSON: args})
				_ = i
			}
		}

		out.Messages = append(out.Messages, msg)
	}
	return out
}

func toOpenAIFamily(c Canonicalized, dest Provider) []any {
	out := make([]any, 0, len(c.Messages)+1)
	if c.System != "" {
		out = append(out, map[string]any{"role": gtm.RoleSystem, "content": c.System})
	}

	for _, msg := range c.Messages {
		entry := map[string]any{"role": msg.Role}

		if msg.Role == gtm.RoleTool {
			entry["tool_call_id"] = msg.ToolCallID
			entry["content"] = toolResultText(msg)
			out = append(out, entry)
			continue
		}

		if len(msg.ImageParts) == 0 {
			entry["content"] = msg.Content
		} else {
			parts := make([]any, 0, len(msg.ImageParts)+1)
			if msg.Content != "" {
				parts = append(parts, map[string]any{"type": "text", "text": msg.Content})
			}
			for _, img := range msg.ImageParts {
				parts = append(parts, map[string]any{
					"type": "image_url",
					"image_url": map[string]any{
						"url":    toDataURL(img),
						"detail": "high",
					},
				})
			}
			entry["content"] = parts
		}

		if len(msg.ToolCalls) > 0 {
			calls := make([]any, 0, len(msg.ToolCalls))
			for _, tc := range msg.ToolCalls {
				calls = append(calls, map[string]any{
					"id":   tc.ID,
					"type": "function",
					"function": map[string]any{
						"name":      tc.Name,
						"arguments": tc.ArgumentsJSON,
					},
				})
			}
			entry["tool_calls"] = calls
			if s, ok := entry["content"].(string); ok && s == "" {
				delete(entry, "content")
			}
		}

		out = append(out, entry)
	}

	return out
}

// ---- Anthropic -----------------------------------------------------------

func fromAnthropic(turns []any) Canonicalized {
	var out Canonicalized
	for _, raw := range turns {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		role, _ := m["role"].(string)
		msg := gtm.Message{Role: role}

		switch content := m["content"].(type) {
		case string:
			msg.Content = content
			out.Messages = append(out.Messages, msg)
			continue
		case []any:
			for _, blockRaw := range content {
				block, ok := blockRaw.(map[string]any)
				if !ok {
					continue
				}
				switch block["type"] {
				case "text":
					text, _ := block["text"].(string)
					msg.Content = joinNonEmpty(msg.Content, text)
				case "tool_use":
					id, _ := block["id"].(string)
					name, _ := block["name"].(string)
					msg.ToolCalls = append(msg.ToolCalls, gtm.ToolCallRef{ID: id, Name: name})
				case "tool_result":
					toolMsg := gtm.Message{Role: gtm.RoleTool}
					toolMsg.ToolCallID, _ = block["tool_use_id"].(string)
					if isErr, ok := block["is_error"].(bool); ok {
						toolMsg.IsError = isErr
					}
					switch inner := block["content"].(type) {
					case string:
						toolMsg.Content = inner
					case []any:
						for _, innerRaw := range inner {
							innerBlock, ok := innerRaw.(map[string]any)
							if !ok {
								continue
							}
							if innerBlock["type"] == "text" {
								text, _ := innerBlock["text"].(string)
								toolMsg.Content = joinNonEmpty(toolMsg.Content, text)
							}
							if innerBlock["type"] == "image" {
								if src, ok := innerBlock["source"].(map[string]any); ok {
									mediaType, _ := src["media_type"].(string)
									data, _ := src["data"].(string)
									toolMsg.ImageParts = append(toolMsg.ImageParts, gtm.ImagePart{MIMEType: mediaType, Base64: data})
								}
							}
						}
					}
					out.Messages = append(out.Messages, toolMsg)
				}
			}
		}

		if msg.Content != "" || len(msg.ToolCalls) > 0 {
			out.Messages = append(out.Messages, msg)
		}
	}
	return out
}

func toAnthropic(c Canonicalized) []any {
	out := make([]any, 0, len(c.Messages))
	for _, msg := range c.Messages {
		if msg.Role == gtm.RoleTool {
			// Anthropic carries tool results as a user-role message containing
			// a tool_result block (spec §4.3). An image-bearing tool result's
			// images cannot live inside the tool_result block itself, so they
			// follow as sibling image blocks in the *same* content array and
			// the *same* synthetic user message (spec §4.3, §8 "Image
			// round-trip for tool results").
			resultBlock := map[string]any{
				"type":        "tool_result",
				"tool_use_id": msg.ToolCallID,
				"content":     toolResultText(msg),
			}
			if msg.IsError {
				resultBlock["is_error"] = true
			}

			content := make([]any, 0, 1+len(msg.ImageParts))
			content = append(content, resultBlock)
			for _, img := range msg.ImageParts {
				content = append(content, map[string]any{
					"type": "image",
					"source": map[string]any{
						"type":       "base64",
						"media_type": img.MIMEType,
						"data":       img.Base64,
					},
				})
			}
			out = append(out, map[string]any{"role": gtm.RoleUser, "content": content})
			continue
		}

		blocks := make([]any, 0, 1+len(msg.ToolCalls)+len(msg.ImageParts))
		if msg.Content != "" {
			blocks = append(blocks, map[string]any{"type": "text", "text": msg.Content})
		}
		for _, img := range msg.ImageParts {
			blocks = append(blocks, map[string]any{
				"type": "image",
				"source": map[string]any{
					"type":       "base64",
					"media_type": img.MIMEType,
					"data":       img.Base64,
				},
			})
		}
		for _, tc := range msg.ToolCalls {
			blocks = append(blocks, map[string]any{"type": "tool_use", "id": tc.ID, "name": tc.Name})
		}

		out = append(out, map[string]any{"role": msg.Role, "content": blocks})
	}
	return out
}

// ---- Google Gemini --------------------------------------------------------

func fromGoogle(turns []any) Canonicalized {
	var out Canonicalized
	for _, raw := range turns {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		role, _ := m["role"].(string)
		gtmRole := gtm.RoleUser
		if role == "model" {
			gtmRole = gtm.RoleAssistant
		}
		msg := gtm.Message{Role: gtmRole}

		parts, _ := m["parts"].([]any)
		for _, partRaw := range parts {
			part, ok := partRaw.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := part["text"].(string); ok {
				msg.Content = joinNonEmpty(msg.Content, text)
			}
			if fc, ok := part["functionCall"].(map[string]any); ok {
				name, _ := fc["name"].(string)
				msg.ToolCalls = append(msg.ToolCalls, gtm.ToolCallRef{Name: name})
			}
			if fr, ok := part["functionResponse"].(map[string]any); ok {
				toolMsg := gtm.Message{Role: gtm.RoleTool}
				toolMsg.ToolName, _ = fr["name"].(string)
				out.Messages = append(out.Messages, toolMsg)
			}
		}

		if msg.Content != "" || len(msg.ToolCalls) > 0 {
			out.Messages = append(out.Messages, msg)
		}
	}
	return out
}

func toGoogle(c Canonicalized) []any {
	out := make([]any, 0, len(c.Messages))
	for _, msg := range c.Messages {
		role := "user"
		if msg.Role == gtm.RoleAssistant {
			role = "model"
		}

		if msg.Role == gtm.RoleTool {
			out = append(out, map[string]any{
				"role": "user",
				"parts": []any{
					map[string]any{
						"functionResponse": map[string]any{
							"name":     msg.ToolName,
							"response": map[string]any{"result": msg.Content},
						},
					},
				},
			})
			continue
		}

		parts := make([]any, 0, 1+len(msg.ToolCalls)+len(msg.ImageParts))
		if msg.Content != "" {
			parts = append(parts, map[string]any{"text": msg.Content})
		}
		for _, img := range msg.ImageParts {
			parts = append(parts, map[string]any{
				"inlineData": map[string]any{"mimeType": img.MIMEType, "data": img.Base64},
			})
		}
		for _, tc := range msg.ToolCalls {
			parts = append(parts, map[string]any{"functionCall": map[string]any{"name": tc.Name}})
		}

		out = append(out, map[string]any{"role": role, "parts": parts})
	}
	return out
}

// ---- iAssistant: one-shot, discard all but last user message --------------

func fromIAssistant(turns []any) Canonicalized {
	var last gtm.Message
	for _, raw := range turns {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if role, _ := m["role"].(string); role != gtm.RoleUser {
			continue
		}
		if text, ok := m["content"].(string); ok {
			last = gtm.Message{Role: gtm.RoleUser, Content: text}
		}
	}
	if last.Content == "" {
		return Canonicalized{}
	}
	return Canonicalized{Messages: []gtm.Message{last}}
}

func toIAssistant(c Canonicalized) []any {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == gtm.RoleUser {
			return []any{map[string]any{"role": gtm.RoleUser, "content": c.Messages[i].Content}}
		}
	}
	return nil
}

// ---- shared helpers --------------------------------------------------------

func joinNonEmpty(existing, next string) string {
	if next == "" {
		return existing
	}
	if existing == "" {
		return next
	}
	return existing + "\n\n" + next
}

func toolResultText(msg gtm.Message) string {
	return msg.Content
}

func toDataURL(img gtm.ImagePart) string {
	return "data:" + img.MIMEType + ";base64," + img.Base64
}

func parseDataURL(url string) gtm.ImagePart {
	const prefix = "data:"
	if !strings.HasPrefix(url, prefix) {
		return gtm.ImagePart{Base64: url}
	}
	rest := strings.TrimPrefix(url, prefix)
	mimeType, b64, found := strings.Cut(rest, ";base64,")
	if !found {
		return gtm.ImagePart{Base64: url}
	}
	return gtm.ImagePart{MIMEType: mimeType, Base64: b64}
}
