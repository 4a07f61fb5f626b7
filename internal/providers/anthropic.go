package providers

import (
	"encoding/json"
	"fmt"

	"github.com/arcbridge/llmcore/internal/gtm"
	"github.com/arcbridge/llmcore/internal/message"
	"github.com/arcbridge/llmcore/internal/toolconv"
)

// AnthropicAdapter implements the Anthropic Messages API (spec §5,
// Anthropic Messages). Anthropic's own content-block shape is close enough
// to the GTM pivot that the teacher's original pass-through provider
// (providers/anthropic.go, which forwarded requests unchanged) is replaced
// here by an adapter that still does real translation work, since every
// other provider now needs a real Anthropic-shaped intermediate to target.
type AnthropicAdapter struct{}

func NewAnthropicAdapter() *AnthropicAdapter { return &AnthropicAdapter{} }

func (a *AnthropicAdapter) Name() string           { return "anthropic" }
func (a *AnthropicAdapter) SupportsStreaming() bool { return true }

func (a *AnthropicAdapter) BuildRequest(req Request) (map[string]any, error) {
	canon := message.Canonicalized{Messages: req.Messages}
	wireMessages := message.ToProvider(canon, message.Anthropic)

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	body := map[string]any{
		"model":      req.Model,
		"messages":   wireMessages,
		"max_tokens": maxTokens,
		"stream":     req.Stream,
	}
	if req.System != "" {
		body["system"] = req.System
	}
	if req.Temperature != nil {
		body["temperature"] = *req.Temperature
	}
	if len(req.Tools) > 0 {
		wireTools, _ := toolconv.ToolsFromGeneric(req.Tools, toolconv.Anthropic)
		body["tools"] = wireTools
	}

	return body, nil
}

func (a *AnthropicAdapter) ReduceChunk(raw []byte, state *gtm.StreamState) (*gtm.GenericStreamingResponse, error) {
	payload, isEvent := stripSSEPrefix(string(raw))
	if !isEvent {
		return nil, nil
	}

	var evt map[string]any
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		return nil, fmt.Errorf("anthropic: failed to unmarshal stream event: %w", err)
	}

	out := &gtm.GenericStreamingResponse{}
	eventType, _ := evt["type"].(string)

	switch eventType {
	case "message_start":
		msg, _ := evt["message"].(map[string]any)
		if id, ok := msg["id"].(string); ok {
			state.MessageID = id
		}
		if model, ok := msg["model"].(string); ok {
			state.Model = model
		}
		state.MessageStartSent = true

	case "content_block_start":
		idx := blockIndex(evt)
		block, _ := evt["content_block"].(map[string]any)
		blockType, _ := block["type"].(string)
		cb := state.Block(idx, blockType)
		if blockType == "tool_use" {
			cb.ToolCallID, _ = block["id"].(string)
			cb.ToolName, _ = block["name"].(string)
			cb.ToolCallIndex = idx
		}
		cb.StartSent = true

	case "content_block_delta":
		idx := blockIndex(evt)
		delta, _ := evt["delta"].(map[string]any)
		deltaType, _ := delta["type"].(string)
		cb := state.Block(idx, "")

		switch deltaType {
		case "text_delta":
			text, _ := delta["text"].(string)
			cb.Arguments += text
			out.Content = append(out.Content, text)
		case "input_json_delta":
			partial, _ := delta["partial_json"].(string)
			_, tcDelta, _ := gtm.AccumulateToolCallDelta(state, idx, cb.ToolCallID, cb.ToolName, partial)
			out.ToolCalls = append(out.ToolCalls, tcDelta)
		}

	case "content_block_stop":
		idx := blockIndex(evt)
		if cb, ok := state.ContentBlocks[idx]; ok {
			cb.StopSent = true
		}

	case "message_delta":
		delta, _ := evt["delta"].(map[string]any)
		if reason, ok := delta["stop_reason"].(string); ok && reason != "" {
			state.LastFinishReason = gtm.AnthropicFinishReasons.Normalize(reason)
		}
		if usage, ok := evt["usage"].(map[string]any); ok {
			out.Usage = usage
		}

	case "message_stop":
		state.Done = true
		out.Complete = true
		out.FinishReason = state.LastFinishReason
		out.ToolCalls = gtm.FinalizeToolCalls(state)

	case "error":
		errBody, _ := evt["error"].(map[string]any)
		msg, _ := errBody["message"].(string)
		out.Error = true
		out.ErrorMessage = msg
		out.Complete = true
		out.FinishReason = gtm.FinishError
		state.Done = true
	}

	return out, nil
}

func blockIndex(evt map[string]any) int {
	if idx, ok := evt["index"].(float64); ok {
		return int(idx)
	}
	return 0
}
