package providers

import (
	"encoding/json"
	"fmt"

	"github.com/arcbridge/llmcore/internal/gtm"
	"github.com/arcbridge/llmcore/internal/message"
	"github.com/arcbridge/llmcore/internal/toolconv"
)

// ResponsesAdapter implements the OpenAI Responses API (spec §5, OpenAI
// Responses): instructions/input replace system/messages, and reasoning
// effort / text verbosity / text format are first-class request fields with
// no Chat Completions analog. Event framing (response.output_text.delta,
// response.function_call_arguments.delta, response.completed) is the
// generalization of the teacher's OpenAI SSE handling to the Responses
// event taxonomy.
type ResponsesAdapter struct{}

func NewResponsesAdapter() *ResponsesAdapter { return &ResponsesAdapter{} }

func (a *ResponsesAdapter) Name() string           { return "openai-responses" }
func (a *ResponsesAdapter) SupportsStreaming() bool { return true }

func (a *ResponsesAdapter) BuildRequest(req Request) (map[string]any, error) {
	canon := message.Canonicalized{Messages: req.Messages}
	input := message.ToProvider(canon, message.OpenAIResponses)

	body := map[string]any{
		"model":  req.Model,
		"input":  input,
		"stream": req.Stream,
	}
	if req.System != "" {
		body["instructions"] = req.System
	}
	if req.ReasoningEffort != "" {
		body["reasoning"] = map[string]any{"effort": req.ReasoningEffort}
	}
	if req.TextVerbosity != "" {
		body["text"] = map[string]any{"verbosity": req.TextVerbosity, "format": map[string]any{"type": "text"}}
	}
	if req.MaxTokens > 0 {
		body["max_output_tokens"] = req.MaxTokens
	}

	if len(req.Tools) > 0 {
		wireTools, _ := toolconv.ToolsFromGeneric(req.Tools, toolconv.OpenAIResponses)
		// Responses flattens {type:function, function:{...}} one level.
		flat := make([]any, 0, len(wireTools))
		for _, raw := range wireTools {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			fn, _ := entry["function"].(map[string]any)
			flat = append(flat, map[string]any{
				"type":        "function",
				"name":        fn["name"],
				"description": fn["description"],
				"parameters":  fn["parameters"],
			})
		}
		body["tools"] = flat
	}

	return body, nil
}

func (a *ResponsesAdapter) ReduceChunk(raw []byte, state *gtm.StreamState) (*gtm.GenericStreamingResponse, error) {
	payload, isEvent := stripSSEPrefix(string(raw))
	if !isEvent {
		return nil, nil
	}

	var chunk map[string]any
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return nil, fmt.Errorf("openai-responses: failed to unmarshal event: %w", err)
	}

	eventType, _ := chunk["type"].(string)
	out := &gtm.GenericStreamingResponse{}

	switch eventType {
	case "response.output_text.delta":
		delta, _ := chunk["delta"].(string)
		block := state.Block(gtm.TextBlockIndex, "text")
		block.Arguments += delta
		out.Content = append(out.Content, delta)

	case "response.function_call_arguments.delta":
		delta, _ := chunk["delta"].(string)
		wireIndex := 0
		if idx, ok := chunk["output_index"].(float64); ok {
			wireIndex = int(idx)
		}
		callID, _ := chunk["item_id"].(string)
		_, tcDelta, _ := gtm.AccumulateToolCallDelta(state, wireIndex, callID, "", delta)
		out.ToolCalls = append(out.ToolCalls, tcDelta)

	case "response.output_item.added":
		item, _ := chunk["item"].(map[string]any)
		if item != nil && item["type"] == "function_call" {
			wireIndex := 0
			if idx, ok := chunk["output_index"].(float64); ok {
				wireIndex = int(idx)
			}
			id, _ := item["call_id"].(string)
			name, _ := item["name"].(string)
			_, tcDelta, _ := gtm.AccumulateToolCallDelta(state, wireIndex, id, name, "")
			out.ToolCalls = append(out.ToolCalls, tcDelta)
		}

	case "response.completed", "response.incomplete", "response.failed":
		resp, _ := chunk["response"].(map[string]any)
		status, _ := resp["status"].(string)
		if status == "" {
			status = eventType
		}
		reasonKey := status
		if eventType == "response.failed" {
			reasonKey = "failed"
		}
		state.LastFinishReason = gtm.ResponsesFinishReasons.Normalize(reasonKey)
		state.Done = true
		out.Complete = true
		out.FinishReason = state.LastFinishReason
		out.ToolCalls = gtm.FinalizeToolCalls(state)
		if usage, ok := resp["usage"].(map[string]any); ok {
			out.Usage = usage
		}
	}

	return out, nil
}
