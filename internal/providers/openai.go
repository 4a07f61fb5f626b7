package providers

import (
	"encoding/json"
	"fmt"

	"github.com/arcbridge/llmcore/internal/gtm"
	"github.com/arcbridge/llmcore/internal/message"
	"github.com/arcbridge/llmcore/internal/toolconv"
)

// OpenAIAdapter implements the OpenAI Chat Completions wire protocol (spec
// §5, OpenAI Chat Completions). Request/response shapes are grounded on the
// teacher's providers/openai.go; reduce_chunk's accumulation now delegates
// to gtm.AccumulateToolCallDelta instead of the teacher's own
// handleToolCalls/calculateArgumentsDelta pair.
type OpenAIAdapter struct{}

func NewOpenAIAdapter() *OpenAIAdapter { return &OpenAIAdapter{} }

func (a *OpenAIAdapter) Name() string           { return "openai" }
func (a *OpenAIAdapter) SupportsStreaming() bool { return true }

func (a *OpenAIAdapter) BuildRequest(req Request) (map[string]any, error) {
	canon := message.Canonicalized{System: req.System, Messages: req.Messages}
	wireMessages := message.ToProvider(canon, message.OpenAI)

	body := map[string]any{
		"model":    req.Model,
		"messages": wireMessages,
		"stream":   req.Stream,
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if req.Temperature != nil {
		body["temperature"] = *req.Temperature
	}

	if len(req.Tools) > 0 {
		if req.LegacyFunctionCall {
			// Pre-tool_calls OpenAI dialect (spec §9 Open Question, resolved
			// model-flag-gated): a bare "functions" array instead of
			// {type:"function", function:{...}} wrappers, and a single
			// "function_call" directive instead of "tool_choice".
			wireTools, _ := toolconv.ToolsFromGeneric(req.Tools, toolconv.OpenAI)
			functions := make([]any, 0, len(wireTools))
			for _, raw := range wireTools {
				entry, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				if fn, ok := entry["function"].(map[string]any); ok {
					functions = append(functions, fn)
				}
			}
			body["functions"] = functions
			body["function_call"] = "auto"
		} else {
			wireTools, _ := toolconv.ToolsFromGeneric(req.Tools, toolconv.OpenAI)
			body["tools"] = wireTools
		}
	}

	return body, nil
}

func (a *OpenAIAdapter) ReduceChunk(raw []byte, state *gtm.StreamState) (*gtm.GenericStreamingResponse, error) {
	payload, isEvent := stripSSEPrefix(string(raw))
	if !isEvent {
		return nil, nil
	}
	if isStreamDone(payload) {
		state.Done = true
		return &gtm.GenericStreamingResponse{
			Complete:     true,
			ToolCalls:    gtm.FinalizeToolCalls(state),
			FinishReason: state.LastFinishReason,
		}, nil
	}

	var chunk map[string]any
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return nil, fmt.Errorf("openai: failed to unmarshal streaming chunk: %w", err)
	}

	if id, ok := chunk["id"].(string); ok && state.MessageID == "" {
		state.MessageID = id
	}
	if model, ok := chunk["model"].(string); ok && state.Model == "" {
		state.Model = model
	}

	out := &gtm.GenericStreamingResponse{}

	choices, _ := chunk["choices"].([]any)
	if len(choices) == 0 {
		return out, nil
	}
	choice, _ := choices[0].(map[string]any)
	if choice == nil {
		return out, nil
	}

	delta, _ := choice["delta"].(map[string]any)
	if delta != nil {
		if toolCalls, ok := delta["tool_calls"].([]any); ok {
			for _, raw := range toolCalls {
				tc, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				wireIndex := 0
				if idx, ok := tc["index"].(float64); ok {
					wireIndex = int(idx)
				}
				id, _ := tc["id"].(string)
				fn, _ := tc["function"].(map[string]any)
				name, _ := fn["name"].(string)
				argsFragment, _ := fn["arguments"].(string)

				_, delta, _ := gtm.AccumulateToolCallDelta(state, wireIndex, id, name, argsFragment)
				out.ToolCalls = append(out.ToolCalls, delta)
			}
		} else if fn, ok := delta["function_call"].(map[string]any); ok {
			// Legacy single-call emission (spec §9): one unindexed
			// function_call object instead of the tool_calls array. Slot 0
			// is the only slot this dialect ever uses.
			name, _ := fn["name"].(string)
			argsFragment, _ := fn["arguments"].(string)

			_, tcDelta, _ := gtm.AccumulateToolCallDelta(state, 0, "", name, argsFragment)
			if tcDelta.Metadata == nil {
				tcDelta.Metadata = map[string]any{}
			}
			tcDelta.Metadata["original_format"] = "function_call"
			out.ToolCalls = append(out.ToolCalls, tcDelta)
		} else if content, ok := delta["content"].(string); ok && content != "" {
			block := state.Block(gtm.TextBlockIndex, "text")
			block.Arguments += content
			out.Content = append(out.Content, content)
		}
	}

	if reason, ok := choice["finish_reason"].(string); ok && reason != "" {
		state.LastFinishReason = gtm.OpenAIFinishReasons.Normalize(reason)
		out.Telemetry = telemetryFrom([]byte(payload), a.Name())
	}

	if usage, ok := chunk["usage"].(map[string]any); ok {
		out.Usage = mapUsage(usage, openAIUsageFields)
	}

	return out, nil
}
