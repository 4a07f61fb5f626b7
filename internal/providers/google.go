package providers

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/arcbridge/llmcore/internal/gtm"
	"github.com/arcbridge/llmcore/internal/message"
	"github.com/arcbridge/llmcore/internal/toolconv"
)

// GoogleAdapter implements the Gemini generateContent/streamGenerateContent
// wire protocol (spec §5, Google Gemini). Role remapping and functionCall/
// functionResponse parts are grounded on the teacher's providers/gemini.go
// convertAnthropicMessageToGemini and convertGeminiToAnthropic, generalized
// to stream chunks as a JSON array of partial candidates rather than an SSE
// event stream (Gemini's streaming transport), with each array element fed
// to ReduceChunk independently by the caller.
type GoogleAdapter struct{}

func NewGoogleAdapter() *GoogleAdapter { return &GoogleAdapter{} }

func (a *GoogleAdapter) Name() string           { return "google" }
func (a *GoogleAdapter) SupportsStreaming() bool { return true }

func (a *GoogleAdapter) BuildRequest(req Request) (map[string]any, error) {
	canon := message.Canonicalized{Messages: req.Messages}
	contents := message.ToProvider(canon, message.Google)

	body := map[string]any{"contents": contents}
	if req.System != "" {
		body["systemInstruction"] = map[string]any{
			"parts": []any{map[string]any{"text": req.System}},
		}
	}

	genConfig := map[string]any{}
	if req.MaxTokens > 0 {
		genConfig["maxOutputTokens"] = req.MaxTokens
	}
	if req.Temperature != nil {
		genConfig["temperature"] = *req.Temperature
	}
	if len(genConfig) > 0 {
		body["generationConfig"] = genConfig
	}

	if len(req.Tools) > 0 {
		wireTools, _ := toolconv.ToolsFromGeneric(req.Tools, toolconv.Google)
		body["tools"] = wireTools
	}

	return body, nil
}

// ReduceChunk takes one decoded element of Gemini's top-level JSON array (or
// one line of its SSE-alt transport); callers unmarshal the outer array
// themselves and call this once per candidate object.
func (a *GoogleAdapter) ReduceChunk(raw []byte, state *gtm.StreamState) (*gtm.GenericStreamingResponse, error) {
	if payload, isEvent := stripSSEPrefix(string(raw)); isEvent {
		raw = []byte(payload)
	}

	var chunk map[string]any
	if err := json.Unmarshal(raw, &chunk); err != nil {
		return nil, fmt.Errorf("google: failed to unmarshal streaming candidate: %w", err)
	}

	out := &gtm.GenericStreamingResponse{}

	candidates, _ := chunk["candidates"].([]any)
	if len(candidates) == 0 {
		if usage, ok := chunk["usageMetadata"].(map[string]any); ok {
			out.Usage = usage
		}
		return out, nil
	}

	candidate, _ := candidates[0].(map[string]any)
	content, _ := candidate["content"].(map[string]any)
	parts, _ := content["parts"].([]any)

	for i, partRaw := range parts {
		part, ok := partRaw.(map[string]any)
		if !ok {
			continue
		}
		if text, ok := part["text"].(string); ok && text != "" {
			block := state.Block(gtm.TextBlockIndex, "text")
			block.Arguments += text
			out.Content = append(out.Content, text)
		}
		if fc, ok := part["functionCall"].(map[string]any); ok {
			name, _ := fc["name"].(string)
			args, _ := fc["args"].(map[string]any)
			argsJSON, _ := json.Marshal(args)
			wireIndex := i + 1
			id := uuid.NewString()

			// Gemini sends the full call in one part rather than incremental
			// fragments, so the fragment IS the complete argument text.
			_, delta, _ := gtm.AccumulateToolCallDelta(state, wireIndex, id, name, string(argsJSON))
			delta.Arguments = args
			out.ToolCalls = append(out.ToolCalls, delta)
		}
	}

	if reason, ok := candidate["finishReason"].(string); ok && reason != "" {
		state.LastFinishReason = gtm.GoogleFinishReasons.Normalize(reason)
		state.Done = true
		out.Complete = true
		out.FinishReason = state.LastFinishReason
		finals := gtm.FinalizeToolCalls(state)
		if len(finals) > 0 {
			out.ToolCalls = finals
		}
	}

	if usage, ok := chunk["usageMetadata"].(map[string]any); ok {
		out.Usage = usage
	}

	return out, nil
}
