package providers

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/sjson"

	"github.com/arcbridge/llmcore/internal/gtm"
)

// tokenMapping is the generalization of the teacher's TokenMapping/
// MapTokenUsage (providers/base.go): a source protocol's usage-object field
// names, folded directly into GenericStreamingResponse.Usage rather than
// re-expressed in Anthropic's vocabulary.
type tokenMapping struct {
	inputTokens  string
	outputTokens string
	cachedTokens string
}

var openAIUsageFields = tokenMapping{
	inputTokens:  "prompt_tokens",
	outputTokens: "completion_tokens",
	cachedTokens: "cached_tokens",
}

// mapUsage copies usage fields present in raw into a provider-neutral usage
// map keyed by input_tokens/output_tokens/cached_tokens, preserving any
// other fields verbatim so no telemetry is silently dropped.
func mapUsage(raw map[string]any, mapping tokenMapping) map[string]any {
	if raw == nil {
		return nil
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	if v, ok := raw[mapping.inputTokens]; ok {
		out["input_tokens"] = v
	}
	if v, ok := raw[mapping.outputTokens]; ok {
		out["output_tokens"] = v
	}
	if details, ok := raw["prompt_tokens_details"].(map[string]any); ok {
		if v, ok := details[mapping.cachedTokens]; ok {
			out["cached_tokens"] = v
		}
	}
	return out
}

// stripSSEPrefix removes a leading "data: " (or "data:") marker from one SSE
// line, matching every OpenAI-family and Anthropic stream's framing.
func stripSSEPrefix(line string) (payload string, isEvent bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", false
	}
	if strings.HasPrefix(trimmed, "data:") {
		return strings.TrimSpace(strings.TrimPrefix(trimmed, "data:")), true
	}
	return "", false
}

// isStreamDone reports the sentinel terminator OpenAI-family SSE streams
// send as their very last data line.
func isStreamDone(payload string) bool { return payload == "[DONE]" }

// telemetryFrom annotates a raw provider chunk with its source name and
// decodes the result into GenericStreamingResponse.Telemetry, so a caller
// inspecting a completed response can see exactly which adapter produced
// each raw event without threading an extra parameter through ReduceChunk.
func telemetryFrom(raw []byte, provider string) map[string]any {
	annotated, err := sjson.SetBytes(raw, "_provider", provider)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(annotated, &out); err != nil {
		return nil
	}
	return out
}

// blockText returns the accumulated text for every "text" block in state, in
// content-block index order, matching spec §3's Content ordering rule.
func blockText(state *gtm.StreamState) []string {
	if state == nil {
		return nil
	}
	var out []string
	for idx := gtm.TextBlockIndex; idx < len(state.ContentBlocks); idx++ {
		block, ok := state.ContentBlocks[idx]
		if !ok || block.Type != "text" {
			continue
		}
		out = append(out, block.Arguments)
	}
	return out
}
