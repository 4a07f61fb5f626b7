package gtm

import "encoding/json"

// AccumulateToolCallDelta applies one observed tool-call fragment to state
// and returns the GenericToolCall delta that should be emitted for this
// chunk. This is the shared rule from spec §4.4: keep the first non-empty
// id/name per slot, byte-wise concatenate argument fragments without
// parsing, and never let an empty name overwrite an already-accumulated
// one. wireIndex is the provider's own slot index (OpenAI's delta.tool_calls[i].index,
// Anthropic's content_block index, etc).
func AccumulateToolCallDelta(state *StreamState, wireIndex int, id, name, argsFragment string) (blockIndex int, delta GenericToolCall, isNewBlock bool) {
	idx, block, found := state.FindToolBlock(wireIndex, id)
	if !found {
		idx, block = state.NewToolBlock(wireIndex, id, name)
		isNewBlock = true
	}

	if id != "" && block.ToolCallID == "" {
		block.ToolCallID = id
	}
	// Never overwrite an accumulated name with an empty one (spec §4.4).
	if name != "" && block.ToolName == "" {
		block.ToolName = name
	}

	delta = GenericToolCall{
		ID:    block.ToolCallID,
		Index: block.ToolCallIndex,
	}
	// Only attach a name to the delta when THIS fragment is what supplied it,
	// so downstream fan-out never sees a later empty-name delta clobber the
	// accumulated name (spec §4.4: "carries only the argument fragment, name
	// field left empty").
	if name != "" && isNewBlock {
		delta.Name = name
	}

	if argsFragment != "" {
		block.Arguments += argsFragment
		delta.Metadata = map[string]any{"streaming_chunk": true}
		delta.RawArgs = argsFragment
	}

	return idx, delta, isNewBlock
}

// FinalizeToolCalls drains every tool_use block in state into a finished
// GenericToolCall, parsing the accumulated argument text once (spec §4.4,
// §9 "byte-buffer plus late parse"). A parse failure is not an error at
// this layer — it surfaces as {"raw": accumulated_text}.
func FinalizeToolCalls(state *StreamState) []GenericToolCall {
	if state == nil || len(state.ContentBlocks) == 0 {
		return nil
	}

	out := make([]GenericToolCall, 0, len(state.ContentBlocks))
	for idx := 0; idx < len(state.ContentBlocks); idx++ {
		block, ok := state.ContentBlocks[idx]
		if !ok || block.Type != "tool_use" {
			continue
		}

		var parsed map[string]any
		parseOK := false
		if block.Arguments != "" {
			if err := json.Unmarshal([]byte(block.Arguments), &parsed); err == nil {
				parseOK = true
			}
		} else {
			parsed = map[string]any{}
			parseOK = true
		}

		out = append(out, GenericToolCall{
			ID:        block.ToolCallID,
			Name:      block.ToolName,
			Arguments: ArgumentsOrRaw(parsed, block.Arguments, parseOK),
			Index:     block.ToolCallIndex,
		})
	}
	return out
}
