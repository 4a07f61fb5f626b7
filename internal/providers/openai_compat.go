package providers

import (
	"github.com/arcbridge/llmcore/internal/message"
	"github.com/arcbridge/llmcore/internal/toolconv"
)

// MistralAdapter and VLLMAdapter both speak an OpenAI-compatible chat
// completions dialect, the same structural family the teacher's
// providers/nvidia.go and providers/openrouter.go occupied alongside its
// providers/openai.go. Rather than duplicate OpenAIAdapter's chunk-reduction
// logic a third and fourth time (as the teacher's nvidia.go did verbatim
// against openai.go), both embed it and only override BuildRequest where
// the wire dialect actually diverges: Mistral needs no schema narrowing,
// vLLM needs both schema narrowing and an explicit tool_choice.

// MistralAdapter implements the Mistral chat completions API (spec §5,
// Mistral).
type MistralAdapter struct {
	OpenAIAdapter
}

func NewMistralAdapter() *MistralAdapter { return &MistralAdapter{} }

func (a *MistralAdapter) Name() string { return "mistral" }

func (a *MistralAdapter) BuildRequest(req Request) (map[string]any, error) {
	canon := message.Canonicalized{System: req.System, Messages: req.Messages}
	wireMessages := message.ToProvider(canon, message.Mistral)

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
		wireTools, _ := toolconv.ToolsFromGeneric(req.Tools, toolconv.Mistral)
		body["tools"] = wireTools
	}

	return body, nil
}

// VLLMAdapter implements a local vLLM server's OpenAI-compatible endpoint
// (spec §5, vLLM-OpenAI "local"). Its JSON-schema-to-grammar compiler
// rejects several fields OpenAI and even Google tolerate, hence the deeper
// schema narrowing performed by internal/schema's VLLM branch, and it
// requires an explicit tool_choice once any tool is present since its
// default differs from OpenAI's "auto".
type VLLMAdapter struct {
	OpenAIAdapter
}

func NewVLLMAdapter() *VLLMAdapter { return &VLLMAdapter{} }

func (a *VLLMAdapter) Name() string { return "local" }

func (a *VLLMAdapter) BuildRequest(req Request) (map[string]any, error) {
	canon := message.Canonicalized{System: req.System, Messages: req.Messages}
	wireMessages := message.ToProvider(canon, message.VLLM)

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
		wireTools, toolChoice := toolconv.ToolsFromGeneric(req.Tools, toolconv.VLLM)
		body["tools"] = wireTools
		if toolChoice != nil {
			body["tool_choice"] = toolChoice
		}
	}

	return body, nil
}
