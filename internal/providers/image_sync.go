package providers

import (
	"encoding/json"
	"fmt"

	"github.com/arcbridge/llmcore/internal/gtm"
)

// ImageAzureAdapter and ImageOpenAIAdapter both implement OpenAI's image
// generation request/response envelope (spec §5, Azure/OpenAI image
// generation): a single synchronous POST returning b64_json or url entries
// directly in the response body, no streaming and no polling. Azure differs
// only in endpoint shape (api-version query param, deployment-scoped URL),
// which is a caller/transport concern, not a body-shape concern, so both
// adapters share the same BuildRequest/ReduceChunk pair.

type ImageAzureAdapter struct{ imageOpenAIShape }

func NewImageAzureAdapter() *ImageAzureAdapter { return &ImageAzureAdapter{} }
func (a *ImageAzureAdapter) Name() string      { return "azure-openai-image" }

type ImageOpenAIAdapter struct{ imageOpenAIShape }

func NewImageOpenAIAdapter() *ImageOpenAIAdapter { return &ImageOpenAIAdapter{} }
func (a *ImageOpenAIAdapter) Name() string       { return "openai-image" }

// imageOpenAIShape holds the shared implementation both adapters embed.
type imageOpenAIShape struct{}

func (imageOpenAIShape) SupportsStreaming() bool { return false }

func (imageOpenAIShape) BuildRequest(req Request) (map[string]any, error) {
	body := map[string]any{
		"model":  req.Model,
		"prompt": req.Prompt,
		"n":      1,
	}
	return body, nil
}

func (imageOpenAIShape) ReduceChunk(raw []byte, state *gtm.StreamState) (*gtm.GenericStreamingResponse, error) {
	var resp map[string]any
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("openai-image: failed to unmarshal response: %w", err)
	}

	out := &gtm.GenericStreamingResponse{Complete: true, FinishReason: gtm.FinishStop}

	if errObj, ok := resp["error"].(map[string]any); ok {
		msg, _ := errObj["message"].(string)
		out.Error = true
		out.ErrorMessage = msg
		out.FinishReason = gtm.FinishError
		return out, nil
	}

	data, _ := resp["data"].([]any)
	for _, raw := range data {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if b64, ok := item["b64_json"].(string); ok && b64 != "" {
			out.Images = append(out.Images, gtm.ImageOut{MIMEType: "image/png", BaseOrURL: b64})
			continue
		}
		if url, ok := item["url"].(string); ok && url != "" {
			out.Images = append(out.Images, gtm.ImageOut{BaseOrURL: url, NeedsDownload: true})
		}
	}

	state.Done = true
	return out, nil
}

// ImageGoogleAdapter implements Google Imagen's predict endpoint (spec §5,
// Google Imagen): synchronous, returns base64-encoded image bytes under
// predictions[].bytesBase64Encoded.
type ImageGoogleAdapter struct{}

func NewImageGoogleAdapter() *ImageGoogleAdapter { return &ImageGoogleAdapter{} }

func (a *ImageGoogleAdapter) Name() string           { return "google-image" }
func (a *ImageGoogleAdapter) SupportsStreaming() bool { return false }

func (a *ImageGoogleAdapter) BuildRequest(req Request) (map[string]any, error) {
	return map[string]any{
		"instances":  []any{map[string]any{"prompt": req.Prompt}},
		"parameters": map[string]any{"sampleCount": 1},
	}, nil
}

func (a *ImageGoogleAdapter) ReduceChunk(raw []byte, state *gtm.StreamState) (*gtm.GenericStreamingResponse, error) {
	var resp map[string]any
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("google-image: failed to unmarshal response: %w", err)
	}

	out := &gtm.GenericStreamingResponse{Complete: true, FinishReason: gtm.FinishStop}

	predictions, _ := resp["predictions"].([]any)
	for _, raw := range predictions {
		p, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		mimeType, _ := p["mimeType"].(string)
		if mimeType == "" {
			mimeType = "image/png"
		}
		if b64, ok := p["bytesBase64Encoded"].(string); ok && b64 != "" {
			out.Images = append(out.Images, gtm.ImageOut{MIMEType: mimeType, BaseOrURL: b64})
		}
	}

	state.Done = true
	return out, nil
}
