package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcbridge/llmcore/internal/gtm"
)

func TestRegistry_GetUnknownProvider(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("does-not-exist")
	require.Error(t, err)
}

func TestRegistry_AllAdaptersRegistered(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{
		"openai", "openai-responses", "anthropic", "google", "mistral", "local",
		"iassistant", "azure-openai-image", "openai-image", "google-image",
	} {
		_, err := r.Get(name)
		assert.NoError(t, err, "expected %s to be registered", name)
	}
}

func TestOpenAIAdapter_BuildRequest_IncludesTools(t *testing.T) {
	a := NewOpenAIAdapter()
	body, err := a.BuildRequest(Request{
		Model:    "gpt-4o",
		Messages: []gtm.Message{{Role: gtm.RoleUser, Content: "hi"}},
		Tools:    []gtm.GenericTool{{Name: "get_weather", Parameters: map[string]any{"type": "object"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", body["model"])
	assert.NotEmpty(t, body["tools"])
}

func TestOpenAIAdapter_ReduceChunk_AccumulatesToolCallArguments(t *testing.T) {
	a := NewOpenAIAdapter()
	state := gtm.NewStreamState()

	chunks := []string{
		`data: {"id":"chatcmpl-1","model":"gpt-4o","choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_abc","function":{"name":"get_weather","arguments":""}}]}}]}`,
		`data: {"id":"chatcmpl-1","choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"city\":"}}]}}]}`,
		`data: {"id":"chatcmpl-1","choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"Lyon\"}"}}]}}]}`,
		`data: {"id":"chatcmpl-1","choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
		`data: [DONE]`,
	}

	var final *gtm.GenericStreamingResponse
	for _, c := range chunks {
		out, err := a.ReduceChunk([]byte(c), state)
		require.NoError(t, err)
		if out != nil && out.Complete {
			final = out
		}
	}

	require.NotNil(t, final)
	require.Len(t, final.ToolCalls, 1)
	assert.Equal(t, "get_weather", final.ToolCalls[0].Name)
	assert.Equal(t, "Lyon", final.ToolCalls[0].Arguments["city"])
	assert.Equal(t, gtm.FinishToolCalls, final.FinishReason)
}

func TestOpenAIAdapter_ReduceChunk_EmptyNameNeverOverwritesAccumulatedName(t *testing.T) {
	a := NewOpenAIAdapter()
	state := gtm.NewStreamState()

	_, err := a.ReduceChunk([]byte(`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"search","arguments":""}}]}}]}`), state)
	require.NoError(t, err)
	_, err = a.ReduceChunk([]byte(`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"name":"","arguments":"{}"}}]}}]}`), state)
	require.NoError(t, err)

	block, ok := state.ContentBlocks[0]
	require.True(t, ok)
	assert.Equal(t, "search", block.ToolName)
}

func TestAnthropicAdapter_ReduceChunk_FullLifecycle(t *testing.T) {
	a := NewAnthropicAdapter()
	state := gtm.NewStreamState()

	events := []string{
		`data: {"type":"message_start","message":{"id":"msg_1","model":"claude-3"}}`,
		`data: {"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"hello"}}`,
		`data: {"type":"content_block_stop","index":0}`,
		`data: {"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":5}}`,
		`data: {"type":"message_stop"}`,
	}

	var final *gtm.GenericStreamingResponse
	for _, e := range events {
		out, err := a.ReduceChunk([]byte(e), state)
		require.NoError(t, err)
		if out.Complete {
			final = out
		}
	}

	require.NotNil(t, final)
	assert.Equal(t, gtm.FinishStop, final.FinishReason)
}

func TestGoogleAdapter_ReduceChunk_MapsFinishReason(t *testing.T) {
	a := NewGoogleAdapter()
	state := gtm.NewStreamState()

	out, err := a.ReduceChunk([]byte(`{"candidates":[{"content":{"parts":[{"text":"hi"}]},"finishReason":"STOP"}]}`), state)
	require.NoError(t, err)
	assert.True(t, out.Complete)
	assert.Equal(t, gtm.FinishStop, out.FinishReason)
}

func TestIAssistantAdapter_BuildRequest_RequiresAuth(t *testing.T) {
	a := NewIAssistantAdapter(nil)
	_, err := a.BuildRequest(Request{
		Model:    "iassist-1",
		Messages: []gtm.Message{{Role: gtm.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
}

func TestIAssistantAdapter_ReduceChunk_ParsesEventTriple(t *testing.T) {
	a := NewIAssistantAdapter(&IAssistantAuth{KeyID: "k1", Secret: []byte("s3cr3t")})
	state := gtm.NewStreamState()

	record := "event: answer\nid: 1\ndata: {\"answer\":\"hi\"}\n"
	out, err := a.ReduceChunk([]byte(record), state)
	require.NoError(t, err)
	require.Len(t, out.Content, 1)
	assert.Equal(t, "hi", out.Content[0])
}

func TestIAssistantAdapter_ReduceChunk_TelemetryAndPassages(t *testing.T) {
	a := NewIAssistantAdapter(&IAssistantAuth{KeyID: "k1", Secret: []byte("s3cr3t")})
	state := gtm.NewStreamState()

	telemetry, err := a.ReduceChunk([]byte("event: telemetry\ndata: {\"latency_ms\":42}\n"), state)
	require.NoError(t, err)
	assert.Equal(t, float64(42), telemetry.Telemetry["latency_ms"])

	passages, err := a.ReduceChunk([]byte("event: passages\ndata: {\"passages\":[{\"id\":\"p1\"}]}\n"), state)
	require.NoError(t, err)
	require.Len(t, passages.Passages, 1)

	done, err := a.ReduceChunk([]byte("event: done\ndata: {\"reason\":\"complete\"}\n"), state)
	require.NoError(t, err)
	assert.True(t, done.Complete)
}

func TestImageOpenAIAdapter_ReduceChunk_ParsesBase64Image(t *testing.T) {
	a := NewImageOpenAIAdapter()
	state := gtm.NewStreamState()

	out, err := a.ReduceChunk([]byte(`{"data":[{"b64_json":"Zm9v"}]}`), state)
	require.NoError(t, err)
	require.Len(t, out.Images, 1)
	assert.Equal(t, "Zm9v", out.Images[0].BaseOrURL)
	assert.True(t, state.Done)
}

func TestImageGoogleAdapter_ReduceChunk_ParsesPredictions(t *testing.T) {
	a := NewImageGoogleAdapter()
	state := gtm.NewStreamState()

	out, err := a.ReduceChunk([]byte(`{"predictions":[{"bytesBase64Encoded":"Zm9v","mimeType":"image/png"}]}`), state)
	require.NoError(t, err)
	require.Len(t, out.Images, 1)
	assert.Equal(t, "image/png", out.Images[0].MIMEType)
}
