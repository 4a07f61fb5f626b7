package toolconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcbridge/llmcore/internal/gtm"
)

func sampleTools() []gtm.GenericTool {
	return []gtm.GenericTool{
		{
			Name:        "get_weather",
			Description: "Look up current weather for a city",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"city": map[string]any{"type": "string"}},
				"required":   []any{"city"},
			},
		},
		{
			Name:         "web_search",
			Description:  "search the web",
			ProviderHint: string(Anthropic),
			IsSpecial:    true,
		},
	}
}

func TestToolsFromGeneric_OpenAI_Shape(t *testing.T) {
	wire, choice := ToolsFromGeneric(sampleTools(), OpenAI)
	require.Len(t, wire, 1, "the Anthropic-hinted special tool must be filtered out for OpenAI")

	entry, ok := wire[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "function", entry["type"])
	fn := entry["function"].(map[string]any)
	assert.Equal(t, "get_weather", fn["name"])
	assert.Nil(t, choice)
}

func TestToolsFromGeneric_Anthropic_Shape(t *testing.T) {
	wire, _ := ToolsFromGeneric(sampleTools(), Anthropic)
	require.Len(t, wire, 2)

	entry := wire[0].(map[string]any)
	assert.Equal(t, "get_weather", entry["name"])
	assert.Contains(t, entry, "input_schema")
}

func TestToolsFromGeneric_Google_GroupsUnderFunctionDeclarations(t *testing.T) {
	wire, _ := ToolsFromGeneric(sampleTools(), Google)
	require.Len(t, wire, 1)

	entry := wire[0].(map[string]any)
	decls := entry["functionDeclarations"].([]any)
	assert.Len(t, decls, 1)
}

func TestToolsFromGeneric_VLLM_SetsToolChoiceAuto(t *testing.T) {
	_, choice := ToolsFromGeneric(sampleTools(), VLLM)
	assert.Equal(t, "auto", choice)
}

func TestToolsRoundTrip_ThroughOpenAI(t *testing.T) {
	original := []gtm.GenericTool{sampleTools()[0]}
	wire, _ := ToolsFromGeneric(original, OpenAI)
	back := ToolsToGeneric(wire, OpenAI)

	require.Len(t, back, 1)
	assert.Equal(t, original[0].Name, back[0].Name)
	assert.Equal(t, original[0].Description, back[0].Description)
}

func TestToolsRoundTrip_ThroughAnthropic(t *testing.T) {
	original := []gtm.GenericTool{sampleTools()[0]}
	wire, _ := ToolsFromGeneric(original, Anthropic)
	back := ToolsToGeneric(wire, Anthropic)

	require.Len(t, back, 1)
	assert.Equal(t, original[0].Name, back[0].Name)
}

func TestToolsRoundTrip_ThroughGoogle(t *testing.T) {
	original := []gtm.GenericTool{sampleTools()[0]}
	wire, _ := ToolsFromGeneric(original, Google)
	back := ToolsToGeneric(wire, Google)

	require.Len(t, back, 1)
	assert.Equal(t, original[0].Name, back[0].Name)
}

func TestToolCallsRoundTrip_ThroughOpenAI(t *testing.T) {
	original := []gtm.GenericToolCall{
		{ID: "call_abc123", Name: "get_weather", Arguments: map[string]any{"city": "Lyon"}},
	}
	wire := ToolCallsFromGeneric(original, OpenAI)
	back := ToolCallsToGeneric(wire, OpenAI)

	require.Len(t, back, 1)
	assert.Equal(t, "get_weather", back[0].Name)
	assert.Equal(t, "Lyon", back[0].Arguments["city"])
}

func TestToolCallID_DenormalizeID_OpenAIToAnthropic(t *testing.T) {
	assert.Equal(t, "toolu_abc123", DenormalizeID("call_abc123", Anthropic))
	assert.Equal(t, "toolu_alreadyprefixed", DenormalizeID("toolu_alreadyprefixed", Anthropic))
}

func TestToolCallID_DenormalizeID_AnthropicToOpenAI(t *testing.T) {
	assert.Equal(t, "call_abc123", DenormalizeID("toolu_abc123", OpenAI))
	assert.Equal(t, "call_alreadyprefixed", DenormalizeID("call_alreadyprefixed", OpenAI))
}

func TestConvertBetween_ShortCircuitsOnSameProvider(t *testing.T) {
	tools := sampleTools()
	out, err := ConvertBetween(OpenAI, OpenAI, tools)
	require.NoError(t, err)
	assert.Equal(t, tools, out)
}

func TestFilterForDestination_DropsMismatchedHint(t *testing.T) {
	out := FilterForDestination(sampleTools(), OpenAI)
	for _, tool := range out {
		assert.NotEqual(t, "web_search", tool.Name)
	}
}
