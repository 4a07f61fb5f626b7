package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcbridge/llmcore/internal/gtm"
)

func TestFromOpenAIFamily_ExtractsSystemMessage(t *testing.T) {
	turns := []any{
		map[string]any{"role": gtm.RoleSystem, "content": "be terse"},
		map[string]any{"role": gtm.RoleUser, "content": "hello"},
	}
	c := FromProvider(turns, OpenAI)

	assert.Equal(t, "be terse", c.System)
	require.Len(t, c.Messages, 1)
	assert.Equal(t, "hello", c.Messages[0].Content)
}

func TestFromAnthropic_ExtractsToolUseAndToolResult(t *testing.T) {
	turns := []any{
		map[string]any{
			"role": gtm.RoleAssistant,
			"content": []any{
				map[string]any{"type": "tool_use", "id": "toolu_1", "name": "get_weather"},
			},
		},
		map[string]any{
			"role": gtm.RoleUser,
			"content": []any{
				map[string]any{"type": "tool_result", "tool_use_id": "toolu_1", "content": "sunny"},
			},
		},
	}
	c := FromProvider(turns, Anthropic)

	require.Len(t, c.Messages, 2)
	assert.Equal(t, "get_weather", c.Messages[0].ToolCalls[0].Name)
	assert.Equal(t, gtm.RoleTool, c.Messages[1].Role)
	assert.Equal(t, "sunny", c.Messages[1].Content)
}

func TestToAnthropic_ImageBearingToolResult_EmitsSyntheticUserMessage(t *testing.T) {
	c := Canonicalized{
		Messages: []gtm.Message{
			{
				Role:       gtm.RoleTool,
				ToolCallID: "toolu_1",
				Content:    "see attached screenshot",
				ImageParts: []gtm.ImagePart{{MIMEType: "image/png", Base64: "AAAA"}},
			},
		},
	}
	out := ToProvider(c, Anthropic)
	require.Len(t, out, 1, "an image-bearing tool result must emit exactly one synthetic user message")

	only := out[0].(map[string]any)
	assert.Equal(t, gtm.RoleUser, only["role"])
	blocks := only["content"].([]any)
	require.Len(t, blocks, 2, "content array must hold the tool_result block then one image block")

	resultBlock := blocks[0].(map[string]any)
	assert.Equal(t, "tool_result", resultBlock["type"])
	assert.Equal(t, "toolu_1", resultBlock["tool_use_id"])
	assert.Equal(t, "see attached screenshot", resultBlock["content"])

	imgBlock := blocks[1].(map[string]any)
	assert.Equal(t, "image", imgBlock["type"])
	source := imgBlock["source"].(map[string]any)
	assert.Equal(t, "image/png", source["media_type"])
	assert.Equal(t, "AAAA", source["data"])
}

func TestGoogleRoleMapping_AssistantBecomesModel(t *testing.T) {
	c := Canonicalized{Messages: []gtm.Message{{Role: gtm.RoleAssistant, Content: "hi"}}}
	out := ToProvider(c, Google)
	require.Len(t, out, 1)
	entry := out[0].(map[string]any)
	assert.Equal(t, "model", entry["role"])
}

func TestIAssistant_DiscardsAllButLastUserMessage(t *testing.T) {
	turns := []any{
		map[string]any{"role": gtm.RoleUser, "content": "first"},
		map[string]any{"role": gtm.RoleAssistant, "content": "reply"},
		map[string]any{"role": gtm.RoleUser, "content": "second"},
	}
	c := FromProvider(turns, IAssistant)

	require.Len(t, c.Messages, 1)
	assert.Equal(t, "second", c.Messages[0].Content)
}

func TestImageRoundTrip_OpenAIDataURL(t *testing.T) {
	c := Canonicalized{
		Messages: []gtm.Message{
			{Role: gtm.RoleUser, Content: "what is this", ImageParts: []gtm.ImagePart{{MIMEType: "image/jpeg", Base64: "ZmFrZQ=="}}},
		},
	}
	wire := ToProvider(c, OpenAI)
	back := FromProvider(wire, OpenAI)

	require.Len(t, back.Messages, 1)
	require.Len(t, back.Messages[0].ImageParts, 1)
	assert.Equal(t, "image/jpeg", back.Messages[0].ImageParts[0].MIMEType)
	assert.Equal(t, "ZmFrZQ==", back.Messages[0].ImageParts[0].Base64)
}
