package reducer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcbridge/llmcore/internal/providers"
)

func TestSession_FeedsUntilComplete(t *testing.T) {
	sess := NewSession(providers.NewOpenAIAdapter(), nil)

	chunks := []string{
		`data: {"id":"chatcmpl-1","model":"gpt-4o","choices":[{"delta":{"content":"hel"}}]}`,
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		`data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		`data: [DONE]`,
	}

	var text string
	for _, c := range chunks {
		out, err := sess.Feed([]byte(c))
		require.NoError(t, err)
		if out == nil {
			continue
		}
		for _, piece := range out.Content {
			text += piece
		}
	}

	assert.Equal(t, "hello", text)
	assert.True(t, sess.Done())
}

func TestSession_FinalizeRecoversPartialToolCallOnEarlyStop(t *testing.T) {
	sess := NewSession(providers.NewOpenAIAdapter(), nil)

	_, err := sess.Feed([]byte(`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"search","arguments":"{\"q\":\"x\"}"}}]}}]}`))
	require.NoError(t, err)

	calls := sess.Finalize()
	require.Len(t, calls, 1)
	assert.Equal(t, "search", calls[0].Name)
	assert.Equal(t, "x", calls[0].Arguments["q"])
}
