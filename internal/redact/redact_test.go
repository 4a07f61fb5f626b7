package redact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaders_MasksKnownSensitiveKeys(t *testing.T) {
	in := map[string]string{
		"Authorization":  "Bearer sk-abc123",
		"X-Goog-Api-Key": "goog-key",
		"Content-Type":   "application/json",
	}
	out := Headers(in)

	assert.Equal(t, "[REDACTED]", out["Authorization"])
	assert.Equal(t, "[REDACTED]", out["X-Goog-Api-Key"])
	assert.Equal(t, "application/json", out["Content-Type"])
}

func TestHeaders_DoesNotMutateInput(t *testing.T) {
	in := map[string]string{"Authorization": "Bearer sk-abc123"}
	_ = Headers(in)
	assert.Equal(t, "Bearer sk-abc123", in["Authorization"])
}

func TestValue_MasksLongPayloads(t *testing.T) {
	long := strings.Repeat("a", 1000)
	assert.Contains(t, Value(long), "[REDACTED]")
	assert.Equal(t, "short", Value("short"))
}
