package providers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/arcbridge/llmcore/internal/errs"
	"github.com/arcbridge/llmcore/internal/gtm"
	"github.com/arcbridge/llmcore/internal/message"
)

// IAssistantAuth signs outbound requests with an HMAC-SHA256 JWT the way
// iAssistant's gateway expects: header.payload.signature, base64url with no
// padding, signed over "header.payload".
type IAssistantAuth struct {
	KeyID  string
	Secret []byte
}

// SignJWT produces a compact JWT with the given claims. It is deliberately
// synchronous and allocation-light since it runs once per request build.
func (auth IAssistantAuth) SignJWT(claims map[string]any) (string, error) {
	if len(auth.Secret) == 0 {
		return "", errs.ErrAuthenticationRequired
	}

	header := map[string]any{"alg": "HS256", "typ": "JWT", "kid": auth.KeyID}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", fmt.Errorf("iassistant: failed to marshal jwt header: %w", err)
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("iassistant: failed to marshal jwt claims: %w", err)
	}

	signingInput := b64url(headerJSON) + "." + b64url(claimsJSON)
	mac := hmac.New(sha256.New, auth.Secret)
	mac.Write([]byte(signingInput))
	sig := mac.Sum(nil)

	return signingInput + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

func b64url(v []byte) string { return base64.RawURLEncoding.EncodeToString(v) }

// IAssistantAdapter implements the iAssistant SSE protocol (spec §5,
// iAssistant SSE): one-shot requests (no conversation history, only the
// latest user message survives canonicalization per internal/message's
// fromIAssistant), event/data/id SSE triples instead of bare data lines, and
// HMAC-JWT request signing in place of a bearer API key.
type IAssistantAdapter struct {
	Auth IAssistantAuth
}

func NewIAssistantAdapter(auth *IAssistantAuth) *IAssistantAdapter {
	a := &IAssistantAdapter{}
	if auth != nil {
		a.Auth = *auth
	}
	return a
}

func (a *IAssistantAdapter) Name() string           { return "iassistant" }
func (a *IAssistantAdapter) SupportsStreaming() bool { return true }

func (a *IAssistantAdapter) BuildRequest(req Request) (map[string]any, error) {
	canon := message.Canonicalized{Messages: req.Messages}
	wireMessages := message.ToProvider(canon, message.IAssistant)
	if len(wireMessages) == 0 {
		return nil, errs.ErrNoUserMessage
	}

	body := map[string]any{
		"model":  req.Model,
		"prompt": wireMessages[0].(map[string]any)["content"],
		"stream": req.Stream,
	}

	token, err := a.Auth.SignJWT(map[string]any{
		"iat":   time.Now().Unix(),
		"model": req.Model,
	})
	if err != nil {
		return nil, err
	}
	body["_auth_token"] = token // surfaced for the caller to place on the Authorization header.

	return body, nil
}

// ReduceChunk parses one SSE record at a time. iAssistant frames every
// record as up to three lines (event:, id:, data:) terminated by a blank
// line; callers split on "\n\n" and pass each record's raw bytes here.
func (a *IAssistantAdapter) ReduceChunk(raw []byte, state *gtm.StreamState) (*gtm.GenericStreamingResponse, error) {
	var eventType, dataLine string
	for _, line := range bytes.Split(raw, []byte("\n")) {
		s := strings.TrimSpace(string(line))
		switch {
		case strings.HasPrefix(s, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(s, "event:"))
		case strings.HasPrefix(s, "data:"):
			dataLine = strings.TrimSpace(strings.TrimPrefix(s, "data:"))
		}
	}

	if dataLine == "" {
		return nil, nil
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(dataLine), &payload); err != nil {
		return nil, fmt.Errorf("iassistant: failed to unmarshal event data: %w", err)
	}

	out := &gtm.GenericStreamingResponse{}

	switch eventType {
	case "answer":
		if text, ok := payload["answer"].(string); ok && text != "" {
			block := state.Block(gtm.TextBlockIndex, "text")
			block.Arguments += text
			out.Content = append(out.Content, text)
		}
	case "telemetry":
		out.Telemetry = payload
	case "passages":
		if passages, ok := payload["passages"].([]any); ok {
			out.Passages = passages
		} else {
			out.Passages = []any{payload}
		}
	case "done", "end", "complete":
		reason, _ := payload["reason"].(string)
		state.LastFinishReason = gtm.IAssistantFinishReasons.Normalize(reason)
		state.Done = true
		out.Complete = true
		out.FinishReason = state.LastFinishReason
	default:
		// Unrecognized event names are silently ignored rather than treated
		// as an error, so a gateway update that adds a new SSE event type
		// doesn't break existing streams.
	}

	return out, nil
}
