// Package providers implements the Provider Adapter component (spec §4.5):
// one BuildRequest/ReduceChunk pair per upstream wire protocol, each built
// around the GTM pivot types (internal/gtm), the tool dialect converters
// (internal/toolconv), and the message canonicalizer (internal/message).
// The registry and per-provider structure are grounded on the teacher's
// providers/registry.go (map-based lookup, one file per upstream) and
// providers/base.go (shared helpers), generalized from "always translate to
// Anthropic" to "always translate through the generic pivot".
package providers

import (
	"context"
	"fmt"

	"github.com/arcbridge/llmcore/internal/errs"
	"github.com/arcbridge/llmcore/internal/gtm"
)

// Request is the provider-agnostic request the caller assembles before
// calling an Adapter's BuildRequest. It is the input side of spec §4.5's
// build_request: a canonicalized conversation plus generation parameters.
type Request struct {
	Model              string
	System             string
	Messages           []gtm.Message
	Tools              []gtm.GenericTool
	MaxTokens          int
	Temperature        *float64
	Stream             bool
	LegacyFunctionCall bool // iff true, OpenAIAdapter sends functions/function_call instead of tools; other adapters ignore it.
	ReasoningEffort    string
	TextVerbosity      string
	// Prompt carries the user's description for image-generation adapters;
	// ignored by text adapters.
	Prompt string
}

// Adapter is the uniform surface every upstream wire protocol implements.
// BuildRequest is a pure function: it performs no I/O and returns the JSON
// body the caller should send. ReduceChunk is pure
// and synchronous for every provider except BFL, whose async submit/poll/
// download loop is documented on its own type.
type Adapter interface {
	Name() string
	SupportsStreaming() bool
	BuildRequest(req Request) (map[string]any, error)
	ReduceChunk(raw []byte, state *gtm.StreamState) (*gtm.GenericStreamingResponse, error)
}

// Fetcher is the minimal HTTP surface an async adapter (BFL) needs; callers
// supply their own http.Client-backed implementation so the adapter itself
// stays transport-agnostic and testable without a real network. Response
// headers are returned alongside the body so the BFL download stage can
// read Content-Type without the adapter reaching into a concrete transport.
type Fetcher interface {
	Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (status int, respBody []byte, respHeaders map[string]string, err error)
}

// Registry maps a provider name (spec §6.1's provider string) to its Adapter.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a Registry with every Adapter this module implements,
// mirroring providers/registry.go's Initialize(). The BFL orchestrator has
// no ReduceChunk, is not an Adapter, and is not registered.
func NewRegistry() *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	r.Register(NewOpenAIAdapter())
	r.Register(NewResponsesAdapter())
	r.Register(NewAnthropicAdapter())
	r.Register(NewGoogleAdapter())
	r.Register(NewMistralAdapter())
	r.Register(NewVLLMAdapter())
	r.Register(NewIAssistantAdapter(nil))
	r.Register(NewImageAzureAdapter())
	r.Register(NewImageOpenAIAdapter())
	r.Register(NewImageGoogleAdapter())
	return r
}

func (r *Registry) Register(a Adapter) { r.adapters[a.Name()] = a }

func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrUnknownProvider, name)
	}
	return a, nil
}
