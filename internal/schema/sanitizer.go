// Package schema implements the Schema Sanitizer (spec §4.1): a pure
// function that rewrites a JSON Schema fragment so it is accepted by a
// specific upstream provider. It never observes I/O and never mutates its
// input — the recursive rewrite pattern is grounded on the teacher's
// providers/base.go RemoveFieldsRecursively, generalized from "strip named
// fields" to "strip-and-enforce per provider".
package schema

import (
	"bytes"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Provider identifies which sanitization rule table to apply. These mirror
// the provider strings spec §6.1 lists for the model configuration object.
type Provider string

const (
	Google          Provider = "google"
	OpenAI          Provider = "openai"
	OpenAIResponses Provider = "openai-responses"
	Anthropic       Provider = "anthropic"
	VLLM            Provider = "local"
	Mistral         Provider = "mistral"
	IAssistant      Provider = "iassistant"
)

// googleStrippedFields are removed recursively from properties/items for
// Google and, with additional narrowing, for vLLM (spec §4.1 table).
var googleStrippedFields = []string{
	"exclusiveMaximum", "exclusiveMinimum", "title", "format", "minLength", "maxLength",
}

// vllmAdditionalStrippedFields narrows further than Google's rule set —
// vLLM's JSON-schema-to-grammar compiler rejects several fields Google's
// API merely ignores.
var vllmAdditionalStrippedFields = []string{
	"patternProperties", "propertyNames", "if", "then", "else", "const",
}

// Sanitize rewrites schema for provider. The input is deep-cloned first —
// it is never mutated, matching §4.1's "must deep-clone inputs" and the
// round-trippable testable property in §8. A malformed input (anything
// that isn't a map, or nil) returns the safe empty-object shell rather than
// failing, per §4.1's "never fails" contract.
func Sanitize(input map[string]any, provider Provider) map[string]any {
	cloned := deepCloneMap(input)
	if cloned == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	switch provider {
	case Google:
		stripFieldsRecursive(cloned, googleStrippedFields)
	case VLLM:
		stripFieldsRecursive(cloned, googleStrippedFields)
		stripFieldsRecursive(cloned, vllmAdditionalStrippedFields)
	case OpenAI, OpenAIResponses:
		enforceAdditionalPropertiesFalse(cloned)
	case Anthropic, Mistral, IAssistant:
		// No rewriting (spec §4.1 table).
	}

	return cloned
}

// stripFieldsRecursive removes fields from every object node reachable via
// "properties" and "items", in place on an already-cloned tree.
func stripFieldsRecursive(node any, fields []string) {
	switch v := node.(type) {
	case map[string]any:
		for _, f := range fields {
			delete(v, f)
		}
		if props, ok := v["properties"].(map[string]any); ok {
			for _, propVal := range props {
				stripFieldsRecursive(propVal, fields)
			}
		}
		if items, ok := v["items"]; ok {
			stripFieldsRecursive(items, fields)
		}
	case []any:
		for _, item := range v {
			stripFieldsRecursive(item, fields)
		}
	}
}

// enforceAdditionalPropertiesFalse sets additionalProperties:false on every
// object node reachable via properties/items, required for OpenAI/Responses
// strict structured-output mode (spec §4.1).
func enforceAdditionalPropertiesFalse(node any) {
	m, ok := node.(map[string]any)
	if !ok {
		if arr, ok := node.([]any); ok {
			for _, item := range arr {
				enforceAdditionalPropertiesFalse(item)
			}
		}
		return
	}

	if t, _ := m["type"].(string); t == "object" || m["properties"] != nil {
		m["additionalProperties"] = false
	}

	if props, ok := m["properties"].(map[string]any); ok {
		for _, propVal := range props {
			enforceAdditionalPropertiesFalse(propVal)
		}
	}
	if items, ok := m["items"]; ok {
		enforceAdditionalPropertiesFalse(items)
	}
}

// deepCloneMap deep-clones a JSON-shaped map/slice/scalar tree. Callers
// reuse schema objects across calls (§4.1); returning a clone means
// Sanitize never observes a mutation of the caller's copy.
func deepCloneMap(v map[string]any) map[string]any {
	if v == nil {
		return nil
	}
	cloned, ok := deepClone(v).(map[string]any)
	if !ok {
		return nil
	}
	return cloned
}

func deepClone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepClone(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepClone(val)
		}
		return out
	default:
		return v
	}
}

// Validate confirms fragment is a structurally valid JSON Schema document
// by compiling it with santhosh-tekuri/jsonschema. This is an optional
// extra a caller can run after Sanitize before sending a schema to a
// strict-mode provider (OpenAI/Responses); Sanitize itself never calls it,
// keeping the core sanitizer pure and dependency-free of schema validation
// failures.
func Validate(fragment map[string]any) error {
	compiler := jsonschema.NewCompiler()

	const resourceURL = "llmcore://fragment.json"
	data, err := json.Marshal(fragment)
	if err != nil {
		return err
	}
	if err := compiler.AddResource(resourceURL, bytes.NewReader(data)); err != nil {
		return err
	}

	_, err = compiler.Compile(resourceURL)
	return err
}
