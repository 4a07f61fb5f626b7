// Package config defines the gateway core's model and provider
// configuration objects. Unlike the teacher's own internal/config, which
// owned a file-loading Manager (YAML/JSON-on-disk precedence, CCO_API_KEY
// fallback), this package's Config is a plain value object the caller
// assembles however it likes — loading config from disk is the embedding
// application's concern, not the gateway core's (spec's Non-goals exclude
// owning process/deployment configuration). The struct shapes and JSON/YAML
// tag conventions are kept verbatim from the teacher's config.go.
package config

import "strings"

const DefaultHost = "127.0.0.1"

// DefaultProviderURLs gives each provider's default upstream endpoint,
// extended from the teacher's table to the full provider set spec §5 names.
var DefaultProviderURLs = map[string]string{
	"openai":           "https://api.openai.com/v1/chat/completions",
	"openai-responses": "https://api.openai.com/v1/responses",
	"anthropic":        "https://api.anthropic.com/v1/messages",
	"google":           "https://generativelanguage.googleapis.com/v1beta/models",
	"mistral":          "https://api.mistral.ai/v1/chat/completions",
	"local":            "http://localhost:8000/v1/chat/completions",
	"iassistant":         "",
	"azure-openai-image": "",
	"openai-image":       "https://api.openai.com/v1/images/generations",
	"google-image":       "",
	"bfl":                "https://api.bfl.ml/v1/flux-pro-1.1",
}

// Provider carries one upstream's credentials and routing constraints.
type Provider struct {
	Name           string   `json:"name" yaml:"name"`
	APIBase        string   `json:"api_base_url" yaml:"url,omitempty"`
	APIKey         string   `json:"api_key" yaml:"api_key,omitempty"`
	Models         []string `json:"models" yaml:"models,omitempty"`
	ModelWhitelist []string `json:"model_whitelist,omitempty" yaml:"model_whitelist,omitempty"`

	// LegacyFunctionCall selects the pre-tool_calls OpenAI function_call
	// wire shape instead of the modern tool_calls array. Resolves the
	// module's first Open Question: this is a per-model opt-in, off by
	// default, rather than an auto-detected heuristic — autodetection would
	// need a live capability probe this module has no business making.
	LegacyFunctionCall bool `json:"legacy_function_call,omitempty" yaml:"legacy_function_call,omitempty"`
}

// IsModelAllowed reports whether model passes this provider's whitelist (an
// empty whitelist allows everything).
func (p *Provider) IsModelAllowed(model string) bool {
	if len(p.ModelWhitelist) == 0 {
		return true
	}
	for _, whitelisted := range p.ModelWhitelist {
		if strings.Contains(model, whitelisted) || model == whitelisted {
			return true
		}
	}
	return false
}

// RouterConfig names which provider,model pair backs each routing role.
type RouterConfig struct {
	Default     string `json:"default" yaml:"default,omitempty"`
	Think       string `json:"think,omitempty" yaml:"think,omitempty"`
	Background  string `json:"background,omitempty" yaml:"background,omitempty"`
	LongContext string `json:"longContext,omitempty" yaml:"long_context,omitempty"`
}

// Config is the full set of providers and routing rules a caller supplies
// to the gateway core. It carries no file path of its own; construct it
// from whatever the embedding application's configuration source is.
type Config struct {
	Host      string       `json:"HOST,omitempty" yaml:"host,omitempty"`
	Port      int          `json:"PORT,omitempty" yaml:"port,omitempty"`
	Providers []Provider   `json:"Providers" yaml:"providers"`
	Router    RouterConfig `json:"Router" yaml:"router,omitempty"`
}

// ExtractModelFromConfig splits a "provider,model" routing string, the
// format RouterConfig's fields use. Ported from the teacher's
// ExtractModelFromConfig (providers/base.go) unchanged.
func ExtractModelFromConfig(modelConfig string) (provider, model string) {
	parts := strings.SplitN(modelConfig, ",", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return "", strings.TrimSpace(modelConfig)
}

// ProviderByName returns the configured Provider with the given name.
func (c *Config) ProviderByName(name string) (Provider, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return Provider{}, false
}
