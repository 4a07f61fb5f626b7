package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestProvider_IsModelAllowed_EmptyWhitelistAllowsAll(t *testing.T) {
	p := Provider{Name: "openai"}
	assert.True(t, p.IsModelAllowed("gpt-4o"))
}

func TestProvider_IsModelAllowed_RespectsWhitelist(t *testing.T) {
	p := Provider{Name: "openai", ModelWhitelist: []string{"gpt-4"}}
	assert.True(t, p.IsModelAllowed("gpt-4o"))
	assert.False(t, p.IsModelAllowed("gpt-3.5-turbo"))
}

func TestExtractModelFromConfig(t *testing.T) {
	provider, model := ExtractModelFromConfig("anthropic,claude-3-5-sonnet-20241022")
	assert.Equal(t, "anthropic", provider)
	assert.Equal(t, "claude-3-5-sonnet-20241022", model)
}

func TestConfig_RoundTripsThroughYAML(t *testing.T) {
	cfg := Config{
		Host: DefaultHost,
		Port: 6970,
		Providers: []Provider{
			{Name: "openai", APIKey: "sk-test", LegacyFunctionCall: true},
		},
		Router: RouterConfig{Default: "openai,gpt-4o"},
	}

	data, err := yaml.Marshal(cfg)
	assert.NoError(t, err)

	var back Config
	assert.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, cfg.Providers[0].LegacyFunctionCall, back.Providers[0].LegacyFunctionCall)
}

func TestConfig_ProviderByName(t *testing.T) {
	cfg := Config{Providers: []Provider{{Name: "google"}}}
	p, ok := cfg.ProviderByName("google")
	assert.True(t, ok)
	assert.Equal(t, "google", p.Name)

	_, ok = cfg.ProviderByName("missing")
	assert.False(t, ok)
}
