package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcbridge/llmcore/internal/gtm"
	"github.com/arcbridge/llmcore/internal/providers"
)

var (
	buildProvider string
	buildModel    string
	buildPrompt   string
	buildStream   bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Render the wire request body a provider adapter would send",
	Long:  `build assembles a single-turn Request from --prompt and prints the exact JSON body BuildRequest produces for --provider, without sending it anywhere.`,
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildProvider, "provider", "openai", "provider name (openai, openai-responses, anthropic, google, mistral, local, iassistant)")
	buildCmd.Flags().StringVar(&buildModel, "model", "", "model name to request")
	buildCmd.Flags().StringVar(&buildPrompt, "prompt", "", "user message text")
	buildCmd.Flags().BoolVar(&buildStream, "stream", true, "request a streamed response")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	if buildPrompt == "" {
		return fmt.Errorf("--prompt is required")
	}

	registry := providers.NewRegistry()
	adapter, err := registry.Get(buildProvider)
	if err != nil {
		return err
	}

	req := providers.Request{
		Model:    buildModel,
		Messages: []gtm.Message{{Role: gtm.RoleUser, Content: buildPrompt}},
		Stream:   buildStream,
	}

	body, err := adapter.BuildRequest(req)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	out, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	color.Green("%s request body:", buildProvider)
	fmt.Println(string(out))
	return nil
}
