package main

import (
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const (
	AppName = "llmcore"
	Version = "0.1.0"
)

var logger *slog.Logger

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger = slog.New(handler)
}

var rootCmd = &cobra.Command{
	Use:   AppName,
	Short: "Inspect and exercise the llmcore provider-agnostic LLM gateway core",
	Long:  `llmcore is a diagnostic CLI over the gateway core's BuildRequest/ReduceChunk pipeline — it talks to no network, it only renders what would be sent and replays fixture chunks through the reducer.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the llmcore CLI version",
	Run: func(cmd *cobra.Command, _ []string) {
		color.Blue("%s v%s", AppName, Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
