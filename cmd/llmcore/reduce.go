package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcbridge/llmcore/internal/providers"
	"github.com/arcbridge/llmcore/internal/reducer"
)

var reduceProvider string

var reduceCmd = &cobra.Command{
	Use:   "reduce [fixture-file]",
	Short: "Replay a captured stream fixture through the streaming reducer",
	Long:  `reduce reads a fixture file line by line (or stdin, with no argument) and feeds each line to the given provider's ReduceChunk, printing the accumulated text and tool calls as they resolve.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReduce,
}

func init() {
	reduceCmd.Flags().StringVar(&reduceProvider, "provider", "openai", "provider name whose wire format the fixture is in")
	rootCmd.AddCommand(reduceCmd)
}

func runReduce(cmd *cobra.Command, args []string) error {
	registry := providers.NewRegistry()
	adapter, err := registry.Get(reduceProvider)
	if err != nil {
		return err
	}

	var f *os.File
	if len(args) == 1 {
		f, err = os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open fixture: %w", err)
		}
		defer f.Close()
	} else {
		f = os.Stdin
	}

	sess := reducer.NewSession(adapter, logger)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var text string
	for scanner.Scan() {
		out, err := sess.Feed(scanner.Bytes())
		if err != nil {
			color.Red("chunk error: %v", err)
			continue
		}
		if out == nil {
			continue
		}
		for _, piece := range out.Content {
			text += piece
		}
		if out.Complete {
			color.Green("stream complete, finish_reason=%s", out.FinishReason)
			for _, tc := range out.ToolCalls {
				fmt.Printf("  tool_call: %s(%v)\n", tc.Name, tc.Arguments)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}

	fmt.Println(text)
	return nil
}
