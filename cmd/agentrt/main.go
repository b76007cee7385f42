// Command agentrt is the CLI entry point for the agent execution runtime.
//
// Usage:
//
//	agentrt chat --provider openai --model gpt-4o-mini "what is 2+3?"
//	agentrt repl --provider ollama --model llama3.1
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

// CLI defines the command-line interface.
type CLI struct {
	Chat ChatCmd `cmd:"" help:"Send one message to an agent and print its reply."`
	Repl ReplCmd `cmd:"" help:"Start an interactive chat session with an agent."`

	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFormat string `help:"Log format (simple, verbose, json)." default:"simple"`
	LogFile   string `help:"Log file path (empty = stderr)."`
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("agentrt"),
		kong.Description("agent execution runtime"),
		kong.UsageOnError(),
	)

	cleanup, err := initLogging(cli.LogLevel, cli.LogFormat, cli.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
