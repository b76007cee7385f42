package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/agentcore/agentrt/pkg/llm"
	"github.com/agentcore/agentrt/pkg/tool"
)

// ReplCmd runs an interactive chat session against one agent, reading
// messages from stdin until EOF or Ctrl+C.
type ReplCmd struct {
	agentFlags
	Stream bool `help:"Stream replies to stdout as they arrive." default:"true"`
}

func (c *ReplCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifyInterrupt(cancel)

	orchestrator, a, _, err := buildOrchestrator(c.agentFlags)
	if err != nil {
		return err
	}

	fmt.Printf("chatting with %q (%s/%s). Ctrl+C or EOF to quit.\n", a.Name, a.Provider, a.Model)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := scanner.Text()
		if line == "" {
			continue
		}

		if c.Stream {
			events, err := orchestrator.ChatStream(ctx, a, line, tool.Auto())
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				continue
			}
			if err := printStream(events); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
			continue
		}

		reply, err := orchestrator.Chat(ctx, a, line, tool.Auto())
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		fmt.Println(reply)
	}
}

// printStream drains a stream of events to stdout, returning the first
// error event it sees (if any) after the channel closes.
func printStream(events <-chan llm.StreamEvent) error {
	var streamErr error
	for ev := range events {
		switch ev.Kind {
		case llm.StreamText:
			fmt.Print(ev.Text)
		case llm.StreamError:
			streamErr = ev.Err
		}
	}
	fmt.Println()
	return streamErr
}
