package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentcore/agentrt/pkg/tool"
)

// ChatCmd sends one message to an agent and prints the final reply.
type ChatCmd struct {
	agentFlags
	Message string `arg:"" help:"The message to send."`
	Stream  bool   `help:"Stream the reply to stdout as it arrives."`
}

func (c *ChatCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifyInterrupt(cancel)

	orchestrator, a, _, err := buildOrchestrator(c.agentFlags)
	if err != nil {
		return err
	}

	if !c.Stream {
		reply, err := orchestrator.Chat(ctx, a, c.Message, tool.Auto())
		if err != nil {
			return err
		}
		fmt.Println(reply)
		return nil
	}

	events, err := orchestrator.ChatStream(ctx, a, c.Message, tool.Auto())
	if err != nil {
		return err
	}
	return printStream(events)
}

// notifyInterrupt cancels cancel() on SIGINT/SIGTERM.
func notifyInterrupt(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
}
