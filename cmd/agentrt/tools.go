package main

import (
	"context"
	"time"

	"github.com/agentcore/agentrt/pkg/tool"
	"github.com/agentcore/agentrt/pkg/tool/functiontool"
)

type currentTimeArgs struct {
	Timezone string `json:"timezone" jsonschema:"description=IANA timezone name; empty for UTC"`
}

// registerBuiltinTools registers the handful of system tools every CLI
// agent gets for free, in the teacher's spirit of shipping a couple of
// safe local tools out of the box rather than none.
func registerBuiltinTools(registry *tool.Registry) error {
	currentTime, err := functiontool.New(functiontool.Config{
		Name:        "current_time",
		Description: "Returns the current time, optionally in a named IANA timezone.",
	}, func(ctx context.Context, args currentTimeArgs) (any, error) {
		loc := time.UTC
		if args.Timezone != "" {
			l, err := time.LoadLocation(args.Timezone)
			if err != nil {
				return nil, err
			}
			loc = l
		}
		return time.Now().In(loc).Format(time.RFC3339), nil
	})
	if err != nil {
		return err
	}
	return registry.RegisterSystem(currentTime)
}
