package main

import (
	"log/slog"
	"os"

	"github.com/agentcore/agentrt/internal/envconfig"
	"github.com/agentcore/agentrt/pkg/logger"
)

// initLogging wires CLI flags and LOG_* environment variables into
// pkg/logger, CLI flags taking priority over the environment.
func initLogging(cliLevel, cliFormat, cliFile string) (func(), error) {
	level := cliLevel
	if level == "info" {
		level = envconfig.String("LOG_LEVEL", level)
	}
	format := cliFormat
	if format == "simple" {
		if envconfig.Bool("LOG_JSON_FORMAT", false) {
			format = "json"
		} else {
			format = envconfig.String("LOG_FORMAT", format)
		}
	}
	file := cliFile
	if file == "" {
		file = envconfig.String("LOG_FILE_PATH", "")
	}
	if file == "" && envconfig.Bool("LOG_TO_FILE", false) {
		file = "agentrt.log"
	}

	lvl, err := logger.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	output := os.Stderr
	var cleanup func()
	if file != "" {
		f, closeFn, err := logger.OpenLogFile(file)
		if err != nil {
			return nil, err
		}
		output = f
		cleanup = closeFn
	}

	logger.Init(lvl, output, format)
	slog.Debug("logging initialized", "level", level, "format", format, "file", file)
	return cleanup, nil
}
