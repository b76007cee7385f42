package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the declarative shape of an --agent-config YAML file: an
// alternative to spelling every agentFlags field out on the command line,
// grounded on the teacher's config_loader.go YAML-first approach.
type fileConfig struct {
	Provider     string  `yaml:"provider"`
	Model        string  `yaml:"model"`
	Name         string  `yaml:"name"`
	Instructions string  `yaml:"instructions"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	Think        string  `yaml:"think"`
}

// loadAgentConfigFile reads path and overlays its fields onto f, only
// overwriting a field when the file sets it; CLI flags already set to a
// non-zero value take precedence over the file, except provider and name,
// whose flag defaults ("openai", "assistant") are also overwritten.
func loadAgentConfigFile(path string, f *agentFlags) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read agent config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse agent config %s: %w", path, err)
	}

	if f.Provider == "" || f.Provider == "openai" {
		if fc.Provider != "" {
			f.Provider = fc.Provider
		}
	}
	if f.Model == "" && fc.Model != "" {
		f.Model = fc.Model
	}
	if f.Name == "" || f.Name == "assistant" {
		if fc.Name != "" {
			f.Name = fc.Name
		}
	}
	if f.Instructions == "" && fc.Instructions != "" {
		f.Instructions = fc.Instructions
	}
	if f.Temperature == 0 && fc.Temperature != 0 {
		f.Temperature = fc.Temperature
	}
	if f.MaxTokens == 0 && fc.MaxTokens != 0 {
		f.MaxTokens = fc.MaxTokens
	}
	if f.Think == "" && fc.Think != "" {
		f.Think = fc.Think
	}
	return nil
}
