package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	flag "github.com/spf13/pflag"

	"github.com/cityfeed/puller"
)

// duration accepts "120s"-style strings in YAML.
type duration struct {
	value time.Duration
}

func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.value = parsed
	return nil
}

// config is the merged process configuration: defaults, then the optional
// YAML file, then any explicitly set flags.
type config struct {
	Origins   []string `yaml:"origins"`
	Root      string   `yaml:"root"`
	Timeout   duration `yaml:"timeout"`
	Jobs      int      `yaml:"jobs"`
	LogLevel  string   `yaml:"log_level"`
	LogFormat string   `yaml:"log_format"`
}

func defaultConfig() config {
	return config{
		Root:      "/var/www/cityfeed",
		Timeout:   duration{value: puller.DefaultTimeout},
		Jobs:      1,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

func loadConfig(path string) (config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// merged overlays non-zero fields of other onto c.
func (c config) merged(other config) config {
	if len(other.Origins) > 0 {
		c.Origins = other.Origins
	}
	if other.Root != "" {
		c.Root = other.Root
	}
	if other.Timeout.value > 0 {
		c.Timeout = other.Timeout
	}
	if other.Jobs > 0 {
		c.Jobs = other.Jobs
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	return c
}

// applyFlags overrides config fields with any flag the user set explicitly.
func (c *config) applyFlags(flags *flag.FlagSet, origins []string, root string, timeout time.Duration, jobs int, logLevel, logFormat string) {
	if flags.Changed("origin") {
		c.Origins = origins
	}
	if flags.Changed("root") {
		c.Root = root
	}
	if flags.Changed("timeout") {
		c.Timeout = duration{value: timeout}
	}
	if flags.Changed("jobs") {
		c.Jobs = jobs
	}
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		c.LogFormat = logFormat
	}
}
