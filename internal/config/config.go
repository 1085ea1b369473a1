// Package config loads classgraph settings from defaults, an optional YAML
// file and CLASSGRAPH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/olehluchkiv/classgraph/internal/analyzer"
	"github.com/olehluchkiv/classgraph/internal/diagram"
	"github.com/olehluchkiv/classgraph/internal/logging"
	"github.com/olehluchkiv/classgraph/internal/model"
	"github.com/olehluchkiv/classgraph/internal/resolver"
)

// Environment variables read by ApplyEnv.
const (
	EnvOutput   = "CLASSGRAPH_OUTPUT"
	EnvFormat   = "CLASSGRAPH_FORMAT"
	EnvLogLevel = "CLASSGRAPH_LOG_LEVEL"
	EnvLogFile  = "CLASSGRAPH_LOG_FILE"
	EnvWorkers  = "CLASSGRAPH_WORKERS"
)

// DefaultOutputBase names the output file when none is configured; the
// format supplies the extension.
const DefaultOutputBase = "output"

// Config is the complete classgraph configuration.
type Config struct {
	// Output is the destination file, "-" for stdout, or empty for
	// DefaultOutputBase plus the format's extension
	Output string      `yaml:"output"`
	Format string      `yaml:"format"`
	Log    LogConfig   `yaml:"log"`
	Scan   ScanConfig  `yaml:"scan"`
	Graph  GraphConfig `yaml:"graph"`
	Watch  WatchConfig `yaml:"watch"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
	// File additionally receives JSON logs when set
	File string `yaml:"file"`
}

// ScanConfig selects and decodes the input class files.
type ScanConfig struct {
	Include  []string `yaml:"include"`
	Exclude  []string `yaml:"exclude"`
	Packages []string `yaml:"packages"`
	// NestedHeuristic treats a '$' in the simple name as nesting
	NestedHeuristic bool `yaml:"nested_heuristic"`
	// Workers bounds concurrent class file reads (0 = one per CPU)
	Workers int `yaml:"workers"`
}

// GraphConfig holds the presentation attributes of the rendered graph.
type GraphConfig struct {
	Name                string `yaml:"name"`
	FontName            string `yaml:"font_name"`
	FontSize            int    `yaml:"font_size"`
	ClusterFontSize     int    `yaml:"cluster_font_size"`
	ClusterColor        string `yaml:"cluster_color"`
	NodeStyle           string `yaml:"node_style"`
	DefaultPackageLabel string `yaml:"default_package_label"`
	MermaidInit         bool   `yaml:"mermaid_init"`
	// Colors maps a relation kind name (extends, implements, calls,
	// refers_to_literal) to its edge colour
	Colors map[string]string `yaml:"colors"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is the quiet period after the last change before re-rendering
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns a Config with the stock settings.
func Default() *Config {
	graph := diagram.DefaultOptions()
	colors := make(map[string]string, len(graph.Colors))
	for kind, c := range graph.Colors {
		colors[kind.String()] = c
	}
	return &Config{
		Format: string(diagram.FormatDOT),
		Log: LogConfig{
			Level: "info",
		},
		Scan: ScanConfig{
			Include:         resolver.DefaultOptions().Include,
			Exclude:         resolver.DefaultOptions().Exclude,
			NestedHeuristic: true,
		},
		Graph: GraphConfig{
			Name:                graph.Name,
			FontName:            graph.FontName,
			FontSize:            graph.FontSize,
			ClusterFontSize:     graph.ClusterFontSize,
			ClusterColor:        graph.ClusterColor,
			NodeStyle:           graph.NodeStyle,
			DefaultPackageLabel: graph.DefaultPackageLabel,
			Colors:              colors,
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults; a path that does not exist is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads ./.env into the process environment if present. Variables
// already set are not overridden.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overrides c with any CLASSGRAPH_* variables that are set.
func (c *Config) ApplyEnv() error {
	if v, ok := lookup(EnvOutput); ok {
		c.Output = v
	}
	if v, ok := lookup(EnvFormat); ok {
		c.Format = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvLogFile); ok {
		c.Log.File = v
	}
	if v, ok := lookup(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Scan.Workers = n
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := diagram.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("format: %w", err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if len(c.Scan.Include) == 0 {
		return fmt.Errorf("scan.include must list at least one pattern")
	}
	if c.Scan.Workers < 0 {
		return fmt.Errorf("scan.workers must be >= 0, got %d", c.Scan.Workers)
	}
	if c.Graph.FontSize <= 0 || c.Graph.ClusterFontSize <= 0 {
		return fmt.Errorf("graph font sizes must be positive")
	}
	for name := range c.Graph.Colors {
		if _, err := model.ParseRelationKind(name); err != nil {
			return fmt.Errorf("graph.colors: %w", err)
		}
	}
	if c.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be positive, got %s", c.Watch.Debounce)
	}
	return nil
}

// OutputPath returns the destination file, falling back to
// DefaultOutputBase with the extension of the configured format.
func (c *Config) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}
	return DefaultOutputBase + c.DiagramFormat().Extension()
}

// ResolverOptions returns the discovery settings.
func (c *Config) ResolverOptions() resolver.Options {
	return resolver.Options{Include: c.Scan.Include, Exclude: c.Scan.Exclude}
}

// AnalyzeOptions returns the class selection settings.
func (c *Config) AnalyzeOptions() analyzer.AnalyzeOptions {
	return analyzer.AnalyzeOptions{Packages: c.Scan.Packages, NestedHeuristic: c.Scan.NestedHeuristic}
}

// DiagramFormat returns the parsed output format. Call Validate first.
func (c *Config) DiagramFormat() diagram.Format {
	f, _ := diagram.ParseFormat(c.Format)
	return f
}

// DiagramOptions returns the presentation settings.
func (c *Config) DiagramOptions() diagram.Options {
	g := c.Graph
	colors := diagram.DefaultColors()
	for name, colour := range g.Colors {
		if kind, err := model.ParseRelationKind(name); err == nil && colour != "" {
			colors[kind] = colour
		}
	}
	return diagram.Options{
		Name:                g.Name,
		FontName:            g.FontName,
		FontSize:            g.FontSize,
		ClusterFontSize:     g.ClusterFontSize,
		ClusterColor:        g.ClusterColor,
		NodeStyle:           g.NodeStyle,
		DefaultPackageLabel: g.DefaultPackageLabel,
		MermaidInit:         g.MermaidInit,
		Colors:              colors,
	}
}
