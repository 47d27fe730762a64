// Package config provides configuration loading and management for roadgraph.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/roadgraph/emit"
	"github.com/c360studio/roadgraph/export"
	"github.com/c360studio/roadgraph/graph"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultSubject is the NATS subject entity messages are published on.
const DefaultSubject = graph.GraphIngestSubject

// Config represents the complete roadgraph configuration
type Config struct {
	// Input is the GraphML file to convert, or a glob matching several
	Input string `yaml:"input"`
	// Output is the output file, or the output directory when Input matches several files
	Output string `yaml:"output"`
	// Format is the serialization format (turtle or ntriples)
	Format string `yaml:"format"`
	// LinkUpstream adds rdfs:seeAlso links to OpenStreetMap objects
	LinkUpstream bool `yaml:"link_upstream"`

	Policy  PolicyConfig  `yaml:"policy"`
	Watch   WatchConfig   `yaml:"watch"`
	Metrics MetricsConfig `yaml:"metrics"`
	NATS    NATSConfig    `yaml:"nats"`
}

// PolicyConfig configures how incomplete input is handled
type PolicyConfig struct {
	// MissingData is omit, skip or fail
	MissingData string `yaml:"missing_data"`
	// DanglingRefs is allow, skip or fail
	DanglingRefs string `yaml:"dangling_refs"`
}

// WatchConfig configures watch mode
type WatchConfig struct {
	Enabled bool `yaml:"enabled"`
	// Debounce is how long input changes must settle before a re-run
	Debounce time.Duration `yaml:"debounce"`
}

// MetricsConfig configures the metrics textfile
type MetricsConfig struct {
	// Textfile is written after each run in the Prometheus text format (empty = disabled)
	Textfile string `yaml:"textfile"`
}

// NATSConfig configures graph publishing
type NATSConfig struct {
	// URL is the NATS server URL (empty = do not publish)
	URL string `yaml:"url"`
	// Subject is the subject entity messages are published on
	Subject string `yaml:"subject"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Input:  "graph.graphml",
		Output: "output.ttl",
		Format: string(export.FormatTurtle),
		Policy: PolicyConfig{
			MissingData:  string(emit.MissingOmit),
			DanglingRefs: string(emit.DanglingAllow),
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		NATS: NATSConfig{
			Subject: DefaultSubject,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("%w: input is required", ErrInvalidConfig)
	}
	if c.Output == "" {
		return fmt.Errorf("%w: output is required", ErrInvalidConfig)
	}
	if _, err := export.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("%w: format: %w", ErrInvalidConfig, err)
	}
	if _, err := emit.ParseMissingDataPolicy(c.Policy.MissingData); err != nil {
		return fmt.Errorf("%w: policy.missing_data: %w", ErrInvalidConfig, err)
	}
	if _, err := emit.ParseDanglingRefPolicy(c.Policy.DanglingRefs); err != nil {
		return fmt.Errorf("%w: policy.dangling_refs: %w", ErrInvalidConfig, err)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("%w: watch.debounce must not be negative", ErrInvalidConfig)
	}
	if c.NATS.URL != "" && c.NATS.Subject == "" {
		return fmt.Errorf("%w: nats.subject is required when nats.url is set", ErrInvalidConfig)
	}
	return nil
}

// EmitOptions returns the emitter options the configuration selects.
// Validate must have succeeded.
func (c *Config) EmitOptions() emit.Options {
	missing, _ := emit.ParseMissingDataPolicy(c.Policy.MissingData)
	dangling, _ := emit.ParseDanglingRefPolicy(c.Policy.DanglingRefs)
	return emit.Options{
		MissingData:  missing,
		DanglingRefs: dangling,
		LinkUpstream: c.LinkUpstream,
	}
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	layer, err := readLayer(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	config.Merge(layer)
	return config, nil
}

// readLayer reads a YAML file without defaults, so unset keys stay zero and
// do not override earlier layers on Merge.
func readLayer(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	layer := &Config{}
	if err := yaml.Unmarshal(data, layer); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return layer, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values).
// Booleans can only be switched on by a later layer.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Input != "" {
		c.Input = other.Input
	}
	if other.Output != "" {
		c.Output = other.Output
	}
	if other.Format != "" {
		c.Format = other.Format
	}
	if other.LinkUpstream {
		c.LinkUpstream = true
	}

	// Policy
	if other.Policy.MissingData != "" {
		c.Policy.MissingData = other.Policy.MissingData
	}
	if other.Policy.DanglingRefs != "" {
		c.Policy.DanglingRefs = other.Policy.DanglingRefs
	}

	// Watch
	if other.Watch.Enabled {
		c.Watch.Enabled = true
	}
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}

	// Metrics
	if other.Metrics.Textfile != "" {
		c.Metrics.Textfile = other.Metrics.Textfile
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Subject != "" {
		c.NATS.Subject = other.NATS.Subject
	}
}
