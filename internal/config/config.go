// Package config loads the declarative YAML configuration: the list of
// tool-providing servers (with per-server transport choice) and the agent,
// retrieval and index settings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agenkampus/agenkampus/internal/agent"
	"github.com/agenkampus/agenkampus/internal/session"
)

// EnvConfigPath overrides the configuration file path.
const EnvConfigPath = "AGENKAMPUS_CONFIG"

// DefaultPath is used when neither flag nor env var names a file.
const DefaultPath = "agenkampus.yaml"

// Duration parses YAML scalars like "5s" or "2m" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// ServerConfig declares one tool-providing server. Transport selects how
// it is reached: "stdio" spawns Command with Args, "http" opens a
// streamable connection to URL.
type ServerConfig struct {
	Name        string            `yaml:"name"`
	Transport   string            `yaml:"transport"`
	Command     string            `yaml:"command,omitempty"`
	Args        []string          `yaml:"args,omitempty"`
	Env         map[string]string `yaml:"env,omitempty"`
	URL         string            `yaml:"url,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	Timeout     Duration          `yaml:"timeout,omitempty"`
	ReadTimeout Duration          `yaml:"read_timeout,omitempty"`
	Enabled     *bool             `yaml:"enabled,omitempty"`
}

// IndexConfig configures the embedding index.
type IndexConfig struct {
	Path           string `yaml:"path,omitempty"`
	Collection     string `yaml:"collection,omitempty"`
	Embedding      string `yaml:"embedding,omitempty"`       // "openai" or "local"
	EmbeddingModel string `yaml:"embedding_model,omitempty"` // pinned per index
}

// AgentConfig configures the decision loop.
type AgentConfig struct {
	Model            string   `yaml:"model,omitempty"`
	MaxRounds        int      `yaml:"max_rounds,omitempty"`
	TopK             int      `yaml:"top_k,omitempty"`
	ScoreThreshold   float64  `yaml:"score_threshold,omitempty"`
	OnEmptyRetrieval string   `yaml:"on_empty_retrieval,omitempty"`
	CallTimeout      Duration `yaml:"call_timeout,omitempty"`
}

// CallTimeoutDuration returns the per-call timeout; zero means the
// registry default applies.
func (a AgentConfig) CallTimeoutDuration() time.Duration {
	return time.Duration(a.CallTimeout)
}

// Config is the full configuration file.
type Config struct {
	Catalog string         `yaml:"catalog"`
	Index   IndexConfig    `yaml:"index,omitempty"`
	Agent   AgentConfig    `yaml:"agent,omitempty"`
	Servers []ServerConfig `yaml:"servers"`
}

// Load reads and validates the configuration file, applying defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes, validates and defaults a configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Catalog == "" {
		cfg.Catalog = "tool_descriptions.json"
	}
	if cfg.Index.Collection == "" {
		cfg.Index.Collection = "tool_descriptions"
	}
	if cfg.Index.Embedding == "" {
		cfg.Index.Embedding = "openai"
	}
	if cfg.Agent.Model == "" {
		cfg.Agent.Model = "gpt-4o-mini"
	}
	if cfg.Agent.MaxRounds <= 0 {
		cfg.Agent.MaxRounds = 5
	}
	if cfg.Agent.TopK <= 0 {
		cfg.Agent.TopK = 3
	}
	if cfg.Agent.OnEmptyRetrieval == "" {
		cfg.Agent.OnEmptyRetrieval = string(agent.FallbackFullCatalog)
	}

	switch agent.EmptyRetrievalPolicy(cfg.Agent.OnEmptyRetrieval) {
	case agent.FallbackFullCatalog, agent.AnswerNoTool:
	default:
		return nil, fmt.Errorf("invalid on_empty_retrieval %q", cfg.Agent.OnEmptyRetrieval)
	}

	for i := range cfg.Servers {
		if err := validateServer(&cfg.Servers[i]); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func validateServer(s *ServerConfig) error {
	if s.Name == "" {
		return fmt.Errorf("server entry missing name")
	}
	switch s.Transport {
	case "stdio":
		if s.Command == "" {
			return fmt.Errorf("server %s: stdio transport requires command", s.Name)
		}
	case "http":
		if s.URL == "" {
			return fmt.Errorf("server %s: http transport requires url", s.Name)
		}
	default:
		return fmt.Errorf("server %s: unsupported transport %q", s.Name, s.Transport)
	}
	return nil
}

// ServerSpecs builds the registry connection specs for every enabled
// server, preserving file order.
func (c *Config) ServerSpecs() []session.ServerSpec {
	specs := make([]session.ServerSpec, 0, len(c.Servers))
	for _, s := range c.Servers {
		if s.Enabled != nil && !*s.Enabled {
			continue
		}

		var transport session.Transport
		switch s.Transport {
		case "stdio":
			transport = &session.StdioTransport{Command: s.Command, Args: s.Args, Env: s.Env}
		case "http":
			transport = &session.StreamableTransport{
				URL:            s.URL,
				Headers:        s.Headers,
				ConnectTimeout: time.Duration(s.Timeout),
				ReadTimeout:    time.Duration(s.ReadTimeout),
			}
		}
		specs = append(specs, session.ServerSpec{Name: s.Name, Transport: transport})
	}
	return specs
}

// LoopOptions maps the agent settings onto loop options.
func (c *Config) LoopOptions() agent.Options {
	return agent.Options{
		MaxRounds:        c.Agent.MaxRounds,
		TopK:             c.Agent.TopK,
		ScoreThreshold:   c.Agent.ScoreThreshold,
		OnEmptyRetrieval: agent.EmptyRetrievalPolicy(c.Agent.OnEmptyRetrieval),
	}
}
