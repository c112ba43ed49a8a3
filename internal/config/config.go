// Package config provides hierarchical configuration loading for Agora.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the Agora binaries. The
// directory daemon and the agent host share one tree; each binary reads
// the sections it needs.
type Config struct {
	Server       Server       `yaml:"server"`
	Logging      Logging      `yaml:"logging"`
	NATS         NATS         `yaml:"nats"`
	Cache        Cache        `yaml:"cache"`
	Breaker      Breaker      `yaml:"breaker"`
	Rate         Rate         `yaml:"rate"`
	Link         Link         `yaml:"link"`
	Oracle       LLM          `yaml:"oracle"`
	Orchestrator Orchestrator `yaml:"orchestrator"`
	Pipeline     Pipeline     `yaml:"pipeline"`
	Registry     Registry     `yaml:"registry"`
	Telemetry    Telemetry    `yaml:"telemetry"`
	MCP          MCP          `yaml:"mcp"`
	GitGuardian  GitGuardian  `yaml:"gitguardian"`
	Notify       Notify       `yaml:"notify"`
	Agent        Agent        `yaml:"agent"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// NATS holds NATS connection configuration.
type NATS struct {
	URL string `yaml:"url"`
}

// Cache holds card cache configuration. Shared adds a NATS KV tier
// under the in-process one so multiple daemons share resolved cards;
// it requires a working NATS connection.
type Cache struct {
	MaxSizeMB int64         `yaml:"max_size_mb"`
	CardTTL   time.Duration `yaml:"card_ttl"`
	Shared    bool          `yaml:"shared"`
}

// Breaker holds circuit breaker configuration.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Rate holds rate limiter configuration.
type Rate struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Link holds outbound agent invocation configuration.
type Link struct {
	Timeout       time.Duration `yaml:"timeout"`        // per-invocation deadline
	MaxConcurrent int           `yaml:"max_concurrent"` // simultaneous in-flight invocations
}

// LLM holds language model provider configuration. The same shape
// serves the routing oracle and prompt-driven agent workers.
type LLM struct {
	Provider    string        `yaml:"provider"` // "anthropic" | "openai" | "litellm"
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxTokens   int64         `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
}

// Orchestrator holds dynamic routing loop configuration.
type Orchestrator struct {
	MaxTurns int `yaml:"max_turns"`
}

// Pipeline holds pipeline template configuration.
type Pipeline struct {
	TemplatesDir string `yaml:"templates_dir"`
}

// Registry holds agent registration configuration.
type Registry struct {
	VerifyCards   bool          `yaml:"verify_cards"` // fetch the live card before accepting a registration
	VerifyTimeout time.Duration `yaml:"verify_timeout"`
}

// Telemetry holds OpenTelemetry export configuration.
type Telemetry struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// MCP holds Model Context Protocol server configuration. An empty
// APIKey leaves the surface unauthenticated.
type MCP struct {
	Enabled bool   `yaml:"enabled"`
	Port    string `yaml:"port"`
	APIKey  string `yaml:"api_key"`
}

// GitGuardian holds secret scanning configuration for the scan worker.
type GitGuardian struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Notify holds run-outcome notification configuration. Providers maps
// a registered notifier name ("slack", "discord") to the settings its
// factory expects; Events limits delivery to the listed sources
// ("run.completed", "run.turn_limit", "run.failed"), empty means all.
type Notify struct {
	Events    []string                     `yaml:"events"`
	Providers map[string]map[string]string `yaml:"providers"`
}

// Agent holds agent host configuration: the card it serves and the
// worker behind it.
type Agent struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Version     string        `yaml:"version"`
	Port        string        `yaml:"port"`
	Endpoint    string        `yaml:"endpoint"` // public URL other agents use to reach this one
	Worker      string        `yaml:"worker"`   // "echo" | "prompt" | "secret-scan"
	Prompt      string        `yaml:"prompt"`   // system prompt for the prompt worker
	RegistryURL string        `yaml:"registry_url"`
	WorkTimeout time.Duration `yaml:"work_timeout"`
	Skills      []Skill       `yaml:"skills"`
	LLM         LLM           `yaml:"llm"`
}

// Skill is the YAML form of an advertised skill.
type Skill struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
		},
		Logging: Logging{
			Level:   "info",
			Service: "agora",
		},
		NATS: NATS{
			URL: "nats://localhost:4222",
		},
		Cache: Cache{
			MaxSizeMB: 64,
			CardTTL:   5 * time.Minute,
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Rate: Rate{
			RequestsPerSecond: 10,
			Burst:             100,
		},
		Link: Link{
			Timeout:       120 * time.Second,
			MaxConcurrent: 8,
		},
		Oracle: LLM{
			Provider:    "anthropic",
			Model:       "claude-sonnet-4-5",
			Timeout:     30 * time.Second,
			MaxTokens:   1024,
			Temperature: 0.2,
		},
		Orchestrator: Orchestrator{
			MaxTurns: 5,
		},
		Registry: Registry{
			VerifyCards:   false,
			VerifyTimeout: 10 * time.Second,
		},
		Telemetry: Telemetry{
			Enabled:  false,
			Endpoint: "localhost:4317",
		},
		MCP: MCP{
			Enabled: false,
			Port:    "8090",
		},
		GitGuardian: GitGuardian{
			BaseURL: "https://api.gitguardian.com",
			Timeout: 30 * time.Second,
		},
		Agent: Agent{
			Name:        "echo-agent",
			Description: "Echoes every task back",
			Port:        "9101",
			Endpoint:    "http://localhost:9101",
			Worker:      "echo",
			RegistryURL: "http://localhost:8080",
			WorkTimeout: 60 * time.Second,
			LLM: LLM{
				Provider:    "anthropic",
				Model:       "claude-sonnet-4-5",
				Timeout:     60 * time.Second,
				MaxTokens:   2048,
				Temperature: 0.7,
			},
		},
	}
}
