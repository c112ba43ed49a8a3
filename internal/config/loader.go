package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "agora.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "AGORA_PORT")
	setString(&cfg.Server.CORSOrigin, "AGORA_CORS_ORIGIN")
	setString(&cfg.Logging.Level, "AGORA_LOG_LEVEL")
	setString(&cfg.Logging.Service, "AGORA_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "AGORA_LOG_ASYNC")
	setString(&cfg.NATS.URL, "NATS_URL")
	setInt64(&cfg.Cache.MaxSizeMB, "AGORA_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.CardTTL, "AGORA_CACHE_CARD_TTL")
	setBool(&cfg.Cache.Shared, "AGORA_CACHE_SHARED")
	setInt(&cfg.Breaker.MaxFailures, "AGORA_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "AGORA_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "AGORA_RATE_RPS")
	setInt(&cfg.Rate.Burst, "AGORA_RATE_BURST")
	setDuration(&cfg.Link.Timeout, "AGORA_LINK_TIMEOUT")
	setInt(&cfg.Link.MaxConcurrent, "AGORA_LINK_MAX_CONCURRENT")

	// Oracle
	setString(&cfg.Oracle.Provider, "AGORA_ORACLE_PROVIDER")
	setString(&cfg.Oracle.Model, "AGORA_ORACLE_MODEL")
	setString(&cfg.Oracle.BaseURL, "AGORA_ORACLE_BASE_URL")
	setString(&cfg.Oracle.APIKey, "AGORA_ORACLE_API_KEY")
	setDuration(&cfg.Oracle.Timeout, "AGORA_ORACLE_TIMEOUT")
	setInt64(&cfg.Oracle.MaxTokens, "AGORA_ORACLE_MAX_TOKENS")
	setFloat64(&cfg.Oracle.Temperature, "AGORA_ORACLE_TEMPERATURE")

	setInt(&cfg.Orchestrator.MaxTurns, "AGORA_MAX_TURNS")
	setString(&cfg.Pipeline.TemplatesDir, "AGORA_TEMPLATES_DIR")
	setBool(&cfg.Registry.VerifyCards, "AGORA_REGISTRY_VERIFY")
	setDuration(&cfg.Registry.VerifyTimeout, "AGORA_REGISTRY_VERIFY_TIMEOUT")
	setBool(&cfg.Telemetry.Enabled, "AGORA_TELEMETRY_ENABLED")
	setString(&cfg.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.MCP.Enabled, "AGORA_MCP_ENABLED")
	setString(&cfg.MCP.Port, "AGORA_MCP_PORT")
	setString(&cfg.MCP.APIKey, "AGORA_MCP_API_KEY")
	setString(&cfg.GitGuardian.APIKey, "GITGUARDIAN_API_KEY")
	setString(&cfg.GitGuardian.BaseURL, "GITGUARDIAN_API_URL")
	setDuration(&cfg.GitGuardian.Timeout, "AGORA_GITGUARDIAN_TIMEOUT")
	setProviderKey(&cfg.Notify, "slack", "webhook_url", "AGORA_SLACK_WEBHOOK_URL")
	setProviderKey(&cfg.Notify, "discord", "webhook_url", "AGORA_DISCORD_WEBHOOK_URL")

	// Agent host
	setString(&cfg.Agent.Name, "AGORA_AGENT_NAME")
	setString(&cfg.Agent.Description, "AGORA_AGENT_DESCRIPTION")
	setString(&cfg.Agent.Version, "AGORA_AGENT_VERSION")
	setString(&cfg.Agent.Port, "AGORA_AGENT_PORT")
	setString(&cfg.Agent.Endpoint, "AGORA_AGENT_ENDPOINT")
	setString(&cfg.Agent.Worker, "AGORA_AGENT_WORKER")
	setString(&cfg.Agent.Prompt, "AGORA_AGENT_PROMPT")
	setString(&cfg.Agent.RegistryURL, "AGORA_REGISTRY_URL")
	setDuration(&cfg.Agent.WorkTimeout, "AGORA_AGENT_WORK_TIMEOUT")
	setString(&cfg.Agent.LLM.Provider, "AGORA_AGENT_LLM_PROVIDER")
	setString(&cfg.Agent.LLM.Model, "AGORA_AGENT_LLM_MODEL")
	setString(&cfg.Agent.LLM.BaseURL, "AGORA_AGENT_LLM_BASE_URL")
	setString(&cfg.Agent.LLM.APIKey, "AGORA_AGENT_LLM_API_KEY")
	setDuration(&cfg.Agent.LLM.Timeout, "AGORA_AGENT_LLM_TIMEOUT")
	setInt64(&cfg.Agent.LLM.MaxTokens, "AGORA_AGENT_LLM_MAX_TOKENS")
	setFloat64(&cfg.Agent.LLM.Temperature, "AGORA_AGENT_LLM_TEMPERATURE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Link.Timeout <= 0 {
		return errors.New("link.timeout must be positive")
	}
	if cfg.Link.MaxConcurrent < 1 {
		return errors.New("link.max_concurrent must be >= 1")
	}
	if cfg.Oracle.Timeout <= 0 {
		return errors.New("oracle.timeout must be positive")
	}
	if cfg.Orchestrator.MaxTurns < 1 {
		return errors.New("orchestrator.max_turns must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// setProviderKey overlays one notifier provider setting from the
// environment, creating the provider entry when needed.
func setProviderKey(n *Notify, provider, field, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if n.Providers == nil {
		n.Providers = make(map[string]map[string]string)
	}
	if n.Providers[provider] == nil {
		n.Providers[provider] = make(map[string]string)
	}
	n.Providers[provider][field] = v
}
