package config

import (
	"flag"
	"fmt"
	"io"
)

// CLIFlags holds command line overrides. Nil pointers mean the flag
// was not provided; only set flags override the loaded config.
type CLIFlags struct {
	ConfigPath *string
	Port       *string
	LogLevel   *string
	NatsURL    *string
}

// ParseFlags parses command line arguments into CLIFlags.
// Supported: --config/-c, --port/-p, --log-level, --nats-url.
func ParseFlags(args []string) (CLIFlags, error) {
	fs := flag.NewFlagSet("agora", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	configPath := fs.String("config", "", "path to YAML config file")
	configShort := fs.String("c", "", "path to YAML config file (shorthand)")
	port := fs.String("port", "", "HTTP server port")
	portShort := fs.String("p", "", "HTTP server port (shorthand)")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	natsURL := fs.String("nats-url", "", "NATS server URL")

	if err := fs.Parse(args); err != nil {
		return CLIFlags{}, fmt.Errorf("parse flags: %w", err)
	}

	var flags CLIFlags
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "config":
			flags.ConfigPath = configPath
		case "c":
			flags.ConfigPath = configShort
		case "port":
			flags.Port = port
		case "p":
			flags.Port = portShort
		case "log-level":
			flags.LogLevel = logLevel
		case "nats-url":
			flags.NatsURL = natsURL
		}
	})

	return flags, nil
}

// applyCLI overlays set CLI flags onto cfg. CLI has the highest
// precedence: defaults < YAML < ENV < CLI.
func applyCLI(cfg *Config, flags CLIFlags) {
	if flags.Port != nil {
		cfg.Server.Port = *flags.Port
	}
	if flags.LogLevel != nil {
		cfg.Logging.Level = *flags.LogLevel
	}
	if flags.NatsURL != nil {
		cfg.NATS.URL = *flags.NatsURL
	}
}

// LoadWithCLI returns a Config using the full hierarchy:
// defaults < YAML < ENV < CLI. It also returns the resolved config
// file path so callers can report which file was used.
func LoadWithCLI(flags CLIFlags) (*Config, string, error) {
	path := DefaultConfigFile
	if flags.ConfigPath != nil {
		path = *flags.ConfigPath
	}

	cfg := Defaults()

	if err := loadYAML(&cfg, path); err != nil {
		return nil, "", fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)
	applyCLI(&cfg, flags)

	if err := validate(&cfg); err != nil {
		return nil, "", fmt.Errorf("config validate: %w", err)
	}

	return &cfg, path, nil
}
