package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/craneworks/nimbus/errors"
)

// Config is the daemon's YAML configuration file.
type Config struct {
	// Listen is the bind address, e.g. ":8774".
	Listen string `yaml:"listen"`

	// BaseURL is the versioned public endpoint advertised in
	// resource links, e.g. "http://localhost:8774/v1.1".
	BaseURL string `yaml:"base_url"`

	// MaxPageSize caps list responses.
	MaxPageSize int `yaml:"max_page_size"`

	// PasswordLength sets the length of generated admin passwords.
	PasswordLength int `yaml:"password_length"`

	// IncludeIPv6 controls whether address views carry IPv6
	// entries.
	IncludeIPv6 bool `yaml:"include_ipv6"`

	// Logging is a loggo configuration string, e.g.
	// "nimbus=DEBUG".
	Logging string `yaml:"logging"`
}

func defaultConfig() Config {
	return Config{
		Listen:         ":8774",
		BaseURL:        "http://localhost:8774/v1.1",
		MaxPageSize:    1000,
		PasswordLength: 12,
		IncludeIPv6:    true,
	}
}

// loadConfig reads the config file, if given, over the defaults, then
// applies environment overrides.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Configurationf("cannot read config %q: %v", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Configurationf("cannot parse config %q: %v", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides config values from NIMBUS_* environment
// variables. Environment wins over the file, flags win over both.
func (c *Config) applyEnv() {
	if listen := os.Getenv("NIMBUS_LISTEN"); listen != "" {
		c.Listen = listen
	}
	if baseURL := os.Getenv("NIMBUS_BASE_URL"); baseURL != "" {
		c.BaseURL = baseURL
	}
	if logging := os.Getenv("NIMBUS_LOGGING"); logging != "" {
		c.Logging = logging
	}
}
