package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds runtime settings for the storefront CLI.
//
// Fields:
//   - ServerURL: base URL of the storefront API.
//   - TokenFile: where the session token is kept between invocations.
//   - Timeout: per-request HTTP timeout.
type Config struct {
	ServerURL string
	TokenFile string
	Timeout   time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:3001"
	c.TokenFile = ".storefront/token"
	c.Timeout = 10 * time.Second
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server url %q", c.ServerURL)
	}
	if c.TokenFile == "" {
		return fmt.Errorf("token file must be set")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// Load applies defaults, then the JSON file at path (when non-empty), then
// the environment.
func Load(path string) (cfg *Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			cfg, err = nil, fmt.Errorf("config: %v", r)
		}
	}()

	cfg = &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, path)
	parseEnv(cfg)
	return cfg, nil
}
